// weather-check Lambda runs the scheduled safety sweep over upcoming bookings.
package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	intlambda "github.com/clearskies-aero/clearskies/internal/lambda"
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background())
	})
	return deps, depsErr
}

func handler(ctx context.Context) (intlambda.SweepResponse, error) {
	d, err := getDeps()
	if err != nil {
		return intlambda.SweepResponse{}, err
	}
	if err := d.Monitor.CheckDueBookings(ctx); err != nil {
		d.Logger.Error("weather sweep failed", "error", err)
		return intlambda.SweepResponse{}, err
	}
	return intlambda.SweepResponse{Status: "ok"}, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
