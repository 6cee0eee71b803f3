// queue-processor Lambda drains due notification queue records.
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

func handler(ctx context.Context) (intlambda.ProcessResponse, error) {
	d, err := getDeps()
	if err != nil {
		return intlambda.ProcessResponse{}, err
	}
	if err := d.Processor.ProcessDue(ctx); err != nil {
		d.Logger.Error("queue processing failed", "error", err)
		return intlambda.ProcessResponse{}, err
	}
	return intlambda.ProcessResponse{Status: "ok"}, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
