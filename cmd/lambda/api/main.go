// api Lambda is the multi-action backend for the ClearSkies client app.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	intlambda "github.com/clearskies-aero/clearskies/internal/lambda"
	"github.com/clearskies-aero/clearskies/internal/monitor"
	"github.com/clearskies-aero/clearskies/pkg/types"
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

// handleAPI dispatches to action-specific handlers.
func handleAPI(ctx context.Context, d *intlambda.Deps, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	switch req.Action {
	case "manualWeatherCheck":
		return manualWeatherCheck(ctx, d, req)
	case "getWeatherSnapshot":
		return getWeatherSnapshot(ctx, d, req)
	case "cancelBooking":
		return cancelBooking(ctx, d, req)
	case "confirmReschedule":
		return confirmReschedule(ctx, d, req)
	case "generateRescheduleSuggestions":
		return generateRescheduleSuggestions(ctx, d, req)
	case "updateTrainingLevel":
		return updateTrainingLevel(ctx, d, req)
	case "listNotificationEvents":
		return listNotificationEvents(ctx, d, req)
	case "markNotificationRead":
		return markNotificationRead(ctx, d, req)
	default:
		return errorResponse(types.NewValidationError("action", fmt.Sprintf("unknown action %q", req.Action))), nil
	}
}

func manualWeatherCheck(ctx context.Context, d *intlambda.Deps, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	result, err := d.Monitor.ManualCheck(ctx, req.BookingID, req.CallerUID)
	if err != nil {
		return errorResponse(err), nil
	}
	return intlambda.APIResponse{OK: true, Check: result}, nil
}

func getWeatherSnapshot(ctx context.Context, d *intlambda.Deps, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	if req.CallerUID == "" {
		return errorResponse(monitor.ErrUnauthenticated), nil
	}
	if req.Latitude == nil || req.Longitude == nil {
		return errorResponse(types.NewValidationError("latitude/longitude", "are required")), nil
	}
	obs, err := d.Monitor.GetObservation(ctx, *req.Latitude, *req.Longitude)
	if err != nil {
		return errorResponse(err), nil
	}
	return intlambda.APIResponse{OK: true, Observation: &obs}, nil
}

func cancelBooking(ctx context.Context, d *intlambda.Deps, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	if err := d.Monitor.CancelBooking(ctx, req.BookingID, req.CallerUID); err != nil {
		return errorResponse(err), nil
	}
	return intlambda.APIResponse{OK: true}, nil
}

func confirmReschedule(ctx context.Context, d *intlambda.Deps, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	err := d.Monitor.ConfirmReschedule(ctx, req.BookingID, req.NewDate, req.NewTime, req.AIExplanation, req.CallerUID)
	if err != nil {
		return errorResponse(err), nil
	}
	return intlambda.APIResponse{OK: true}, nil
}

func generateRescheduleSuggestions(ctx context.Context, d *intlambda.Deps, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	if req.Suggestion == nil {
		return errorResponse(types.NewValidationError("suggestion", "is required")), nil
	}
	in := req.Suggestion
	set, err := d.Monitor.GenerateSuggestions(ctx, monitor.SuggestParams{
		BookingID:     in.BookingID,
		StudentID:     in.StudentID,
		StudentName:   in.StudentName,
		TrainingLevel: types.TrainingLevel(in.TrainingLevel),
		ScheduledDate: in.ScheduledDate,
		ScheduledTime: in.ScheduledTime,
		LocationName:  in.LocationName,
		Violations:    in.Violations,
	}, req.CallerUID)
	if err != nil {
		return errorResponse(err), nil
	}
	return intlambda.APIResponse{OK: true, Suggestions: set}, nil
}

func updateTrainingLevel(ctx context.Context, d *intlambda.Deps, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	instructor, err := d.Monitor.UpdateTrainingLevel(ctx, req.CallerUID, types.TrainingLevel(req.NewLevel))
	if err != nil {
		return errorResponse(err), nil
	}
	return intlambda.APIResponse{OK: true, AssignedInstructor: instructor}, nil
}

func listNotificationEvents(ctx context.Context, d *intlambda.Deps, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	events, err := d.Monitor.ListUnread(ctx, req.CallerUID)
	if err != nil {
		return errorResponse(err), nil
	}
	return intlambda.APIResponse{OK: true, Notifications: events}, nil
}

func markNotificationRead(ctx context.Context, d *intlambda.Deps, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	if req.CallerUID == "" {
		return errorResponse(monitor.ErrUnauthenticated), nil
	}
	if req.NotificationID == "" {
		return errorResponse(types.NewValidationError("notificationId", "is required")), nil
	}
	if err := d.Monitor.MarkRead(ctx, req.CallerUID, req.NotificationID); err != nil {
		return errorResponse(err), nil
	}
	return intlambda.APIResponse{OK: true}, nil
}

func errorResponse(err error) intlambda.APIResponse {
	return intlambda.APIResponse{
		Error:     err.Error(),
		ErrorCode: intlambda.ErrorCode(err),
	}
}

func handler(ctx context.Context, req intlambda.APIRequest) (intlambda.APIResponse, error) {
	d, err := getDeps()
	if err != nil {
		return intlambda.APIResponse{}, err
	}
	return handleAPI(ctx, d, req)
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
