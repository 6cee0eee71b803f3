package lambda

import (
	"errors"

	"github.com/clearskies-aero/clearskies/internal/monitor"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

// APIRequest is the multi-action request handled by the api Lambda. CallerUID
// is the authenticated user identity injected by the API gateway authorizer.
type APIRequest struct {
	Action    string `json:"action"`
	CallerUID string `json:"callerUid"`

	BookingID      string `json:"bookingId,omitempty"`
	NewDate        string `json:"newDate,omitempty"`
	NewTime        string `json:"newTime,omitempty"`
	AIExplanation  string `json:"aiExplanation,omitempty"`
	NewLevel       string `json:"newLevel,omitempty"`
	NotificationID string `json:"notificationId,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Suggestion *SuggestionInput `json:"suggestion,omitempty"`
}

// SuggestionInput carries the reschedule suggestion request fields.
type SuggestionInput struct {
	BookingID     string   `json:"bookingId"`
	StudentID     string   `json:"studentId"`
	StudentName   string   `json:"studentName"`
	TrainingLevel string   `json:"trainingLevel"`
	ScheduledDate string   `json:"scheduledDate"`
	ScheduledTime string   `json:"scheduledTime"`
	LocationName  string   `json:"locationName"`
	Violations    []string `json:"violations"`
}

// APIResponse is the api Lambda response envelope. Exactly one data field is
// populated per action; failed calls carry Error and ErrorCode instead.
type APIResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`

	Check              *monitor.ManualCheckResult `json:"check,omitempty"`
	Observation        *types.WeatherObservation  `json:"observation,omitempty"`
	Suggestions        *types.SuggestionSet       `json:"suggestions,omitempty"`
	Notifications      []types.InAppNotification  `json:"notifications,omitempty"`
	AssignedInstructor string                     `json:"assignedInstructor,omitempty"`
}

// SweepResponse is returned by the weather-check Lambda.
type SweepResponse struct {
	Status string `json:"status"`
}

// ProcessResponse is returned by the queue-processor Lambda.
type ProcessResponse struct {
	Status string `json:"status"`
}

// ErrorCode maps service errors onto the wire codes clients branch on.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, monitor.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, monitor.ErrNotFound):
		return "not-found"
	case errors.Is(err, monitor.ErrPermissionDenied):
		return "permission-denied"
	case errors.Is(err, monitor.ErrNotScheduled), errors.Is(err, monitor.ErrNotConfigured):
		return "failed-precondition"
	case types.IsValidation(err):
		return "invalid-argument"
	case types.IsTransport(err):
		return "unavailable"
	default:
		return "internal"
	}
}
