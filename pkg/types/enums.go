// Package types defines the public domain types for the ClearSkies flight-training weather monitor.
package types

// TrainingLevel is the pilot certification tier that selects which numeric
// safety thresholds apply.
type TrainingLevel string

// TrainingLevel values enumerate the supported certification tiers.
const (
	LevelStudent    TrainingLevel = "student"
	LevelPrivate    TrainingLevel = "private"
	LevelInstrument TrainingLevel = "instrument"
)

// IsValid reports whether l is one of the known training levels.
func (l TrainingLevel) IsValid() bool {
	switch l {
	case LevelStudent, LevelPrivate, LevelInstrument:
		return true
	}
	return false
}

// Label returns the human-readable pilot label used in violation strings,
// prompts and email copy.
func (l TrainingLevel) Label() string {
	switch l {
	case LevelPrivate:
		return "Private Pilot"
	case LevelInstrument:
		return "Instrument Rated"
	default:
		return "Student Pilot"
	}
}

// SafetyStatus is the three-tier classification produced by the rule engine.
type SafetyStatus string

// SafetyStatus values, ordered from benign to blocking.
const (
	StatusSafe    SafetyStatus = "safe"
	StatusCaution SafetyStatus = "caution"
	StatusUnsafe  SafetyStatus = "unsafe"
)

// BookingStatus is the lifecycle state of a flight booking.
type BookingStatus string

// BookingStatus values. Bookings are never deleted, only transitioned.
const (
	BookingScheduled BookingStatus = "scheduled"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// NotificationType identifies what a notification is about.
type NotificationType string

// NotificationType values enumerate the supported notification kinds.
const (
	NotifyWeatherAlert   NotificationType = "weather_alert"
	NotifyReschedule     NotificationType = "reschedule_confirmation"
	NotifyWeatherCleared NotificationType = "weather_improved"
	NotifyCancellation   NotificationType = "cancellation"
)

// NotificationChannel is the delivery channel for a queued notification.
type NotificationChannel string

// ChannelEmail is the only outbound channel; in-app events are written
// eagerly at enqueue time and do not pass through the queue.
const ChannelEmail NotificationChannel = "email"

// Audience distinguishes who a notification copy is addressed to.
type Audience string

// Audience values.
const (
	AudienceStudent    Audience = "student"
	AudienceInstructor Audience = "instructor"
)

// QueueStatus is the delivery state of a notification queue record.
type QueueStatus string

// QueueStatus values. "sent" and "failed" are terminal; an undeliverable
// record is marked "sent" with a descriptive lastError rather than retried
// forever.
const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueSent       QueueStatus = "sent"
	QueueFailed     QueueStatus = "failed"
)

// Role distinguishes student from instructor accounts.
type Role string

// Role values.
const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// WeatherProvider tags where an observation came from.
type WeatherProvider string

// WeatherProvider values: live WeatherAPI data vs. a frozen demo snapshot.
const (
	ProviderWeatherAPI WeatherProvider = "weatherapi"
	ProviderDemo       WeatherProvider = "demo"
)

// ErrorLogType classifies rows in the operator error log.
type ErrorLogType string

// ErrorLogType values.
const (
	ErrorWeatherAPI ErrorLogType = "weather_api"
	ErrorStore      ErrorLogType = "store"
	ErrorOpenAI     ErrorLogType = "openai_api"
)

// AlertType defines the operator alert sink type.
type AlertType string

// AlertType values enumerate the supported alert sink backends.
const (
	AlertConsole AlertType = "console"
	AlertWebhook AlertType = "webhook"
	AlertSNS     AlertType = "sns"
)

// AlertLevel is the severity of an operator alert.
type AlertLevel string

// AlertLevel values.
const (
	AlertLevelInfo    AlertLevel = "info"
	AlertLevelWarning AlertLevel = "warning"
	AlertLevelError   AlertLevel = "error"
)
