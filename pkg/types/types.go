package types

import "time"

// Hazards is the boolean hazard set derived from a weather observation's
// condition text plus temperature and cloud cover.
type Hazards struct {
	Thunderstorm  bool `json:"hasThunderstorm"`
	Fog           bool `json:"hasFog"`
	Precipitation bool `json:"hasPrecipitation"`
	IcingRisk     bool `json:"icingRisk"`
}

// WeatherObservation is a single point-in-time weather reading. Immutable
// once produced; demo bookings carry a frozen copy instead of fetching live.
type WeatherObservation struct {
	VisibilityMiles float64         `json:"visibilityMiles"`
	WindKts         float64         `json:"windKts"`
	GustKts         float64         `json:"gustKts"`
	CloudPercent    float64         `json:"cloudPercent"`
	TempC           float64         `json:"tempC"`
	ConditionText   string          `json:"conditionText"`
	Hazards         Hazards         `json:"hazards"`
	ObservedAt      time.Time       `json:"observedAt"`
	Provider        WeatherProvider `json:"provider"`
}

// VerdictMetrics echoes the inputs a verdict was computed from, for
// auditability. InferredCeilingFt is nil when cloud cover was not a finite
// number.
type VerdictMetrics struct {
	VisibilityMiles   float64  `json:"visibilityMiles"`
	WindKts           float64  `json:"windKts"`
	GustKts           float64  `json:"gustKts"`
	CloudPercent      float64  `json:"cloudPercent"`
	TempC             float64  `json:"tempC"`
	Hazards           Hazards  `json:"hazards"`
	InferredCeilingFt *float64 `json:"inferredCeilingFt"`
}

// SafetyVerdict is the rule engine's output for one observation/level pair.
// Violations is non-empty exactly when Status is unsafe. Derived value only:
// it is recomputed on every re-evaluation and never stored on its own.
type SafetyVerdict struct {
	Status     SafetyStatus   `json:"status"`
	Violations []string       `json:"violations"`
	Metrics    VerdictMetrics `json:"metrics"`
}

// Location is a named departure point.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Booking is a scheduled training flight. A booking with Demo set and no
// DemoWeather snapshot is ineligible for evaluation and is skipped, never
// evaluated against live data.
type Booking struct {
	ID                 string              `json:"id"`
	StudentID          string              `json:"studentId"`
	StudentName        string              `json:"studentName,omitempty"`
	TrainingLevel      TrainingLevel       `json:"trainingLevel,omitempty"`
	AssignedInstructor string              `json:"assignedInstructor,omitempty"`
	ScheduledDate      string              `json:"scheduledDate"` // YYYY-MM-DD
	ScheduledTime      string              `json:"scheduledTime,omitempty"`
	Departure          *Location           `json:"departureLocation,omitempty"`
	Status             BookingStatus       `json:"status"`
	WeatherStatus      SafetyStatus        `json:"weatherStatus,omitempty"`
	LastWeatherCheck   *time.Time          `json:"lastWeatherCheck,omitempty"`
	LastModified       *time.Time          `json:"lastModified,omitempty"`
	Demo               bool                `json:"demo,omitempty"`
	DemoWeather        *WeatherObservation `json:"demoWeather,omitempty"`
	CancelledBy        string              `json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time          `json:"cancelledAt,omitempty"`
}

// NotificationKey is the dedupe key for a queue record. Re-enqueuing the same
// tuple updates the existing record instead of creating a duplicate.
type NotificationKey struct {
	BookingID   string              `json:"bookingId"`
	RecipientID string              `json:"recipientId"`
	Type        NotificationType    `json:"type"`
	Channel     NotificationChannel `json:"channel"`
}

// EmailContext is the denormalized payload a queue record carries so the
// processor can render content without re-reading the booking.
type EmailContext struct {
	ScheduledDate  string        `json:"scheduledDate,omitempty"`
	ScheduledTime  string        `json:"scheduledTime,omitempty"`
	LocationName   string        `json:"locationName,omitempty"`
	TrainingLevel  TrainingLevel `json:"trainingLevel,omitempty"`
	StudentName    string        `json:"studentName,omitempty"`
	RecipientName  string        `json:"recipientName,omitempty"`
	RecipientEmail string        `json:"recipientEmail,omitempty"`
	Violations     []string      `json:"violations,omitempty"`
	AIExplanation  string        `json:"aiExplanation,omitempty"`
	Options        []Suggestion  `json:"rescheduleOptions,omitempty"`
	ActionURL      string        `json:"actionUrl,omitempty"`
	Audience       Audience      `json:"audience,omitempty"`
}

// NotificationRecord is the unit the queue manager owns. Attempts only ever
// increases; a record in "sent" is never reset to "pending" by normal flow.
type NotificationRecord struct {
	NotificationKey
	StudentID string       `json:"studentId"`
	Audience  Audience     `json:"audience"`
	Status    QueueStatus  `json:"status"`
	Attempts  int          `json:"attempts"`
	DueAt     time.Time    `json:"scheduledAt"`
	Payload   EmailContext `json:"payload"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	LastError string       `json:"lastError,omitempty"`
}

// InAppNotification is the lightweight unread-flagged event shown in the
// dashboard dropdown. Idempotent by (UserID, BookingID, Type); created
// eagerly at enqueue time, independent of email delivery.
type InAppNotification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	BookingID string           `json:"bookingId"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Suggestion is one validated reschedule option.
type Suggestion struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

// SuggestionSet is the validated output of one AI reschedule generation:
// exactly three suggestions, pairwise unique by (date, time).
type SuggestionSet struct {
	Explanation string       `json:"explanation"`
	Suggestions []Suggestion `json:"suggestions"`
}

// RescheduleEntry is one persisted AI generation under a booking.
// Append-only history; never mutated.
type RescheduleEntry struct {
	ID            string        `json:"id"`
	Explanation   string        `json:"explanation"`
	Suggestions   []Suggestion  `json:"suggestions"`
	Model         string        `json:"model"`
	PromptVersion string        `json:"promptVersion"`
	TrainingLevel TrainingLevel `json:"trainingLevel"`
	Violations    []string      `json:"violations,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// NotificationSettings are per-student email preference flags. A nil flag
// means the preference was never set and defaults to enabled.
type NotificationSettings struct {
	WeatherAlerts   *bool `json:"emailWeatherAlerts,omitempty"`
	Reschedule      *bool `json:"emailReschedule,omitempty"`
	WeatherImproved *bool `json:"emailWeatherImproved,omitempty"`
}

// Allows reports whether the settings permit sending the given type.
// Unknown types are always allowed.
func (s *NotificationSettings) Allows(t NotificationType) bool {
	if s == nil {
		return true
	}
	var flag *bool
	switch t {
	case NotifyWeatherAlert:
		flag = s.WeatherAlerts
	case NotifyReschedule:
		flag = s.Reschedule
	case NotifyWeatherCleared:
		flag = s.WeatherImproved
	default:
		return true
	}
	return flag == nil || *flag
}

// Student is a student or instructor profile.
type Student struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name,omitempty"`
	Email              string                `json:"email,omitempty"`
	Role               Role                  `json:"role,omitempty"`
	TrainingLevel      TrainingLevel         `json:"trainingLevel,omitempty"`
	AssignedInstructor string                `json:"assignedInstructor,omitempty"`
	Settings           *NotificationSettings `json:"settings,omitempty"`
}

// AuditEntry is one row of the append-only notification delivery log.
type AuditEntry struct {
	Type         NotificationType    `json:"type"`
	Channel      NotificationChannel `json:"channel"`
	BookingID    string              `json:"bookingId"`
	UserID       string              `json:"userId"`
	Status       QueueStatus         `json:"status"` // sent or failed
	Attempt      int                 `json:"attempt"`
	MessageID    string              `json:"messageId,omitempty"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// ErrorEntry is one row of the append-only operator error log.
type ErrorEntry struct {
	ID         string       `json:"id"`
	Type       ErrorLogType `json:"type"`
	Message    string       `json:"message"`
	BookingID  string       `json:"bookingId,omitempty"`
	StudentID  string       `json:"studentId,omitempty"`
	RetryCount int          `json:"retryCount"`
	Resolved   bool         `json:"resolved"`
	Timestamp  time.Time    `json:"timestamp"`
}

// Alert is an operator-facing alert dispatched to the configured sinks.
type Alert struct {
	Level     AlertLevel `json:"level"`
	BookingID string     `json:"bookingId,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}
