// Package monitor orchestrates booking re-evaluation: the periodic weather
// sweep plus the user-facing booking operations built on top of it.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/clearskies-aero/clearskies/internal/metrics"
	"github.com/clearskies-aero/clearskies/internal/queue"
	"github.com/clearskies-aero/clearskies/internal/reschedule"
	"github.com/clearskies-aero/clearskies/internal/safety"
	"github.com/clearskies-aero/clearskies/internal/store"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

const (
	defaultLookaheadDays = 7
	defaultConcurrency   = 4
	unreadLimit          = 10
)

// Sentinel errors mapped to caller-facing failure codes at the entry points.
var (
	ErrUnauthenticated  = errors.New("authentication is required")
	ErrNotFound         = errors.New("flight booking not found")
	ErrPermissionDenied = errors.New("not authorized for this flight")
	ErrNotScheduled     = errors.New("only scheduled flights can be modified")
	ErrNotConfigured    = errors.New("reschedule suggestions are not configured")
)

// Fetcher provides live weather observations.
type Fetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (types.WeatherObservation, error)
}

// Notifier enqueues notifications for delivery.
type Notifier interface {
	Enqueue(ctx context.Context, p queue.EnqueueParams) error
	EnqueueForRecipient(ctx context.Context, p queue.EnqueueParams, recipientID string, audience types.Audience) error
}

// Suggester generates validated reschedule suggestions.
type Suggester interface {
	GenerateSuggestions(ctx context.Context, req reschedule.Request) (*types.SuggestionSet, error)
}

// Service ties the store, weather source and notification queue together.
type Service struct {
	store         store.Store
	weather       Fetcher
	notifier      Notifier
	suggester     Suggester
	lookaheadDays int
	concurrency   int
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSuggester enables AI reschedule suggestions.
func WithSuggester(s Suggester) Option {
	return func(svc *Service) { svc.suggester = s }
}

// WithLookahead overrides how many days ahead the sweep scans.
func WithLookahead(days int) Option {
	return func(svc *Service) {
		if days > 0 {
			svc.lookaheadDays = days
		}
	}
}

// WithConcurrency overrides the sweep's parallel booking limit.
func WithConcurrency(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// New creates a monitor service.
func New(s store.Store, weather Fetcher, notifier Notifier, opts ...Option) *Service {
	svc := &Service{
		store:         s,
		weather:       weather,
		notifier:      notifier,
		lookaheadDays: defaultLookaheadDays,
		concurrency:   defaultConcurrency,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// CheckDueBookings re-evaluates every scheduled booking inside the lookahead
// window. Individual booking failures are logged to the operator error log
// and never abort the sweep.
func (s *Service) CheckDueBookings(ctx context.Context) error {
	today := s.now().UTC()
	fromDate := today.Format("2006-01-02")
	toDate := today.AddDate(0, 0, s.lookaheadDays).Format("2006-01-02")

	s.logger.Info("starting weather check", "fromDate", fromDate, "toDate", toDate)

	bookings, err := s.store.ListScheduledBookings(ctx, fromDate, toDate)
	if err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to query bookings for weather check", "", "", 0)
		return err
	}
	if len(bookings) == 0 {
		s.logger.Info("no scheduled bookings requiring weather check")
		return nil
	}

	resolver := s.newLevelResolver()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, booking := range bookings {
		booking := booking
		g.Go(func() error {
			s.checkBooking(gctx, booking, resolver)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("completed weather check", "processed", len(bookings))
	return nil
}

func (s *Service) checkBooking(ctx context.Context, booking types.Booking, resolver *levelResolver) {
	if booking.Status != types.BookingScheduled {
		return
	}

	demo := booking.Demo
	if demo && booking.DemoWeather == nil {
		s.logger.Warn("demo booking missing weather snapshot, skipping", "bookingID", booking.ID)
		return
	}
	if !demo && !hasCoordinates(booking.Departure) {
		s.logError(ctx, types.ErrorStore, "Booking missing valid departure coordinates", booking.ID, booking.StudentID, 0)
		return
	}

	level := booking.TrainingLevel
	if !level.IsValid() {
		level = resolver.resolve(ctx, booking.StudentID)
	}

	obs, err := s.observationFor(ctx, booking)
	if err != nil {
		s.logFetchError(ctx, err, booking.ID, booking.StudentID)
		return
	}

	verdict := safety.Evaluate(obs, level)
	metrics.WeatherChecksTotal.Add(1)
	countVerdict(verdict.Status)

	if err := s.persistVerdict(ctx, booking.ID, verdict.Status, level, false); err != nil {
		s.logError(ctx, types.ErrorStore, err.Error(), booking.ID, booking.StudentID, 0)
		return
	}

	if verdict.Status == types.StatusUnsafe && booking.StudentID != "" {
		s.enqueueWeatherAlert(ctx, booking, level, verdict.Violations)
	}

	s.logger.Info("updated booking weather status",
		"bookingID", booking.ID,
		"status", verdict.Status,
		"trainingLevel", level,
		"violations", len(verdict.Violations),
		"visibility", obs.VisibilityMiles,
		"wind", obs.WindKts,
		"cloud", obs.CloudPercent,
		"demoSnapshot", demo)
}

// ManualCheckResult is the synchronous response of a user-requested refresh.
type ManualCheckResult struct {
	Status        types.SafetyStatus   `json:"status"`
	TrainingLevel types.TrainingLevel  `json:"trainingLevel"`
	Violations    []string             `json:"violations"`
	Metrics       types.VerdictMetrics `json:"metrics"`
}

// ManualCheck refreshes one booking's weather status on user request. Only
// the booking's own student may call it, and only while scheduled.
func (s *Service) ManualCheck(ctx context.Context, bookingID, callerUID string) (*ManualCheckResult, error) {
	if callerUID == "" {
		return nil, ErrUnauthenticated
	}
	bookingID, err := requireString(bookingID, "bookingId")
	if err != nil {
		return nil, err
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to load booking for manual weather check", bookingID, callerUID, 0)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, bookingID)
	}
	if booking.StudentID != "" && booking.StudentID != callerUID {
		return nil, ErrPermissionDenied
	}
	if booking.Status != types.BookingScheduled {
		return nil, ErrNotScheduled
	}
	if !hasCoordinates(booking.Departure) {
		s.logError(ctx, types.ErrorStore, "Booking missing valid departure coordinates", bookingID, booking.StudentID, 0)
		return nil, types.NewValidationError("departureLocation", "is missing valid coordinates")
	}

	level := booking.TrainingLevel
	if !level.IsValid() {
		level = s.newLevelResolver().resolve(ctx, booking.StudentID)
	}

	obs, err := s.observationFor(ctx, *booking)
	if err != nil {
		s.logFetchError(ctx, err, bookingID, booking.StudentID)
		return nil, err
	}

	verdict := safety.Evaluate(obs, level)
	metrics.WeatherChecksTotal.Add(1)
	countVerdict(verdict.Status)

	if err := s.persistVerdict(ctx, bookingID, verdict.Status, level, true); err != nil {
		s.logError(ctx, types.ErrorStore, err.Error(), bookingID, booking.StudentID, 0)
		return nil, err
	}

	if verdict.Status == types.StatusUnsafe && booking.StudentID != "" {
		s.enqueueWeatherAlert(ctx, *booking, level, verdict.Violations)
	}

	s.logger.Info("manual weather refresh completed",
		"bookingID", bookingID,
		"status", verdict.Status,
		"trainingLevel", level)

	return &ManualCheckResult{
		Status:        verdict.Status,
		TrainingLevel: level,
		Violations:    verdict.Violations,
		Metrics:       verdict.Metrics,
	}, nil
}

// GetObservation fetches a live observation for arbitrary coordinates.
func (s *Service) GetObservation(ctx context.Context, lat, lon float64) (types.WeatherObservation, error) {
	obs, err := s.weather.Fetch(ctx, lat, lon)
	if err != nil {
		if !types.IsValidation(err) {
			s.logError(ctx, types.ErrorWeatherAPI, "Failed to fetch weather observation", "", "", 0)
		}
		return types.WeatherObservation{}, err
	}
	return obs, nil
}

// CancelBooking cancels a scheduled flight and notifies the party that did
// not initiate the cancellation.
func (s *Service) CancelBooking(ctx context.Context, bookingID, callerUID string) error {
	if callerUID == "" {
		return ErrUnauthenticated
	}
	bookingID, err := requireString(bookingID, "bookingId")
	if err != nil {
		return err
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to load booking for cancellation", bookingID, callerUID, 0)
		return fmt.Errorf("%w: %s", ErrNotFound, bookingID)
	}
	if booking.Status != types.BookingScheduled {
		return ErrNotScheduled
	}

	isStudent := booking.StudentID == callerUID
	isInstructor := booking.AssignedInstructor == callerUID
	if !isStudent && !isInstructor {
		return ErrPermissionDenied
	}

	now := s.now().UTC()
	booking.Status = types.BookingCancelled
	booking.CancelledBy = callerUID
	booking.CancelledAt = &now
	booking.LastModified = &now
	if err := s.store.PutBooking(ctx, *booking); err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to update booking during cancellation", bookingID, booking.StudentID, 0)
		return err
	}

	// Notify only the other party, never the person who cancelled.
	if booking.StudentID != "" {
		params := queue.EnqueueParams{
			BookingID: bookingID,
			StudentID: booking.StudentID,
			Type:      types.NotifyCancellation,
			Payload: types.EmailContext{
				ScheduledDate: booking.ScheduledDate,
				ScheduledTime: booking.ScheduledTime,
				LocationName:  locationName(booking.Departure),
				StudentName:   booking.StudentName,
			},
		}
		var enqueueErr error
		if isStudent && booking.AssignedInstructor != "" {
			enqueueErr = s.notifier.EnqueueForRecipient(ctx, params, booking.AssignedInstructor, types.AudienceInstructor)
		} else if isInstructor {
			enqueueErr = s.notifier.EnqueueForRecipient(ctx, params, booking.StudentID, types.AudienceStudent)
		}
		if enqueueErr != nil {
			s.logError(ctx, types.ErrorStore, "Failed to enqueue cancellation notification", bookingID, booking.StudentID, 0)
		}
	}

	s.logger.Info("booking cancelled",
		"bookingID", bookingID,
		"cancelledBy", callerUID,
		"studentID", booking.StudentID)
	return nil
}

// ConfirmReschedule moves a scheduled flight to a new date and time. Only the
// booking's student may confirm; the assigned instructor is notified.
func (s *Service) ConfirmReschedule(ctx context.Context, bookingID, newDate, newTime, aiExplanation, callerUID string) error {
	if callerUID == "" {
		return ErrUnauthenticated
	}
	bookingID, err := requireString(bookingID, "bookingId")
	if err != nil {
		return err
	}
	newDate, err = requireString(newDate, "newDate")
	if err != nil {
		return err
	}
	newTime, err = requireString(newTime, "newTime")
	if err != nil {
		return err
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to load booking for reschedule", bookingID, callerUID, 0)
		return fmt.Errorf("%w: %s", ErrNotFound, bookingID)
	}
	if booking.Status != types.BookingScheduled {
		return ErrNotScheduled
	}

	isStudent := booking.StudentID == callerUID
	isInstructor := booking.AssignedInstructor == callerUID
	if !isStudent && !isInstructor {
		return ErrPermissionDenied
	}
	// Instructors can cancel but not reschedule.
	if !isStudent {
		return fmt.Errorf("%w: only students can reschedule flights", ErrPermissionDenied)
	}

	now := s.now().UTC()
	booking.ScheduledDate = newDate
	booking.ScheduledTime = newTime
	booking.WeatherStatus = ""
	booking.LastWeatherCheck = nil
	booking.LastModified = &now
	if err := s.store.PutBooking(ctx, *booking); err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to update booking during reschedule", bookingID, booking.StudentID, 0)
		return err
	}

	if booking.AssignedInstructor != "" {
		err := s.notifier.EnqueueForRecipient(ctx, queue.EnqueueParams{
			BookingID: bookingID,
			StudentID: booking.StudentID,
			Type:      types.NotifyReschedule,
			Payload: types.EmailContext{
				ScheduledDate: newDate,
				ScheduledTime: newTime,
				LocationName:  locationName(booking.Departure),
				StudentName:   booking.StudentName,
				AIExplanation: aiExplanation,
			},
		}, booking.AssignedInstructor, types.AudienceInstructor)
		if err != nil {
			s.logError(ctx, types.ErrorStore, "Failed to enqueue reschedule notification", bookingID, booking.StudentID, 0)
		}
	}

	s.logger.Info("booking rescheduled",
		"bookingID", bookingID,
		"rescheduledBy", callerUID,
		"newDate", newDate,
		"newTime", newTime)
	return nil
}

// SuggestParams is the caller-supplied input for suggestion generation.
type SuggestParams struct {
	BookingID     string
	StudentID     string
	StudentName   string
	TrainingLevel types.TrainingLevel
	ScheduledDate string
	ScheduledTime string
	LocationName  string
	Violations    []string
}

// GenerateSuggestions validates caller input and runs the AI reschedule flow.
func (s *Service) GenerateSuggestions(ctx context.Context, p SuggestParams, callerUID string) (*types.SuggestionSet, error) {
	if callerUID == "" {
		return nil, ErrUnauthenticated
	}
	if s.suggester == nil {
		return nil, ErrNotConfigured
	}

	var err error
	if p.BookingID, err = requireString(p.BookingID, "bookingId"); err != nil {
		return nil, err
	}
	if p.StudentName, err = requireString(p.StudentName, "studentName"); err != nil {
		return nil, err
	}
	if !p.TrainingLevel.IsValid() {
		return nil, types.NewValidationError("trainingLevel", "must be one of: student, private, instrument")
	}
	if p.ScheduledDate, err = requireString(p.ScheduledDate, "scheduledDate"); err != nil {
		return nil, err
	}
	if p.ScheduledTime, err = requireString(p.ScheduledTime, "scheduledTime"); err != nil {
		return nil, err
	}
	if p.LocationName, err = requireString(p.LocationName, "locationName"); err != nil {
		return nil, err
	}

	var violations []string
	for _, v := range p.Violations {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			violations = append(violations, trimmed)
		}
	}

	result, err := s.suggester.GenerateSuggestions(ctx, reschedule.Request{
		BookingID:     p.BookingID,
		StudentName:   p.StudentName,
		TrainingLevel: p.TrainingLevel,
		ScheduledDate: p.ScheduledDate,
		ScheduledTime: p.ScheduledTime,
		LocationName:  p.LocationName,
		Violations:    violations,
	})
	if err != nil {
		s.logError(ctx, types.ErrorOpenAI, err.Error(), p.BookingID, p.StudentID, 0)
		return nil, err
	}

	s.logger.Info("generated reschedule suggestions",
		"bookingID", p.BookingID,
		"requester", callerUID)
	return result, nil
}

// UpdateTrainingLevel changes a student's certification tier, reassigns an
// instructor when dropping back to student level, wipes stale AI suggestions
// and re-evaluates every scheduled booking under the new thresholds. Returns
// the assigned instructor ID, empty when none.
func (s *Service) UpdateTrainingLevel(ctx context.Context, uid string, newLevel types.TrainingLevel) (string, error) {
	if uid == "" {
		return "", ErrUnauthenticated
	}
	if !newLevel.IsValid() {
		return "", types.NewValidationError("trainingLevel", "must be one of: student, private, instrument")
	}

	student, err := s.store.GetStudent(ctx, uid)
	if err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to load student profile", "", uid, 0)
		return "", fmt.Errorf("student profile not found: %w", err)
	}
	role := student.Role
	if role == "" {
		role = types.RoleStudent
	}
	if role != types.RoleStudent {
		return "", fmt.Errorf("%w: only student accounts can change training level", ErrPermissionDenied)
	}

	var assignedInstructor string
	if newLevel == types.LevelStudent {
		assignedInstructor = s.firstInstructorID(ctx)
	}

	student.TrainingLevel = newLevel
	student.AssignedInstructor = assignedInstructor
	if err := s.store.PutStudent(ctx, *student); err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to update student profile", "", uid, 0)
		return "", err
	}

	bookings, err := s.store.ListStudentBookings(ctx, uid, 100)
	if err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to list bookings for re-evaluation", "", uid, 0)
		return assignedInstructor, nil
	}

	updated := 0
	for _, booking := range bookings {
		if booking.Status != types.BookingScheduled {
			continue
		}
		s.reevaluateBooking(ctx, booking, newLevel, assignedInstructor)
		updated++
	}

	s.logger.Info("training level updated",
		"studentID", uid,
		"trainingLevel", newLevel,
		"assignedInstructor", assignedInstructor,
		"bookingsUpdated", updated)
	return assignedInstructor, nil
}

// reevaluateBooking applies a training level change to one scheduled booking:
// old suggestions are deleted, then the weather verdict is recomputed from
// the demo snapshot or a live fetch. A fetch failure clears the status rather
// than leaving a verdict computed under the previous level.
func (s *Service) reevaluateBooking(ctx context.Context, booking types.Booking, newLevel types.TrainingLevel, assignedInstructor string) {
	if err := s.store.DeleteReschedules(ctx, booking.ID); err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to delete stale reschedule suggestions", booking.ID, booking.StudentID, 0)
	}

	now := s.now().UTC()
	booking.TrainingLevel = newLevel
	booking.AssignedInstructor = assignedInstructor
	booking.LastModified = &now

	switch {
	case booking.Demo && booking.DemoWeather != nil:
		verdict := safety.Evaluate(*booking.DemoWeather, newLevel)
		countVerdict(verdict.Status)
		booking.WeatherStatus = verdict.Status
		booking.LastWeatherCheck = &now
		s.logger.Info("weather re-evaluated for demo booking",
			"bookingID", booking.ID,
			"trainingLevel", newLevel,
			"weatherStatus", verdict.Status)

	case booking.Demo:
		s.logger.Warn("demo booking missing weather snapshot", "bookingID", booking.ID)

	case hasCoordinates(booking.Departure):
		obs, err := s.weather.Fetch(ctx, booking.Departure.Lat, booking.Departure.Lon)
		if err != nil {
			s.logFetchError(ctx, err, booking.ID, booking.StudentID)
			booking.WeatherStatus = ""
			booking.LastWeatherCheck = nil
			s.logger.Warn("weather re-evaluation failed, cleared status",
				"bookingID", booking.ID,
				"trainingLevel", newLevel,
				"error", err)
			break
		}
		verdict := safety.Evaluate(obs, newLevel)
		countVerdict(verdict.Status)
		booking.WeatherStatus = verdict.Status
		booking.LastWeatherCheck = &now
		s.logger.Info("weather re-evaluated for booking",
			"bookingID", booking.ID,
			"trainingLevel", newLevel,
			"weatherStatus", verdict.Status)

	default:
		booking.WeatherStatus = ""
		booking.LastWeatherCheck = nil
		s.logger.Warn("no valid departure location for booking",
			"bookingID", booking.ID,
			"trainingLevel", newLevel)
	}

	if err := s.store.PutBooking(ctx, booking); err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to update booking after level change", booking.ID, booking.StudentID, 0)
	}
}

// ListUnread returns the caller's newest unread in-app notifications.
func (s *Service) ListUnread(ctx context.Context, uid string) ([]types.InAppNotification, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	events, err := s.store.ListUnreadNotifications(ctx, uid)
	if err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to list notification events", "", uid, 0)
		return nil, err
	}
	if len(events) > unreadLimit {
		events = events[:unreadLimit]
	}
	return events, nil
}

// MarkRead marks one of the caller's in-app notifications as read.
func (s *Service) MarkRead(ctx context.Context, uid, notificationID string) error {
	if uid == "" {
		return ErrUnauthenticated
	}
	notificationID, err := requireString(notificationID, "notificationId")
	if err != nil {
		return err
	}
	return s.store.MarkNotificationRead(ctx, uid, notificationID)
}

func (s *Service) observationFor(ctx context.Context, booking types.Booking) (types.WeatherObservation, error) {
	if booking.Demo && booking.DemoWeather != nil {
		return *booking.DemoWeather, nil
	}
	if booking.Demo {
		s.logger.Warn("demo booking missing weather snapshot", "bookingID", booking.ID)
	}
	if !hasCoordinates(booking.Departure) {
		return types.WeatherObservation{}, types.NewValidationError("departureLocation", "is missing valid coordinates")
	}
	return s.weather.Fetch(ctx, booking.Departure.Lat, booking.Departure.Lon)
}

// persistVerdict re-reads the booking so concurrent field updates are not
// clobbered by the sweep's stale copy.
func (s *Service) persistVerdict(ctx context.Context, bookingID string, status types.SafetyStatus, level types.TrainingLevel, storeLevel bool) error {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	booking.WeatherStatus = status
	booking.LastWeatherCheck = &now
	if storeLevel {
		booking.TrainingLevel = level
	}
	return s.store.PutBooking(ctx, *booking)
}

func (s *Service) enqueueWeatherAlert(ctx context.Context, booking types.Booking, level types.TrainingLevel, violations []string) {
	err := s.notifier.Enqueue(ctx, queue.EnqueueParams{
		BookingID:    booking.ID,
		StudentID:    booking.StudentID,
		InstructorID: booking.AssignedInstructor,
		Type:         types.NotifyWeatherAlert,
		Payload: types.EmailContext{
			ScheduledDate: booking.ScheduledDate,
			ScheduledTime: booking.ScheduledTime,
			LocationName:  locationName(booking.Departure),
			TrainingLevel: level,
			StudentName:   booking.StudentName,
			Violations:    violations,
		},
	})
	if err != nil {
		s.logError(ctx, types.ErrorStore, "Failed to enqueue weather alert notification", booking.ID, booking.StudentID, 0)
	}
}

func (s *Service) logFetchError(ctx context.Context, err error, bookingID, studentID string) {
	metrics.WeatherCheckErrors.Add(1)
	var transport *types.TransportError
	if errors.As(err, &transport) {
		retries := transport.Attempts - 1
		if retries < 0 {
			retries = 0
		}
		s.logError(ctx, types.ErrorWeatherAPI, err.Error(), bookingID, studentID, retries)
		return
	}
	s.logError(ctx, types.ErrorStore, err.Error(), bookingID, studentID, 0)
}

func (s *Service) logError(ctx context.Context, logType types.ErrorLogType, message, bookingID, studentID string, retryCount int) {
	s.logger.Error(message,
		"type", logType,
		"bookingID", bookingID,
		"studentID", studentID)

	err := s.store.AppendError(ctx, types.ErrorEntry{
		ID:         ulid.Make().String(),
		Type:       logType,
		Message:    message,
		BookingID:  bookingID,
		StudentID:  studentID,
		RetryCount: retryCount,
		Resolved:   false,
		Timestamp:  s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to append operator error log", "originalMessage", message, "error", err)
	}
}

func (s *Service) firstInstructorID(ctx context.Context) string {
	instructors, err := s.store.ListInstructors(ctx)
	if err != nil {
		s.logger.Error("failed to resolve instructor", "error", err)
		return ""
	}
	if len(instructors) == 0 {
		return ""
	}
	return instructors[0].ID
}

func countVerdict(status types.SafetyStatus) {
	switch status {
	case types.StatusUnsafe:
		metrics.UnsafeVerdicts.Add(1)
	case types.StatusCaution:
		metrics.CautionVerdicts.Add(1)
	}
}

func hasCoordinates(loc *types.Location) bool {
	if loc == nil {
		return false
	}
	return !math.IsNaN(loc.Lat) && !math.IsInf(loc.Lat, 0) &&
		!math.IsNaN(loc.Lon) && !math.IsInf(loc.Lon, 0)
}

func locationName(loc *types.Location) string {
	if loc == nil || loc.Name == "" {
		return "Unknown location"
	}
	return loc.Name
}

func requireString(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", types.NewValidationError(field, "must be a non-empty string")
	}
	return trimmed, nil
}
