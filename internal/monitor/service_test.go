package monitor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies-aero/clearskies/internal/queue"
	"github.com/clearskies-aero/clearskies/internal/reschedule"
	"github.com/clearskies-aero/clearskies/internal/testutil"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

var frozenNow = time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)

type fakeWeather struct {
	mu      sync.Mutex
	obs     types.WeatherObservation
	err     error
	fetches int
}

func (f *fakeWeather) Fetch(_ context.Context, lat, lon float64) (types.WeatherObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return types.WeatherObservation{}, f.err
	}
	return f.obs, nil
}

type fakeSuggester struct {
	result *types.SuggestionSet
	err    error
	last   reschedule.Request
}

func (f *fakeSuggester) GenerateSuggestions(_ context.Context, req reschedule.Request) (*types.SuggestionSet, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func calmObservation() types.WeatherObservation {
	return types.WeatherObservation{
		VisibilityMiles: 9,
		WindKts:         5,
		GustKts:         0,
		CloudPercent:    20,
		TempC:           18,
		ConditionText:   "Sunny",
		ObservedAt:      frozenNow,
		Provider:        types.ProviderWeatherAPI,
	}
}

func foggyObservation() types.WeatherObservation {
	return types.WeatherObservation{
		VisibilityMiles: 2.4,
		WindKts:         8,
		GustKts:         12,
		CloudPercent:    35,
		TempC:           11,
		ConditionText:   "Fog",
		Hazards:         types.Hazards{Fog: true},
		ObservedAt:      frozenNow,
		Provider:        types.ProviderWeatherAPI,
	}
}

func scheduledBooking() types.Booking {
	return types.Booking{
		ID:                 "bk-1",
		StudentID:          "stu-1",
		StudentName:        "Ada Moreno",
		TrainingLevel:      types.LevelStudent,
		AssignedInstructor: "cfi-1",
		ScheduledDate:      "2026-03-14",
		ScheduledTime:      "10:00 AM",
		Departure:          &types.Location{Name: "Downtown Airfield", Lat: 47.6, Lon: -122.3},
		Status:             types.BookingScheduled,
	}
}

func newFixture(t *testing.T, weather *fakeWeather, opts ...Option) (*Service, *testutil.MockStore) {
	t.Helper()
	s := testutil.NewMockStore()
	require.NoError(t, s.PutStudent(context.Background(), types.Student{
		ID: "stu-1", Name: "Ada Moreno", Email: "ada@example.com",
		Role: types.RoleStudent, TrainingLevel: types.LevelStudent,
	}))
	require.NoError(t, s.PutStudent(context.Background(), types.Student{
		ID: "cfi-1", Name: "Sam Reyes", Email: "sam@example.com",
		Role: types.RoleInstructor,
	}))
	notifier := queue.NewManager(s, queue.WithManagerClock(func() time.Time { return frozenNow }))
	opts = append([]Option{WithClock(func() time.Time { return frozenNow })}, opts...)
	svc := New(s, weather, notifier, opts...)
	return svc, s
}

func TestCheckDueBookingsFlagsUnsafeStudentFlight(t *testing.T) {
	weather := &fakeWeather{obs: foggyObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))

	require.NoError(t, svc.CheckDueBookings(context.Background()))

	booking, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnsafe, booking.WeatherStatus)
	require.NotNil(t, booking.LastWeatherCheck)
	assert.Equal(t, frozenNow, *booking.LastWeatherCheck)

	// Student and instructor each get one weather alert queue row.
	records := s.QueueRecords()
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, types.NotifyWeatherAlert, rec.Type)
		assert.Equal(t, types.QueuePending, rec.Status)
		require.Len(t, rec.Payload.Violations, 2)
		assert.Contains(t, rec.Payload.Violations[0], "Fog present")
		assert.Contains(t, rec.Payload.Violations[1], "Visibility: 2.4 mi")
	}
}

func TestCheckDueBookingsSafeFlightSendsNothing(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))

	require.NoError(t, svc.CheckDueBookings(context.Background()))

	booking, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusSafe, booking.WeatherStatus)
	assert.Empty(t, s.QueueRecords())
}

func TestCheckDueBookingsSkipsDemoWithoutSnapshot(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	booking := scheduledBooking()
	booking.Demo = true
	booking.DemoWeather = nil
	require.NoError(t, s.PutBooking(context.Background(), booking))

	require.NoError(t, svc.CheckDueBookings(context.Background()))

	got, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Empty(t, got.WeatherStatus)
	assert.Zero(t, weather.fetches, "demo booking must never hit the live API")
}

func TestCheckDueBookingsUsesDemoSnapshot(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	booking := scheduledBooking()
	booking.Demo = true
	frozen := foggyObservation()
	frozen.Provider = types.ProviderDemo
	booking.DemoWeather = &frozen
	require.NoError(t, s.PutBooking(context.Background(), booking))

	require.NoError(t, svc.CheckDueBookings(context.Background()))

	got, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnsafe, got.WeatherStatus)
	assert.Zero(t, weather.fetches)
}

func TestCheckDueBookingsLogsMissingCoordinates(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	booking := scheduledBooking()
	booking.Departure = nil
	require.NoError(t, s.PutBooking(context.Background(), booking))

	require.NoError(t, svc.CheckDueBookings(context.Background()))

	errorsLogged := s.Errors()
	require.Len(t, errorsLogged, 1)
	assert.Equal(t, types.ErrorStore, errorsLogged[0].Type)
	assert.Equal(t, "bk-1", errorsLogged[0].BookingID)
	assert.Contains(t, errorsLogged[0].Message, "departure coordinates")
}

func TestCheckDueBookingsIsolatesFetchFailures(t *testing.T) {
	weather := &fakeWeather{err: &types.TransportError{Provider: "weatherapi", Attempts: 4, StatusCode: 502, Err: fmt.Errorf("bad gateway")}}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))
	other := scheduledBooking()
	other.ID = "bk-2"
	other.Demo = true
	frozen := calmObservation()
	other.DemoWeather = &frozen
	require.NoError(t, s.PutBooking(context.Background(), other))

	require.NoError(t, svc.CheckDueBookings(context.Background()))

	// The live booking failed but the demo booking was still evaluated.
	got, err := s.GetBooking(context.Background(), "bk-2")
	require.NoError(t, err)
	assert.Equal(t, types.StatusSafe, got.WeatherStatus)

	errorsLogged := s.Errors()
	require.Len(t, errorsLogged, 1)
	assert.Equal(t, types.ErrorWeatherAPI, errorsLogged[0].Type)
	assert.Equal(t, 3, errorsLogged[0].RetryCount)
}

func TestCheckDueBookingsResolvesLevelFromProfile(t *testing.T) {
	weather := &fakeWeather{obs: foggyObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutStudent(context.Background(), types.Student{
		ID: "stu-1", Name: "Ada Moreno", Email: "ada@example.com",
		Role: types.RoleStudent, TrainingLevel: types.LevelInstrument,
	}))
	booking := scheduledBooking()
	booking.TrainingLevel = ""
	require.NoError(t, s.PutBooking(context.Background(), booking))

	require.NoError(t, svc.CheckDueBookings(context.Background()))

	// Instrument pilots tolerate fog and 2.4 mi visibility.
	got, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusSafe, got.WeatherStatus)
}

func TestManualCheck(t *testing.T) {
	weather := &fakeWeather{obs: foggyObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))

	result, err := svc.ManualCheck(context.Background(), "bk-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnsafe, result.Status)
	assert.Equal(t, types.LevelStudent, result.TrainingLevel)
	require.Len(t, result.Violations, 2)

	booking, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnsafe, booking.WeatherStatus)
}

func TestManualCheckAuthorization(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))

	_, err := svc.ManualCheck(context.Background(), "bk-1", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.ManualCheck(context.Background(), "bk-1", "someone-else")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.ManualCheck(context.Background(), "missing", "stu-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ManualCheck(context.Background(), "  ", "stu-1")
	assert.True(t, types.IsValidation(err))
}

func TestManualCheckRequiresScheduledStatus(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	booking := scheduledBooking()
	booking.Status = types.BookingCancelled
	require.NoError(t, s.PutBooking(context.Background(), booking))

	_, err := svc.ManualCheck(context.Background(), "bk-1", "stu-1")
	assert.ErrorIs(t, err, ErrNotScheduled)
}

func TestManualCheckSurfacesTransportFailure(t *testing.T) {
	weather := &fakeWeather{err: &types.TransportError{Provider: "weatherapi", Attempts: 4, Err: fmt.Errorf("timeout")}}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))

	_, err := svc.ManualCheck(context.Background(), "bk-1", "stu-1")
	require.Error(t, err)
	assert.True(t, types.IsTransport(err))

	errorsLogged := s.Errors()
	require.Len(t, errorsLogged, 1)
	assert.Equal(t, types.ErrorWeatherAPI, errorsLogged[0].Type)
}

func TestCancelBookingByStudentNotifiesInstructor(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))

	require.NoError(t, svc.CancelBooking(context.Background(), "bk-1", "stu-1"))

	booking, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, types.BookingCancelled, booking.Status)
	assert.Equal(t, "stu-1", booking.CancelledBy)
	require.NotNil(t, booking.CancelledAt)

	records := s.QueueRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "cfi-1", records[0].RecipientID)
	assert.Equal(t, types.NotifyCancellation, records[0].Type)
	assert.Equal(t, types.AudienceInstructor, records[0].Audience)
}

func TestCancelBookingByInstructorNotifiesStudent(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))

	require.NoError(t, svc.CancelBooking(context.Background(), "bk-1", "cfi-1"))

	records := s.QueueRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "stu-1", records[0].RecipientID)
	assert.Equal(t, types.AudienceStudent, records[0].Audience)
}

func TestCancelBookingAuthorization(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))

	assert.ErrorIs(t, svc.CancelBooking(context.Background(), "bk-1", ""), ErrUnauthenticated)
	assert.ErrorIs(t, svc.CancelBooking(context.Background(), "bk-1", "someone-else"), ErrPermissionDenied)

	require.NoError(t, svc.CancelBooking(context.Background(), "bk-1", "stu-1"))
	assert.ErrorIs(t, svc.CancelBooking(context.Background(), "bk-1", "stu-1"), ErrNotScheduled)
}

func TestConfirmRescheduleUpdatesAndNotifies(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	booking := scheduledBooking()
	booking.WeatherStatus = types.StatusUnsafe
	check := frozenNow.Add(-time.Hour)
	booking.LastWeatherCheck = &check
	require.NoError(t, s.PutBooking(context.Background(), booking))

	err := svc.ConfirmReschedule(context.Background(), "bk-1", "2026-03-16", "09:00 AM", "Calmer winds expected.", "stu-1")
	require.NoError(t, err)

	got, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-16", got.ScheduledDate)
	assert.Equal(t, "09:00 AM", got.ScheduledTime)
	assert.Empty(t, got.WeatherStatus, "stale verdict must be cleared")
	assert.Nil(t, got.LastWeatherCheck)

	records := s.QueueRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "cfi-1", records[0].RecipientID)
	assert.Equal(t, types.NotifyReschedule, records[0].Type)
	assert.Equal(t, "Calmer winds expected.", records[0].Payload.AIExplanation)
}

func TestConfirmRescheduleRejectsInstructor(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))

	err := svc.ConfirmReschedule(context.Background(), "bk-1", "2026-03-16", "09:00 AM", "", "cfi-1")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGenerateSuggestionsValidatesInput(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	suggester := &fakeSuggester{result: &types.SuggestionSet{Explanation: "x"}}
	svc, _ := newFixture(t, weather, WithSuggester(suggester))

	valid := SuggestParams{
		BookingID:     "bk-1",
		StudentName:   "Ada Moreno",
		TrainingLevel: types.LevelStudent,
		ScheduledDate: "2026-03-14",
		ScheduledTime: "10:00 AM",
		LocationName:  "Downtown Airfield",
		Violations:    []string{" Fog present (not permitted for Student Pilot) ", ""},
	}

	_, err := svc.GenerateSuggestions(context.Background(), valid, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	bad := valid
	bad.StudentName = "  "
	_, err = svc.GenerateSuggestions(context.Background(), bad, "stu-1")
	assert.True(t, types.IsValidation(err))

	bad = valid
	bad.TrainingLevel = "ultralight"
	_, err = svc.GenerateSuggestions(context.Background(), bad, "stu-1")
	assert.True(t, types.IsValidation(err))

	result, err := svc.GenerateSuggestions(context.Background(), valid, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "x", result.Explanation)
	require.Len(t, suggester.last.Violations, 1, "blank violations must be dropped")
	assert.Equal(t, "Fog present (not permitted for Student Pilot)", suggester.last.Violations[0])
}

func TestGenerateSuggestionsWithoutSuggester(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, _ := newFixture(t, weather)

	_, err := svc.GenerateSuggestions(context.Background(), SuggestParams{
		BookingID: "bk-1", StudentName: "Ada", TrainingLevel: types.LevelStudent,
		ScheduledDate: "2026-03-14", ScheduledTime: "10:00 AM", LocationName: "Field",
	}, "stu-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUpdateTrainingLevelReevaluatesBookings(t *testing.T) {
	weather := &fakeWeather{obs: foggyObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutBooking(context.Background(), scheduledBooking()))
	require.NoError(t, s.AppendReschedule(context.Background(), "bk-1", types.RescheduleEntry{ID: "old"}))

	// Instrument rating tolerates the foggy conditions.
	instructorID, err := svc.UpdateTrainingLevel(context.Background(), "stu-1", types.LevelInstrument)
	require.NoError(t, err)
	assert.Empty(t, instructorID, "instrument pilots fly without an assigned instructor")

	student, err := s.GetStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, types.LevelInstrument, student.TrainingLevel)
	assert.Empty(t, student.AssignedInstructor)

	booking, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, types.LevelInstrument, booking.TrainingLevel)
	assert.Equal(t, types.StatusSafe, booking.WeatherStatus)

	entries, err := s.ListReschedules(context.Background(), "bk-1", 10)
	require.NoError(t, err)
	assert.Empty(t, entries, "stale suggestions must be wiped")
}

func TestUpdateTrainingLevelAssignsInstructorWhenDroppingToStudent(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutStudent(context.Background(), types.Student{
		ID: "stu-1", Name: "Ada Moreno", Role: types.RoleStudent, TrainingLevel: types.LevelPrivate,
	}))

	instructorID, err := svc.UpdateTrainingLevel(context.Background(), "stu-1", types.LevelStudent)
	require.NoError(t, err)
	assert.Equal(t, "cfi-1", instructorID)
}

func TestUpdateTrainingLevelClearsStatusOnFetchFailure(t *testing.T) {
	weather := &fakeWeather{err: &types.TransportError{Provider: "weatherapi", Attempts: 4, Err: fmt.Errorf("down")}}
	svc, s := newFixture(t, weather)
	booking := scheduledBooking()
	booking.WeatherStatus = types.StatusUnsafe
	require.NoError(t, s.PutBooking(context.Background(), booking))

	_, err := svc.UpdateTrainingLevel(context.Background(), "stu-1", types.LevelPrivate)
	require.NoError(t, err)

	got, err := s.GetBooking(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, types.LevelPrivate, got.TrainingLevel)
	assert.Empty(t, got.WeatherStatus, "verdict computed under the old level must not survive")
	assert.Nil(t, got.LastWeatherCheck)
}

func TestUpdateTrainingLevelRejectsInstructors(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, _ := newFixture(t, weather)

	_, err := svc.UpdateTrainingLevel(context.Background(), "cfi-1", types.LevelPrivate)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestListUnreadCapsAtTen(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	for i := 0; i < 12; i++ {
		require.NoError(t, s.PutInAppNotification(context.Background(), types.InAppNotification{
			ID:        fmt.Sprintf("n-%02d", i),
			UserID:    "stu-1",
			Type:      types.NotifyWeatherAlert,
			BookingID: fmt.Sprintf("bk-%02d", i),
			Message:   "msg",
			CreatedAt: frozenNow.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := svc.ListUnread(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, events, 10)
	assert.Equal(t, "n-11", events[0].ID, "newest event comes first")
	assert.Equal(t, "n-02", events[9].ID, "the cap drops the oldest events")

	_, err = svc.ListUnread(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestMarkRead(t *testing.T) {
	weather := &fakeWeather{obs: calmObservation()}
	svc, s := newFixture(t, weather)
	require.NoError(t, s.PutInAppNotification(context.Background(), types.InAppNotification{
		ID: "n-1", UserID: "stu-1", Type: types.NotifyWeatherAlert, BookingID: "bk-1", Message: "msg",
	}))

	require.NoError(t, svc.MarkRead(context.Background(), "stu-1", "n-1"))

	events, err := svc.ListUnread(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}
