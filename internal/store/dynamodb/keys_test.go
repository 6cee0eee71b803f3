package dynamodb

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

func TestQueuePKJoinsDedupeKey(t *testing.T) {
	key := types.NotificationKey{
		BookingID:   "bk-1",
		RecipientID: "stu-1",
		Type:        types.NotifyWeatherAlert,
		Channel:     types.ChannelEmail,
	}
	assert.Equal(t, "QUEUE#bk-1#stu-1#weather_alert#email", queuePK(key))
}

func TestBookingGSI1OnlyForScheduled(t *testing.T) {
	booking := types.Booking{ID: "bk-1", ScheduledDate: "2026-03-14", Status: types.BookingScheduled}

	pk, sk, ok := bookingGSI1(booking)
	assert.True(t, ok)
	assert.Equal(t, "STATUS#scheduled", pk)
	assert.Equal(t, "2026-03-14#bk-1", sk)

	booking.Status = types.BookingCancelled
	_, _, ok = bookingGSI1(booking)
	assert.False(t, ok)
}

func TestQueueGSI1OnlyWhilePending(t *testing.T) {
	due := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	rec := types.NotificationRecord{Status: types.QueuePending, DueAt: due}

	pk, sk, ok := queueGSI1(rec)
	assert.True(t, ok)
	assert.Equal(t, "QSTATUS#pending", pk)
	assert.Equal(t, "2026-03-14T08:00:00Z", sk)

	for _, status := range []types.QueueStatus{types.QueueProcessing, types.QueueSent, types.QueueFailed} {
		rec.Status = status
		_, _, ok := queueGSI1(rec)
		assert.False(t, ok, string(status))
	}
}

func TestAppendOnlyKeysAreSortableAndUnique(t *testing.T) {
	ts := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	first := auditSK(ts)
	second := auditSK(ts)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "AUDIT#"))

	later := auditSK(ts.Add(time.Second))
	assert.Less(t, first[:len("AUDIT#")+13], later[:len("AUDIT#")+13])
}

func TestNotifySKIdempotentPerBookingAndType(t *testing.T) {
	a := notifySK("bk-1", types.NotifyWeatherAlert)
	b := notifySK("bk-1", types.NotifyWeatherAlert)
	assert.Equal(t, a, b)

	c := notifySK("bk-1", types.NotifyWeatherCleared)
	assert.NotEqual(t, a, c)
}
