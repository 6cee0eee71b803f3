package dynamodb

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// PK/SK prefix constants.
const (
	prefixBooking = "BOOKING#"
	prefixStudent = "STUDENT#"
	prefixUser    = "USER#"
	prefixQueue   = "QUEUE#"
	prefixNotify  = "NOTIFY#"
	prefixAudit   = "AUDIT#"
	prefixResched = "RESCHED#"
	prefixError   = "ERROR#"
	prefixStatus  = "STATUS#"
	prefixQStatus = "QSTATUS#"
	prefixRole    = "ROLE#"

	skRecord  = "RECORD"
	skProfile = "PROFILE"

	pkErrorLog = "ERRORLOG"
)

func bookingPK(id string) string { return prefixBooking + id }
func studentPK(id string) string { return prefixStudent + id }
func userPK(id string) string    { return prefixUser + id }

// bookingListSK orders a student's booking copies by date.
func bookingListSK(date, bookingID string) string {
	return prefixBooking + date + "#" + bookingID
}

// bookingGSI1 places scheduled bookings on the status index, sorted by date
// so the monitor can range-scan a lookahead window. Non-scheduled bookings
// leave the index.
func bookingGSI1(b types.Booking) (pk, sk string, ok bool) {
	if b.Status != types.BookingScheduled {
		return "", "", false
	}
	return prefixStatus + string(types.BookingScheduled), b.ScheduledDate + "#" + b.ID, true
}

// queuePK joins the dedupe key so one row exists per
// (booking, recipient, type, channel) tuple.
func queuePK(key types.NotificationKey) string {
	return prefixQueue + key.BookingID + "#" + key.RecipientID + "#" + string(key.Type) + "#" + string(key.Channel)
}

// queueGSI1 places pending records on the due index. Terminal and in-flight
// records leave the index so the processor only ever sees claimable work.
func queueGSI1(rec types.NotificationRecord) (pk, sk string, ok bool) {
	if rec.Status != types.QueuePending {
		return "", "", false
	}
	return prefixQStatus + string(types.QueuePending), rec.DueAt.UTC().Format(time.RFC3339), true
}

func notifySK(bookingID string, notifType types.NotificationType) string {
	return prefixNotify + bookingID + "#" + string(notifType)
}

func instructorGSI1PK() string { return prefixRole + string(types.RoleInstructor) }

func auditSK(ts time.Time) string {
	return fmt.Sprintf("%s%013d#%s", prefixAudit, ts.UnixMilli(), nonce())
}

func reschedSK(ts time.Time, id string) string {
	return fmt.Sprintf("%s%013d#%s", prefixResched, ts.UnixMilli(), id)
}

func errorSK(ts time.Time, id string) string {
	return fmt.Sprintf("%s%013d#%s", prefixError, ts.UnixMilli(), id)
}

func nonce() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
