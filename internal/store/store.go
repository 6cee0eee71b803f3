// Package store defines the persistence interface for bookings, queue
// records, notifications and the append-only logs.
package store

import (
	"context"
	"time"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// QueueTxn is a pure transition applied to the current queue record under a
// dedupe key. It receives nil when no record exists and returns the record to
// write, or nil to leave the row untouched. It must not perform I/O; the
// store may call it more than once on write conflicts.
type QueueTxn func(existing *types.NotificationRecord) *types.NotificationRecord

// Store is the persistence boundary. Implementations must be safe for
// concurrent use.
type Store interface {
	// Lifecycle.
	Ping(ctx context.Context) error

	// Bookings.
	PutBooking(ctx context.Context, booking types.Booking) error
	GetBooking(ctx context.Context, id string) (*types.Booking, error)
	// ListScheduledBookings returns scheduled bookings with dates in
	// [fromDate, toDate], both YYYY-MM-DD inclusive.
	ListScheduledBookings(ctx context.Context, fromDate, toDate string) ([]types.Booking, error)
	ListStudentBookings(ctx context.Context, studentID string, limit int) ([]types.Booking, error)

	// Students and instructors.
	GetStudent(ctx context.Context, id string) (*types.Student, error)
	PutStudent(ctx context.Context, student types.Student) error
	ListInstructors(ctx context.Context) ([]types.Student, error)

	// Notification queue.
	GetQueueRecord(ctx context.Context, key types.NotificationKey) (*types.NotificationRecord, error)
	// UpdateQueueRecord applies txn atomically under the dedupe key.
	// Returns the record as written, or the existing record when txn
	// declined to change it.
	UpdateQueueRecord(ctx context.Context, key types.NotificationKey, txn QueueTxn) (*types.NotificationRecord, error)
	// ListDueQueueRecords returns pending records with dueAt <= now,
	// oldest first.
	ListDueQueueRecords(ctx context.Context, now time.Time, limit int) ([]types.NotificationRecord, error)

	// In-app notifications. One event row exists per (user, booking, type).
	// PutInAppNotification upserts the row; an existing row keeps its
	// original createdAt.
	PutInAppNotification(ctx context.Context, n types.InAppNotification) error
	// EnsureInAppNotification writes the event row only when none exists
	// yet; an existing row is left untouched.
	EnsureInAppNotification(ctx context.Context, n types.InAppNotification) error
	// ListUnreadNotifications returns a user's unread events, newest first
	// by createdAt.
	ListUnreadNotifications(ctx context.Context, userID string) ([]types.InAppNotification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error

	// Delivery audit log. Append-only.
	AppendAudit(ctx context.Context, bookingID string, entry types.AuditEntry) error
	ListAudit(ctx context.Context, bookingID string, limit int) ([]types.AuditEntry, error)

	// Reschedule history. Append-only, except for the training-level change
	// flow which invalidates a booking's whole history at once.
	AppendReschedule(ctx context.Context, bookingID string, entry types.RescheduleEntry) error
	ListReschedules(ctx context.Context, bookingID string, limit int) ([]types.RescheduleEntry, error)
	DeleteReschedules(ctx context.Context, bookingID string) error

	// Operator error log. Append-only.
	AppendError(ctx context.Context, entry types.ErrorEntry) error
	ListErrors(ctx context.Context, limit int) ([]types.ErrorEntry, error)
}
