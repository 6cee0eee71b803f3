// Package queue owns the durable notification queue: dedupe on enqueue,
// batched delivery with retry backoff, and the eager in-app event feed.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clearskies-aero/clearskies/internal/metrics"
	"github.com/clearskies-aero/clearskies/internal/store"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

// Manager enqueues notifications. Each (booking, recipient, type, channel)
// tuple maps to exactly one queue row; re-enqueuing refreshes that row
// instead of duplicating it.
type Manager struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithManagerClock overrides the clock, for tests.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a queue manager backed by the given store.
func NewManager(s store.Store, opts ...ManagerOption) *Manager {
	m := &Manager{store: s, logger: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// EnqueueParams describes one notification fan-out. InstructorID is optional;
// when set, the instructor receives their own copy of the notification.
type EnqueueParams struct {
	BookingID    string
	StudentID    string
	InstructorID string
	Type         types.NotificationType
	Channel      types.NotificationChannel
	Payload      types.EmailContext
}

// Enqueue queues the student copy and, when an instructor is assigned, the
// instructor copy of a notification.
func (m *Manager) Enqueue(ctx context.Context, p EnqueueParams) error {
	if p.BookingID == "" || p.StudentID == "" {
		return fmt.Errorf("enqueue: bookingID and studentID required")
	}
	if p.Channel == "" {
		p.Channel = types.ChannelEmail
	}

	if err := m.enqueueForRecipient(ctx, p, p.StudentID, types.AudienceStudent); err != nil {
		return err
	}
	if p.InstructorID != "" {
		if err := m.enqueueForRecipient(ctx, p, p.InstructorID, types.AudienceInstructor); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueForRecipient queues one recipient's copy only. Used when a single
// party should be notified, e.g. a cancellation addressed to the other side.
func (m *Manager) EnqueueForRecipient(ctx context.Context, p EnqueueParams, recipientID string, audience types.Audience) error {
	if p.BookingID == "" || recipientID == "" {
		return fmt.Errorf("enqueue: bookingID and recipientID required")
	}
	if p.Channel == "" {
		p.Channel = types.ChannelEmail
	}
	return m.enqueueForRecipient(ctx, p, recipientID, audience)
}

func (m *Manager) enqueueForRecipient(ctx context.Context, p EnqueueParams, recipientID string, audience types.Audience) error {
	key := types.NotificationKey{
		BookingID:   p.BookingID,
		RecipientID: recipientID,
		Type:        p.Type,
		Channel:     p.Channel,
	}
	payload := p.Payload
	payload.Audience = audience
	now := m.now().UTC()

	// In-app event first so the dashboard updates even if email delivery
	// later fails. Best effort only.
	m.putInAppEvent(ctx, p, recipientID, audience, payload, now)

	_, err := m.store.UpdateQueueRecord(ctx, key, func(existing *types.NotificationRecord) *types.NotificationRecord {
		if existing == nil {
			return &types.NotificationRecord{
				NotificationKey: key,
				StudentID:       p.StudentID,
				Audience:        audience,
				Status:          types.QueuePending,
				Attempts:        0,
				DueAt:           now,
				Payload:         payload,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
		}
		next := *existing
		next.Payload = payload
		next.StudentID = p.StudentID
		next.Audience = audience
		next.UpdatedAt = now
		// A delivered record keeps its terminal status; only refresh content.
		if existing.Status != types.QueueSent {
			next.Status = types.QueuePending
			next.DueAt = now
		}
		return &next
	})
	if err != nil {
		return &types.PersistenceError{Op: "enqueue notification", Err: err}
	}

	metrics.NotificationsEnqueued.Add(1)
	m.logger.Info("notification enqueued",
		"bookingID", p.BookingID,
		"recipientID", recipientID,
		"audience", audience,
		"type", p.Type,
		"channel", p.Channel)
	return nil
}

func (m *Manager) putInAppEvent(ctx context.Context, p EnqueueParams, recipientID string, audience types.Audience, payload types.EmailContext, now time.Time) {
	var studentName string
	if student, err := m.store.GetStudent(ctx, p.StudentID); err == nil && student != nil {
		studentName = student.Name
	}

	message := BuildMessage(p.Type, payload, audience, studentName)
	if message == "" {
		return
	}

	err := m.store.PutInAppNotification(ctx, types.InAppNotification{
		ID:        fmt.Sprintf("%s-%s-%s", recipientID, p.BookingID, p.Type),
		UserID:    recipientID,
		Type:      p.Type,
		BookingID: p.BookingID,
		Message:   message,
		Read:      false,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		m.logger.Error("failed to store in-app notification",
			"bookingID", p.BookingID,
			"recipientID", recipientID,
			"error", err)
	}
}
