package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clearskies-aero/clearskies/internal/alert"
	"github.com/clearskies-aero/clearskies/internal/mail"
	"github.com/clearskies-aero/clearskies/internal/metrics"
	"github.com/clearskies-aero/clearskies/internal/store"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

const (
	defaultBatchSize   = 20
	defaultMaxAttempts = 3
	defaultRetryDelay  = 8 * time.Hour
)

// Processor drains due queue records and delivers email. Undeliverable
// records (no address, preference disabled, mail unconfigured) are closed as
// sent with a descriptive lastError so they do not spin through retries.
type Processor struct {
	store       store.Store
	sender      mail.Sender // nil means email delivery is not configured
	dispatcher  *alert.Dispatcher
	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithSender sets the email sender. Without one, every record is closed as
// undeliverable.
func WithSender(s mail.Sender) ProcessorOption {
	return func(p *Processor) { p.sender = s }
}

// WithDispatcher sets the operator alert dispatcher.
func WithDispatcher(d *alert.Dispatcher) ProcessorOption {
	return func(p *Processor) { p.dispatcher = d }
}

// WithBatchSize overrides the per-run claim limit.
func WithBatchSize(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithRetryPolicy overrides the attempt cap and base retry delay.
func WithRetryPolicy(maxAttempts int, delay time.Duration) ProcessorOption {
	return func(p *Processor) {
		if maxAttempts > 0 {
			p.maxAttempts = maxAttempts
		}
		if delay > 0 {
			p.retryDelay = delay
		}
	}
}

// WithProcessorLogger sets the logger.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithProcessorClock overrides the clock, for tests.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a queue processor backed by the given store.
func NewProcessor(s store.Store, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:       s,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessDue claims and delivers up to one batch of due records. Individual
// record failures are retried or closed per record; only a queue read failure
// aborts the run.
func (p *Processor) ProcessDue(ctx context.Context) error {
	now := p.now().UTC()
	records, err := p.store.ListDueQueueRecords(ctx, now, p.batchSize)
	if err != nil {
		return &types.PersistenceError{Op: "list due notifications", Err: err}
	}
	if len(records) == 0 {
		p.logger.Info("no pending notifications to process")
		return nil
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.processRecord(ctx, rec)
	}
	return nil
}

func (p *Processor) processRecord(ctx context.Context, rec types.NotificationRecord) {
	claimed, err := p.claim(ctx, rec.NotificationKey)
	if err != nil {
		p.logger.Error("failed to claim queue record", "bookingID", rec.BookingID, "recipientID", rec.RecipientID, "error", err)
		return
	}
	if claimed == nil {
		// Another worker got there first, or the row moved off pending.
		return
	}
	rec = *claimed

	student := p.resolveUser(ctx, rec.StudentID)
	recipientID := rec.RecipientID
	if recipientID == "" {
		recipientID = rec.StudentID
	}
	recipient := student
	if recipientID != rec.StudentID {
		recipient = p.resolveUser(ctx, recipientID)
	}

	emailCtx := p.buildContext(rec, student, recipient)

	if reason := p.undeliverableReason(rec.Type, recipient); reason != "" {
		p.closeUndeliverable(ctx, rec, recipientID, reason, emailCtx)
		return
	}

	attempt := rec.Attempts + 1
	email, err := mail.Render(rec.Type, emailCtx)
	if err == nil {
		var messageID string
		messageID, err = p.sender.Send(ctx, mail.Message{
			To:      recipient.Email,
			Subject: email.Subject,
			HTML:    email.HTML,
		})
		if err == nil {
			p.recordSent(ctx, rec, recipientID, attempt, messageID, emailCtx)
			return
		}
	}
	p.recordFailure(ctx, rec, recipientID, attempt, err)
}

// claim transitions pending to processing. Returns nil when the record is no
// longer claimable.
func (p *Processor) claim(ctx context.Context, key types.NotificationKey) (*types.NotificationRecord, error) {
	now := p.now().UTC()
	var claimed bool
	rec, err := p.store.UpdateQueueRecord(ctx, key, func(existing *types.NotificationRecord) *types.NotificationRecord {
		claimed = false
		if existing == nil || existing.Status != types.QueuePending || existing.DueAt.After(now) {
			return nil
		}
		next := *existing
		next.Status = types.QueueProcessing
		next.UpdatedAt = now
		claimed = true
		return &next
	})
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, nil
	}
	return rec, nil
}

func (p *Processor) resolveUser(ctx context.Context, userID string) *types.Student {
	if userID == "" {
		return nil
	}
	student, err := p.store.GetStudent(ctx, userID)
	if err != nil {
		p.logger.Error("failed to load user for notification", "userID", userID, "error", err)
		return nil
	}
	return student
}

// buildContext layers profile data under the denormalized payload so stale
// payloads still render with current names and addresses.
func (p *Processor) buildContext(rec types.NotificationRecord, student, recipient *types.Student) types.EmailContext {
	emailCtx := rec.Payload
	emailCtx.Audience = rec.Audience
	if emailCtx.Audience == "" {
		if rec.RecipientID == rec.StudentID {
			emailCtx.Audience = types.AudienceStudent
		} else {
			emailCtx.Audience = types.AudienceInstructor
		}
	}
	if student != nil {
		if emailCtx.StudentName == "" {
			emailCtx.StudentName = student.Name
		}
		if emailCtx.TrainingLevel == "" {
			emailCtx.TrainingLevel = student.TrainingLevel
		}
	}
	if emailCtx.TrainingLevel == "" {
		emailCtx.TrainingLevel = types.LevelStudent
	}
	if recipient != nil {
		if emailCtx.RecipientName == "" {
			emailCtx.RecipientName = recipient.Name
		}
		if emailCtx.RecipientEmail == "" {
			emailCtx.RecipientEmail = recipient.Email
		}
	}
	return emailCtx
}

func (p *Processor) undeliverableReason(notifType types.NotificationType, recipient *types.Student) string {
	if recipient == nil || recipient.Email == "" {
		return "Recipient email unavailable"
	}
	if !recipient.Settings.Allows(notifType) {
		return "Notification preference disabled"
	}
	if p.sender == nil {
		return "Email delivery not configured"
	}
	return ""
}

// surfaceInAppEvent makes sure the dashboard event exists for a record the
// queue is closing. The eager write at enqueue normally created it already;
// this catches up when that write failed. An existing event is never
// touched, so a read flag or message set earlier survives.
func (p *Processor) surfaceInAppEvent(ctx context.Context, rec types.NotificationRecord, recipientID string, emailCtx types.EmailContext) {
	message := BuildMessage(rec.Type, emailCtx, emailCtx.Audience, emailCtx.StudentName)
	if message == "" {
		return
	}
	now := p.now().UTC()
	err := p.store.EnsureInAppNotification(ctx, types.InAppNotification{
		ID:        fmt.Sprintf("%s-%s-%s", recipientID, rec.BookingID, rec.Type),
		UserID:    recipientID,
		Type:      rec.Type,
		BookingID: rec.BookingID,
		Message:   message,
		Read:      false,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		p.logger.Error("failed to surface in-app event",
			"bookingID", rec.BookingID,
			"recipientID", recipientID,
			"error", err)
	}
}

// closeUndeliverable marks the record sent with the skip reason so the queue
// drains instead of retrying a record that can never deliver. The in-app
// event still surfaces even though email is skipped.
func (p *Processor) closeUndeliverable(ctx context.Context, rec types.NotificationRecord, recipientID, reason string, emailCtx types.EmailContext) {
	p.surfaceInAppEvent(ctx, rec, recipientID, emailCtx)

	now := p.now().UTC()
	_, err := p.store.UpdateQueueRecord(ctx, rec.NotificationKey, func(existing *types.NotificationRecord) *types.NotificationRecord {
		if existing == nil {
			return nil
		}
		next := *existing
		next.Status = types.QueueSent
		next.LastError = reason
		next.UpdatedAt = now
		return &next
	})
	if err != nil {
		p.logger.Error("failed to close undeliverable record", "bookingID", rec.BookingID, "error", err)
	}

	p.audit(ctx, rec, recipientID, types.QueueSent, rec.Attempts, "", reason)
	p.logger.Info("notification undeliverable",
		"bookingID", rec.BookingID,
		"recipientID", recipientID,
		"type", rec.Type,
		"reason", reason)
}

func (p *Processor) recordSent(ctx context.Context, rec types.NotificationRecord, recipientID string, attempt int, messageID string, emailCtx types.EmailContext) {
	p.surfaceInAppEvent(ctx, rec, recipientID, emailCtx)

	now := p.now().UTC()
	_, err := p.store.UpdateQueueRecord(ctx, rec.NotificationKey, func(existing *types.NotificationRecord) *types.NotificationRecord {
		if existing == nil {
			return nil
		}
		next := *existing
		next.Status = types.QueueSent
		next.Attempts = attempt
		next.LastError = ""
		next.UpdatedAt = now
		return &next
	})
	if err != nil {
		p.logger.Error("failed to mark record sent", "bookingID", rec.BookingID, "error", err)
	}

	metrics.NotificationsSent.Add(1)
	p.audit(ctx, rec, recipientID, types.QueueSent, attempt, messageID, "")
	p.logger.Info("notification delivered",
		"bookingID", rec.BookingID,
		"recipientID", recipientID,
		"type", rec.Type,
		"attempt", attempt,
		"messageID", messageID)
}

func (p *Processor) recordFailure(ctx context.Context, rec types.NotificationRecord, recipientID string, attempt int, cause error) {
	errMsg := "Unknown notification error"
	if cause != nil {
		errMsg = cause.Error()
	}
	retry := attempt < p.maxAttempts
	now := p.now().UTC()

	_, err := p.store.UpdateQueueRecord(ctx, rec.NotificationKey, func(existing *types.NotificationRecord) *types.NotificationRecord {
		if existing == nil {
			return nil
		}
		next := *existing
		next.Attempts = attempt
		next.LastError = errMsg
		next.UpdatedAt = now
		if retry {
			next.Status = types.QueuePending
			next.DueAt = now.Add(p.retryDelay * time.Duration(attempt))
		} else {
			next.Status = types.QueueFailed
		}
		return &next
	})
	if err != nil {
		p.logger.Error("failed to record delivery failure", "bookingID", rec.BookingID, "error", err)
	}

	p.audit(ctx, rec, recipientID, types.QueueFailed, attempt, "", errMsg)
	if retry {
		metrics.NotificationsRetried.Add(1)
		p.logger.Warn("notification delivery failed, will retry",
			"bookingID", rec.BookingID,
			"recipientID", recipientID,
			"attempt", attempt,
			"error", errMsg)
		return
	}

	metrics.NotificationsFailed.Add(1)
	p.logger.Error("notification delivery failed permanently",
		"bookingID", rec.BookingID,
		"recipientID", recipientID,
		"attempt", attempt,
		"error", errMsg)
	if p.dispatcher != nil {
		p.dispatcher.Dispatch(types.Alert{
			Level:     types.AlertLevelError,
			BookingID: rec.BookingID,
			UserID:    recipientID,
			Message:   fmt.Sprintf("notification %s exhausted retries: %s", rec.Type, errMsg),
			Timestamp: now,
		})
	}
}

func (p *Processor) audit(ctx context.Context, rec types.NotificationRecord, recipientID string, status types.QueueStatus, attempt int, messageID, errMsg string) {
	err := p.store.AppendAudit(ctx, rec.BookingID, types.AuditEntry{
		Type:         rec.Type,
		Channel:      rec.Channel,
		BookingID:    rec.BookingID,
		UserID:       recipientID,
		Status:       status,
		Attempt:      attempt,
		MessageID:    messageID,
		ErrorMessage: errMsg,
		CreatedAt:    p.now().UTC(),
	})
	if err != nil {
		p.logger.Error("failed to append delivery audit", "bookingID", rec.BookingID, "error", err)
	}
}
