// Package testutil provides shared test utilities for ClearSkies.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/clearskies-aero/clearskies/internal/store"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

// Compile-time interface satisfaction check.
var _ store.Store = (*MockStore)(nil)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu            sync.Mutex
	bookings      map[string]types.Booking
	students      map[string]types.Student
	queue         map[string]types.NotificationRecord // key: queueKey
	notifications map[string]types.InAppNotification  // key: "userID:bookingID:type"
	audits        map[string][]types.AuditEntry       // key: bookingID
	reschedules   map[string][]types.RescheduleEntry  // key: bookingID
	errors        []types.ErrorEntry

	// FailQueueUpdate forces UpdateQueueRecord to fail when set.
	FailQueueUpdate error
	// FailInAppPut forces PutInAppNotification to fail when set.
	FailInAppPut error
}

// NewMockStore creates a new in-memory mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		bookings:      make(map[string]types.Booking),
		students:      make(map[string]types.Student),
		queue:         make(map[string]types.NotificationRecord),
		notifications: make(map[string]types.InAppNotification),
		audits:        make(map[string][]types.AuditEntry),
		reschedules:   make(map[string][]types.RescheduleEntry),
	}
}

func queueKey(key types.NotificationKey) string {
	return key.BookingID + ":" + key.RecipientID + ":" + string(key.Type) + ":" + string(key.Channel)
}

func (m *MockStore) Ping(_ context.Context) error { return nil }

func (m *MockStore) PutBooking(_ context.Context, booking types.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *MockStore) GetBooking(_ context.Context, id string) (*types.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %q not found", id)
	}
	return &b, nil
}

func (m *MockStore) ListScheduledBookings(_ context.Context, fromDate, toDate string) ([]types.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []types.Booking
	for _, b := range m.bookings {
		if b.Status == types.BookingScheduled && b.ScheduledDate >= fromDate && b.ScheduledDate <= toDate {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledDate < result[j].ScheduledDate })
	return result, nil
}

func (m *MockStore) ListStudentBookings(_ context.Context, studentID string, limit int) ([]types.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []types.Booking
	for _, b := range m.bookings {
		if b.StudentID == studentID {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledDate > result[j].ScheduledDate })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockStore) GetStudent(_ context.Context, id string) (*types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, fmt.Errorf("student %q not found", id)
	}
	return &s, nil
}

func (m *MockStore) PutStudent(_ context.Context, student types.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[student.ID] = student
	return nil
}

func (m *MockStore) ListInstructors(_ context.Context) ([]types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []types.Student
	for _, s := range m.students {
		if s.Role == types.RoleInstructor {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *MockStore) GetQueueRecord(_ context.Context, key types.NotificationKey) (*types.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.queue[queueKey(key)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MockStore) UpdateQueueRecord(_ context.Context, key types.NotificationKey, txn store.QueueTxn) (*types.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailQueueUpdate != nil {
		return nil, m.FailQueueUpdate
	}

	var existing *types.NotificationRecord
	if rec, ok := m.queue[queueKey(key)]; ok {
		cp := rec
		existing = &cp
	}
	next := txn(existing)
	if next == nil {
		return existing, nil
	}
	m.queue[queueKey(key)] = *next
	return next, nil
}

func (m *MockStore) ListDueQueueRecords(_ context.Context, now time.Time, limit int) ([]types.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []types.NotificationRecord
	for _, rec := range m.queue {
		if rec.Status == types.QueuePending && !rec.DueAt.After(now) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DueAt.Before(result[j].DueAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func notificationKey(n types.InAppNotification) string {
	return n.UserID + ":" + n.BookingID + ":" + string(n.Type)
}

func (m *MockStore) PutInAppNotification(_ context.Context, n types.InAppNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailInAppPut != nil {
		return m.FailInAppPut
	}
	key := notificationKey(n)
	if existing, ok := m.notifications[key]; ok && !existing.CreatedAt.IsZero() {
		n.CreatedAt = existing.CreatedAt
	}
	m.notifications[key] = n
	return nil
}

func (m *MockStore) EnsureInAppNotification(_ context.Context, n types.InAppNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := notificationKey(n)
	if _, ok := m.notifications[key]; ok {
		return nil
	}
	m.notifications[key] = n
	return nil
}

func (m *MockStore) ListUnreadNotifications(_ context.Context, userID string) ([]types.InAppNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []types.InAppNotification
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockStore) MarkNotificationRead(_ context.Context, userID, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, n := range m.notifications {
		if n.UserID == userID && n.ID == notificationID {
			n.Read = true
			m.notifications[k] = n
			return nil
		}
	}
	return nil
}

func (m *MockStore) AppendAudit(_ context.Context, bookingID string, entry types.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[bookingID] = append(m.audits[bookingID], entry)
	return nil
}

func (m *MockStore) ListAudit(_ context.Context, bookingID string, limit int) ([]types.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append([]types.AuditEntry(nil), m.audits[bookingID]...)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (m *MockStore) AppendReschedule(_ context.Context, bookingID string, entry types.RescheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reschedules[bookingID] = append(m.reschedules[bookingID], entry)
	return nil
}

func (m *MockStore) ListReschedules(_ context.Context, bookingID string, limit int) ([]types.RescheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append([]types.RescheduleEntry(nil), m.reschedules[bookingID]...)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (m *MockStore) DeleteReschedules(_ context.Context, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reschedules, bookingID)
	return nil
}

func (m *MockStore) AppendError(_ context.Context, entry types.ErrorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, entry)
	return nil
}

func (m *MockStore) ListErrors(_ context.Context, limit int) ([]types.ErrorEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append([]types.ErrorEntry(nil), m.errors...)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// QueueRecords returns a snapshot of all queue rows, for assertions.
func (m *MockStore) QueueRecords() []types.NotificationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []types.NotificationRecord
	for _, rec := range m.queue {
		result = append(result, rec)
	}
	return result
}

// Notifications returns a snapshot of all in-app rows, for assertions.
func (m *MockStore) Notifications() []types.InAppNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []types.InAppNotification
	for _, n := range m.notifications {
		result = append(result, n)
	}
	return result
}

// Audits returns a snapshot of a booking's audit rows, for assertions.
func (m *MockStore) Audits(bookingID string) []types.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.AuditEntry(nil), m.audits[bookingID]...)
}

// Errors returns a snapshot of the operator error log, for assertions.
func (m *MockStore) Errors() []types.ErrorEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.ErrorEntry(nil), m.errors...)
}
