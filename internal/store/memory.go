package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rmcgowen/haven/internal/catalog"
	"github.com/rmcgowen/haven/internal/domain"
)

// MemoryStore is an in-memory Repository. It backs the degraded
// session-memory-only mode when the SQLite store cannot be opened, and the
// test fakes.
type MemoryStore struct {
	mu             sync.RWMutex
	messages       []domain.Message
	actions        map[string]domain.ActionItem
	actionOrder    []string
	catalogVersion int
	seeded         bool
	userContext    domain.UserContext
	profile        *domain.Profile
	medications    map[int64]domain.Medication
	appointments   map[int64]domain.Appointment
	contacts       map[int64]domain.Contact
	caseNumbers    map[int64]domain.CaseNumber
	nextID         int64
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		actions:      make(map[string]domain.ActionItem),
		medications:  make(map[int64]domain.Medication),
		appointments: make(map[int64]domain.Appointment),
		contacts:     make(map[int64]domain.Contact),
		caseNumbers:  make(map[int64]domain.CaseNumber),
	}
}

var (
	_ Repository = (*MemoryStore)(nil)
	_ Repository = (*SQLiteStore)(nil)
)

// AppendMessage stores one chat message. Duplicate ids are ignored.
func (m *MemoryStore) AppendMessage(_ context.Context, msg domain.Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("append message: invalid role %q", msg.Role)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.messages {
		if existing.ID == msg.ID {
			return nil
		}
	}
	m.messages = append(m.messages, msg)
	return nil
}

// RecentMessages returns the most recent limit messages, oldest first.
func (m *MemoryStore) RecentMessages(_ context.Context, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := make([]domain.Message, len(m.messages))
	copy(msgs, m.messages)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// ClearMessages wipes the message history only.
func (m *MemoryStore) ClearMessages(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	return nil
}

// SeedActions seeds or migrates the action plan.
func (m *MemoryStore) SeedActions(_ context.Context, cat []domain.ActionItem, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seeded && m.catalogVersion == version && len(m.actions) > 0 {
		return nil
	}

	stored := make([]domain.ActionItem, 0, len(m.actionOrder))
	for _, id := range m.actionOrder {
		stored = append(stored, m.actions[id])
	}

	reconciled := catalog.Reconcile(stored, cat)
	m.actions = make(map[string]domain.ActionItem, len(reconciled))
	m.actionOrder = m.actionOrder[:0]
	for _, item := range reconciled {
		m.actions[item.ID] = item
		m.actionOrder = append(m.actionOrder, item.ID)
	}
	m.catalogVersion = version
	m.seeded = true
	return nil
}

// ListActions returns the action plan sorted by priority.
func (m *MemoryStore) ListActions(_ context.Context) ([]domain.ActionItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ActionItem, 0, len(m.actionOrder))
	for _, id := range m.actionOrder {
		out = append(out, m.actions[id])
	}
	return out, nil
}

// UpdateActionStatus sets status and notes for one action.
func (m *MemoryStore) UpdateActionStatus(_ context.Context, id string, status domain.ActionStatus, notes string) error {
	if !status.Valid() {
		return fmt.Errorf("update action %s: invalid status %q", id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.actions[id]
	if !ok {
		return fmt.Errorf("update action %s: %w", id, ErrNotFound)
	}
	item.Status = status
	item.Notes = notes
	if status == domain.ActionDone {
		now := time.Now()
		item.CompletedAt = &now
	} else {
		item.CompletedAt = nil
	}
	m.actions[id] = item
	return nil
}

// Context returns the stored user context.
func (m *MemoryStore) Context(_ context.Context) (domain.UserContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userContext, nil
}

// MergeContext applies an update to the stored context.
func (m *MemoryStore) MergeContext(_ context.Context, update domain.ContextUpdate) (domain.UserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userContext = m.userContext.Merge(update, time.Now())
	return m.userContext, nil
}

// ClearContext resets the user context.
func (m *MemoryStore) ClearContext(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userContext = domain.UserContext{}
	return nil
}

// Profile returns the singleton profile, seeding the default on first read.
func (m *MemoryStore) Profile(_ context.Context) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		p := domain.DefaultProfile()
		m.profile = &p
	}
	return *m.profile, nil
}

// UpdateProfile replaces the stored profile.
func (m *MemoryStore) UpdateProfile(_ context.Context, p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = &p
	return nil
}

// ListMedications returns all medications ordered by name.
func (m *MemoryStore) ListMedications(_ context.Context) ([]domain.Medication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Medication, 0, len(m.medications))
	for _, v := range m.medications {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AddMedication inserts a medication and returns its id.
func (m *MemoryStore) AddMedication(_ context.Context, med domain.Medication) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	med.ID = m.nextID
	m.medications[med.ID] = med
	return med.ID, nil
}

// DeleteMedication removes a medication by id.
func (m *MemoryStore) DeleteMedication(_ context.Context, id int64) error {
	return deleteKeyed(m, m.medications, id, "medications")
}

// ListAppointments returns all appointments ordered by date.
func (m *MemoryStore) ListAppointments(_ context.Context) ([]domain.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Appointment, 0, len(m.appointments))
	for _, v := range m.appointments {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// AddAppointment inserts an appointment and returns its id.
func (m *MemoryStore) AddAppointment(_ context.Context, a domain.Appointment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	m.appointments[a.ID] = a
	return a.ID, nil
}

// DeleteAppointment removes an appointment by id.
func (m *MemoryStore) DeleteAppointment(_ context.Context, id int64) error {
	return deleteKeyed(m, m.appointments, id, "appointments")
}

// ListContacts returns all contacts ordered by name.
func (m *MemoryStore) ListContacts(_ context.Context) ([]domain.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Contact, 0, len(m.contacts))
	for _, v := range m.contacts {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AddContact inserts a contact and returns its id.
func (m *MemoryStore) AddContact(_ context.Context, c domain.Contact) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.contacts[c.ID] = c
	return c.ID, nil
}

// DeleteContact removes a contact by id.
func (m *MemoryStore) DeleteContact(_ context.Context, id int64) error {
	return deleteKeyed(m, m.contacts, id, "contacts")
}

// ListCaseNumbers returns all case numbers ordered by type.
func (m *MemoryStore) ListCaseNumbers(_ context.Context) ([]domain.CaseNumber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CaseNumber, 0, len(m.caseNumbers))
	for _, v := range m.caseNumbers {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// AddCaseNumber inserts a case number and returns its id.
func (m *MemoryStore) AddCaseNumber(_ context.Context, n domain.CaseNumber) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	n.ID = m.nextID
	m.caseNumbers[n.ID] = n
	return n.ID, nil
}

// DeleteCaseNumber removes a case number by id.
func (m *MemoryStore) DeleteCaseNumber(_ context.Context, id int64) error {
	return deleteKeyed(m, m.caseNumbers, id, "case_numbers")
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close releases nothing for the in-memory store.
func (m *MemoryStore) Close() error { return nil }

func deleteKeyed[V any](m *MemoryStore, table map[int64]V, id int64, what string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := table[id]; !ok {
		return fmt.Errorf("delete from %s: %w", what, ErrNotFound)
	}
	delete(table, id)
	return nil
}
