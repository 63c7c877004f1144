// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/rmcgowen/haven/internal/domain"
)

// ErrUnavailable indicates the local store cannot be opened or reached.
// Callers degrade to in-memory operation for the session instead of failing.
var ErrUnavailable = errors.New("store unavailable")

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository defines the persistence surface for user state. Implementations
// return copies; mutating a returned value never changes stored state.
type Repository interface {
	// AppendMessage persists one chat message. Messages are immutable;
	// appending an id that is already stored is a no-op, not an error.
	AppendMessage(ctx context.Context, msg domain.Message) error

	// RecentMessages returns the most recent limit messages in chronological
	// order, oldest first.
	RecentMessages(ctx context.Context, limit int) ([]domain.Message, error)

	// ClearMessages wipes the message history. Other tables are untouched.
	ClearMessages(ctx context.Context) error

	// SeedActions seeds or migrates the stored action plan for the given
	// catalog version. A no-op when the stored version matches and actions
	// exist; otherwise it runs the preserve-and-replace migration atomically.
	// Safe to re-run after a partial failure.
	SeedActions(ctx context.Context, cat []domain.ActionItem, version int) error

	// ListActions returns the action plan sorted by priority.
	ListActions(ctx context.Context) ([]domain.ActionItem, error)

	// UpdateActionStatus sets status and notes for one action. Moving to done
	// stamps CompletedAt; any other status clears it.
	UpdateActionStatus(ctx context.Context, id string, status domain.ActionStatus, notes string) error

	// Context returns the singleton user context, zero-valued before the
	// first merge.
	Context(ctx context.Context) (domain.UserContext, error)

	// MergeContext applies a partial update to the stored context and returns
	// the merged result.
	MergeContext(ctx context.Context, update domain.ContextUpdate) (domain.UserContext, error)

	// ClearContext resets the user context to empty.
	ClearContext(ctx context.Context) error

	// Profile returns the singleton profile, creating the default record on
	// first read.
	Profile(ctx context.Context) (domain.Profile, error)

	// UpdateProfile replaces the stored profile.
	UpdateProfile(ctx context.Context, p domain.Profile) error

	ListMedications(ctx context.Context) ([]domain.Medication, error)
	AddMedication(ctx context.Context, m domain.Medication) (int64, error)
	DeleteMedication(ctx context.Context, id int64) error

	ListAppointments(ctx context.Context) ([]domain.Appointment, error)
	AddAppointment(ctx context.Context, a domain.Appointment) (int64, error)
	DeleteAppointment(ctx context.Context, id int64) error

	ListContacts(ctx context.Context) ([]domain.Contact, error)
	AddContact(ctx context.Context, c domain.Contact) (int64, error)
	DeleteContact(ctx context.Context, id int64) error

	ListCaseNumbers(ctx context.Context) ([]domain.CaseNumber, error)
	AddCaseNumber(ctx context.Context, n domain.CaseNumber) (int64, error)
	DeleteCaseNumber(ctx context.Context, id int64) error

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error

	// Close closes the store.
	Close() error
}
