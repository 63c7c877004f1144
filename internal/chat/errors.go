// Package chat orchestrates the streaming conversation pipeline: one
// in-flight request at a time, replay-safe history, and context extraction
// on completed turns.
package chat

import (
	"errors"
	"fmt"

	"github.com/rmcgowen/haven/internal/provider"
)

// ErrBusy is returned when a submission arrives while another request is in
// flight. The new submission is rejected, never queued.
var ErrBusy = errors.New("a request is already in flight")

// ErrEmptyMessage is returned for empty or whitespace-only submissions.
var ErrEmptyMessage = errors.New("message is empty")

// TransportError wraps a provider failure during streaming. The partial
// assistant output has been discarded by the time this is surfaced.
type TransportError struct {
	Provider provider.ID
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
