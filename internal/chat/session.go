package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmcgowen/haven/internal/domain"
	"github.com/rmcgowen/haven/internal/store"
)

// tracked wraps a message with its persistence state. The persisted flag is
// how replay stays idempotent: a logical message is written at most once no
// matter how many times the client resends it.
type tracked struct {
	msg       domain.Message
	persisted bool
}

// Session holds the in-memory conversation and reconciles it against both
// the store and client-supplied history.
type Session struct {
	mu       sync.Mutex
	repo     store.Repository
	messages []tracked
}

// NewSession creates an empty session over the given store.
func NewSession(repo store.Repository) *Session {
	return &Session{repo: repo}
}

// Restore loads persisted history and prepends the welcome message. Restored
// messages and the welcome are tagged persisted so a later flush never
// duplicates them.
func (s *Session) Restore(ctx context.Context, limit int) error {
	stored, err := s.repo.RecentMessages(ctx, limit)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = s.messages[:0]
	s.messages = append(s.messages, tracked{msg: welcome(), persisted: true})
	for _, m := range stored {
		s.messages = append(s.messages, tracked{msg: m, persisted: true})
	}
	return nil
}

// Reset drops all in-memory history back to just the welcome message. Used
// after the stored history is cleared.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []tracked{{msg: welcome(), persisted: true}}
}

// Sync reconciles client-supplied history with the session. Messages the
// session already knows by id are left alone; unknown ones join the session
// unpersisted and get flushed with the next completed turn.
func (s *Session) Sync(msgs []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]struct{}, len(s.messages))
	for _, t := range s.messages {
		known[t.msg.ID] = struct{}{}
	}
	for _, m := range msgs {
		if m.ID == "" || !m.Role.Valid() {
			continue
		}
		if _, ok := known[m.ID]; ok {
			continue
		}
		known[m.ID] = struct{}{}
		s.messages = append(s.messages, tracked{msg: m})
	}
}

// Append adds a new unpersisted message and returns it.
func (s *Session) Append(role domain.Role, content string) domain.Message {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	s.mu.Lock()
	s.messages = append(s.messages, tracked{msg: msg})
	s.mu.Unlock()
	return msg
}

// Messages returns a snapshot of the conversation in order.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	for i, t := range s.messages {
		out[i] = t.msg
	}
	return out
}

// Flush persists every unpersisted message in order. Store failures leave
// the flags untouched so the next flush retries; the session keeps working
// from memory either way.
func (s *Session) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].persisted {
			continue
		}
		if err := s.repo.AppendMessage(ctx, s.messages[i].msg); err != nil {
			slog.Warn("failed to persist message", "id", s.messages[i].msg.ID, "error", err)
			return
		}
		s.messages[i].persisted = true
	}
}

func welcome() domain.Message {
	return domain.Message{
		ID:      welcomeMessageID,
		Role:    domain.RoleAssistant,
		Content: welcomeMessage,
	}
}
