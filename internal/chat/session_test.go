package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rmcgowen/haven/internal/domain"
	"github.com/rmcgowen/haven/internal/store"
)

func seedMessages(t *testing.T, repo store.Repository, n int) []domain.Message {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	msgs := make([]domain.Message, 0, n)
	for i := 0; i < n; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		msg := domain.Message{
			ID:        fmt.Sprintf("msg-%d", i),
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.AppendMessage(context.Background(), msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestSessionRestorePrependsWelcome(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	seedMessages(t, repo, 3)

	s := NewSession(repo)
	if err := s.Restore(context.Background(), 100); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 4 {
		t.Fatalf("restored %d messages, want welcome + 3", len(msgs))
	}
	if msgs[0].ID != welcomeMessageID || msgs[0].Role != domain.RoleAssistant {
		t.Errorf("first message = %+v, want the welcome message", msgs[0])
	}

	// A flush right after restore writes nothing new.
	s.Flush(context.Background())
	stored, err := repo.RecentMessages(context.Background(), 100)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("stored %d messages after flush, want 3", len(stored))
	}
}

func TestSessionWelcomeNeverPersisted(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	s := NewSession(repo)
	if err := s.Restore(context.Background(), 100); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	s.Flush(context.Background())

	stored, err := repo.RecentMessages(context.Background(), 100)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("stored = %+v, want the welcome message kept out of the store", stored)
	}
}

func TestSessionSyncDeduplicatesReplay(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	persisted := seedMessages(t, repo, 3)

	s := NewSession(repo)
	if err := s.Restore(context.Background(), 100); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	// Client resends everything it knows plus two new messages.
	replay := append([]domain.Message{}, persisted...)
	replay = append(replay,
		domain.Message{ID: "new-1", Role: domain.RoleUser, Content: "new question", Timestamp: time.Now()},
		domain.Message{ID: "new-2", Role: domain.RoleAssistant, Content: "new answer", Timestamp: time.Now()},
	)
	s.Sync(replay)
	s.Sync(replay) // resync is a no-op
	s.Flush(context.Background())

	stored, err := repo.RecentMessages(context.Background(), 100)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(stored) != 5 {
		t.Fatalf("stored %d messages, want exactly 5 (3 replayed + 2 new)", len(stored))
	}
}

func TestSessionFlushSurvivesReplayBeyondRestoreWindow(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	persisted := seedMessages(t, repo, 3)

	// Restore only the newest two; the oldest stored message falls outside
	// the session's window.
	s := NewSession(repo)
	if err := s.Restore(context.Background(), 2); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	// The client replays its full history anyway, then a new turn happens.
	s.Sync(persisted)
	s.Append(domain.RoleUser, "a brand new question")
	s.Flush(context.Background())

	stored, err := repo.RecentMessages(context.Background(), 100)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(stored) != 4 {
		t.Fatalf("stored %d messages, want 4 (3 seeded + 1 new)", len(stored))
	}
	if last := stored[len(stored)-1]; last.Content != "a brand new question" {
		t.Errorf("newest stored message = %+v, want the new turn persisted", last)
	}

	// The replayed out-of-window message is now marked persisted, so a
	// second flush writes nothing.
	s.Flush(context.Background())
	stored, err = repo.RecentMessages(context.Background(), 100)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(stored) != 4 {
		t.Errorf("stored %d messages after reflush, want 4", len(stored))
	}
}

func TestSessionSyncIgnoresInvalidMessages(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	s := NewSession(repo)
	if err := s.Restore(context.Background(), 100); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	before := len(s.Messages())

	s.Sync([]domain.Message{
		{ID: "", Role: domain.RoleUser, Content: "no id"},
		{ID: "bad-role", Role: "system", Content: "nope"},
	})

	if got := len(s.Messages()); got != before {
		t.Errorf("invalid messages joined the session: %d -> %d", before, got)
	}
}

func TestSessionReset(t *testing.T) {
	t.Parallel()

	repo := store.NewMemory()
	seedMessages(t, repo, 2)
	s := NewSession(repo)
	if err := s.Restore(context.Background(), 100); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	s.Reset()
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].ID != welcomeMessageID {
		t.Errorf("after Reset messages = %+v, want just the welcome", msgs)
	}
}
