package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rmcgowen/haven/internal/config"
)

// ConversationLogEvent is one NDJSON line in the conversation log.
type ConversationLogEvent struct {
	Timestamp  string         `json:"timestamp"`
	SessionID  string         `json:"session_id"`
	Direction  string         `json:"direction"`
	EventType  string         `json:"event_type"`
	ContentRaw string         `json:"content_raw"`
	Content    string         `json:"content"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// ConversationLogger records chat traffic for later review. Log must never
// block the request path.
type ConversationLogger interface {
	Log(event ConversationLogEvent)
	Close() error
}

type noopConversationLogger struct{}

func (noopConversationLogger) Log(ConversationLogEvent) {}
func (noopConversationLogger) Close() error             { return nil }

// defaultSessionID names the log file when an event carries no session id.
const defaultSessionID = "conversation"

// AsyncConversationLogger writes per-session NDJSON files from a background
// goroutine. When the queue is full events are dropped, not blocked on.
type AsyncConversationLogger struct {
	log     *slog.Logger
	queue   chan ConversationLogEvent
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool

	dir   string
	files map[string]*os.File
}

// NewConversationLogger builds a logger from configuration. Disabled
// logging returns a no-op implementation.
func NewConversationLogger(cfg config.ConversationLogConfig, log *slog.Logger) (ConversationLogger, error) {
	if !cfg.Enabled {
		return noopConversationLogger{}, nil
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversation log dir: %w", err)
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}

	l := &AsyncConversationLogger{
		log:   log,
		queue: make(chan ConversationLogEvent, queueSize),
		dir:   cfg.Dir,
		files: make(map[string]*os.File),
	}
	l.wg.Add(1)
	go l.run()
	return l, nil
}

// Log enqueues one event. Full queue drops the event with a warning.
func (l *AsyncConversationLogger) Log(event ConversationLogEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if event.SessionID == "" {
		event.SessionID = defaultSessionID
	}
	if event.Content == "" {
		event.Content = cleanForReadability(event.ContentRaw)
	}

	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- event:
	default:
		l.log.Warn("conversation log queue full, dropping event", "event_type", event.EventType)
	}
}

// Close stops the writer after draining queued events.
func (l *AsyncConversationLogger) Close() error {
	l.closeMu.Lock()
	if l.closed {
		l.closeMu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.closeMu.Unlock()

	l.wg.Wait()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *AsyncConversationLogger) run() {
	defer l.wg.Done()
	for event := range l.queue {
		l.write(event)
	}
}

func (l *AsyncConversationLogger) write(event ConversationLogEvent) {
	f, err := l.file(event.SessionID)
	if err != nil {
		l.log.Warn("failed to open conversation log file", "session_id", event.SessionID, "error", err)
		return
	}

	line, err := json.Marshal(event)
	if err != nil {
		l.log.Warn("failed to marshal conversation log event", "error", err)
		return
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		l.log.Warn("failed to write conversation log event", "error", err)
	}
}

func (l *AsyncConversationLogger) file(sessionID string) (*os.File, error) {
	if f, ok := l.files[sessionID]; ok {
		return f, nil
	}
	path := filepath.Join(l.dir, filepath.Base(sessionID)+".ndjson")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	l.files[sessionID] = f
	return f, nil
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// cleanForReadability strips ANSI escapes and non-printing control
// characters so logged model output stays greppable.
func cleanForReadability(s string) string {
	s = ansiEscape.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
