package testutil

import (
	"context"
	"sync"
	"testing"

	"cdr.dev/slog"
)

// LogSink is a slog.Sink recording every entry it receives.
type LogSink struct {
	mu      sync.Mutex
	entries []slog.SinkEntry
}

var _ slog.Sink = &LogSink{}

// NewLogger returns a debug-level logger writing to a fresh LogSink.
func NewLogger(t testing.TB) (slog.Logger, *LogSink) {
	t.Helper()
	sink := &LogSink{}
	return slog.Make(sink).Leveled(slog.LevelDebug), sink
}

func (s *LogSink) LogEntry(_ context.Context, e slog.SinkEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (*LogSink) Sync() {}

// Entries returns a snapshot of the recorded entries.
func (s *LogSink) Entries() []slog.SinkEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]slog.SinkEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// EntriesAt returns the recorded entries logged at level.
func (s *LogSink) EntriesAt(level slog.Level) []slog.SinkEntry {
	var out []slog.SinkEntry
	for _, e := range s.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the messages of the recorded entries logged at level.
func (s *LogSink) Messages(level slog.Level) []string {
	var out []string
	for _, e := range s.EntriesAt(level) {
		out = append(out, e.Message)
	}
	return out
}

// RequireMessages fails the test unless exactly n entries were logged at level,
// and returns their messages.
func (s *LogSink) RequireMessages(t testing.TB, level slog.Level, n int) []string {
	t.Helper()
	msgs := s.Messages(level)
	if len(msgs) != n {
		t.Fatalf("got %d %s entries, want %d: %q", len(msgs), level, n, msgs)
	}
	return msgs
}

// Field returns the value of the named field of e.
func Field(e slog.SinkEntry, name string) (any, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}
