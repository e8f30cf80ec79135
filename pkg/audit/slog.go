package audit

import (
	"context"
	"log/slog"
	"sync"
)

const defaultSlogCapacity = 500

// SlogLogger writes events to a slog.Logger and keeps the most recent ones
// in memory so they can be queried.
type SlogLogger struct {
	logger   *slog.Logger
	capacity int

	mu     sync.Mutex
	events []Event
}

// NewSlogLogger creates a SlogLogger retaining up to capacity events. A
// non-positive capacity uses the default of 500.
func NewSlogLogger(logger *slog.Logger, capacity int) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = defaultSlogCapacity
	}
	return &SlogLogger{logger: logger, capacity: capacity}
}

// Log implements Logger.
func (l *SlogLogger) Log(ctx context.Context, e Event) error {
	level := slog.LevelInfo
	if !e.Success {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "audit",
		"id", e.ID,
		"principal", e.Principal,
		"mutation", e.Mutation,
		"duration_ms", e.DurationMS,
		"success", e.Success,
		"error_kind", e.ErrorKind,
		"error", e.ErrorMessage,
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
	return nil
}

// Query implements Logger over the retained events.
func (l *SlogLogger) Query(_ context.Context, f QueryFilter) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []Event{}
	skipped := 0
	for i := len(l.events) - 1; i >= 0; i-- {
		e := l.events[i]
		if !f.Matches(e) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Close implements Logger.
func (*SlogLogger) Close() error {
	return nil
}

// Verify interface compliance.
var _ Logger = (*SlogLogger)(nil)
