package query

import (
	"context"
	"log/slog"
	"time"
)

// Notifier surfaces transient user-facing messages after a mutation.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Success implements Notifier.
func (n LogNotifier) Success(msg string) {
	n.logger().Info(msg, "notification", "success")
}

// Error implements Notifier.
func (n LogNotifier) Error(msg string) {
	n.logger().Error(msg, "notification", "error")
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

// MutationObserver is told about every completed mutation.
type MutationObserver interface {
	MutationDone(ctx context.Context, name string, duration time.Duration, err error)
}

// Verify interface compliance.
var _ Notifier = LogNotifier{}
