// Package audit records every CRM write: who ran which mutation, how long it
// took and whether it succeeded.
package audit

import (
	"context"
	"time"
)

// Logger defines the interface for audit logging.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, event Event) error

	// Query retrieves audit events matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Close releases resources.
	Close() error
}

// Event is one completed mutation.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	DurationMS   int64     `json:"duration_ms"`
	Principal    string    `json:"principal"`
	Mutation     string    `json:"mutation"`
	Success      bool      `json:"success"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// QueryFilter defines criteria for querying audit events.
type QueryFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	Principal string
	Mutation  string
	Success   *bool
	Limit     int
	Offset    int
}

// Matches reports whether e satisfies every set field of f. Limit and Offset
// are ignored.
func (f QueryFilter) Matches(e Event) bool {
	switch {
	case f.StartTime != nil && e.Timestamp.Before(*f.StartTime):
		return false
	case f.EndTime != nil && e.Timestamp.After(*f.EndTime):
		return false
	case f.Principal != "" && e.Principal != f.Principal:
		return false
	case f.Mutation != "" && e.Mutation != f.Mutation:
		return false
	case f.Success != nil && e.Success != *f.Success:
		return false
	}
	return true
}

// Config configures audit logging.
type Config struct {
	Enabled       bool
	RetentionDays int
}
