package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/txn2/realty-crm/pkg/actor"
)

// NewEvent creates a new audit event for mutation.
func NewEvent(mutation string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Mutation:  mutation,
	}
}

// WithPrincipal adds the caller to the event.
func (e *Event) WithPrincipal(p actor.Principal) *Event {
	e.Principal = string(p)
	return e
}

// WithTimestamp overrides the event time.
func (e *Event) WithTimestamp(t time.Time) *Event {
	e.Timestamp = t
	return e
}

// WithResult adds the outcome. A nil err is a success; otherwise its kind
// and message are kept.
func (e *Event) WithResult(d time.Duration, err error) *Event {
	e.DurationMS = d.Milliseconds()
	e.Success = err == nil
	if err != nil {
		e.ErrorKind = actor.KindOf(err).String()
		e.ErrorMessage = err.Error()
	}
	return e
}
