package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// PrincipalSource reports the logged-in principal.
type PrincipalSource interface {
	Principal() actor.Principal
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger used for write failures.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithRecorderClock overrides the event time source.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// Recorder turns completed mutations into audit events.
type Recorder struct {
	sink     Logger
	identity PrincipalSource
	logger   *slog.Logger
	now      func() time.Time
}

// NewRecorder creates a Recorder writing to sink.
func NewRecorder(sink Logger, identity PrincipalSource, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sink:     sink,
		identity: identity,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MutationDone implements query.MutationObserver. A failed write is logged
// and never fails the mutation.
func (r *Recorder) MutationDone(ctx context.Context, name string, d time.Duration, err error) {
	event := NewEvent(name).WithTimestamp(r.now()).WithResult(d, err)
	if r.identity != nil {
		event.WithPrincipal(r.identity.Principal())
	}
	if logErr := r.sink.Log(context.WithoutCancel(ctx), *event); logErr != nil {
		r.logger.Warn("writing audit event failed", "mutation", name, "error", logErr)
	}
}

// Verify interface compliance.
var _ query.MutationObserver = (*Recorder)(nil)
