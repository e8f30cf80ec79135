package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/realty-crm/pkg/actor"
)

type fixedPrincipal actor.Principal

func (p fixedPrincipal) Principal() actor.Principal { return actor.Principal(p) }

type failingLogger struct{ SlogLogger }

func (*failingLogger) Log(context.Context, Event) error { return errors.New("disk full") }

func TestNewEvent(t *testing.T) {
	e := NewEvent("addLead")
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "addLead", e.Mutation)
	assert.False(t, e.Timestamp.IsZero())
}

func TestEvent_WithResult(t *testing.T) {
	ok := NewEvent("addLead").WithResult(1500*time.Millisecond, nil)
	assert.True(t, ok.Success)
	assert.Equal(t, int64(1500), ok.DurationMS)
	assert.Empty(t, ok.ErrorKind)

	err := &actor.Error{Kind: actor.KindUnauthorized, Op: "addLead", Message: "admin only"}
	failed := NewEvent("addLead").WithResult(time.Millisecond, err)
	assert.False(t, failed.Success)
	assert.Equal(t, "unauthorized", failed.ErrorKind)
	assert.Equal(t, "addLead: admin only", failed.ErrorMessage)

	plain := NewEvent("addLead").WithResult(0, errors.New("boom"))
	assert.Equal(t, "unknown", plain.ErrorKind)
}

func TestQueryFilter_Matches(t *testing.T) {
	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	e := Event{Timestamp: base, Principal: "agent-asha", Mutation: "addLead", Success: true}
	before := base.Add(-time.Hour)
	after := base.Add(time.Hour)
	yes, no := true, false

	assert.True(t, QueryFilter{}.Matches(e))
	assert.True(t, QueryFilter{StartTime: &before, EndTime: &after}.Matches(e))
	assert.False(t, QueryFilter{StartTime: &after}.Matches(e))
	assert.False(t, QueryFilter{EndTime: &before}.Matches(e))
	assert.True(t, QueryFilter{Principal: "agent-asha", Mutation: "addLead", Success: &yes}.Matches(e))
	assert.False(t, QueryFilter{Principal: "admin-1"}.Matches(e))
	assert.False(t, QueryFilter{Mutation: "deleteLead"}.Matches(e))
	assert.False(t, QueryFilter{Success: &no}.Matches(e))
}

func TestSlogLogger_LogAndQuery(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)), 3)
	ctx := context.Background()

	for _, m := range []string{"addLead", "updateLead", "addLead", "deleteLead"} {
		require.NoError(t, l.Log(ctx, *NewEvent(m).WithPrincipal("agent-asha")))
	}
	assert.Contains(t, buf.String(), "mutation=deleteLead")

	all, err := l.Query(ctx, QueryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "deleteLead", all[0].Mutation)
	assert.Equal(t, "updateLead", all[2].Mutation)

	adds, err := l.Query(ctx, QueryFilter{Mutation: "addLead"})
	require.NoError(t, err)
	assert.Len(t, adds, 1)

	paged, err := l.Query(ctx, QueryFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "addLead", paged[0].Mutation)

	assert.NoError(t, l.Close())
}

func TestSlogLogger_DefaultCapacity(t *testing.T) {
	l := NewSlogLogger(nil, 0)
	assert.Equal(t, defaultSlogCapacity, l.capacity)
}

func TestRecorder_MutationDone(t *testing.T) {
	sink := NewSlogLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), 10)
	at := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	r := NewRecorder(sink, fixedPrincipal("agent-asha"), WithRecorderClock(func() time.Time { return at }))

	r.MutationDone(context.Background(), "addLead", 20*time.Millisecond, nil)
	r.MutationDone(context.Background(), "deleteLead", time.Millisecond,
		&actor.Error{Kind: actor.KindNotFound, Op: "deleteLead", Message: "lead 9"})

	events, err := sink.Query(context.Background(), QueryFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "deleteLead", events[0].Mutation)
	assert.Equal(t, "notFound", events[0].ErrorKind)
	assert.False(t, events[0].Success)
	assert.Equal(t, "agent-asha", events[1].Principal)
	assert.Equal(t, at, events[1].Timestamp)
	assert.Equal(t, int64(20), events[1].DurationMS)
}

func TestRecorder_SinkFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&failingLogger{}, nil, WithRecorderLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	r.MutationDone(context.Background(), "addLead", 0, nil)
	assert.Contains(t, buf.String(), "writing audit event failed")
	assert.Contains(t, buf.String(), "disk full")
}
