package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/actor/memory"
	"github.com/txn2/realty-crm/pkg/attendance"
	"github.com/txn2/realty-crm/pkg/crm"
	"github.com/txn2/realty-crm/pkg/query"
)

var _ attendance.Recorder = (*crm.Service)(nil)

type agent actor.Principal

func (a agent) Principal() actor.Principal { return actor.Principal(a) }

type stream struct{}

func (stream) Capture(context.Context) ([]byte, error) { return []byte("jpeg-bytes-from-the-front-camera"), nil }
func (stream) Close() error                            { return nil }

type camera struct{}

func (camera) Open(context.Context) (attendance.Stream, error) { return stream{}, nil }

type locator struct{}

func (locator) Locate(context.Context, attendance.LocateOptions) (actor.LocationData, error) {
	return actor.LocationData{Latitude: 19.076, Longitude: 72.8777}, nil
}

func TestCheckInThroughService(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	backend := memory.NewBackend(memory.WithClock(func() time.Time { return now }))
	svc := crm.New(backend.As("agent-1"), query.New(), agent("agent-1"), crm.WithClock(func() time.Time { return now }))
	require.NoError(t, svc.SaveCallerUserProfile(ctx, actor.UserProfile{Name: "Asha"}))

	flow := attendance.NewFlow(camera{}, locator{}, attendance.StubVerifier{}, svc)
	_, err := flow.Start(ctx)
	require.NoError(t, err)
	_, err = flow.Capture(ctx)
	require.NoError(t, err)

	_, err = flow.Start(ctx)
	require.NoError(t, err)
	_, err = flow.Capture(ctx)
	require.ErrorIs(t, err, crm.ErrAlreadyCheckedIn)
	require.NoError(t, flow.Cancel(ctx))

	_, err = flow.CheckOut(ctx)
	require.NoError(t, err)
	_, err = flow.CheckOut(ctx)
	require.ErrorIs(t, err, crm.ErrAlreadyCheckedOut)

	latest, err := svc.LatestAttendance(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(attendance.DefaultConfidenceScore), latest.FaceVerification.ConfidenceScore)
	assert.False(t, latest.IsOpen())
}
