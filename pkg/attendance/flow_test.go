package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/realty-crm/pkg/actor"
)

type fakeStream struct {
	photo      []byte
	captureErr error
	closed     int
}

func (s *fakeStream) Capture(context.Context) ([]byte, error) {
	return s.photo, s.captureErr
}

func (s *fakeStream) Close() error {
	s.closed++
	return nil
}

type fakeCamera struct {
	mu      sync.Mutex
	streams []*fakeStream
	err     error
	photo   []byte
}

func (c *fakeCamera) Open(context.Context) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	s := &fakeStream{photo: c.photo}
	c.streams = append(c.streams, s)
	return s, nil
}

func (c *fakeCamera) last() *fakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[len(c.streams)-1]
}

type fakeLocator struct {
	loc   actor.LocationData
	err   error
	block bool
	opts  LocateOptions
}

func (l *fakeLocator) Locate(ctx context.Context, opts LocateOptions) (actor.LocationData, error) {
	l.opts = opts
	if l.block {
		<-ctx.Done()
		return actor.LocationData{}, ctx.Err()
	}
	return l.loc, l.err
}

type fakeRecorder struct {
	checkIns  []actor.FaceVerificationResult
	locations []actor.LocationData
	err       error
	checkOuts int
}

func (r *fakeRecorder) MarkAttendance(_ context.Context, face actor.FaceVerificationResult, loc actor.LocationData) (actor.ID, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.checkIns = append(r.checkIns, face)
	r.locations = append(r.locations, loc)
	return actor.ID(len(r.checkIns)), nil
}

func (r *fakeRecorder) MarkCheckOut(context.Context) (actor.ID, error) {
	r.checkOuts++
	return 1, nil
}

var office = actor.LocationData{Latitude: 12.9716, Longitude: 77.5946, LocationTimestamp: 1}

func photo() []byte {
	b := make([]byte, 64)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func newTestFlow(cam *fakeCamera, loc *fakeLocator, rec *fakeRecorder, opts ...Option) *Flow {
	return NewFlow(cam, loc, StubVerifier{}, rec, opts...)
}

func TestFlow_CheckIn(t *testing.T) {
	ctx := context.Background()
	cam := &fakeCamera{photo: photo()}
	loc := &fakeLocator{loc: office}
	rec := &fakeRecorder{}
	f := newTestFlow(cam, loc, rec)

	snap, err := f.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.CameraActive)
	require.NotNil(t, snap.Location)
	assert.Equal(t, office, *snap.Location)
	assert.True(t, loc.opts.HighAccuracy)
	assert.Zero(t, loc.opts.MaxAge)
	assert.Equal(t, DefaultLocationTimeout, loc.opts.Timeout)

	id, err := f.Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, actor.ID(1), id)
	assert.Equal(t, StateIdle, f.State())
	assert.Equal(t, 1, cam.last().closed)

	require.Len(t, rec.checkIns, 1)
	face := rec.checkIns[0]
	assert.True(t, face.IsSuccess)
	assert.Equal(t, uint64(95), face.ConfidenceScore)
	assert.Len(t, face.FaceDataHash, 64)
	assert.Equal(t, office, rec.locations[0])
}

func TestFlow_CaptureRequiresReady(t *testing.T) {
	rec := &fakeRecorder{}
	f := newTestFlow(&fakeCamera{photo: photo()}, &fakeLocator{loc: office}, rec)

	_, err := f.Capture(context.Background())
	require.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, rec.checkIns)
}

func TestFlow_LocationFailures(t *testing.T) {
	tests := []struct {
		name    string
		locator *fakeLocator
		reason  LocationReason
		message string
	}{
		{
			name:    "permission denied",
			locator: &fakeLocator{err: &LocationError{Reason: ReasonPermissionDenied}},
			reason:  ReasonPermissionDenied,
			message: "Location permission denied. Please enable location access.",
		},
		{
			name:    "unavailable",
			locator: &fakeLocator{err: errors.New("no fix")},
			reason:  ReasonUnavailable,
			message: "Location information unavailable.",
		},
		{
			name:    "timeout",
			locator: &fakeLocator{block: true},
			reason:  ReasonTimeout,
			message: "Location request timed out.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := &fakeCamera{photo: photo()}
			rec := &fakeRecorder{}
			f := newTestFlow(cam, tt.locator, rec, WithLocationTimeout(10*time.Millisecond))

			snap, err := f.Start(context.Background())
			require.Error(t, err)
			var le *LocationError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.reason, le.Reason)
			assert.Equal(t, tt.message, err.Error())

			assert.Equal(t, StateFailed, snap.State)
			assert.False(t, snap.CameraActive)
			assert.Equal(t, 1, cam.last().closed, "camera released")

			_, err = f.Capture(context.Background())
			require.ErrorIs(t, err, ErrNotReady)
			assert.Empty(t, rec.checkIns)
		})
	}
}

func TestFlow_CameraFailure(t *testing.T) {
	f := newTestFlow(&fakeCamera{err: errors.New("permission denied")}, &fakeLocator{loc: office}, &fakeRecorder{})

	snap, err := f.Start(context.Background())
	require.ErrorIs(t, err, ErrCameraUnavailable)
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, err, snap.Err)

	require.NoError(t, f.Cancel(context.Background()))
	assert.Equal(t, StateIdle, f.State())
}

func TestFlow_SubmitFailureKeepsCamera(t *testing.T) {
	ctx := context.Background()
	cam := &fakeCamera{photo: photo()}
	rec := &fakeRecorder{err: errors.New("backend down")}
	f := newTestFlow(cam, &fakeLocator{loc: office}, rec)

	_, err := f.Start(ctx)
	require.NoError(t, err)

	_, err = f.Capture(ctx)
	require.Error(t, err)
	snap := f.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.CameraActive)
	assert.Zero(t, cam.last().closed)

	rec.err = nil
	_, err = f.Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cam.last().closed)
}

func TestFlow_CaptureFailure(t *testing.T) {
	ctx := context.Background()
	cam := &fakeCamera{photo: nil}
	f := newTestFlow(cam, &fakeLocator{loc: office}, &fakeRecorder{})

	_, err := f.Start(ctx)
	require.NoError(t, err)
	_, err = f.Capture(ctx)
	require.ErrorContains(t, err, "verifying face")
	assert.Equal(t, StateReady, f.State())
}

func TestFlow_CancelReleasesCamera(t *testing.T) {
	ctx := context.Background()
	cam := &fakeCamera{photo: photo()}
	f := newTestFlow(cam, &fakeLocator{loc: office}, &fakeRecorder{})

	_, err := f.Start(ctx)
	require.NoError(t, err)
	_, err = f.Start(ctx)
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, f.Cancel(ctx))
	snap := f.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.CameraActive)
	assert.Nil(t, snap.Location)
	assert.Equal(t, 1, cam.last().closed)

	require.NoError(t, f.Close(ctx))
	assert.Equal(t, 1, cam.last().closed, "closing twice releases once")
}

// gatedCamera holds its first Open until release is closed.
type gatedCamera struct {
	mu      sync.Mutex
	streams []*fakeStream
	entered chan struct{}
	release chan struct{}
}

func newGatedCamera() *gatedCamera {
	return &gatedCamera{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (c *gatedCamera) Open(context.Context) (Stream, error) {
	c.mu.Lock()
	s := &fakeStream{photo: photo()}
	c.streams = append(c.streams, s)
	first := len(c.streams) == 1
	c.mu.Unlock()

	if first {
		c.entered <- struct{}{}
		<-c.release
	}
	return s, nil
}

func (c *gatedCamera) stream(i int) *fakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[i]
}

type staticLocator struct{}

func (staticLocator) Locate(context.Context, LocateOptions) (actor.LocationData, error) {
	return office, nil
}

func TestFlow_CancelDuringAcquisition(t *testing.T) {
	ctx := context.Background()
	cam := newGatedCamera()
	f := NewFlow(cam, staticLocator{}, StubVerifier{}, &fakeRecorder{})

	started := make(chan error, 1)
	go func() {
		_, err := f.Start(ctx)
		started <- err
	}()
	<-cam.entered
	assert.Equal(t, StateAcquiring, f.State())

	require.NoError(t, f.Cancel(ctx))
	assert.Equal(t, StateIdle, f.State())

	close(cam.release)
	assert.ErrorIs(t, <-started, context.Canceled)

	snap := f.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.CameraActive)
	assert.Nil(t, snap.Location)
	assert.Equal(t, 1, cam.stream(0).closed, "a stream opened after cancel is released once")
}

func TestFlow_RestartReplacesAcquisition(t *testing.T) {
	ctx := context.Background()
	cam := newGatedCamera()
	f := NewFlow(cam, staticLocator{}, StubVerifier{}, &fakeRecorder{})

	first := make(chan error, 1)
	go func() {
		_, err := f.Start(ctx)
		first <- err
	}()
	<-cam.entered

	_, err := f.Start(ctx)
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, f.Cancel(ctx))
	snap, err := f.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)

	close(cam.release)
	assert.ErrorIs(t, <-first, context.Canceled)

	snap = f.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.CameraActive)
	assert.Equal(t, 1, cam.stream(0).closed)
	assert.Equal(t, 0, cam.stream(1).closed)

	require.NoError(t, f.Close(ctx))
	assert.Equal(t, 1, cam.stream(1).closed)
}

func TestFlow_CheckOutDelegates(t *testing.T) {
	rec := &fakeRecorder{}
	f := newTestFlow(&fakeCamera{}, &fakeLocator{}, rec)
	_, err := f.CheckOut(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.checkOuts)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateIdle, StateAcquiring, true},
		{StateIdle, StateReady, false},
		{StateIdle, StateSubmitting, false},
		{StateAcquiring, StateReady, true},
		{StateAcquiring, StateFailed, true},
		{StateReady, StateCapturing, true},
		{StateReady, StateSubmitting, false},
		{StateCapturing, StateSubmitting, true},
		{StateSubmitting, StateIdle, true},
		{StateSubmitting, StateReady, true},
		{StateSubmitting, StateCapturing, false},
		{StateFailed, StateReady, false},
		{StateFailed, StateIdle, true},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.ok, canTransition(tt.from, tt.to))
		})
	}
	for s := range stateNames {
		assert.True(t, s == StateIdle || canTransition(s, StateIdle), "%s can reach idle", s)
	}
	assert.Equal(t, "unknown", State(99).String())
}

func TestStubVerifier(t *testing.T) {
	res, err := StubVerifier{}.Verify(context.Background(), []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", res.FaceDataHash)
	assert.Equal(t, "Face captured and verified successfully", res.Message)

	res, err = StubVerifier{ConfidenceScore: 80}.Verify(context.Background(), photo())
	require.NoError(t, err)
	assert.Equal(t, uint64(80), res.ConfidenceScore)
	assert.Equal(t, "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f", res.FaceDataHash)

	_, err = StubVerifier{}.Verify(context.Background(), nil)
	require.Error(t, err)
}
