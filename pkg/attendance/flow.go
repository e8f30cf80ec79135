// Package attendance implements the agent check-in flow: acquire the camera
// and a fresh location in parallel, capture a photo, verify it, and submit
// the attendance record. The camera is released on every exit path.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/txn2/realty-crm/pkg/actor"
)

// DefaultLocationTimeout bounds the single location request of a check-in.
const DefaultLocationTimeout = 15 * time.Second

// Snapshot is the observable state of a Flow.
type Snapshot struct {
	State        State
	CameraActive bool
	Location     *actor.LocationData
	Err          error
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) {
		f.logger = logger
	}
}

// WithLocationTimeout overrides DefaultLocationTimeout.
func WithLocationTimeout(d time.Duration) Option {
	return func(f *Flow) {
		f.locationTimeout = d
	}
}

// Flow drives one agent's check-in. Methods are safe for concurrent use.
type Flow struct {
	camera          Camera
	locator         Locator
	verifier        Verifier
	recorder        Recorder
	logger          *slog.Logger
	locationTimeout time.Duration

	mu       sync.Mutex
	state    State
	stream   Stream
	location *actor.LocationData
	err      error
	attempt  uint64
}

// NewFlow creates an idle flow.
func NewFlow(camera Camera, locator Locator, verifier Verifier, recorder Recorder, opts ...Option) *Flow {
	f := &Flow{
		camera:          camera,
		locator:         locator,
		verifier:        verifier,
		recorder:        recorder,
		logger:          slog.Default(),
		locationTimeout: DefaultLocationTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot returns the current observable state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Flow) snapshot() Snapshot {
	s := Snapshot{State: f.state, CameraActive: f.stream != nil, Err: f.err}
	if f.location != nil {
		loc := *f.location
		s.Location = &loc
	}
	return s
}

// moveTo changes state. Callers hold f.mu.
func (f *Flow) moveTo(to State) error {
	if f.state == to {
		return nil
	}
	if !canTransition(f.state, to) {
		return &TransitionError{From: f.state, To: to}
	}
	f.logger.Debug("attendance state", "from", f.state.String(), "to", to.String())
	f.state = to
	return nil
}

// Start acquires the camera and the location concurrently. Both must succeed
// for the flow to become Ready; otherwise it is Failed with the camera
// released.
func (f *Flow) Start(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	if f.state != StateIdle && f.state != StateFailed {
		defer f.mu.Unlock()
		return f.snapshot(), ErrBusy
	}
	_ = f.moveTo(StateAcquiring)
	f.location = nil
	f.err = nil
	f.attempt++
	attempt := f.attempt
	f.mu.Unlock()

	var (
		stream         Stream
		loc            actor.LocationData
		camErr, locErr error
		g              errgroup.Group
	)
	g.Go(func() error {
		stream, camErr = f.camera.Open(ctx)
		return nil
	})
	g.Go(func() error {
		loc, locErr = f.locate(ctx)
		return nil
	})
	_ = g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.attempt != attempt || f.state != StateAcquiring {
		// Cancelled while acquiring.
		closeStream(f.logger, stream)
		return f.snapshot(), context.Canceled
	}

	var err error
	switch {
	case camErr != nil:
		err = fmt.Errorf("%w: %w", ErrCameraUnavailable, camErr)
	case locErr != nil:
		err = locErr
	}
	if err != nil {
		closeStream(f.logger, stream)
		f.err = err
		_ = f.moveTo(StateFailed)
		f.logger.Warn("check-in acquisition failed", "error", err)
		return f.snapshot(), err
	}

	f.stream = stream
	f.location = &loc
	_ = f.moveTo(StateReady)
	return f.snapshot(), nil
}

func (f *Flow) locate(ctx context.Context) (actor.LocationData, error) {
	ctx, cancel := context.WithTimeout(ctx, f.locationTimeout)
	defer cancel()

	loc, err := f.locator.Locate(ctx, LocateOptions{HighAccuracy: true, Timeout: f.locationTimeout})
	if err == nil {
		return loc, nil
	}
	var le *LocationError
	switch {
	case errors.As(err, &le):
		return loc, le
	case errors.Is(err, context.DeadlineExceeded):
		return loc, &LocationError{Reason: ReasonTimeout, Err: err}
	default:
		return loc, &LocationError{Reason: ReasonUnavailable, Err: err}
	}
}

// Capture takes the photo, verifies it and submits the check-in. It requires
// Ready. On success the camera is released and the flow is Idle; on failure
// the camera stays open and the flow returns to Ready.
func (f *Flow) Capture(ctx context.Context) (actor.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateReady || f.stream == nil || f.location == nil {
		return 0, ErrNotReady
	}
	_ = f.moveTo(StateCapturing)

	photo, err := f.stream.Capture(ctx)
	if err != nil {
		return 0, f.recover(fmt.Errorf("capturing photo: %w", err))
	}
	face, err := f.verifier.Verify(ctx, photo)
	if err != nil {
		return 0, f.recover(fmt.Errorf("verifying face: %w", err))
	}

	_ = f.moveTo(StateSubmitting)
	id, err := f.recorder.MarkAttendance(ctx, face, *f.location)
	if err != nil {
		return 0, f.recover(err)
	}

	f.release()
	_ = f.moveTo(StateIdle)
	f.logger.Info("check-in submitted", "record_id", id, "confidence", face.ConfidenceScore)
	return id, nil
}

// recover returns the flow to Ready after a failed capture. Callers hold f.mu.
func (f *Flow) recover(err error) error {
	f.err = err
	_ = f.moveTo(StateReady)
	f.logger.Warn("check-in failed", "error", err)
	return err
}

// Cancel abandons the check-in, releasing the camera.
func (f *Flow) Cancel(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release()
	f.err = nil
	return f.moveTo(StateIdle)
}

// Close releases the camera on teardown.
func (f *Flow) Close(ctx context.Context) error {
	return f.Cancel(ctx)
}

// CheckOut closes the caller's open attendance record.
func (f *Flow) CheckOut(ctx context.Context) (actor.ID, error) {
	return f.recorder.MarkCheckOut(ctx)
}

// release closes the stream and forgets the location. Callers hold f.mu.
func (f *Flow) release() {
	closeStream(f.logger, f.stream)
	f.stream = nil
	f.location = nil
}

func closeStream(logger *slog.Logger, s Stream) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		logger.Warn("releasing camera failed", "error", err)
	}
}
