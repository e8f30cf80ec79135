package attendance

import (
	"context"
	"time"

	"github.com/txn2/realty-crm/pkg/actor"
)

// Camera opens a video stream for the check-in photo.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open camera. Close releases the hardware.
type Stream interface {
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// LocateOptions constrains a position request.
type LocateOptions struct {
	HighAccuracy bool
	// MaxAge is the oldest cached position accepted. Zero demands a fresh fix.
	MaxAge  time.Duration
	Timeout time.Duration
}

// Locator resolves the current position. Failures should be a
// *LocationError; anything else is reported as unavailable.
type Locator interface {
	Locate(ctx context.Context, opts LocateOptions) (actor.LocationData, error)
}

// Verifier turns a captured photo into a face verification result.
type Verifier interface {
	Verify(ctx context.Context, photo []byte) (actor.FaceVerificationResult, error)
}

// Recorder persists check-ins and check-outs for the logged-in agent.
// *crm.Service implements it.
type Recorder interface {
	MarkAttendance(ctx context.Context, face actor.FaceVerificationResult, loc actor.LocationData) (actor.ID, error)
	MarkCheckOut(ctx context.Context) (actor.ID, error)
}
