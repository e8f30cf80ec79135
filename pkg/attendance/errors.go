package attendance

import (
	"errors"
	"fmt"
)

// Errors returned by Flow.
var (
	// ErrNotReady is returned by Capture unless the camera is active and the
	// location has resolved.
	ErrNotReady = errors.New("attendance: camera and location are not ready")

	// ErrBusy is returned by Start while a check-in is already in progress.
	ErrBusy = errors.New("attendance: check-in already in progress")

	// ErrCameraUnavailable wraps camera acquisition failures.
	ErrCameraUnavailable = errors.New("camera unavailable")
)

// LocationReason classifies a failed location request.
type LocationReason int

// Location failure reasons.
const (
	ReasonUnavailable LocationReason = iota
	ReasonPermissionDenied
	ReasonTimeout
)

// String returns the reason name.
func (r LocationReason) String() string {
	switch r {
	case ReasonPermissionDenied:
		return "permission-denied"
	case ReasonTimeout:
		return "timeout"
	default:
		return "unavailable"
	}
}

// LocationError is returned when the position could not be resolved. Its
// message is meant for the user.
type LocationError struct {
	Reason LocationReason
	Err    error
}

// Error implements the error interface.
func (e *LocationError) Error() string {
	switch e.Reason {
	case ReasonPermissionDenied:
		return "Location permission denied. Please enable location access."
	case ReasonTimeout:
		return "Location request timed out."
	default:
		return "Location information unavailable."
	}
}

// Unwrap returns the underlying cause.
func (e *LocationError) Unwrap() error {
	return e.Err
}

// TransitionError reports an illegal state change.
type TransitionError struct {
	From State
	To   State
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("attendance: cannot move from %s to %s", e.From, e.To)
}
