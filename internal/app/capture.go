package app

import (
	"context"
	"fmt"
	"os"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/attendance"
)

// FileCamera serves a photo from disk in place of a live camera.
type FileCamera struct {
	Path string
}

// Open implements attendance.Camera.
func (c FileCamera) Open(_ context.Context) (attendance.Stream, error) {
	if _, err := os.Stat(c.Path); err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrCameraUnavailable, err)
	}
	return &fileStream{path: c.Path}, nil
}

type fileStream struct {
	path string
}

func (s *fileStream) Capture(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	return data, nil
}

func (*fileStream) Close() error { return nil }

// FixedLocator reports a position given up front.
type FixedLocator struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
	Now       func() actor.Time
}

// Locate implements attendance.Locator.
func (l FixedLocator) Locate(ctx context.Context, _ attendance.LocateOptions) (actor.LocationData, error) {
	if err := ctx.Err(); err != nil {
		return actor.LocationData{}, &attendance.LocationError{Reason: attendance.ReasonTimeout, Err: err}
	}
	loc := actor.LocationData{
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Accuracy:  l.Accuracy,
	}
	if l.Now != nil {
		loc.LocationTimestamp = l.Now()
	}
	return loc, nil
}

// Verify interface compliance.
var (
	_ attendance.Camera  = FileCamera{}
	_ attendance.Locator = FixedLocator{}
)
