package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// AttendanceCloser closes an open attendance record.
type AttendanceCloser interface {
	CloseAttendance(ctx context.Context, c actor.AttendanceClient, open actor.AttendanceRecord, at actor.Time) (actor.ID, error)
}

// ResubmitCloser closes a record by submitting it again with the check-out
// time set. The backend has no partial update.
type ResubmitCloser struct{}

// CloseAttendance implements AttendanceCloser.
func (ResubmitCloser) CloseAttendance(ctx context.Context, c actor.AttendanceClient, open actor.AttendanceRecord, at actor.Time) (actor.ID, error) {
	closed := open
	closed.CheckOutTime = &at
	return c.RecordAttendance(ctx, closed)
}

// Verify interface compliance.
var _ AttendanceCloser = ResubmitCloser{}

// AttendancePage returns one page of all attendance records.
func (s *Service) AttendancePage(ctx context.Context, index, size uint64) (actor.Page[actor.AttendanceRecord], error) {
	return read(ctx, s, readSpec[actor.Page[actor.AttendanceRecord]]{
		entity: "attendance records",
		key:    k(keyAttendanceRecords, segPaginated, index, size),
		opts:   query.Options{StaleTime: listStaleTime},
		fetch: func(ctx context.Context, c actor.Client) (actor.Page[actor.AttendanceRecord], error) {
			return c.GetAllAttendanceRecords(ctx, pageRequest(index, size))
		},
		fallback: emptyPage[actor.AttendanceRecord](),
		toast:    "Failed to load attendance records",
	})
}

// CallerAttendanceRecords returns the caller's records, oldest first.
func (s *Service) CallerAttendanceRecords(ctx context.Context) ([]actor.AttendanceRecord, error) {
	p := s.principal()
	return read(ctx, s, readSpec[[]actor.AttendanceRecord]{
		entity: "attendance records",
		key:    k(keyAttendanceRecords, segAgent, p),
		opts:   query.Options{Disabled: p.IsAnonymous()},
		fetch: func(ctx context.Context, c actor.Client) ([]actor.AttendanceRecord, error) {
			return c.GetAttendanceRecords(ctx, p)
		},
		fallback: []actor.AttendanceRecord{},
		toast:    "Failed to load attendance records",
	})
}

// LatestAttendance returns the caller's most recent record, or nil.
func (s *Service) LatestAttendance(ctx context.Context) (*actor.AttendanceRecord, error) {
	records, err := s.CallerAttendanceRecords(ctx)
	if err != nil {
		return nil, err
	}
	return latest(records), nil
}

// AttendanceReport returns the report for agent, or nil.
func (s *Service) AttendanceReport(ctx context.Context, agent actor.Principal) (*actor.CsvReport, error) {
	return read(ctx, s, readSpec[*actor.CsvReport]{
		entity: "attendance report",
		key:    k(keyAttendanceCsvReport, agent),
		opts:   query.Options{Disabled: agent.IsAnonymous()},
		fetch: func(ctx context.Context, c actor.Client) (*actor.CsvReport, error) {
			report, err := c.GetAttendanceRecordsCsvReport(ctx, agent)
			if err != nil {
				return nil, err
			}
			return &report, nil
		},
		toast: "Failed to generate attendance report",
	})
}

// MarkAttendance records a check-in for the caller with the captured face
// verification and location.
func (s *Service) MarkAttendance(ctx context.Context, face actor.FaceVerificationResult, loc actor.LocationData) (actor.ID, error) {
	p := s.principal()
	return write(ctx, s, writeSpec{
		name:    mutMarkAttendance,
		success: "Check-in recorded successfully",
		failure: "Failed to record check-in",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		if p.IsAnonymous() {
			return 0, ErrNotLoggedIn
		}
		profile, err := c.GetCallerUserProfile(ctx)
		if err != nil {
			return 0, err
		}
		if profile == nil {
			return 0, ErrProfileNotFound
		}
		records, err := c.GetAttendanceRecords(ctx, p)
		if err != nil {
			return 0, err
		}
		if last := latest(records); last != nil && last.IsOpen() {
			return 0, ErrAlreadyCheckedIn
		}
		record := actor.AttendanceRecord{
			AgentID:          p,
			AgentName:        profile.Name,
			CheckInTime:      s.stamp(),
			FaceVerification: face,
			Location:         loc,
			IsValid:          true,
		}
		if profile.ContactNumber != nil {
			record.AgentMobile = *profile.ContactNumber
		}
		return c.RecordAttendance(ctx, record)
	})
}

// MarkCheckOut closes the caller's open record.
func (s *Service) MarkCheckOut(ctx context.Context) (actor.ID, error) {
	p := s.principal()
	return write(ctx, s, writeSpec{
		name:    mutMarkCheckOut,
		success: "Check-out recorded successfully",
		failure: "Failed to record check-out",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		if p.IsAnonymous() {
			return 0, ErrNotLoggedIn
		}
		records, err := c.GetAttendanceRecords(ctx, p)
		if err != nil {
			return 0, err
		}
		last := latest(records)
		switch {
		case last == nil:
			return 0, ErrNoActiveCheckIn
		case !last.IsOpen():
			return 0, ErrAlreadyCheckedOut
		}
		return s.closer.CloseAttendance(ctx, c, *last, s.stamp())
	})
}

// RecordAttendance submits record as is.
func (s *Service) RecordAttendance(ctx context.Context, record actor.AttendanceRecord) (actor.ID, error) {
	return write(ctx, s, writeSpec{
		name:    mutRecordAttendance,
		success: "Attendance recorded successfully",
		failure: "Failed to record attendance",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		return c.RecordAttendance(ctx, record)
	})
}

func latest(records []actor.AttendanceRecord) *actor.AttendanceRecord {
	if len(records) == 0 {
		return nil
	}
	r := records[len(records)-1]
	return &r
}
