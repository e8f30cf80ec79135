// Package crm exposes one canonical operation per CRM read and write on top
// of the shared query cache.
//
// Reads are cached under the keys in keys.go with a per-read stale time and
// error policy: most list reads fall back to an empty value, profile-style
// reads turn an unauthorized failure into nil, and dashboard aggregates
// propagate failures. Writes go through query.Mutate and invalidate a static
// set of key prefixes on success.
package crm

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// Errors returned by Service.
var (
	// ErrActorUnavailable is returned by writes made before a backend
	// client has been set.
	ErrActorUnavailable error = &actor.Error{Kind: actor.KindTransport, Message: "actor not available"}

	// ErrNotLoggedIn is returned by writes that need a logged-in principal.
	ErrNotLoggedIn error = &actor.Error{Kind: actor.KindUnauthorized, Message: "not logged in"}

	ErrProfileNotFound  error = &actor.Error{Kind: actor.KindNotFound, Message: "user profile not found"}
	ErrQueryNotFound    error = &actor.Error{Kind: actor.KindNotFound, Message: "query not found"}
	ErrFollowUpNotFound error = &actor.Error{Kind: actor.KindNotFound, Message: "follow-up not found"}

	ErrNoActiveCheckIn   = errors.New("no active check-in")
	ErrAlreadyCheckedOut = errors.New("already checked out")
	ErrAlreadyCheckedIn  = errors.New("already checked in")
	ErrLoadTimeout       = errors.New("load timeout exceeded")
)

const defaultLoadTimeout = 15 * time.Second

// PrincipalSource reports the logged-in principal.
type PrincipalSource interface {
	Principal() actor.Principal
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source for stamped records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithAttendanceCloser replaces how an open attendance record is closed.
func WithAttendanceCloser(c AttendanceCloser) Option {
	return func(s *Service) {
		s.closer = c
	}
}

// WithLoadTimeout bounds LoadDashboard.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.loadTimeout = d
	}
}

// Service is the CRM data layer.
type Service struct {
	cache       *query.Client
	identity    PrincipalSource
	logger      *slog.Logger
	now         func() time.Time
	closer      AttendanceCloser
	loadTimeout time.Duration

	mu     sync.RWMutex
	client actor.Client
}

// New creates a service. client may be nil until the backend is reachable;
// see SetActor.
func New(client actor.Client, cache *query.Client, identity PrincipalSource, opts ...Option) *Service {
	s := &Service{
		client:      client,
		cache:       cache,
		identity:    identity,
		logger:      slog.Default(),
		now:         time.Now,
		closer:      ResubmitCloser{},
		loadTimeout: defaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetActor swaps the backend client. With a nil client reads return their
// empty value without a remote call and writes fail with ErrActorUnavailable.
func (s *Service) SetActor(client actor.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

// Cache returns the shared query cache.
func (s *Service) Cache() *query.Client {
	return s.cache
}

func (s *Service) actor() actor.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *Service) principal() actor.Principal {
	if s.identity == nil {
		return ""
	}
	return s.identity.Principal()
}

func (s *Service) stamp() actor.Time {
	return actor.FromTime(s.now())
}
