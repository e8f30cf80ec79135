// Package customerauth keeps the customer portal session: a phone number
// persisted in a local store. It is not authentication in any cryptographic
// sense; holding the phone number is enough to act as that customer.
package customerauth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/localstore"
	"github.com/txn2/realty-crm/pkg/query"
)

// StorageKey is the local store key holding the phone number.
const StorageKey = "customer_phone"

// Errors returned by Shim.
var (
	ErrNotRegistered = errors.New("phone number not registered, please register first")
	ErrLoadState     = errors.New("failed to load authentication state")
	ErrSaveState     = errors.New("failed to save authentication state")
	ErrClearState    = errors.New("failed to clear authentication state")
)

// Portal is the slice of the CRM service the shim needs. *crm.Service
// implements it.
type Portal interface {
	FindCustomerProfile(ctx context.Context, phone string) (*actor.CustomerProfile, error)
	RegisterCustomerProfile(ctx context.Context, profile actor.CustomerProfile) (actor.ID, error)
	ForgetCustomerProfiles()
}

// State is the current session.
type State struct {
	Phone string
	// Err is the last storage failure, if any.
	Err error
}

// IsLoggedIn reports whether a phone number is set.
func (s State) IsLoggedIn() bool {
	return s.Phone != ""
}

// Option configures a Shim.
type Option func(*Shim)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shim) {
		s.logger = logger
	}
}

// Shim is the customer portal session.
type Shim struct {
	store  localstore.Store
	portal Portal
	cache  *query.Client
	logger *slog.Logger

	mu     sync.RWMutex
	phone  string
	err    error
	loaded bool
}

// New creates a Shim. Call Load to read the persisted session.
func New(store localstore.Store, portal Portal, cache *query.Client, opts ...Option) *Shim {
	s := &Shim{
		store:  store,
		portal: portal,
		cache:  cache,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted phone number once. A storage failure leaves the
// session logged out and is returned as ErrLoadState.
func (s *Shim) Load(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.state(), nil
	}
	phone, ok, err := s.store.Get(ctx, StorageKey)
	s.loaded = true
	if err != nil {
		s.logger.Error("loading customer session failed", "error", err)
		s.phone = ""
		s.err = ErrLoadState
		return s.state(), ErrLoadState
	}
	if ok {
		s.phone = phone
	}
	return s.state(), nil
}

// State returns the current session.
func (s *Shim) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state()
}

func (s *Shim) state() State {
	return State{Phone: s.phone, Err: s.err}
}

// Login persists phone as the current session.
func (s *Shim) Login(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, StorageKey, phone); err != nil {
		s.logger.Error("saving customer session failed", "error", err)
		s.err = ErrSaveState
		return ErrSaveState
	}
	s.phone = phone
	s.err = nil
	s.loaded = true
	return nil
}

// Logout forgets the session and drops every cached read so nothing from
// the previous customer is served again.
func (s *Shim) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Remove(ctx, StorageKey); err != nil {
		s.logger.Error("clearing customer session failed", "error", err)
		s.err = ErrClearState
		return ErrClearState
	}
	s.phone = ""
	s.err = nil
	s.cache.ClearAll()
	s.cache.Notifier().Success("Logged out successfully")
	return nil
}

// SignIn logs in an existing customer. The phone number must belong to a
// registered profile.
func (s *Shim) SignIn(ctx context.Context, phone string) (*actor.CustomerProfile, error) {
	phone = strings.TrimSpace(phone)
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}
	profile, err := s.portal.FindCustomerProfile(ctx, phone)
	if err == nil && profile == nil {
		err = ErrNotRegistered
	}
	if err != nil {
		s.cache.Notifier().Error(err.Error())
		return nil, err
	}
	if err := s.Login(ctx, profile.PhoneNumber); err != nil {
		return nil, err
	}
	s.portal.ForgetCustomerProfiles()
	s.cache.Notifier().Success("Login successful")
	return profile, nil
}

// Register creates a portal profile and logs in with its phone number.
func (s *Shim) Register(ctx context.Context, profile actor.CustomerProfile) (actor.ID, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	profile.PhoneNumber = strings.TrimSpace(profile.PhoneNumber)
	if err := ValidateProfile(profile); err != nil {
		return 0, err
	}
	id, err := s.portal.RegisterCustomerProfile(ctx, profile)
	if err != nil {
		return 0, err
	}
	if err := s.Login(ctx, profile.PhoneNumber); err != nil {
		return id, err
	}
	return id, nil
}
