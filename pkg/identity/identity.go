// Package identity tracks the authenticated CRM principal and its login
// lifecycle. The principal is the subject of a bearer token issued by the
// identity service; the same token authenticates calls to the backend.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/txn2/realty-crm/pkg/actor"
)

// State is the login lifecycle state.
type State int

// Lifecycle states.
const (
	StateNotInitialized State = iota
	StateInitializing
	StateLoggedOut
	StateLoggingIn
	StateLoggedIn
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateLoggedOut:
		return "logged-out"
	case StateLoggingIn:
		return "logging-in"
	case StateLoggedIn:
		return "logged-in"
	default:
		return "not-initialized"
	}
}

// Errors returned by Provider.
var (
	ErrLoginInProgress = errors.New("login already in progress")
	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrInvalidToken    = errors.New("invalid identity token")
)

// Config configures token validation.
type Config struct {
	// SigningKey verifies HMAC-signed tokens. When empty, tokens are decoded
	// without signature verification and only their expiry is checked.
	SigningKey []byte

	// Issuer, when set, must match the token's iss claim.
	Issuer string
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// Provider holds the current principal and token.
type Provider struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	state     State
	principal actor.Principal
	token     string
	onLogout  []func(context.Context)
}

// New creates a provider in the not-initialized state.
func New(cfg Config, opts ...Option) *Provider {
	p := &Provider{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Verify interface compliance.
var _ actor.TokenSource = (*Provider)(nil)

// OnLogout registers fn to run after every logout.
func (p *Provider) OnLogout(fn func(context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onLogout = append(p.onLogout, fn)
}

// State returns the current lifecycle state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Principal returns the logged-in principal, or the anonymous principal.
func (p *Provider) Principal() actor.Principal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != StateLoggedIn {
		return ""
	}
	return p.principal
}

// Token returns the bearer token of the logged-in principal.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != StateLoggedIn {
		return ""
	}
	return p.token
}

// IsLoggedIn reports whether a principal is logged in.
func (p *Provider) IsLoggedIn() bool {
	return p.State() == StateLoggedIn
}

// Initialize restores a previously saved token. An empty or unusable token
// leaves the provider logged out; it is not an error.
func (p *Provider) Initialize(_ context.Context, savedToken string) State {
	p.mu.Lock()
	p.state = StateInitializing
	p.mu.Unlock()

	principal, err := p.parse(savedToken)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if savedToken != "" {
			p.logger.Warn("discarding saved identity token", "error", err)
		}
		p.state = StateLoggedOut
		return p.state
	}
	p.principal = principal
	p.token = savedToken
	p.state = StateLoggedIn
	return p.state
}

// Login validates token and makes its subject the current principal.
func (p *Provider) Login(_ context.Context, token string) (actor.Principal, error) {
	p.mu.Lock()
	switch p.state {
	case StateLoggingIn, StateInitializing:
		p.mu.Unlock()
		return "", ErrLoginInProgress
	case StateLoggedIn:
		p.mu.Unlock()
		return "", ErrAlreadyLoggedIn
	}
	p.state = StateLoggingIn
	p.mu.Unlock()

	principal, err := p.parse(token)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = StateLoggedOut
		return "", err
	}
	p.principal = principal
	p.token = token
	p.state = StateLoggedIn
	p.logger.Info("logged in", "principal", principal)
	return principal, nil
}

// Logout forgets the principal and runs the logout hooks.
func (p *Provider) Logout(ctx context.Context) {
	p.mu.Lock()
	principal := p.principal
	p.principal = ""
	p.token = ""
	p.state = StateLoggedOut
	hooks := append([]func(context.Context){}, p.onLogout...)
	p.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx)
	}
	p.logger.Info("logged out", "principal", principal)
}

// parse extracts the subject from token.
func (p *Provider) parse(token string) (actor.Principal, error) {
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := jwt.MapClaims{}
	if len(p.cfg.SigningKey) > 0 {
		opts := []jwt.ParserOption{jwt.WithTimeFunc(p.now)}
		if p.cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(p.cfg.Issuer))
		}
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return p.cfg.SigningKey, nil
		}, opts...)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		if err := p.checkUnverified(claims); err != nil {
			return "", err
		}
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return actor.Principal(sub), nil
}

func (p *Provider) checkUnverified(claims jwt.MapClaims) error {
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if exp != nil && !p.now().Before(exp.Time) {
		return fmt.Errorf("%w: token expired", ErrInvalidToken)
	}
	if p.cfg.Issuer != "" {
		iss, _ := claims.GetIssuer()
		if iss != p.cfg.Issuer {
			return fmt.Errorf("%w: invalid issuer: got %q, want %q", ErrInvalidToken, iss, p.cfg.Issuer)
		}
	}
	return nil
}
