// Package app wires configuration, storage, the backend client, the query
// cache, identity and the CRM services into one session.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/actor/memory"
	"github.com/txn2/realty-crm/pkg/attendance"
	"github.com/txn2/realty-crm/pkg/audit"
	auditpg "github.com/txn2/realty-crm/pkg/audit/postgres"
	"github.com/txn2/realty-crm/pkg/config"
	"github.com/txn2/realty-crm/pkg/crm"
	"github.com/txn2/realty-crm/pkg/customerauth"
	"github.com/txn2/realty-crm/pkg/database/migrate"
	"github.com/txn2/realty-crm/pkg/identity"
	"github.com/txn2/realty-crm/pkg/localstore"
	localpg "github.com/txn2/realty-crm/pkg/localstore/postgres"
	"github.com/txn2/realty-crm/pkg/query"
)

// TokenKey is the local storage key of the saved login token.
const TokenKey = "identity_token"

const auditCleanupInterval = time.Hour

// Seams replaced in tests.
var (
	openDB        = func(dsn string) (*sql.DB, error) { return sql.Open("postgres", dsn) }
	runMigrations = migrate.Run
)

// Option configures New.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	notifier query.Notifier
	backend  *memory.Backend
	store    localstore.Store
	now      func() time.Time
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithNotifier sets where mutation and read-failure messages go.
func WithNotifier(n query.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithMemoryBackend supplies the backend used when actor.backend is memory.
func WithMemoryBackend(b *memory.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithStore overrides the configured local store.
func WithStore(s localstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// App is one wired client session.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	now       func() time.Time
	db        *sql.DB
	store     localstore.Store
	identity  *identity.Provider
	audit     audit.Logger
	cache     *query.Client
	crm       *crm.Service
	customers *customerauth.Shim

	// Exactly one of remote and backend is set.
	remote  *actor.HTTPClient
	backend *memory.Backend

	closeOnce sync.Once
}

// New builds an App from cfg and restores any saved login.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: o.logger, now: o.now}
	if err := a.build(ctx, o); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, o options) error {
	if err := a.openDatabase(); err != nil {
		return err
	}

	store, err := a.openStore(o.store)
	if err != nil {
		return err
	}
	a.store = store

	var signingKey []byte
	if a.cfg.Identity.SigningKey != "" {
		signingKey = []byte(a.cfg.Identity.SigningKey)
	}
	a.identity = identity.New(identity.Config{
		SigningKey: signingKey,
		Issuer:     a.cfg.Identity.Issuer,
	}, identity.WithLogger(a.logger), identity.WithClock(a.now))

	cacheOpts := []query.Option{
		query.WithLogger(a.logger),
		query.WithClock(a.now),
		query.WithRetryAttempts(a.cfg.Cache.RetryAttempts),
		query.WithRetryBackOff(a.newBackOff),
	}
	if o.notifier != nil {
		cacheOpts = append(cacheOpts, query.WithNotifier(o.notifier))
	}
	if a.cfg.Audit.Enabled {
		a.audit = a.openAudit()
		cacheOpts = append(cacheOpts, query.WithMutationObserver(
			audit.NewRecorder(a.audit, a.identity, audit.WithRecorderLogger(a.logger), audit.WithRecorderClock(a.now)),
		))
	}
	a.cache = query.New(cacheOpts...)

	if err := a.openActor(o.backend); err != nil {
		return err
	}

	a.crm = crm.New(nil, a.cache, a.identity,
		crm.WithLogger(a.logger),
		crm.WithClock(a.now),
		crm.WithLoadTimeout(a.cfg.Cache.LoadTimeout),
	)
	a.customers = customerauth.New(a.store, a.crm, a.cache, customerauth.WithLogger(a.logger))

	a.identity.OnLogout(func(ctx context.Context) {
		a.cache.ClearAll()
		if err := a.store.Remove(ctx, TokenKey); err != nil {
			a.logger.Warn("removing saved token failed", "error", err)
		}
		a.bindActor()
	})

	a.restoreLogin(ctx)
	if _, err := a.customers.Load(ctx); err != nil {
		a.logger.Warn("loading customer session failed", "error", err)
	}
	return nil
}

func (a *App) needsDatabase() bool {
	return a.cfg.Storage.Backend == config.StoragePostgres ||
		(a.cfg.Audit.Enabled && a.cfg.Database.DSN != "")
}

func (a *App) openDatabase() error {
	if !a.needsDatabase() {
		return nil
	}
	db, err := openDB(a.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	a.db = db

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

func (a *App) openStore(override localstore.Store) (localstore.Store, error) {
	if override != nil {
		return override, nil
	}
	switch a.cfg.Storage.Backend {
	case config.StorageMemory:
		return localstore.NewMemoryStore(), nil
	case config.StoragePostgres:
		return localpg.New(a.db), nil
	default:
		store, err := localstore.NewFileStore(a.cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("opening local store: %w", err)
		}
		return store, nil
	}
}

func (a *App) openAudit() audit.Logger {
	if a.db == nil {
		return audit.NewSlogLogger(a.logger, a.cfg.Audit.Capacity)
	}
	store := auditpg.New(a.db, auditpg.Config{RetentionDays: a.cfg.Audit.RetentionDays})
	store.StartCleanupRoutine(auditCleanupInterval)
	return store
}

func (a *App) openActor(backend *memory.Backend) error {
	if a.cfg.Actor.Backend == config.ActorHTTP {
		client, err := actor.NewHTTPClient(actor.HTTPConfig{
			Endpoint: a.cfg.Actor.Endpoint,
			Timeout:  a.cfg.Actor.Timeout,
		}, a.identity)
		if err != nil {
			return fmt.Errorf("creating actor client: %w", err)
		}
		a.remote = client
		return nil
	}

	if backend == nil {
		admins := make([]actor.Principal, 0, len(a.cfg.Actor.Admins))
		for _, p := range a.cfg.Actor.Admins {
			admins = append(admins, actor.Principal(p))
		}
		backend = memory.NewBackend(memory.WithAdmins(admins...), memory.WithClock(a.now))
	}
	a.backend = backend
	return nil
}

func (a *App) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.Cache.RetryDelay
	b.MaxInterval = a.cfg.Cache.RetryMaxDelay
	return b
}

// bindActor points the CRM service at a client for the current principal.
func (a *App) bindActor() {
	if a.remote != nil {
		a.crm.SetActor(a.remote)
		return
	}
	a.crm.SetActor(a.backend.As(a.identity.Principal()))
}

func (a *App) restoreLogin(ctx context.Context) {
	token, ok, err := a.store.Get(ctx, TokenKey)
	if err != nil {
		a.logger.Warn("reading saved token failed", "error", err)
	}
	if !ok || token == "" {
		token = a.cfg.Identity.Token
	}
	a.identity.Initialize(ctx, token)
	a.bindActor()
}

// Login makes the subject of token the current principal and saves the
// token for later sessions.
func (a *App) Login(ctx context.Context, token string) (actor.Principal, error) {
	principal, err := a.identity.Login(ctx, token)
	if err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}
	a.cache.ClearAll()
	a.bindActor()
	if err := a.store.Set(ctx, TokenKey, token); err != nil {
		return principal, fmt.Errorf("saving token: %w", err)
	}
	return principal, nil
}

// Logout forgets the principal, its saved token and every cached read.
func (a *App) Logout(ctx context.Context) {
	a.identity.Logout(ctx)
}

// NewAttendanceFlow builds a check-in flow recording through the CRM service.
func (a *App) NewAttendanceFlow(camera attendance.Camera, locator attendance.Locator) *attendance.Flow {
	return attendance.NewFlow(camera, locator,
		attendance.StubVerifier{ConfidenceScore: uint64(a.cfg.Attendance.ConfidenceScore)},
		a.crm,
		attendance.WithLogger(a.logger),
		attendance.WithLocationTimeout(a.cfg.Attendance.LocationTimeout),
	)
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config { return a.cfg }

// CRM returns the CRM service.
func (a *App) CRM() *crm.Service { return a.crm }

// Customers returns the customer portal session.
func (a *App) Customers() *customerauth.Shim { return a.customers }

// Identity returns the identity provider.
func (a *App) Identity() *identity.Provider { return a.identity }

// Cache returns the query cache.
func (a *App) Cache() *query.Client { return a.cache }

// Audit returns the audit log, or nil when auditing is disabled.
func (a *App) Audit() audit.Logger { return a.audit }

// Backend returns the in-process backend, or nil for the http backend.
func (a *App) Backend() *memory.Backend { return a.backend }

// Close releases the audit log, the local store and the database.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.audit != nil {
			errs = append(errs, a.audit.Close())
		}
		if a.store != nil {
			errs = append(errs, a.store.Close())
		}
		if a.db != nil {
			errs = append(errs, a.db.Close())
		}
	})
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("closing app: %w", err)
	}
	return nil
}
