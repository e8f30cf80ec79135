package crm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/actor/memory"
	"github.com/txn2/realty-crm/pkg/query"
)

const (
	testAdmin actor.Principal = "admin-1"
	testAgent actor.Principal = "agent-asha"
)

var testNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

type staticPrincipal actor.Principal

func (p staticPrincipal) Principal() actor.Principal {
	return actor.Principal(p)
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (r *recordingNotifier) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recordingNotifier) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recordingNotifier) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func (r *recordingNotifier) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

// failingClient fails every read it overrides with err.
type failingClient struct {
	actor.Client
	err   error
	mu    sync.Mutex
	calls map[string]int
}

func newFailingClient(base actor.Client, err error) *failingClient {
	return &failingClient{Client: base, err: err, calls: make(map[string]int)}
}

func (f *failingClient) count(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *failingClient) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *failingClient) GetAllCustomers(context.Context, *actor.PageRequest) (actor.Page[actor.Customer], error) {
	f.count("getAllCustomers")
	return actor.Page[actor.Customer]{}, f.err
}

func (f *failingClient) GetOverviewMetrics(context.Context) (actor.OverviewMetrics, error) {
	f.count("getOverviewMetrics")
	return actor.OverviewMetrics{}, f.err
}

func (f *failingClient) GetQueryConfirmationMessage(context.Context) (string, error) {
	f.count("getQueryConfirmationMessage")
	return "", f.err
}

func (f *failingClient) GetCallerUserProfile(context.Context) (*actor.UserProfile, error) {
	f.count("getCallerUserProfile")
	return nil, f.err
}

// harness bundles a memory backend with a service bound to one principal.
type harness struct {
	backend  *memory.Backend
	notifier *recordingNotifier
	cache    *query.Client
	svc      *Service
}

func newCache(n query.Notifier) *query.Client {
	return query.New(
		query.WithNotifier(n),
		query.WithRetryBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
		query.WithRetryAttempts(2),
	)
}

func newHarness(t *testing.T, p actor.Principal, opts ...Option) *harness {
	t.Helper()
	b := memory.NewBackend(memory.WithAdmins(testAdmin), memory.WithClock(func() time.Time { return testNow }))
	return bind(b, p, opts...)
}

func bind(b *memory.Backend, p actor.Principal, opts ...Option) *harness {
	n := &recordingNotifier{}
	cache := newCache(n)
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return &harness{
		backend:  b,
		notifier: n,
		cache:    cache,
		svc:      New(b.As(p), cache, staticPrincipal(p), opts...),
	}
}

func strPtr(s string) *string {
	return &s
}
