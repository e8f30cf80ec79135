// Package query provides a process-wide cache of remote reads and a helper
// for remote writes that invalidates dependent reads.
//
// Reads are keyed by Key. At most one fetch per key runs at any time;
// concurrent callers for the same key share its result. A read that follows
// an invalidation never shares a fetch started before it: it waits for that
// fetch to finish and then fetches again. A successful result
// is reused until it is older than the read's stale time or until a mutation
// invalidates it. Invalidation is lazy: nothing is refetched until the next
// read of the key.
package query

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"
)

// ErrDisabled is returned for reads whose options disable them.
var ErrDisabled = errors.New("query disabled")

const (
	defaultRetryAttempts = 3
	defaultRetryInitial  = time.Second
	defaultRetryMax      = 30 * time.Second
)

// Status is the lifecycle state of a cache entry.
type Status int

// Entry statuses.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Options controls a single read.
type Options struct {
	// Disabled skips the read entirely.
	Disabled bool

	// StaleTime is how long a successful result is served without refetching.
	// Zero means every read refetches.
	StaleTime time.Duration

	// RefetchInterval makes Watch refetch on a fixed cadence.
	RefetchInterval time.Duration

	// Retry retries a failed fetch with the client's backoff policy.
	Retry bool
}

// Entry is a snapshot of a cache entry.
type Entry struct {
	Key         Key
	Status      Status
	Value       any
	Err         error
	UpdatedAt   time.Time
	Invalidated bool
	Fetching    bool
}

type entry struct {
	key         Key
	parts       []string
	status      Status
	value       any
	err         error
	updatedAt   time.Time
	invalidated bool
	fetching    int
	generation  uint64

	// inflight is closed when the most recently started fetch finishes.
	inflight chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the time source used for staleness.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithNotifier sets where mutation messages go. Defaults to LogNotifier.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithRetryBackOff sets the backoff factory used for retried reads.
func WithRetryBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = newBackOff
	}
}

// WithRetryAttempts sets how many times a failed read is retried.
func WithRetryAttempts(n uint) Option {
	return func(c *Client) {
		c.retryAttempts = n
	}
}

// WithMutationObserver registers an observer for completed mutations.
func WithMutationObserver(o MutationObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client is the shared read cache. Construct one per session and pass it to
// every consumer.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   *singleflight.Group
	epoch   uint64

	now           func() time.Time
	logger        *slog.Logger
	notifier      Notifier
	newBackOff    func() backoff.BackOff
	retryAttempts uint
	observer      MutationObserver
}

// New creates an empty cache.
func New(opts ...Option) *Client {
	c := &Client{
		entries:       make(map[string]*entry),
		group:         new(singleflight.Group),
		now:           time.Now,
		logger:        slog.Default(),
		retryAttempts: defaultRetryAttempts,
		newBackOff:    defaultBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = LogNotifier{Logger: c.logger}
	}
	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInitial
	b.MaxInterval = defaultRetryMax
	return b
}

// Notifier returns the notifier used for mutation messages.
func (c *Client) Notifier() Notifier {
	return c.notifier
}

// Invalidate marks every entry whose key starts with prefix as stale and
// returns how many entries matched. Entries are refetched on their next read.
func (c *Client) Invalidate(prefix Key) int {
	want := prefix.parts()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if hasPrefix(e.parts, want) {
			e.invalidated = true
			e.generation++
			n++
		}
	}
	if n > 0 {
		c.logger.Debug("invalidated queries", "prefix", prefix.String(), "count", n)
	}
	return n
}

// ClearAll drops every entry and detaches in-flight fetches. Callers already
// waiting on a fetch still receive its result, but the result is not stored
// and the next read starts a new fetch.
func (c *Client) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.group = new(singleflight.Group)
	c.epoch++
	c.logger.Debug("cleared query cache", "epoch", c.epoch)
}

// Peek returns a snapshot of the entry for key.
func (c *Client) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Key:         e.key,
		Status:      e.status,
		Value:       e.value,
		Err:         e.err,
		UpdatedAt:   e.updatedAt,
		Invalidated: e.invalidated,
		Fetching:    e.fetching > 0,
	}, true
}

// Len returns the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup returns the cached value for id when it is fresh. Callers hold c.mu.
func (c *Client) lookup(id string, staleTime time.Duration) (any, bool) {
	e, ok := c.entries[id]
	if !ok || e.status != StatusSuccess || e.invalidated {
		return nil, false
	}
	if c.now().Sub(e.updatedAt) >= staleTime {
		return nil, false
	}
	return e.value, true
}

// begin registers a fetch for key and returns what the fetch needs to store
// its result later. Callers hold c.mu.
func (c *Client) begin(id string, key Key) (*singleflight.Group, uint64, uint64) {
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, parts: key.parts()}
		c.entries[id] = e
	}
	if e.status == StatusIdle || e.status == StatusError && e.value == nil {
		e.status = StatusLoading
	}
	return c.group, c.epoch, e.generation
}

// enqueue makes done the latest fetch for id and returns the channel of the
// fetch it follows, or nil when none is running.
func (c *Client) enqueue(id string, epoch uint64, done chan struct{}) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || c.epoch != epoch {
		return nil
	}
	prev := e.inflight
	e.inflight = done
	return prev
}

// store records a fetch result unless the cache was cleared since the fetch
// started. A result that raced an invalidation is kept but stays stale.
func (c *Client) store(id string, key Key, epoch, generation uint64, done chan struct{}, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return
	}
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, parts: key.parts()}
		c.entries[id] = e
	}
	if e.inflight == done {
		e.inflight = nil
	}
	e.fetching = max(e.fetching-1, 0)
	if err != nil {
		e.status = StatusError
		e.err = err
		return
	}
	e.status = StatusSuccess
	e.value = v
	e.err = nil
	e.updatedAt = c.now()
	e.invalidated = e.generation != generation
}

// markFetching bumps the fetch counter and returns the entry generation.
func (c *Client) markFetching(id string, epoch uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || c.epoch != epoch {
		return 0
	}
	e.fetching++
	return e.generation
}
