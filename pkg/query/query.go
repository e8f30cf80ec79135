package query

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"
)

// Fetcher performs the remote read behind a query.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Query returns the cached value for key when it is fresh, otherwise it
// fetches it. Concurrent calls for the same key share one fetch unless the
// key was invalidated after that fetch started.
//
// Cancelling ctx only detaches this caller; a shared fetch keeps running and
// its result is still cached for the next reader.
func Query[T any](ctx context.Context, c *Client, key Key, fetch Fetcher[T], opts Options) (T, error) {
	var zero T
	if opts.Disabled {
		return zero, ErrDisabled
	}
	id := key.String()

	c.mu.Lock()
	if v, ok := c.lookup(id, opts.StaleTime); ok {
		c.mu.Unlock()
		return cast[T](id, v)
	}
	group, epoch, generation := c.begin(id, key)
	c.mu.Unlock()

	return shared(ctx, c, group, epoch, generation, id, key, fetch, opts)
}

// Refetch fetches key regardless of staleness. It still joins a fetch that
// is already in flight for the key and was started since its last
// invalidation.
func Refetch[T any](ctx context.Context, c *Client, key Key, fetch Fetcher[T], opts Options) (T, error) {
	var zero T
	if opts.Disabled {
		return zero, ErrDisabled
	}
	id := key.String()

	c.mu.Lock()
	group, epoch, generation := c.begin(id, key)
	c.mu.Unlock()

	return shared(ctx, c, group, epoch, generation, id, key, fetch, opts)
}

// Watch reads key once, then refetches it every opts.RefetchInterval until
// ctx is done, passing every result to notify. Without an interval it
// returns after the first read.
func Watch[T any](ctx context.Context, c *Client, key Key, fetch Fetcher[T], opts Options, notify func(T, error)) error {
	if opts.Disabled {
		return ErrDisabled
	}
	notify(Query(ctx, c, key, fetch, opts))
	if opts.RefetchInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(opts.RefetchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			v, err := Refetch(ctx, c, key, fetch, opts)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			notify(v, err)
		}
	}
}

func shared[T any](
	ctx context.Context,
	c *Client,
	group *singleflight.Group,
	epoch, generation uint64,
	id string,
	key Key,
	fetch Fetcher[T],
	opts Options,
) (T, error) {
	var zero T
	// Callers of one generation share a fetch. A newer generation runs its
	// own fetch after the older one finishes.
	ch := group.DoChan(fmt.Sprintf("%s@%d", id, generation), func() (any, error) {
		done := make(chan struct{})
		defer close(done)
		if prev := c.enqueue(id, epoch, done); prev != nil {
			<-prev
		}

		gen := c.markFetching(id, epoch)
		v, err := run(context.WithoutCancel(ctx), c, fetch, opts)
		if err != nil {
			c.logger.Debug("query fetch failed", "key", id, "error", err)
		}
		c.store(id, key, epoch, gen, done, v, err)
		return v, err
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return cast[T](id, res.Val)
	}
}

func cast[T any](id string, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %s: cached value has type %T", id, v)
	}
	return t, nil
}

// run calls fetch, retrying with backoff when opts.Retry is set.
func run[T any](ctx context.Context, c *Client, fetch Fetcher[T], opts Options) (T, error) {
	if !opts.Retry || c.retryAttempts == 0 {
		return fetch(ctx)
	}
	return backoff.Retry[T](ctx, func() (T, error) {
		return fetch(ctx)
	}, backoff.WithBackOff(c.newBackOff()), backoff.WithMaxTries(c.retryAttempts+1))
}
