package crm

import (
	"context"
	"errors"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// errorPolicy decides what a failed read returns.
type errorPolicy int

const (
	// fallbackOnError logs the failure and returns the fallback value.
	fallbackOnError errorPolicy = iota

	// propagateOnError returns the failure to the caller.
	propagateOnError
)

// readSpec describes one cached read.
type readSpec[T any] struct {
	entity   string
	key      query.Key
	opts     query.Options
	fetch    func(context.Context, actor.Client) (T, error)
	fallback T
	policy   errorPolicy

	// toast is sent to the notifier when the read fails.
	toast string

	// unauthorized, when set, replaces an unauthorized failure. The
	// replacement is cached like a normal result.
	unauthorized *T
}

func (r readSpec[T]) fetcher(client actor.Client) query.Fetcher[T] {
	return func(ctx context.Context) (T, error) {
		v, err := r.fetch(ctx, client)
		if err != nil && r.unauthorized != nil && actor.IsKind(err, actor.KindUnauthorized) {
			return *r.unauthorized, nil
		}
		return v, err
	}
}

// read runs r through the cache and applies its error policy.
func read[T any](ctx context.Context, s *Service, r readSpec[T]) (T, error) {
	client := s.actor()
	if client == nil {
		return r.fallback, nil
	}
	v, err := query.Query(ctx, s.cache, r.key, r.fetcher(client), r.opts)
	return settle(s, r, v, err)
}

// watch reads r, then keeps refetching it on r.opts.RefetchInterval until ctx
// is done.
func watch[T any](ctx context.Context, s *Service, r readSpec[T], notify func(T, error)) error {
	client := s.actor()
	if client == nil {
		notify(r.fallback, nil)
		return nil
	}
	err := query.Watch(ctx, s.cache, r.key, r.fetcher(client), r.opts, func(v T, err error) {
		notify(settle(s, r, v, err))
	})
	if errors.Is(err, query.ErrDisabled) {
		notify(r.fallback, nil)
		return nil
	}
	return err
}

func settle[T any](s *Service, r readSpec[T], v T, err error) (T, error) {
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, query.ErrDisabled):
		return r.fallback, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return r.fallback, err
	}

	s.logger.Error("fetching "+r.entity+" failed", "key", r.key.String(), "error", err)
	if r.toast != "" {
		s.cache.Notifier().Error(r.toast)
	}
	if r.policy == propagateOnError {
		return r.fallback, err
	}
	return r.fallback, nil
}

// writeSpec describes one mutation.
type writeSpec struct {
	name    string
	success string
	failure string
}

// write runs fn as a mutation and invalidates the keys registered for
// w.name on success.
func write[T any](ctx context.Context, s *Service, w writeSpec, fn func(context.Context, actor.Client) (T, error)) (T, error) {
	client := s.actor()
	return query.Mutate(ctx, s.cache, func(ctx context.Context) (T, error) {
		if client == nil {
			var zero T
			return zero, ErrActorUnavailable
		}
		return fn(ctx, client)
	}, query.MutationOptions{
		Name:           w.name,
		Invalidate:     invalidations[w.name],
		SuccessMessage: w.success,
		ErrorMessage:   w.failure,
	})
}

// exec is write for mutations without a result.
func exec(ctx context.Context, s *Service, w writeSpec, fn func(context.Context, actor.Client) error) error {
	_, err := write(ctx, s, w, func(ctx context.Context, c actor.Client) (struct{}, error) {
		return struct{}{}, fn(ctx, c)
	})
	return err
}

func emptyPage[T any]() actor.Page[T] {
	return actor.Page[T]{Items: []T{}}
}

func pageRequest(index, size uint64) *actor.PageRequest {
	return &actor.PageRequest{Index: index, Size: size}
}
