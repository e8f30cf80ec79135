package query

import (
	"context"
	"fmt"
)

// MutationOptions describes a single remote write.
type MutationOptions struct {
	// Name identifies the mutation in logs and the audit trail.
	Name string

	// Invalidate lists key prefixes marked stale after success.
	Invalidate []Key

	// SuccessMessage is sent to the notifier after success.
	SuccessMessage string

	// ErrorMessage prefixes the error sent to the notifier after failure.
	ErrorMessage string
}

// Mutate runs fn once. Writes are never cached or deduplicated and are not
// retried. On success every entry under opts.Invalidate is marked stale; on
// failure the error is returned unchanged.
func Mutate[T any](ctx context.Context, c *Client, fn func(context.Context) (T, error), opts MutationOptions) (T, error) {
	start := c.now()
	v, err := fn(ctx)
	elapsed := c.now().Sub(start)

	if c.observer != nil {
		c.observer.MutationDone(ctx, opts.Name, elapsed, err)
	}

	if err != nil {
		c.logger.Error("mutation failed", "mutation", opts.Name, "error", err)
		if opts.ErrorMessage != "" {
			c.notifier.Error(fmt.Sprintf("%s: %v", opts.ErrorMessage, err))
		}
		return v, err
	}

	for _, prefix := range opts.Invalidate {
		c.Invalidate(prefix)
	}
	c.logger.Debug("mutation succeeded", "mutation", opts.Name, "duration", elapsed)
	if opts.SuccessMessage != "" {
		c.notifier.Success(opts.SuccessMessage)
	}
	return v, nil
}
