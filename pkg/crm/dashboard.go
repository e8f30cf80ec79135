package crm

import (
	"context"
	"errors"
	"fmt"

	"github.com/txn2/realty-crm/pkg/actor"
)

// LoadDashboard fetches the caller profile that gates the dashboard. It fails
// with ErrLoadTimeout when the profile does not arrive within the load
// timeout.
func (s *Service) LoadDashboard(ctx context.Context) (*actor.UserProfile, error) {
	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	profile, err := s.CallerUserProfile(loadCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			s.logger.Warn("dashboard load timed out", "timeout", s.loadTimeout)
			return nil, fmt.Errorf("%w (%s)", ErrLoadTimeout, s.loadTimeout)
		}
		return nil, fmt.Errorf("loading dashboard: %w", err)
	}
	return profile, nil
}

// RetryDashboard drops every cached entry and loads the dashboard again.
func (s *Service) RetryDashboard(ctx context.Context) (*actor.UserProfile, error) {
	s.cache.ClearAll()
	return s.LoadDashboard(ctx)
}
