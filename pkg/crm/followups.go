package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// FollowUps returns every follow-up.
func (s *Service) FollowUps(ctx context.Context) ([]actor.FollowUp, error) {
	return read(ctx, s, readSpec[[]actor.FollowUp]{
		entity: "follow-ups",
		key:    k(keyFollowUps),
		fetch: func(ctx context.Context, c actor.Client) ([]actor.FollowUp, error) {
			return c.GetAllFollowUps(ctx)
		},
		fallback: []actor.FollowUp{},
		toast:    "Failed to load follow-ups",
	})
}

// PendingFollowUps returns the follow-ups not yet completed.
func (s *Service) PendingFollowUps(ctx context.Context) ([]actor.FollowUp, error) {
	all, err := s.FollowUps(ctx)
	if err != nil {
		return nil, err
	}
	pending := []actor.FollowUp{}
	for _, f := range all {
		if !f.Completed {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

// FollowUp returns one follow-up, or nil.
func (s *Service) FollowUp(ctx context.Context, id actor.ID) (*actor.FollowUp, error) {
	return read(ctx, s, readSpec[*actor.FollowUp]{
		entity: "follow-up",
		key:    k(keyFollowUp, id),
		opts:   query.Options{Disabled: id == 0},
		fetch: func(ctx context.Context, c actor.Client) (*actor.FollowUp, error) {
			return c.GetFollowUp(ctx, id)
		},
	})
}

// AddFollowUp schedules a follow-up.
func (s *Service) AddFollowUp(ctx context.Context, f actor.FollowUp) (actor.ID, error) {
	return write(ctx, s, writeSpec{
		name:    mutAddFollowUp,
		success: "Follow-up scheduled successfully",
		failure: "Failed to schedule follow-up",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		return c.AddFollowUp(ctx, f)
	})
}

// CompleteFollowUp marks a follow-up completed.
func (s *Service) CompleteFollowUp(ctx context.Context, id actor.ID) error {
	return exec(ctx, s, writeSpec{
		name:    mutCompleteFollowUp,
		success: "Follow-up updated successfully",
		failure: "Failed to update follow-up",
	}, func(ctx context.Context, c actor.Client) error {
		current, err := c.GetFollowUp(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrFollowUpNotFound
		}
		updated := *current
		updated.Completed = true
		return c.UpdateFollowUp(ctx, id, updated)
	})
}
