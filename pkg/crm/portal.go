package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// DefaultConfirmationMessage is shown after a portal submission when the
// backend message cannot be loaded.
const DefaultConfirmationMessage = "Your Query has been submitted, Team will contact you shortly."

// CustomerProfileByPhone returns the portal profile for phone, or nil.
func (s *Service) CustomerProfileByPhone(ctx context.Context, phone string) (*actor.CustomerProfile, error) {
	return read(ctx, s, readSpec[*actor.CustomerProfile]{
		entity: "customer profile",
		key:    k(keyCustomerProfile, phone),
		opts:   query.Options{Disabled: phone == ""},
		fetch: func(ctx context.Context, c actor.Client) (*actor.CustomerProfile, error) {
			return c.GetCustomerProfileByPhone(ctx, phone)
		},
	})
}

// CustomerQueriesByPhone returns the portal submissions made from phone.
func (s *Service) CustomerQueriesByPhone(ctx context.Context, phone string) ([]actor.CustomerQueryResponse, error) {
	return read(ctx, s, readSpec[[]actor.CustomerQueryResponse]{
		entity: "customer queries by phone",
		key:    k(keyCustomerQueries, phone),
		opts:   query.Options{Disabled: phone == ""},
		fetch: func(ctx context.Context, c actor.Client) ([]actor.CustomerQueryResponse, error) {
			return c.GetCustomerQueriesByPhoneNumber(ctx, phone)
		},
		fallback: []actor.CustomerQueryResponse{},
	})
}

// ConfirmationMessage returns the text shown after a portal submission.
func (s *Service) ConfirmationMessage(ctx context.Context) (string, error) {
	return read(ctx, s, readSpec[string]{
		entity: "confirmation message",
		key:    k(keyConfirmationMessage),
		fetch: func(ctx context.Context, c actor.Client) (string, error) {
			return c.GetQueryConfirmationMessage(ctx)
		},
		fallback: DefaultConfirmationMessage,
	})
}

// FindCustomerProfile looks up a portal profile without the cache and
// returns every failure.
func (s *Service) FindCustomerProfile(ctx context.Context, phone string) (*actor.CustomerProfile, error) {
	c := s.actor()
	if c == nil {
		return nil, ErrActorUnavailable
	}
	profile, err := c.GetCustomerProfileByPhone(ctx, phone)
	if err != nil {
		s.logger.Error("fetching customer profile failed", "error", err)
		return nil, err
	}
	return profile, nil
}

// RegisterCustomerProfile creates a portal profile.
func (s *Service) RegisterCustomerProfile(ctx context.Context, profile actor.CustomerProfile) (actor.ID, error) {
	return write(ctx, s, writeSpec{
		name:    mutRegisterCustomerProfile,
		success: "Registration successful",
		failure: "Registration failed",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		return c.RegisterCustomerProfile(ctx, profile)
	})
}

// SubmitCustomerQuery submits a portal enquiry. The submission time is
// stamped when unset.
func (s *Service) SubmitCustomerQuery(ctx context.Context, response actor.CustomerQueryResponse) (actor.ID, error) {
	if response.SubmittedAt == 0 {
		response.SubmittedAt = s.stamp()
	}
	return write(ctx, s, writeSpec{
		name:    mutSubmitCustomerQuery,
		success: "Query submitted successfully",
		failure: "Failed to submit query",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		return c.SubmitCustomerQueryResponse(ctx, response)
	})
}

// ForgetCustomerProfiles marks every cached portal profile stale.
func (s *Service) ForgetCustomerProfiles() {
	s.cache.Invalidate(k(keyCustomerProfile))
}
