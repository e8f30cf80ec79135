package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// CallerUserProfile returns the caller's profile. An unauthorized caller
// gets nil; any other failure is returned. The read is never retried.
func (s *Service) CallerUserProfile(ctx context.Context) (*actor.UserProfile, error) {
	var none *actor.UserProfile
	return read(ctx, s, readSpec[*actor.UserProfile]{
		entity: "caller user profile",
		key:    k(keyCurrentUserProfile, s.principal()),
		opts:   query.Options{StaleTime: profileStaleTime},
		fetch: func(ctx context.Context, c actor.Client) (*actor.UserProfile, error) {
			return c.GetCallerUserProfile(ctx)
		},
		policy:       propagateOnError,
		unauthorized: &none,
	})
}

// UserProfile returns another user's profile, or nil on any failure.
func (s *Service) UserProfile(ctx context.Context, user actor.Principal) (*actor.UserProfile, error) {
	return read(ctx, s, readSpec[*actor.UserProfile]{
		entity: "user profile",
		key:    k(keyUserProfile, user),
		opts:   query.Options{Disabled: user.IsAnonymous()},
		fetch: func(ctx context.Context, c actor.Client) (*actor.UserProfile, error) {
			return c.GetUserProfile(ctx, user)
		},
	})
}

// IsCallerAdmin reports whether the caller is an admin. Failures read as false.
func (s *Service) IsCallerAdmin(ctx context.Context) (bool, error) {
	return read(ctx, s, readSpec[bool]{
		entity: "admin status",
		key:    k(keyIsCallerAdmin, s.principal()),
		fetch: func(ctx context.Context, c actor.Client) (bool, error) {
			return c.IsCallerAdmin(ctx)
		},
	})
}

// CallerUserRole returns the caller's role. An unauthorized caller is a guest.
func (s *Service) CallerUserRole(ctx context.Context) (actor.UserRole, error) {
	guest := actor.RoleGuest
	return read(ctx, s, readSpec[actor.UserRole]{
		entity: "caller role",
		key:    k(keyCallerUserRole, s.principal()),
		opts:   query.Options{Retry: true},
		fetch: func(ctx context.Context, c actor.Client) (actor.UserRole, error) {
			return c.GetCallerUserRole(ctx)
		},
		fallback:     actor.RoleGuest,
		policy:       propagateOnError,
		unauthorized: &guest,
	})
}

// SaveCallerUserProfile stores the caller's profile.
func (s *Service) SaveCallerUserProfile(ctx context.Context, profile actor.UserProfile) error {
	return exec(ctx, s, writeSpec{
		name:    mutSaveCallerUserProfile,
		success: "Profile saved successfully",
		failure: "Failed to save profile",
	}, func(ctx context.Context, c actor.Client) error {
		return c.SaveCallerUserProfile(ctx, profile)
	})
}

// AssignCallerUserRole sets the role of user.
func (s *Service) AssignCallerUserRole(ctx context.Context, user actor.Principal, role actor.UserRole) error {
	return exec(ctx, s, writeSpec{
		name:    mutAssignCallerUserRole,
		success: "Role assigned successfully",
		failure: "Failed to assign role",
	}, func(ctx context.Context, c actor.Client) error {
		return c.AssignCallerUserRole(ctx, user, role)
	})
}
