package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// Approvals lists every principal's approval status.
func (s *Service) Approvals(ctx context.Context) ([]actor.UserApprovalInfo, error) {
	return read(ctx, s, readSpec[[]actor.UserApprovalInfo]{
		entity: "approvals",
		key:    k(keyApprovals),
		fetch: func(ctx context.Context, c actor.Client) ([]actor.UserApprovalInfo, error) {
			return c.ListApprovals(ctx)
		},
		fallback: []actor.UserApprovalInfo{},
	})
}

// IsCallerApproved reports whether the caller has been approved.
func (s *Service) IsCallerApproved(ctx context.Context) (bool, error) {
	return read(ctx, s, readSpec[bool]{
		entity: "approval status",
		key:    k(keyIsCallerApproved, s.principal()),
		fetch: func(ctx context.Context, c actor.Client) (bool, error) {
			return c.IsCallerApproved(ctx)
		},
	})
}

// AgentPanelData returns the admin agent panel.
func (s *Service) AgentPanelData(ctx context.Context) (actor.AgentPanelData, error) {
	return read(ctx, s, agentPanelRead())
}

// WatchAgentPanelData polls the agent panel until ctx is done.
func (s *Service) WatchAgentPanelData(ctx context.Context, notify func(actor.AgentPanelData, error)) error {
	r := agentPanelRead()
	r.opts.RefetchInterval = pollInterval
	return watch(ctx, s, r, notify)
}

func agentPanelRead() readSpec[actor.AgentPanelData] {
	return readSpec[actor.AgentPanelData]{
		entity: "agent panel data",
		key:    k(keyAgentPanelData),
		opts:   query.Options{Retry: true},
		fetch: func(ctx context.Context, c actor.Client) (actor.AgentPanelData, error) {
			return c.GetAgentPanelData(ctx)
		},
		policy: propagateOnError,
		toast:  "Failed to load agent panel data",
	}
}

// RequestApproval asks an admin to approve the caller.
func (s *Service) RequestApproval(ctx context.Context) error {
	return exec(ctx, s, writeSpec{
		name:    mutRequestApproval,
		success: "Approval requested successfully",
		failure: "Failed to request approval",
	}, func(ctx context.Context, c actor.Client) error {
		return c.RequestApproval(ctx)
	})
}

// SetApproval sets user's approval status.
func (s *Service) SetApproval(ctx context.Context, user actor.Principal, status actor.ApprovalStatus) error {
	return exec(ctx, s, writeSpec{
		name:    mutSetApproval,
		success: "Approval status updated successfully",
		failure: "Failed to update approval status",
	}, func(ctx context.Context, c actor.Client) error {
		return c.SetApproval(ctx, user, status)
	})
}

// ChangeAgentApprovalStatus approves or rejects an agent.
func (s *Service) ChangeAgentApprovalStatus(ctx context.Context, agent actor.Principal, status actor.ApprovalStatus) error {
	return exec(ctx, s, writeSpec{
		name:    mutChangeAgentApprovalStatus,
		success: "Agent " + string(status) + " successfully",
		failure: "Failed to change approval status",
	}, func(ctx context.Context, c actor.Client) error {
		return c.ChangeAgentApprovalStatus(ctx, agent, status)
	})
}
