package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// AllCustomerQueries returns every customer query. Admin only on the backend.
func (s *Service) AllCustomerQueries(ctx context.Context) ([]actor.CustomerQuery, error) {
	return read(ctx, s, readSpec[[]actor.CustomerQuery]{
		entity: "customer queries",
		key:    k(keyCustomerQueries, segAdmin),
		fetch: func(ctx context.Context, c actor.Client) ([]actor.CustomerQuery, error) {
			return c.GetAllCustomerQueries(ctx)
		},
		fallback: []actor.CustomerQuery{},
		toast:    "Failed to load customer queries",
	})
}

// AgentCustomerQueries returns the queries assigned to the caller.
func (s *Service) AgentCustomerQueries(ctx context.Context) ([]actor.CustomerQuery, error) {
	p := s.principal()
	return read(ctx, s, readSpec[[]actor.CustomerQuery]{
		entity: "agent customer queries",
		key:    k(keyCustomerQueries, segAgent, p),
		opts:   query.Options{Disabled: p.IsAnonymous()},
		fetch: func(ctx context.Context, c actor.Client) ([]actor.CustomerQuery, error) {
			return c.GetAgentCustomerQueries(ctx, p)
		},
		fallback: []actor.CustomerQuery{},
		toast:    "Failed to load your customer queries",
	})
}

// CustomerQuery returns one customer query, or nil.
func (s *Service) CustomerQuery(ctx context.Context, id actor.ID) (*actor.CustomerQuery, error) {
	return read(ctx, s, readSpec[*actor.CustomerQuery]{
		entity: "customer query",
		key:    k(keyCustomerQuery, id),
		opts:   query.Options{Disabled: id == 0},
		fetch: func(ctx context.Context, c actor.Client) (*actor.CustomerQuery, error) {
			return c.GetCustomerQuery(ctx, id)
		},
	})
}

// AddCustomerQuery creates a customer query.
func (s *Service) AddCustomerQuery(ctx context.Context, q actor.CustomerQuery) (actor.ID, error) {
	return write(ctx, s, writeSpec{
		name:    mutAddCustomerQuery,
		success: "Customer query created and assigned successfully",
		failure: "Failed to create customer query",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		return c.AddCustomerQuery(ctx, q)
	})
}

// UpdateCustomerQueryStatus reads the query, sets its status and writes it
// back.
func (s *Service) UpdateCustomerQueryStatus(ctx context.Context, id actor.ID, status actor.QueryStatus) error {
	return exec(ctx, s, writeSpec{
		name:    mutUpdateCustomerQueryStatus,
		success: "Query status updated successfully",
		failure: "Failed to update query status",
	}, func(ctx context.Context, c actor.Client) error {
		return modifyCustomerQuery(ctx, c, id, func(q *actor.CustomerQuery) {
			q.Status = status
		})
	})
}

// AssignCustomerQuery reads the query, sets its agent and writes it back.
func (s *Service) AssignCustomerQuery(ctx context.Context, id actor.ID, agent actor.Principal) error {
	return exec(ctx, s, writeSpec{
		name:    mutAssignCustomerQuery,
		success: "Agent assigned successfully",
		failure: "Failed to assign agent",
	}, func(ctx context.Context, c actor.Client) error {
		return modifyCustomerQuery(ctx, c, id, func(q *actor.CustomerQuery) {
			q.AssignedAgent = &agent
		})
	})
}

func modifyCustomerQuery(ctx context.Context, c actor.Client, id actor.ID, change func(*actor.CustomerQuery)) error {
	current, err := c.GetCustomerQuery(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrQueryNotFound
	}
	updated := *current
	change(&updated)
	return c.UpdateCustomerQuery(ctx, id, updated)
}
