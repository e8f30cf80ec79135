package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// LeadsPage returns one page of leads.
func (s *Service) LeadsPage(ctx context.Context, index, size uint64) (actor.Page[actor.Lead], error) {
	return read(ctx, s, readSpec[actor.Page[actor.Lead]]{
		entity: "leads",
		key:    k(keyLeads, segPaginated, index, size),
		opts:   query.Options{StaleTime: listStaleTime},
		fetch: func(ctx context.Context, c actor.Client) (actor.Page[actor.Lead], error) {
			return c.GetAllLeads(ctx, pageRequest(index, size))
		},
		fallback: emptyPage[actor.Lead](),
		toast:    "Failed to load leads",
	})
}

// AllLeads returns every lead.
func (s *Service) AllLeads(ctx context.Context) ([]actor.Lead, error) {
	return read(ctx, s, readSpec[[]actor.Lead]{
		entity: "leads",
		key:    k(keyLeads),
		fetch: func(ctx context.Context, c actor.Client) ([]actor.Lead, error) {
			page, err := c.GetAllLeads(ctx, nil)
			return page.Items, err
		},
		fallback: []actor.Lead{},
		toast:    "Failed to load leads",
	})
}

// LeadsByStatus filters AllLeads.
func (s *Service) LeadsByStatus(ctx context.Context, status actor.LeadStatus) ([]actor.Lead, error) {
	all, err := s.AllLeads(ctx)
	if err != nil {
		return nil, err
	}
	out := []actor.Lead{}
	for _, l := range all {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

// Lead returns one lead, or nil.
func (s *Service) Lead(ctx context.Context, id actor.ID) (*actor.Lead, error) {
	return read(ctx, s, readSpec[*actor.Lead]{
		entity: "lead",
		key:    k(keyLead, id),
		opts:   query.Options{Disabled: id == 0},
		fetch: func(ctx context.Context, c actor.Client) (*actor.Lead, error) {
			return c.GetLead(ctx, id)
		},
	})
}

// AddLead creates a lead.
func (s *Service) AddLead(ctx context.Context, lead actor.Lead) (actor.ID, error) {
	return write(ctx, s, writeSpec{
		name:    mutAddLead,
		success: "Lead created successfully",
		failure: "Failed to create lead",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		return c.AddLead(ctx, lead)
	})
}

// UpdateLead replaces a lead.
func (s *Service) UpdateLead(ctx context.Context, id actor.ID, lead actor.Lead) error {
	return exec(ctx, s, writeSpec{
		name:    mutUpdateLead,
		success: "Lead updated successfully",
		failure: "Failed to update lead",
	}, func(ctx context.Context, c actor.Client) error {
		return c.UpdateLead(ctx, id, lead)
	})
}

// AssignLead assigns a lead to an agent.
func (s *Service) AssignLead(ctx context.Context, id actor.ID, agent actor.Principal) error {
	return exec(ctx, s, writeSpec{
		name:    mutAssignLead,
		success: "Lead assigned successfully",
		failure: "Failed to assign lead",
	}, func(ctx context.Context, c actor.Client) error {
		return c.AssignLead(ctx, id, agent)
	})
}

// DeleteLead removes a lead.
func (s *Service) DeleteLead(ctx context.Context, id actor.ID) error {
	return exec(ctx, s, writeSpec{
		name:    mutDeleteLead,
		success: "Lead deleted successfully",
		failure: "Failed to delete lead",
	}, func(ctx context.Context, c actor.Client) error {
		return c.DeleteLead(ctx, id)
	})
}
