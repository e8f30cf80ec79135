package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// Templates returns every message template.
func (s *Service) Templates(ctx context.Context) ([]actor.MessageTemplate, error) {
	return read(ctx, s, readSpec[[]actor.MessageTemplate]{
		entity: "templates",
		key:    k(keyTemplates),
		fetch: func(ctx context.Context, c actor.Client) ([]actor.MessageTemplate, error) {
			return c.GetAllTemplates(ctx)
		},
		fallback: []actor.MessageTemplate{},
	})
}

// TemplatesByCategory filters Templates.
func (s *Service) TemplatesByCategory(ctx context.Context, category actor.TemplateCategory) ([]actor.MessageTemplate, error) {
	all, err := s.Templates(ctx)
	if err != nil {
		return nil, err
	}
	out := []actor.MessageTemplate{}
	for _, t := range all {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out, nil
}

// DefaultFollowUpTemplate returns the first follow-up template, or nil.
func (s *Service) DefaultFollowUpTemplate(ctx context.Context) (*actor.MessageTemplate, error) {
	matches, err := s.TemplatesByCategory(ctx, actor.CategoryFollowUp)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	t := matches[0]
	return &t, nil
}

// Template returns one template, or nil.
func (s *Service) Template(ctx context.Context, id actor.ID) (*actor.MessageTemplate, error) {
	return read(ctx, s, readSpec[*actor.MessageTemplate]{
		entity: "template",
		key:    k(keyTemplate, id),
		opts:   query.Options{Disabled: id == 0},
		fetch: func(ctx context.Context, c actor.Client) (*actor.MessageTemplate, error) {
			return c.GetTemplate(ctx, id)
		},
	})
}

// SaveTemplate adds t when its ID is zero and updates it otherwise. It
// returns the template's ID.
func (s *Service) SaveTemplate(ctx context.Context, t actor.MessageTemplate) (actor.ID, error) {
	return write(ctx, s, writeSpec{
		name:    mutSaveTemplate,
		success: "Template saved successfully",
		failure: "Failed to save template",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		if t.ID == 0 {
			return c.AddTemplate(ctx, t)
		}
		return t.ID, c.UpdateTemplate(ctx, t.ID, t)
	})
}

// DeleteTemplate removes a template.
func (s *Service) DeleteTemplate(ctx context.Context, id actor.ID) error {
	return exec(ctx, s, writeSpec{
		name:    mutDeleteTemplate,
		success: "Template deleted successfully",
		failure: "Failed to delete template",
	}, func(ctx context.Context, c actor.Client) error {
		return c.DeleteTemplate(ctx, id)
	})
}
