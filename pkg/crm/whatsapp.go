package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// WhatsAppConfig returns the integration settings, or nil.
func (s *Service) WhatsAppConfig(ctx context.Context) (*actor.WhatsAppConfig, error) {
	return read(ctx, s, s.whatsAppConfigRead())
}

// IsWhatsAppActive reports whether the integration is configured and active.
func (s *Service) IsWhatsAppActive(ctx context.Context) (bool, error) {
	cfg, err := s.WhatsAppConfig(ctx)
	if err != nil || cfg == nil {
		return false, err
	}
	return cfg.IsActive, nil
}

func (s *Service) whatsAppConfigRead() readSpec[*actor.WhatsAppConfig] {
	return readSpec[*actor.WhatsAppConfig]{
		entity: "WhatsApp config",
		key:    k(keyWhatsAppConfig),
		fetch: func(ctx context.Context, c actor.Client) (*actor.WhatsAppConfig, error) {
			return c.GetWhatsAppConfig(ctx)
		},
	}
}

// WhatsAppMessageLogs returns every WhatsApp message log.
func (s *Service) WhatsAppMessageLogs(ctx context.Context) ([]actor.WhatsAppMessageLog, error) {
	return read(ctx, s, s.whatsAppLogsRead())
}

// WatchWhatsAppMessageLogs polls the logs until ctx is done.
func (s *Service) WatchWhatsAppMessageLogs(ctx context.Context, notify func([]actor.WhatsAppMessageLog, error)) error {
	return watch(ctx, s, s.whatsAppLogsRead(), notify)
}

func (s *Service) whatsAppLogsRead() readSpec[[]actor.WhatsAppMessageLog] {
	return readSpec[[]actor.WhatsAppMessageLog]{
		entity: "WhatsApp message logs",
		key:    k(keyWhatsAppLogs),
		opts:   query.Options{RefetchInterval: pollInterval},
		fetch: func(ctx context.Context, c actor.Client) ([]actor.WhatsAppMessageLog, error) {
			return c.GetWhatsAppMessageLogs(ctx)
		},
		fallback: []actor.WhatsAppMessageLog{},
	}
}

// AgentWhatsAppMessageLogs returns the logs tied to leads assigned to the
// caller.
func (s *Service) AgentWhatsAppMessageLogs(ctx context.Context) ([]actor.WhatsAppMessageLog, error) {
	return read(ctx, s, s.agentWhatsAppLogsRead())
}

// WatchAgentWhatsAppMessageLogs polls the caller's logs until ctx is done.
func (s *Service) WatchAgentWhatsAppMessageLogs(ctx context.Context, notify func([]actor.WhatsAppMessageLog, error)) error {
	return watch(ctx, s, s.agentWhatsAppLogsRead(), notify)
}

func (s *Service) agentWhatsAppLogsRead() readSpec[[]actor.WhatsAppMessageLog] {
	p := s.principal()
	return readSpec[[]actor.WhatsAppMessageLog]{
		entity: "agent WhatsApp message logs",
		key:    k(keyAgentWhatsAppLogs, p),
		opts:   query.Options{Disabled: p.IsAnonymous(), RefetchInterval: pollInterval},
		fetch: func(ctx context.Context, c actor.Client) ([]actor.WhatsAppMessageLog, error) {
			return agentLogs(ctx, c, p)
		},
		fallback: []actor.WhatsAppMessageLog{},
	}
}

func agentLogs(ctx context.Context, c actor.Client, agent actor.Principal) ([]actor.WhatsAppMessageLog, error) {
	logs, err := c.GetWhatsAppMessageLogs(ctx)
	if err != nil {
		return nil, err
	}
	leads, err := c.GetAllLeads(ctx, nil)
	if err != nil {
		return nil, err
	}
	mine := make(map[actor.ID]bool)
	for _, l := range leads.Items {
		if l.AssignedAgent != nil && *l.AssignedAgent == agent {
			mine[l.ID] = true
		}
	}
	out := []actor.WhatsAppMessageLog{}
	for _, log := range logs {
		if log.LeadID != nil && mine[*log.LeadID] {
			out = append(out, log)
		}
	}
	return out, nil
}

// SetWhatsAppConfig stores the integration settings.
func (s *Service) SetWhatsAppConfig(ctx context.Context, cfg actor.WhatsAppConfig) error {
	return exec(ctx, s, writeSpec{
		name:    mutSetWhatsAppConfig,
		success: "WhatsApp configuration updated successfully",
		failure: "Failed to update WhatsApp config",
	}, func(ctx context.Context, c actor.Client) error {
		return c.SetWhatsAppConfig(ctx, cfg)
	})
}

// LogWhatsAppMessage records an outbound message.
func (s *Service) LogWhatsAppMessage(ctx context.Context, log actor.WhatsAppMessageLog) (actor.ID, error) {
	return write(ctx, s, writeSpec{
		name:    mutLogWhatsAppMessage,
		failure: "Failed to log WhatsApp message",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		return c.LogWhatsAppMessage(ctx, log)
	})
}
