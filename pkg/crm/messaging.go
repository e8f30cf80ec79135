package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// Messages returns the messages exchanged with user.
func (s *Service) Messages(ctx context.Context, user actor.Principal) ([]actor.Message, error) {
	return read(ctx, s, readSpec[[]actor.Message]{
		entity: "messages",
		key:    k(keyMessages, user),
		opts:   query.Options{Disabled: user.IsAnonymous()},
		fetch: func(ctx context.Context, c actor.Client) ([]actor.Message, error) {
			return c.GetMessages(ctx, user)
		},
		fallback: []actor.Message{},
	})
}

// SendMessage sends content to recipient.
func (s *Service) SendMessage(ctx context.Context, recipient actor.Principal, content string) (actor.ID, error) {
	return write(ctx, s, writeSpec{
		name:    mutSendMessage,
		success: "Message sent successfully",
		failure: "Failed to send message",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		return c.SendMessage(ctx, recipient, content)
	})
}
