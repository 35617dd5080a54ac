package usecase

import (
	"context"

	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/infra/mail"
)

type MailTransport interface {
	Send(ctx context.Context, msg mail.Message) (string, error)
}

// InteractionPublisher announces recorded interactions to other services.
// Publishing is best-effort and never changes the outcome of a send.
type InteractionPublisher interface {
	PublishInteraction(ctx context.Context, rec entity.Interaction) error
}
