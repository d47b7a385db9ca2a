package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artmorph/api/internal/notification/templates"
)

// Message holds the rendered content delivered to a recipient.
type Message struct {
	Recipient string
	Subject   string
	HTMLBody  string
	TextBody  string
}

// sender is the transport seam. Not exposed outside the package.
type sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// Service is the delivery collaborator consumed by the identity flows.
//
// Send is synchronous on purpose: one-time codes and reset tokens must not be
// treated as issued when delivery fails, so the caller needs the error.
type Service interface {
	Send(ctx context.Context, m Message) error
}

type service struct {
	log    *slog.Logger
	sender sender
}

// NewService creates a new notification service over the given sender.
func NewService(log *slog.Logger, s sender) Service {
	return &service{log: log, sender: s}
}

func (s *service) Send(ctx context.Context, m Message) error {
	if err := s.sender.Send(ctx, m.Recipient, m.Subject, m.HTMLBody, m.TextBody); err != nil {
		s.log.Error("failed to deliver message", "recipient", m.Recipient, "error", err)
		return err
	}
	s.log.Info("message delivered", "recipient", m.Recipient)
	return nil
}

// SendTemplate renders a scenario template and delivers it in one step.
func SendTemplate[T any](ctx context.Context, svc Service, engine *templates.Engine, h templates.Handle[T], recipient string, data T) error {
	rendered, err := templates.Render(ctx, engine, h, data)
	if err != nil {
		return fmt.Errorf("render template %s: %w", h.ID(), err)
	}
	return svc.Send(ctx, Message{
		Recipient: recipient,
		Subject:   rendered.Subject,
		HTMLBody:  rendered.EmailHTML,
		TextBody:  rendered.EmailText,
	})
}
