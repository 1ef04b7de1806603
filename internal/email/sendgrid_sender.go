package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender envia invitaciones con la API v3 de SendGrid.
type SendGridSender struct {
	client   sendgridClient
	from     string
	fromName string
}

func NewSendGridSender(apiKey, from, fromName string) (*SendGridSender, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("sendgrid from is required")
	}
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}, nil
}

func (s *SendGridSender) SendInvitation(ctx context.Context, inv Invitation) error {
	if strings.TrimSpace(inv.ToEmail) == "" {
		return fmt.Errorf("to email is required")
	}
	subject, text, htmlBody := invitationContent(inv)
	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		subject,
		mail.NewEmail("", inv.ToEmail),
		text,
		htmlBody,
	)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status=%d", resp.StatusCode)
	}
	return nil
}
