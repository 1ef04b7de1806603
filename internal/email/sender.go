package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// htmlPolicy filtra el cuerpo HTML final: solo párrafos, énfasis y enlaces http(s).
var htmlPolicy = bluemonday.UGCPolicy()

// Invitation describe el correo que recibe quien es invitado a un workspace.
type Invitation struct {
	ToEmail       string
	WorkspaceName string
	InviterName   string
	AcceptURL     string
	ExpiresAt     time.Time
}

// Sender define la interfaz para el envio de invitaciones.
type Sender interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendInvitation(_ context.Context, _ Invitation) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

func invitationContent(inv Invitation) (subject, text, htmlBody string) {
	inviter := inv.InviterName
	if inviter == "" {
		inviter = "A teammate"
	}
	subject = fmt.Sprintf("You have been invited to %s", inv.WorkspaceName)
	text = fmt.Sprintf(
		"%s invited you to join the workspace %q.\nAccept the invitation: %s\nThe link expires at %s UTC.\n",
		inviter,
		inv.WorkspaceName,
		inv.AcceptURL,
		inv.ExpiresAt.UTC().Format(time.RFC3339),
	)
	htmlBody = htmlPolicy.Sanitize(fmt.Sprintf(
		"<p>%s invited you to join the workspace <strong>%s</strong>.</p><p><a href=\"%s\">Accept the invitation</a></p><p>The link expires at %s UTC.</p>",
		html.EscapeString(inviter),
		html.EscapeString(inv.WorkspaceName),
		html.EscapeString(inv.AcceptURL),
		inv.ExpiresAt.UTC().Format(time.RFC3339),
	))
	return subject, text, htmlBody
}
