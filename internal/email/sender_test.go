package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

func testInvitation() Invitation {
	return Invitation{
		ToEmail:       "friend@example.com",
		WorkspaceName: "Acme <Ops>",
		InviterName:   "Ada",
		AcceptURL:     "https://board.example.com/invite?token=abc",
		ExpiresAt:     time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestInvitationContent(t *testing.T) {
	subject, text, htmlBody := invitationContent(testInvitation())
	if subject != "You have been invited to Acme <Ops>" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(text, "https://board.example.com/invite?token=abc") {
		t.Fatalf("expected accept url in text body")
	}
	if !strings.Contains(text, "2030-05-01T10:00:00Z") {
		t.Fatalf("expected expiry in text body")
	}
	if strings.Contains(htmlBody, "<Ops>") || !strings.Contains(htmlBody, "&lt;Ops&gt;") {
		t.Fatalf("expected workspace name escaped in html body: %s", htmlBody)
	}
}

func TestInvitationContent_DropsUnsafeLinks(t *testing.T) {
	inv := testInvitation()
	inv.AcceptURL = "javascript:alert(1)"
	inv.InviterName = "<img src=x onerror=alert(1)>"

	_, _, htmlBody := invitationContent(inv)
	if strings.Contains(htmlBody, "javascript:") {
		t.Fatalf("expected javascript link removed: %s", htmlBody)
	}
	if strings.Contains(htmlBody, "<img") {
		t.Fatalf("expected inviter markup escaped: %s", htmlBody)
	}
	if !strings.Contains(htmlBody, "Accept the invitation") {
		t.Fatalf("expected link text kept: %s", htmlBody)
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := buildMessage("noreply@example.com", "Taskboard", "friend@example.com", "Hi", "body")
	if !strings.HasPrefix(msg, "From: Taskboard <noreply@example.com>\r\n") {
		t.Fatalf("unexpected from header: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nbody") {
		t.Fatalf("expected body after blank line")
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("").SendInvitation(context.Background(), testInvitation())
	if err == nil {
		t.Fatalf("expected disabled sender to fail")
	}
	err = NewDisabledSender("not configured").SendInvitation(context.Background(), testInvitation())
	if err == nil || err.Error() != "not configured" {
		t.Fatalf("expected custom reason, got %v", err)
	}
}

func TestNewSMTPSenderValidation(t *testing.T) {
	if _, err := NewSMTPSender("", 0, "", "", "a@b.com", "", false); err == nil {
		t.Fatalf("expected host validation error")
	}
	if _, err := NewSMTPSender("smtp.example.com", 0, "", "", "", "", false); err == nil {
		t.Fatalf("expected from validation error")
	}
	s, err := NewSMTPSender("smtp.example.com", 0, "", "", "a@b.com", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.port != 587 {
		t.Fatalf("expected default port 587, got %d", s.port)
	}
}

type mockSendGridClient struct {
	last   *mail.SGMailV3
	status int
	err    error
}

func (m *mockSendGridClient) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	m.last = email
	if m.err != nil {
		return nil, m.err
	}
	return &rest.Response{StatusCode: m.status}, nil
}

func TestSendGridSender(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &mockSendGridClient{status: 202}
		s := &SendGridSender{client: mock, from: "noreply@example.com", fromName: "Taskboard"}
		if err := s.SendInvitation(context.Background(), testInvitation()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mock.last == nil || mock.last.Subject != "You have been invited to Acme <Ops>" {
			t.Fatalf("unexpected message: %+v", mock.last)
		}
	})

	t.Run("error status", func(t *testing.T) {
		s := &SendGridSender{client: &mockSendGridClient{status: 401}, from: "noreply@example.com"}
		if err := s.SendInvitation(context.Background(), testInvitation()); err == nil {
			t.Fatalf("expected error for 401")
		}
	})

	t.Run("transport error", func(t *testing.T) {
		s := &SendGridSender{client: &mockSendGridClient{err: errors.New("boom")}, from: "noreply@example.com"}
		if err := s.SendInvitation(context.Background(), testInvitation()); err == nil {
			t.Fatalf("expected transport error")
		}
	})

	t.Run("missing recipient", func(t *testing.T) {
		s := &SendGridSender{client: &mockSendGridClient{status: 202}, from: "noreply@example.com"}
		inv := testInvitation()
		inv.ToEmail = " "
		if err := s.SendInvitation(context.Background(), inv); err == nil {
			t.Fatalf("expected recipient validation error")
		}
	})

	if _, err := NewSendGridSender("", "a@b.com", ""); err == nil {
		t.Fatalf("expected api key validation error")
	}
}
