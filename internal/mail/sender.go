// Package mail renders and delivers the confirmation and password reset
// emails.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/contacts-api/internal/auth"
	"github.com/iliyamo/contacts-api/internal/queue"
)

// Message is a rendered HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, m Message) error
}

// Sender mints the token for each email and hands the rendered message to
// a Transport.
type Sender struct {
	tokens    *auth.TokenService
	transport Transport
	log       *slog.Logger
}

func NewSender(tokens *auth.TokenService, transport Transport, log *slog.Logger) *Sender {
	return &Sender{tokens: tokens, transport: transport, log: log}
}

// SendConfirmation emails a 7-day confirmation link to email.
func (s *Sender) SendConfirmation(ctx context.Context, email, username, host string) error {
	token, err := s.tokens.IssueConfirmationToken(email)
	if err != nil {
		return err
	}
	html, err := render(confirmTmpl, templateData{Username: username, Host: normalizeHost(host), Token: token})
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	return s.deliver(ctx, Message{To: email, Subject: "Confirm your email - Contacts API", HTML: html})
}

// SendPasswordReset emails a 1-hour reset link to email.
func (s *Sender) SendPasswordReset(ctx context.Context, email, username, host string) error {
	token, err := s.tokens.IssuePasswordResetToken(email)
	if err != nil {
		return err
	}
	html, err := render(resetTmpl, templateData{Username: username, Host: normalizeHost(host), Token: token})
	if err != nil {
		return fmt.Errorf("render password reset: %w", err)
	}
	return s.deliver(ctx, Message{To: email, Subject: "Password reset - Contacts API", HTML: html})
}

// HandleMailEvent lets the queue consumer drive the Sender.
func (s *Sender) HandleMailEvent(ctx context.Context, ev queue.MailEvent) error {
	switch ev.Kind {
	case queue.MailConfirmation:
		return s.SendConfirmation(ctx, ev.Email, ev.Username, ev.Host)
	case queue.MailPasswordReset:
		return s.SendPasswordReset(ctx, ev.Email, ev.Username, ev.Host)
	default:
		return fmt.Errorf("unknown mail kind %q", ev.Kind)
	}
}

func (s *Sender) deliver(ctx context.Context, m Message) error {
	if err := s.transport.Send(ctx, m); err != nil {
		s.log.ErrorContext(ctx, "email delivery failed", slog.String("to", m.To), slog.Any("error", err))
		return err
	}
	s.log.InfoContext(ctx, "email sent", slog.String("to", m.To), slog.String("subject", m.Subject))
	return nil
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/") {
		return host
	}
	return host + "/"
}
