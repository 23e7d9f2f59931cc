package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/iliyamo/contacts-api/internal/config"
)

// SMTPTransport sends messages through the configured SMTP server.
type SMTPTransport struct {
	client   *gomail.Client
	from     string
	fromName string
}

// NewSMTPTransport maps MAIL_* settings onto a go-mail client.
func NewSMTPTransport(cfg config.MailConfig) (*SMTPTransport, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	switch {
	case cfg.SSLTLS:
		opts = append(opts, gomail.WithSSL())
	case cfg.StartTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if cfg.UseCredentials {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if !cfg.ValidateCerts {
		opts = append(opts, gomail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true, ServerName: cfg.Server}))
	}

	client, err := gomail.NewClient(cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPTransport{client: client, from: cfg.From, fromName: cfg.FromName}, nil
}

// Send builds a MIME message and delivers it in one SMTP session.
func (t *SMTPTransport) Send(ctx context.Context, m Message) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(t.fromName, t.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, m.HTML)

	if err := t.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogTransport writes messages to the log instead of sending them. main
// uses it when no SMTP server is configured.
type LogTransport struct {
	Log *slog.Logger
}

func (t LogTransport) Send(ctx context.Context, m Message) error {
	t.Log.InfoContext(ctx, "email not sent: no SMTP server configured",
		slog.String("to", m.To), slog.String("subject", m.Subject))
	return nil
}
