// Package mailer sends HTML notification emails through an SMTP relay.
package mailer

import (
	"context"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/INF-UCT/code-lens/internal/config"
	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/logfields"
)

const senderName = "Code Lens"

// Mail is a rendered message ready to send.
type Mail struct {
	To      string
	Subject string
	HTML    string
}

// Compose renders a template into a Mail.
func Compose(to, subject, template string, data map[string]string) (Mail, error) {
	html, err := Render(template, data)
	if err != nil {
		return Mail{}, err
	}
	return Mail{To: to, Subject: subject, HTML: html}, nil
}

// Client delivers mail over SMTP using go-mail.
type Client struct {
	cfg    config.MailerConfig
	client *mail.Client
}

// NewClient creates an SMTP client. No connection is made until Send.
func NewClient(cfg config.MailerConfig) (*Client, error) {
	// WithTLSPortPolicy picks a default port; the explicit port is applied after it.
	opts := []mail.Option{
		mail.WithTLSPortPolicy(tlsPolicy(cfg.TLSPolicy)),
		mail.WithPort(cfg.SMTPPort),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.SMTPUsername != "" && cfg.SMTPPassword != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword))
	}

	c, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to create SMTP client").
			WithContext("host", cfg.SMTPHost).
			Build()
	}
	return &Client{cfg: cfg, client: c}, nil
}

// Send delivers m from "Code Lens <smtp_username>".
func (c *Client) Send(ctx context.Context, m Mail) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(senderName, c.cfg.SMTPUsername); err != nil {
		slog.Error("Failed to parse sender email address", logfields.Error(err))
		return errors.WrapError(err, errors.CategoryConfig, "invalid sender address").Build()
	}
	if err := msg.To(m.To); err != nil {
		slog.Error("Failed to parse recipient email address", logfields.Recipient(m.To), logfields.Error(err))
		return errors.WrapError(err, errors.CategoryValidation, "invalid recipient address").
			WithContext("to", m.To).
			Build()
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)

	if err := c.client.DialAndSendWithContext(ctx, msg); err != nil {
		slog.Error("Failed to send email", logfields.Recipient(m.To), logfields.Error(err))
		return errors.WrapError(err, errors.CategoryExternal, "failed to send email").
			WithContext("to", m.To).
			Retryable().
			Build()
	}
	slog.Info("Email sent", logfields.Recipient(m.To), slog.String("subject", m.Subject))
	return nil
}

func tlsPolicy(p config.TLSPolicy) mail.TLSPolicy {
	switch p {
	case config.TLSNone:
		return mail.NoTLS
	case config.TLSOpportunistic:
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}
