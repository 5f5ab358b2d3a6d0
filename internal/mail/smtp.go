// Package mail: SMTP mail provider.
//
// Last link of the chain: direct SMTP submission, used when both HTTP
// providers are unavailable.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/fornello/go-quote-backend/internal/config"
)

// SMTPProvider submits mail over SMTP with opportunistic STARTTLS.
type SMTPProvider struct {
	cfg config.SMTPConfig
}

// NewSMTPProvider builds the adapter from config.
func NewSMTPProvider(cfg config.SMTPConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

// Name implements Provider.
func (p *SMTPProvider) Name() string { return "smtp" }

// Send implements Provider.
func (p *SMTPProvider) Send(ctx context.Context, msg *Message) error {
	m := gomail.NewMsg()
	if err := m.FromFormat(msg.FromName, msg.FromEmail); err != nil {
		return permanent(p.Name(), fmt.Errorf("from address: %w", err))
	}
	if err := m.To(msg.To); err != nil {
		return permanent(p.Name(), fmt.Errorf("to address: %w", err))
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	for _, a := range msg.Attachments {
		m.AttachReader(a.Filename, bytes.NewReader(a.Bytes),
			gomail.WithFileContentType(gomail.ContentType(a.MIMEType)))
	}

	opts := []gomail.Option{
		gomail.WithPort(p.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if p.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(p.cfg.Username),
			gomail.WithPassword(p.cfg.Password),
		)
	}

	client, err := gomail.NewClient(p.cfg.Host, opts...)
	if err != nil {
		return transient(p.Name(), fmt.Errorf("smtp client: %w", err))
	}
	defer client.Close()

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		// The server spoke: a non-temporary reply (5xx, e.g. "550 mailbox
		// unavailable") is a rejection of this message, not an outage.
		// Dial and connection errors arrive as plain errors and stay
		// transient.
		var se *gomail.SendError
		if errors.As(err, &se) && !se.IsTemp() {
			return permanent(p.Name(), fmt.Errorf("smtp send: %w", err))
		}
		return transient(p.Name(), fmt.Errorf("smtp send: %w", err))
	}
	return nil
}
