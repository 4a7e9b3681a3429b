// Package notify turns lifecycle events into customer-facing email.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/mrz1836/postmark"
	"github.com/rs/zerolog"

	"github.com/edvin/mailhub/internal/events"
	"github.com/edvin/mailhub/internal/model"
	"github.com/edvin/mailhub/internal/provider"
)

// EmailSender is the slice of the postmark client the mailer uses.
type EmailSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// CustomerGetter resolves the owning customer for an account, giving
// the mailer its recipient address.
type CustomerGetter interface {
	GetByID(ctx context.Context, id string) (*model.Customer, error)
}

var welcomeBody = template.Must(template.New("welcome").Parse(`Hi {{.CustomerName}},

Your mailbox {{.Address}} is ready.

Webmail: {{.WebmailURL}}

Mail client settings:
  IMAP: {{.IMAP.Server}}:{{.IMAP.Port}} ({{.IMAP.Security}})
  SMTP: {{.SMTP.Server}}:{{.SMTP.Port}} ({{.SMTP.Security}})
  Username: {{.Address}}

Your password can be viewed once with this code:

  {{.RevealToken}}

Enter it on the mailbox page under "Show password". The code works a
single time and expires shortly, so use it right away. If it has
expired, request a password change from the same page.
`))

// WelcomeMailer subscribes to provisioned events and mails the customer
// their new mailbox details plus the one-time password reveal code. The
// password itself is never sent.
type WelcomeMailer struct {
	sender    EmailSender
	customers CustomerGetter
	providers *provider.Registry
	from      string
	logger    zerolog.Logger
}

func NewWelcomeMailer(sender EmailSender, customers CustomerGetter, providers *provider.Registry, from string, logger zerolog.Logger) *WelcomeMailer {
	return &WelcomeMailer{
		sender:    sender,
		customers: customers,
		providers: providers,
		from:      from,
		logger:    logger,
	}
}

// Handle implements events.Handler for AccountProvisioned. Other events
// are ignored. With no sender configured it is a no-op, so deployments
// without postmark credentials just skip welcome mail.
func (m *WelcomeMailer) Handle(ctx context.Context, evt events.Event) error {
	provisioned, ok := evt.(events.AccountProvisioned)
	if !ok {
		return nil
	}
	if m.sender == nil {
		m.logger.Debug().Str("address", provisioned.Account.Address).Msg("postmark not configured, skipping welcome email")
		return nil
	}

	customer, err := m.customers.GetByID(ctx, provisioned.Account.CustomerID)
	if err != nil {
		return fmt.Errorf("welcome email for %s: %w", provisioned.Account.Address, err)
	}

	data := struct {
		CustomerName string
		Address      string
		WebmailURL   string
		IMAP         provider.ConnectionSettings
		SMTP         provider.ConnectionSettings
		RevealToken  string
	}{
		CustomerName: customer.Name,
		Address:      provisioned.Account.Address,
		RevealToken:  provisioned.DisplayToken,
	}

	if p, err := m.providers.Get(provisioned.Account.Provider); err == nil {
		data.WebmailURL = p.WebmailURL(provisioned.Account.Address)
		data.IMAP = p.IMAPSettings(provisioned.Account.Address)
		data.SMTP = p.SMTPSettings(provisioned.Account.Address)
	} else {
		m.logger.Warn().Err(err).Str("provider", provisioned.Account.Provider).Msg("welcome email without connection settings")
	}

	var body bytes.Buffer
	if err := welcomeBody.Execute(&body, data); err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}

	resp, err := m.sender.SendEmail(ctx, postmark.Email{
		From:     m.from,
		To:       customer.Email,
		Subject:  fmt.Sprintf("Your mailbox %s is ready", provisioned.Account.Address),
		Tag:      "mailbox-welcome",
		TextBody: body.String(),
	})
	if err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("send welcome email: postmark error %d: %s", resp.ErrorCode, resp.Message)
	}

	m.logger.Info().Str("address", provisioned.Account.Address).Str("to", customer.Email).Msg("welcome email sent")
	return nil
}
