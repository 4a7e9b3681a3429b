// Package events carries mailbox lifecycle notifications from the core
// services and worker activities to in-process subscribers such as the
// welcome mailer. Delivery is synchronous and best-effort: a failing
// handler is logged and never fails the operation that published.
package events

import "github.com/edvin/mailhub/internal/model"

const (
	EventAccountProvisioned = "email_account.provisioned"
	EventProvisioningFailed = "email_account.provisioning_failed"
	EventAccountSuspended   = "email_account.suspended"
	EventAccountReactivated = "email_account.reactivated"
)

// Event is a named payload published on the bus.
type Event interface {
	Name() string
}

// AccountProvisioned fires when the remote mailbox exists and the
// account went active. DisplayToken is the single-use reveal token for
// the mailbox password; the plaintext itself stays inside the
// provisioning activity and never rides on the bus.
type AccountProvisioned struct {
	Account      model.EmailAccount
	DisplayToken string
}

func (AccountProvisioned) Name() string { return EventAccountProvisioned }

// ProvisioningFailed fires when the provider rejected the mailbox and
// the account was marked failed.
type ProvisioningFailed struct {
	Account model.EmailAccount
	Reason  string
}

func (ProvisioningFailed) Name() string { return EventProvisioningFailed }

type AccountSuspended struct {
	Account model.EmailAccount
}

func (AccountSuspended) Name() string { return EventAccountSuspended }

type AccountReactivated struct {
	Account model.EmailAccount
}

func (AccountReactivated) Name() string { return EventAccountReactivated }
