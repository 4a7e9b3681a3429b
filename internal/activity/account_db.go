package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edvin/mailhub/internal/core"
	"github.com/edvin/mailhub/internal/events"
	"github.com/edvin/mailhub/internal/model"
)

// DB defines the database operations used by activity structs.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountDB contains activities that read from and update the core
// database. Status writes go through the same lifecycle rules the API
// uses, so a concurrent suspend or delete can never be overwritten by a
// stale provisioning run.
type AccountDB struct {
	db        DB
	lifecycle *core.Lifecycle
	bus       *events.Bus
}

// NewAccountDB creates a new AccountDB activity struct.
func NewAccountDB(db DB, bus *events.Bus) *AccountDB {
	return &AccountDB{db: db, lifecycle: core.NewLifecycle(db, bus), bus: bus}
}

// GetEmailAccountByID retrieves an email account by its ID.
func (a *AccountDB) GetEmailAccountByID(ctx context.Context, id string) (*model.EmailAccount, error) {
	var m model.EmailAccount
	err := a.db.QueryRow(ctx,
		`SELECT id, customer_id, membership_id, site_id, address, domain, provider, external_id, quota_mb, purchase_type, payment_id, status, status_message, created_at, updated_at
		 FROM email_accounts WHERE id = $1`, id,
	).Scan(&m.ID, &m.CustomerID, &m.MembershipID, &m.SiteID, &m.Address, &m.Domain, &m.Provider, &m.ExternalID, &m.QuotaMB, &m.PurchaseType, &m.PaymentID, &m.Status, &m.StatusMessage, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get email account by id: %w", err)
	}
	return &m, nil
}

// BeginProvisioningResult reports the account state claimed for the run.
type BeginProvisioningResult struct {
	Account     model.EmailAccount `json:"account"`
	AlreadyDone bool               `json:"already_done"`
}

// BeginProvisioning claims an account for provisioning. Pending and
// failed accounts move to provisioning; an account already in
// provisioning is an interrupted run resuming. Active and suspended
// accounts report AlreadyDone so a redelivered start is a no-op.
func (a *AccountDB) BeginProvisioning(ctx context.Context, accountID string) (*BeginProvisioningResult, error) {
	account, err := a.GetEmailAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	switch account.Status {
	case model.StatusPending, model.StatusFailed:
		updated, err := a.lifecycle.Transition(ctx, accountID, account.Status, model.StatusProvisioning, core.TransitionOpts{})
		if err != nil {
			return nil, err
		}
		return &BeginProvisioningResult{Account: *updated}, nil
	case model.StatusProvisioning:
		return &BeginProvisioningResult{Account: *account}, nil
	default:
		return &BeginProvisioningResult{Account: *account, AlreadyDone: true}, nil
	}
}

// SetProvisionedParams holds the parameters for SetProvisioned.
type SetProvisionedParams struct {
	AccountID    string `json:"account_id"`
	ExternalID   string `json:"external_id"`
	DisplayToken string `json:"display_token"`
}

// SetProvisioned records the remote mailbox and moves the account to
// active, then announces it together with the one-time reveal token. A
// redelivery that finds the account already active counts as done.
func (a *AccountDB) SetProvisioned(ctx context.Context, params SetProvisionedParams) error {
	opts := core.TransitionOpts{}
	if params.ExternalID != "" {
		opts.ExternalID = &params.ExternalID
	}

	account, err := a.lifecycle.Transition(ctx, params.AccountID, model.StatusProvisioning, model.StatusActive, opts)
	if err != nil {
		if errors.Is(err, core.ErrStatusConflict) {
			current, getErr := a.GetEmailAccountByID(ctx, params.AccountID)
			if getErr == nil && current.Status == model.StatusActive {
				return nil
			}
		}
		return err
	}

	a.bus.Publish(ctx, events.AccountProvisioned{Account: *account, DisplayToken: params.DisplayToken})
	return nil
}

// SetProvisioningFailedParams holds the parameters for SetProvisioningFailed.
type SetProvisioningFailedParams struct {
	AccountID string `json:"account_id"`
	Reason    string `json:"reason"`
}

// SetProvisioningFailed parks the account in failed with the reason the
// backend gave. The failure event fires from the transition itself.
func (a *AccountDB) SetProvisioningFailed(ctx context.Context, params SetProvisioningFailedParams) error {
	_, err := a.lifecycle.Transition(ctx, params.AccountID, model.StatusProvisioning, model.StatusFailed,
		core.TransitionOpts{StatusMessage: &params.Reason})
	if err != nil {
		if errors.Is(err, core.ErrStatusConflict) {
			current, getErr := a.GetEmailAccountByID(ctx, params.AccountID)
			if getErr == nil && current.Status == model.StatusFailed {
				return nil
			}
		}
		return err
	}
	return nil
}

// DeleteOldAuditLogs deletes audit log entries older than the specified number of days
// and returns the count of deleted rows.
func (a *AccountDB) DeleteOldAuditLogs(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := a.db.Exec(ctx,
		"DELETE FROM audit_logs WHERE created_at < now() - make_interval(days => $1)", retentionDays)
	if err != nil {
		return 0, fmt.Errorf("delete old audit logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
