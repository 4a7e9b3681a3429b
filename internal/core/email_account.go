package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/mailhub/internal/events"
	"github.com/edvin/mailhub/internal/model"
	"github.com/edvin/mailhub/internal/platform"
	"github.com/edvin/mailhub/internal/provider"
	"github.com/edvin/mailhub/internal/tokenstore"
)

const emailAccountColumns = `id, customer_id, membership_id, site_id, address, domain, provider, external_id, quota_mb, purchase_type, payment_id, status, status_message, created_at, updated_at`

func scanEmailAccount(row interface{ Scan(dest ...any) error }) (model.EmailAccount, error) {
	var a model.EmailAccount
	err := row.Scan(&a.ID, &a.CustomerID, &a.MembershipID, &a.SiteID, &a.Address, &a.Domain,
		&a.Provider, &a.ExternalID, &a.QuotaMB, &a.PurchaseType, &a.PaymentID,
		&a.Status, &a.StatusMessage, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// EmailAccountService manages mailbox records and hands the slow parts to
// Temporal. All provider I/O happens in the worker; these methods only
// touch the database, the token store, and the workflow client.
type EmailAccountService struct {
	db              DB
	tc              temporalclient.Client
	providers       *provider.Registry
	tokens          tokenstore.Store
	settings        *PlatformConfigService
	quota           *QuotaService
	lifecycle       *Lifecycle
	logger          zerolog.Logger
	defaultProvider string
	tokenTTL        time.Duration
}

// NewEmailAccountService creates a new EmailAccountService. The zero
// tokenTTL falls back to ten minutes.
func NewEmailAccountService(db DB, tc temporalclient.Client, providers *provider.Registry, tokens tokenstore.Store, bus *events.Bus, logger zerolog.Logger, defaultProvider string, tokenTTL time.Duration) *EmailAccountService {
	if tokenTTL <= 0 {
		tokenTTL = 10 * time.Minute
	}
	return &EmailAccountService{
		db:              db,
		tc:              tc,
		providers:       providers,
		tokens:          tokens,
		settings:        NewPlatformConfigService(db),
		quota:           NewQuotaService(db, NewLimitationService(db)),
		lifecycle:       NewLifecycle(db, bus),
		logger:          logger,
		defaultProvider: defaultProvider,
		tokenTTL:        tokenTTL,
	}
}

// Create validates and persists a new mailbox in status pending, escrows
// its initial password, and dispatches the provisioning workflow. The
// caller never waits on provider I/O. An empty password means the
// platform generates one; either way the plaintext is only reachable
// through a one-time token afterwards.
func (s *EmailAccountService) Create(ctx context.Context, a *model.EmailAccount, password string) error {
	local, domain, err := model.SplitAddress(a.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailInvalid, err)
	}
	a.Address = local + "@" + domain
	if a.Domain != "" && a.Domain != domain {
		return fmt.Errorf("%w: domain %q does not match address %q", ErrEmailInvalid, a.Domain, a.Address)
	}
	a.Domain = domain

	enabled, err := s.settings.EmailAccountsEnabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return fmt.Errorf("%w: provisioning is switched off platform-wide", ErrEmailAccountsDisabled)
	}

	var customerExists bool
	err = s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)", a.CustomerID).Scan(&customerExists)
	if err != nil {
		return fmt.Errorf("check customer %s: %w", a.CustomerID, err)
	}
	if !customerExists {
		return fmt.Errorf("%w: %s", ErrCustomerNotFound, a.CustomerID)
	}

	if a.PurchaseType == "" {
		a.PurchaseType = model.PurchaseMembership
	}

	if a.Provider == "" {
		p, err := s.settings.DefaultProvider(ctx)
		if err != nil {
			return err
		}
		if p == "" {
			p = s.defaultProvider
		}
		a.Provider = p
	}
	if _, err := s.providers.Available(a.Provider); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	taken, err := s.addressTaken(ctx, a.Address)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrEmailExists, a.Address)
	}

	if a.PurchaseType == model.PurchaseMembership {
		if a.MembershipID == nil {
			return fmt.Errorf("%w: membership required for included mailboxes", ErrMembershipNotFound)
		}
		if err := s.quota.CanCreate(ctx, a.CustomerID, *a.MembershipID); err != nil {
			return err
		}
	}

	if a.ID == "" {
		a.ID = platform.NewID()
	}
	a.Status = model.StatusPending
	a.StatusMessage = nil
	a.ExternalID = nil

	err = s.db.QueryRow(ctx,
		`INSERT INTO email_accounts (id, customer_id, membership_id, site_id, address, domain, provider, quota_mb, purchase_type, payment_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		 RETURNING created_at, updated_at`,
		a.ID, a.CustomerID, a.MembershipID, a.SiteID, a.Address, a.Domain, a.Provider,
		a.QuotaMB, a.PurchaseType, a.PaymentID, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		// Backstop for concurrent creates of the same address.
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrEmailExists, a.Address)
		}
		return fmt.Errorf("insert email account: %w", err)
	}

	if password == "" {
		password = platform.NewPassword(16)
	}
	token, err := s.tokens.Put(ctx, a.ID, password, s.tokenTTL)
	if err != nil {
		s.rollbackCreate(ctx, a.ID)
		return fmt.Errorf("escrow mailbox password: %w", err)
	}

	job := model.ProvisionJob{AccountID: a.ID, Token: token}
	if err := startWorkflow(ctx, s.tc, WorkflowProvision, workflowID("mailbox", a.ID), job); err != nil {
		s.rollbackCreate(ctx, a.ID)
		return fmt.Errorf("start provisioning workflow: %w", err)
	}
	return nil
}

// rollbackCreate removes a freshly inserted row when escrow or dispatch
// failed before the workflow could take over. Best effort: a leftover
// pending row is visible and deletable either way.
func (s *EmailAccountService) rollbackCreate(ctx context.Context, id string) {
	if _, err := s.db.Exec(ctx, "DELETE FROM email_accounts WHERE id = $1", id); err != nil {
		s.logger.Error().Err(err).Str("account_id", id).Msg("rollback of failed create left a pending row")
	}
}

func (s *EmailAccountService) addressTaken(ctx context.Context, address string) (bool, error) {
	var taken bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM email_accounts WHERE lower(address) = lower($1))", address).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check address %s: %w", address, err)
	}
	return taken, nil
}

// GetByID retrieves a mailbox by its ID.
func (s *EmailAccountService) GetByID(ctx context.Context, id string) (*model.EmailAccount, error) {
	account, err := scanEmailAccount(s.db.QueryRow(ctx,
		`SELECT `+emailAccountColumns+` FROM email_accounts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		return nil, fmt.Errorf("get email account %s: %w", id, err)
	}
	return &account, nil
}

// GetByAddress retrieves a mailbox by its address, case-insensitively.
func (s *EmailAccountService) GetByAddress(ctx context.Context, address string) (*model.EmailAccount, error) {
	account, err := scanEmailAccount(s.db.QueryRow(ctx,
		`SELECT `+emailAccountColumns+` FROM email_accounts WHERE lower(address) = lower($1)`, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
		}
		return nil, fmt.Errorf("get email account %s: %w", address, err)
	}
	return &account, nil
}

// ListByCustomer retrieves a customer's mailboxes with cursor-based
// pagination, optionally narrowed to a single membership.
func (s *EmailAccountService) ListByCustomer(ctx context.Context, customerID string, membershipID *string, limit int, cursor string) ([]model.EmailAccount, bool, error) {
	query := `SELECT ` + emailAccountColumns + ` FROM email_accounts WHERE customer_id = $1`
	args := []any{customerID}
	argIdx := 2

	if membershipID != nil {
		query += fmt.Sprintf(` AND membership_id = $%d`, argIdx)
		args = append(args, *membershipID)
		argIdx++
	}
	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list email accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.EmailAccount
	for rows.Next() {
		a, err := scanEmailAccount(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan email account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate email accounts: %w", err)
	}

	hasMore := len(accounts) > limit
	if hasMore {
		accounts = accounts[:limit]
	}
	return accounts, hasMore, nil
}

// Suspend blocks an active mailbox. The provider side is untouched; the
// platform treats suspension as a local, reversible state.
func (s *EmailAccountService) Suspend(ctx context.Context, id, reason string) (*model.EmailAccount, error) {
	var msg *string
	if reason != "" {
		msg = &reason
	}
	return s.lifecycle.Transition(ctx, id, model.StatusActive, model.StatusSuspended, TransitionOpts{StatusMessage: msg})
}

// Reactivate lifts a suspension and clears the stored reason.
func (s *EmailAccountService) Reactivate(ctx context.Context, id string) (*model.EmailAccount, error) {
	return s.lifecycle.Transition(ctx, id, model.StatusSuspended, model.StatusActive, TransitionOpts{})
}

// Retry re-dispatches provisioning for a failed mailbox. The workflow
// moves the row back to provisioning itself, so a retry that never starts
// leaves the account failed and retryable. The escrowed password is long
// gone by now; the worker generates a fresh one.
func (s *EmailAccountService) Retry(ctx context.Context, id string) error {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if account.Status != model.StatusFailed {
		return fmt.Errorf("%w: account %s is %s, only failed accounts can be retried", ErrStatusConflict, id, account.Status)
	}

	job := model.ProvisionJob{AccountID: id}
	if err := startWorkflow(ctx, s.tc, WorkflowProvision, workflowID("mailbox", id), job); err != nil {
		return fmt.Errorf("start provisioning workflow: %w", err)
	}
	return nil
}

// Delete removes the local record immediately and leaves remote cleanup
// to a fire-and-forget workflow. Deletion is refused mid-provisioning;
// any other state may go at any time.
func (s *EmailAccountService) Delete(ctx context.Context, id string) error {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if account.Status == model.StatusProvisioning {
		return fmt.Errorf("%w: account %s is provisioning, wait for the pipeline to settle", ErrStatusConflict, id)
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM email_accounts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete email account %s: %w", id, err)
	}

	s.dispatchRemoteDelete(ctx, account.ID, account.Address, account.Provider)
	return nil
}

// DeleteByCustomer removes every mailbox a customer owns and fires a
// cleanup workflow per row. Used by customer deletion.
func (s *EmailAccountService) DeleteByCustomer(ctx context.Context, customerID string) (int, error) {
	return s.deleteWhere(ctx, "customer_id", customerID)
}

// DeleteByMembership removes the mailboxes attached to a membership,
// including ones still provisioning: the owning plan is going away.
func (s *EmailAccountService) DeleteByMembership(ctx context.Context, membershipID string) (int, error) {
	return s.deleteWhere(ctx, "membership_id", membershipID)
}

func (s *EmailAccountService) deleteWhere(ctx context.Context, column, value string) (int, error) {
	rows, err := s.db.Query(ctx,
		`DELETE FROM email_accounts WHERE `+column+` = $1 RETURNING id, address, provider`, value)
	if err != nil {
		return 0, fmt.Errorf("delete email accounts by %s: %w", column, err)
	}
	defer rows.Close()

	type removed struct{ id, address, provider string }
	var gone []removed
	for rows.Next() {
		var r removed
		if err := rows.Scan(&r.id, &r.address, &r.provider); err != nil {
			return 0, fmt.Errorf("scan deleted email account: %w", err)
		}
		gone = append(gone, r)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate deleted email accounts: %w", err)
	}

	for _, r := range gone {
		s.dispatchRemoteDelete(ctx, r.id, r.address, r.provider)
	}
	return len(gone), nil
}

// dispatchRemoteDelete starts the best-effort remote cleanup workflow.
// The local row is already gone, so failures are logged and dropped; an
// orphaned remote mailbox is preferable to a blocked deletion.
func (s *EmailAccountService) dispatchRemoteDelete(ctx context.Context, accountID, address, providerID string) {
	job := model.RemoteDeleteJob{Address: address, Provider: providerID}
	if err := startWorkflow(ctx, s.tc, WorkflowRemoteDelete, workflowID("mailbox-cleanup", accountID), job); err != nil {
		s.logger.Error().Err(err).
			Str("address", address).
			Str("provider", providerID).
			Msg("remote mailbox cleanup not dispatched")
	}
}

// ChangePassword escrows a new password for an active mailbox and
// dispatches the rotation workflow. When the caller does not supply a
// password the platform generates one and returns a second escrow token
// so the new value can be revealed to the customer exactly once; for
// caller-supplied passwords the returned token is empty.
func (s *EmailAccountService) ChangePassword(ctx context.Context, id, password string) (string, error) {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if account.Status != model.StatusActive {
		return "", fmt.Errorf("%w: account %s is %s, password changes need an active mailbox", ErrStatusConflict, id, account.Status)
	}

	var revealToken string
	if password == "" {
		password = platform.NewPassword(16)
		revealToken, err = s.tokens.Put(ctx, id, password, s.tokenTTL)
		if err != nil {
			return "", fmt.Errorf("escrow reveal token: %w", err)
		}
	}

	token, err := s.tokens.Put(ctx, id, password, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("escrow mailbox password: %w", err)
	}

	job := model.PasswordChangeJob{AccountID: id, Token: token}
	if err := startWorkflow(ctx, s.tc, WorkflowPasswordChange, workflowID("mailbox-passwd", id), job); err != nil {
		// Burn the reveal token so nobody can read a password the
		// provider never received.
		if revealToken != "" {
			_, _ = s.tokens.Take(ctx, revealToken, id)
		}
		return "", fmt.Errorf("start password change workflow: %w", err)
	}
	return revealToken, nil
}

// RevealPassword redeems a one-time token for the plaintext password.
// The token is consumed by the attempt whether or not it matches, so a
// second read never succeeds.
func (s *EmailAccountService) RevealPassword(ctx context.Context, id, token string) (string, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return "", err
	}
	password, err := s.tokens.Take(ctx, token, id)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return "", fmt.Errorf("%w: token unknown, expired, or already used", tokenstore.ErrNotFound)
		}
		return "", fmt.Errorf("redeem password token: %w", err)
	}
	return password, nil
}
