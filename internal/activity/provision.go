package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mailhub/internal/metrics"
	"github.com/edvin/mailhub/internal/model"
	"github.com/edvin/mailhub/internal/platform"
	"github.com/edvin/mailhub/internal/provider"
	"github.com/edvin/mailhub/internal/tokenstore"
)

// Provision contains activities that talk to the email backends. All
// plaintext password handling stays inside these activities; workflow
// histories only ever carry escrow tokens.
type Provision struct {
	registry *provider.Registry
	tokens   tokenstore.Store
	logger   zerolog.Logger
	tokenTTL time.Duration
}

// NewProvision creates a new Provision activity struct.
func NewProvision(registry *provider.Registry, tokens tokenstore.Store, logger zerolog.Logger, tokenTTL time.Duration) *Provision {
	if tokenTTL <= 0 {
		tokenTTL = 10 * time.Minute
	}
	return &Provision{registry: registry, tokens: tokens, logger: logger, tokenTTL: tokenTTL}
}

// CreateRemoteMailboxParams holds the parameters for CreateRemoteMailbox.
type CreateRemoteMailboxParams struct {
	Account model.EmailAccount `json:"account"`
	Token   string             `json:"token"`
}

// CreateRemoteMailboxResult reports the created mailbox.
type CreateRemoteMailboxResult struct {
	ExternalID   string `json:"external_id"`
	DisplayToken string `json:"display_token"`
}

// CreateRemoteMailbox creates the mailbox on the account's backend. The
// password comes from the escrow token; when the token is empty or
// already spent a fresh password is generated instead. A mailbox the
// backend already knows gets its password realigned so the reveal token
// stays truthful. The result carries a new reveal token, never the
// plaintext.
func (p *Provision) CreateRemoteMailbox(ctx context.Context, params CreateRemoteMailboxParams) (*CreateRemoteMailboxResult, error) {
	account := params.Account

	adapter, err := p.registry.Available(account.Provider)
	if err != nil {
		return nil, err
	}

	password := ""
	if params.Token != "" {
		password, err = p.tokens.Take(ctx, params.Token, account.ID)
		if err != nil && !errors.Is(err, tokenstore.ErrNotFound) {
			return nil, fmt.Errorf("redeem provisioning token: %w", err)
		}
	}
	if password == "" {
		password = platform.NewPassword(16)
	}

	local, domain, err := model.SplitAddress(account.Address)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := adapter.CreateAccount(ctx, provider.CreateAccountParams{
		Username: local,
		Domain:   domain,
		Password: password,
		QuotaMB:  account.QuotaMB,
	})
	if err != nil && provider.IsKind(err, provider.KindAlreadyExists) {
		p.logger.Info().Str("address", account.Address).Str("provider", account.Provider).
			Msg("mailbox already exists remotely, realigning password")
		err = adapter.ChangePassword(ctx, account.Address, password)
	}
	metrics.ObserveProvision(account.Provider, err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	externalID := ""
	if result != nil {
		externalID = result.ExternalID
	}

	displayToken, err := p.tokens.Put(ctx, account.ID, password, p.tokenTTL)
	if err != nil {
		// The mailbox exists but the reveal is lost. The customer can
		// still recover through a password change.
		p.logger.Error().Err(err).Str("account_id", account.ID).
			Msg("escrow of mailbox password failed after remote create")
		displayToken = ""
	}

	return &CreateRemoteMailboxResult{ExternalID: externalID, DisplayToken: displayToken}, nil
}

// DeleteRemoteMailbox removes the mailbox on the backend. A mailbox the
// backend no longer knows about counts as deleted.
func (p *Provision) DeleteRemoteMailbox(ctx context.Context, params model.RemoteDeleteJob) error {
	adapter, err := p.registry.Available(params.Provider)
	if err != nil {
		return err
	}

	if err := adapter.DeleteAccount(ctx, params.Address); err != nil {
		if provider.IsKind(err, provider.KindNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// ChangeRemotePasswordParams holds the parameters for ChangeRemotePassword.
type ChangeRemotePasswordParams struct {
	Account model.EmailAccount `json:"account"`
	Token   string             `json:"token"`
}

// ChangeRemotePassword applies an escrowed password to the backend. The
// token is mandatory here: a spent or expired token means there is
// nothing safe to apply, and the matching reveal token must not outlive
// a password the backend never received.
func (p *Provision) ChangeRemotePassword(ctx context.Context, params ChangeRemotePasswordParams) error {
	adapter, err := p.registry.Available(params.Account.Provider)
	if err != nil {
		return err
	}

	password, err := p.tokens.Take(ctx, params.Token, params.Account.ID)
	if err != nil {
		return fmt.Errorf("redeem password change token: %w", err)
	}

	return adapter.ChangePassword(ctx, params.Account.Address, password)
}
