package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailhub/internal/events"
	"github.com/edvin/mailhub/internal/model"
)

// Lifecycle owns every status write on email accounts. Transitions are
// compare-and-set so concurrent writers (API, workflow activities) can
// never clobber each other, and lifecycle events fire exactly when the
// status actually changed.
type Lifecycle struct {
	db  DB
	bus *events.Bus
}

func NewLifecycle(db DB, bus *events.Bus) *Lifecycle {
	return &Lifecycle{db: db, bus: bus}
}

// TransitionOpts carries the column updates applied together with a
// status change.
type TransitionOpts struct {
	// StatusMessage replaces the stored message; nil clears it.
	StatusMessage *string
	// ExternalID is stored when non-nil, kept otherwise.
	ExternalID *string
}

// Transition moves an account from one status to another. The update
// only applies while the account is still in the expected from status;
// otherwise ErrStatusConflict reports what it actually was. The
// provisioned success event is not fired here: the provisioning
// activity publishes it together with the reveal token.
func (l *Lifecycle) Transition(ctx context.Context, id, from, to string, opts TransitionOpts) (*model.EmailAccount, error) {
	if !model.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrStatusConflict, from, to)
	}

	row := l.db.QueryRow(ctx,
		`UPDATE email_accounts
		 SET status = $1, status_message = $2, external_id = COALESCE($3, external_id), updated_at = now()
		 WHERE id = $4 AND status = $5
		 RETURNING `+emailAccountColumns,
		to, opts.StatusMessage, opts.ExternalID, id, from,
	)
	account, err := scanEmailAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, l.conflict(ctx, id, from)
		}
		return nil, fmt.Errorf("transition email account %s to %s: %w", id, to, err)
	}

	switch {
	case to == model.StatusSuspended:
		l.bus.Publish(ctx, events.AccountSuspended{Account: account})
	case from == model.StatusSuspended && to == model.StatusActive:
		l.bus.Publish(ctx, events.AccountReactivated{Account: account})
	case to == model.StatusFailed:
		reason := ""
		if account.StatusMessage != nil {
			reason = *account.StatusMessage
		}
		l.bus.Publish(ctx, events.ProvisioningFailed{Account: account, Reason: reason})
	}

	return &account, nil
}

// conflict explains why a compare-and-set matched nothing: the row is
// gone, or another writer got there first.
func (l *Lifecycle) conflict(ctx context.Context, id, expected string) error {
	var current string
	err := l.db.QueryRow(ctx, "SELECT status FROM email_accounts WHERE id = $1", id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("transition email account %s: %w", id, ErrAccountNotFound)
	}
	if err != nil {
		return fmt.Errorf("transition email account %s: %w", id, err)
	}
	return fmt.Errorf("%w: account %s is %s, expected %s", ErrStatusConflict, id, current, expected)
}
