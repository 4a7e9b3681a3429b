package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailhub/internal/model"
)

// QuotaService answers mailbox admission questions for memberships.
type QuotaService struct {
	db          DB
	limitations *LimitationService
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(db DB, limitations *LimitationService) *QuotaService {
	return &QuotaService{db: db, limitations: limitations}
}

// CanCreate decides whether one more included mailbox may be created
// under the membership. The membership must belong to the customer and be
// active, the email_accounts limitation must exist and be enabled, and a
// bounded limit admits strictly fewer accounts than its bound.
func (s *QuotaService) CanCreate(ctx context.Context, customerID, membershipID string) error {
	var owner, status string
	err := s.db.QueryRow(ctx,
		"SELECT customer_id, status FROM memberships WHERE id = $1", membershipID).Scan(&owner, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrMembershipNotFound, membershipID)
		}
		return fmt.Errorf("get membership %s: %w", membershipID, err)
	}
	if owner != customerID {
		return fmt.Errorf("%w: %s does not belong to customer %s", ErrMembershipNotFound, membershipID, customerID)
	}
	if status != model.MembershipActive {
		return fmt.Errorf("%w: membership %s is %s", ErrQuotaExceeded, membershipID, status)
	}

	lim, err := s.limitations.Get(ctx, membershipID, model.FeatureEmailAccounts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: membership %s has no email account limitation", ErrQuotaExceeded, membershipID)
		}
		return err
	}
	if !lim.Enabled {
		return fmt.Errorf("%w: email accounts are not included in membership %s", ErrQuotaExceeded, membershipID)
	}
	if lim.Limit.Unlimited() {
		return nil
	}
	if lim.Limit == model.LimitNone {
		return fmt.Errorf("%w: membership %s includes no mailboxes", ErrQuotaExceeded, membershipID)
	}

	count, err := s.limitations.CountActive(ctx, membershipID)
	if err != nil {
		return err
	}
	if !lim.Limit.Allows(count) {
		return fmt.Errorf("%w: membership %s is using %d of %d mailbox slots", ErrQuotaExceeded, membershipID, count, int64(lim.Limit))
	}
	return nil
}

// Remaining reports how many more mailboxes the membership admits.
// Unlimited plans return unlimited=true with n=0; plans without the
// feature return both zero values. Bounded plans never report below zero.
func (s *QuotaService) Remaining(ctx context.Context, membershipID string) (n int64, unlimited bool, err error) {
	lim, err := s.limitations.Get(ctx, membershipID, model.FeatureEmailAccounts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if !lim.Enabled || lim.Limit == model.LimitNone {
		return 0, false, nil
	}
	if lim.Limit.Unlimited() {
		return 0, true, nil
	}

	count, err := s.limitations.CountActive(ctx, membershipID)
	if err != nil {
		return 0, false, err
	}
	n = int64(lim.Limit) - count
	if n < 0 {
		n = 0
	}
	return n, false, nil
}
