package core

import (
	"context"
	"fmt"

	"github.com/edvin/mailhub/internal/model"
)

const limitationColumns = `membership_id, feature, enabled, limit_value, created_at, updated_at`

func scanLimitation(row interface{ Scan(dest ...any) error }) (model.Limitation, error) {
	var l model.Limitation
	err := row.Scan(&l.MembershipID, &l.Feature, &l.Enabled, &l.Limit, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// LimitationService manages per-membership feature limits.
type LimitationService struct {
	db DB
}

// NewLimitationService creates a new LimitationService.
func NewLimitationService(db DB) *LimitationService {
	return &LimitationService{db: db}
}

// Get returns the limitation row for a membership feature. Callers check
// for pgx.ErrNoRows to treat a missing row as "feature absent".
func (s *LimitationService) Get(ctx context.Context, membershipID, feature string) (*model.Limitation, error) {
	l, err := scanLimitation(s.db.QueryRow(ctx,
		`SELECT `+limitationColumns+` FROM limitations WHERE membership_id = $1 AND feature = $2`,
		membershipID, feature))
	if err != nil {
		return nil, fmt.Errorf("get limitation %s/%s: %w", membershipID, feature, err)
	}
	return &l, nil
}

// ListByMembership returns all feature limits for a membership.
func (s *LimitationService) ListByMembership(ctx context.Context, membershipID string) ([]model.Limitation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+limitationColumns+` FROM limitations WHERE membership_id = $1 ORDER BY feature`,
		membershipID)
	if err != nil {
		return nil, fmt.Errorf("list limitations: %w", err)
	}
	defer rows.Close()

	var limits []model.Limitation
	for rows.Next() {
		l, err := scanLimitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan limitation: %w", err)
		}
		limits = append(limits, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate limitations: %w", err)
	}
	return limits, nil
}

// Set upserts a feature limit for a membership.
func (s *LimitationService) Set(ctx context.Context, lim *model.Limitation) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO limitations (membership_id, feature, enabled, limit_value, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (membership_id, feature) DO UPDATE SET enabled = EXCLUDED.enabled, limit_value = EXCLUDED.limit_value, updated_at = now()`,
		lim.MembershipID, lim.Feature, lim.Enabled, lim.Limit)
	if err != nil {
		return fmt.Errorf("set limitation %s/%s: %w", lim.MembershipID, lim.Feature, err)
	}
	return nil
}

// CountActive counts the membership's mailboxes that occupy a quota slot.
// The status list mirrors model.CountsAgainstQuota: failed rows hold no
// remote resources and are free.
func (s *LimitationService) CountActive(ctx context.Context, membershipID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM email_accounts WHERE membership_id = $1 AND status IN ($2, $3, $4, $5)`,
		membershipID, model.StatusPending, model.StatusProvisioning, model.StatusActive, model.StatusSuspended,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count email accounts for membership %s: %w", membershipID, err)
	}
	return count, nil
}
