package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailhub/internal/model"
	"github.com/edvin/mailhub/internal/platform"
)

const membershipColumns = `id, customer_id, plan_name, status, created_at, updated_at`

func scanMembership(row interface{ Scan(dest ...any) error }) (model.Membership, error) {
	var m model.Membership
	err := row.Scan(&m.ID, &m.CustomerID, &m.PlanName, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// MembershipService manages plan subscriptions.
type MembershipService struct {
	db       DB
	accounts *EmailAccountService
}

// NewMembershipService creates a new MembershipService. The account
// service is needed for cascade deletion.
func NewMembershipService(db DB, accounts *EmailAccountService) *MembershipService {
	return &MembershipService{db: db, accounts: accounts}
}

// Create inserts a new membership in status active.
func (s *MembershipService) Create(ctx context.Context, m *model.Membership) error {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)", m.CustomerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check customer %s: %w", m.CustomerID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCustomerNotFound, m.CustomerID)
	}

	if m.ID == "" {
		m.ID = platform.NewID()
	}
	if m.Status == "" {
		m.Status = model.MembershipActive
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO memberships (id, customer_id, plan_name, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 RETURNING created_at, updated_at`,
		m.ID, m.CustomerID, m.PlanName, m.Status,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// GetByID retrieves a membership by ID.
func (s *MembershipService) GetByID(ctx context.Context, id string) (*model.Membership, error) {
	m, err := scanMembership(s.db.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrMembershipNotFound, id)
		}
		return nil, fmt.Errorf("get membership %s: %w", id, err)
	}
	return &m, nil
}

// ListByCustomer retrieves a customer's memberships with cursor-based
// pagination.
func (s *MembershipService) ListByCustomer(ctx context.Context, customerID string, limit int, cursor string) ([]model.Membership, bool, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE customer_id = $1`
	args := []any{customerID}
	argIdx := 2

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
		return nil, false, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate memberships: %w", err)
	}

	hasMore := len(memberships) > limit
	if hasMore {
		memberships = memberships[:limit]
	}
	return memberships, hasMore, nil
}

// Cancel marks a membership canceled. Existing mailboxes keep running;
// the quota check stops admitting new ones.
func (s *MembershipService) Cancel(ctx context.Context, id string) (*model.Membership, error) {
	m, err := scanMembership(s.db.QueryRow(ctx,
		`UPDATE memberships SET status = $1, updated_at = now()
		 WHERE id = $2 AND status = $3
		 RETURNING `+membershipColumns,
		model.MembershipCanceled, id, model.MembershipActive))
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cancel membership %s: %w", id, err)
	}

	// No active row matched: either missing or already canceled.
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: membership %s is already %s", ErrStatusConflict, id, existing.Status)
}

// Delete removes a membership and its mailboxes. Limitations go with the
// row through foreign keys.
func (s *MembershipService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.accounts.DeleteByMembership(ctx, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, "DELETE FROM memberships WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete membership %s: %w", id, err)
	}
	return nil
}
