package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailhub/internal/model"
	"github.com/edvin/mailhub/internal/platform"
)

const customerColumns = `id, name, email, created_at, updated_at`

// CustomerService manages customer records.
type CustomerService struct {
	db       DB
	accounts *EmailAccountService
}

// NewCustomerService creates a new CustomerService. The account service
// is needed for cascade deletion.
func NewCustomerService(db DB, accounts *EmailAccountService) *CustomerService {
	return &CustomerService{db: db, accounts: accounts}
}

// Create inserts a new customer.
func (s *CustomerService) Create(ctx context.Context, c *model.Customer) error {
	if c.ID == "" {
		c.ID = platform.NewID()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO customers (id, name, email, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by ID.
func (s *CustomerService) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var c model.Customer
	err := s.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
		}
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return &c, nil
}

// List retrieves customers with cursor-based pagination.
func (s *CustomerService) List(ctx context.Context, limit int, cursor string) ([]model.Customer, bool, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE 1=1`
	args := []any{}
	argIdx := 1

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
		return nil, false, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate customers: %w", err)
	}

	hasMore := len(customers) > limit
	if hasMore {
		customers = customers[:limit]
	}
	return customers, hasMore, nil
}

// Update modifies a customer's name and contact address.
func (s *CustomerService) Update(ctx context.Context, id, name, email string) (*model.Customer, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE customers SET name = $1, email = $2, updated_at = now() WHERE id = $3`,
		name, email, id)
	if err != nil {
		return nil, fmt.Errorf("update customer %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
	}
	return s.GetByID(ctx, id)
}

// Delete removes a customer after clearing out their mailboxes. The
// memberships and limitations go with the row through foreign keys;
// mailboxes need the service so remote cleanup gets dispatched.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.accounts.DeleteByCustomer(ctx, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, "DELETE FROM customers WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete customer %s: %w", id, err)
	}
	return nil
}
