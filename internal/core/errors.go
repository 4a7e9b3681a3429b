package core

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors the API layer maps to HTTP status codes. Services
// wrap them with context via fmt.Errorf and %w.
var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrAccountNotFound    = errors.New("email account not found")

	// ErrEmailExists: the address is taken platform-wide, regardless of
	// which customer owns it.
	ErrEmailExists  = errors.New("email address already taken")
	ErrEmailInvalid = errors.New("invalid email address")

	ErrQuotaExceeded         = errors.New("email account limit reached")
	ErrEmailAccountsDisabled = errors.New("email accounts are disabled on this platform")
	ErrProviderUnavailable   = errors.New("email provider unavailable")

	// ErrStatusConflict: the account is not in a status that permits
	// the requested operation.
	ErrStatusConflict = errors.New("operation not allowed in current status")
)

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, the backstop for concurrent creates of the same address.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
