package model

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// FeatureEmailAccounts is the limitation feature key for mailbox slots.
const FeatureEmailAccounts = "email_accounts"

// LimitValue is a three-valued feature limit. The wire form follows the
// billing system's convention: true or 0 mean unlimited, false means the
// feature allows nothing, and a positive integer is a strict upper bound.
type LimitValue int64

const (
	LimitNone      LimitValue = -1
	LimitUnlimited LimitValue = 0
)

func (l LimitValue) Unlimited() bool { return l == LimitUnlimited }

// Allows reports whether usage may grow past the given current count.
// Bounded limits are strict: a limit of 5 admits the fifth account, not
// the sixth.
func (l LimitValue) Allows(count int64) bool {
	switch {
	case l == LimitUnlimited:
		return true
	case l < 0:
		return false
	default:
		return count < int64(l)
	}
}

func (l *LimitValue) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("true")):
		*l = LimitUnlimited
		return nil
	case bytes.Equal(data, []byte("false")):
		*l = LimitNone
		return nil
	}
	n, err := strconv.ParseInt(string(bytes.TrimSpace(data)), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid limit value %s", data)
	}
	if n < 0 {
		*l = LimitNone
		return nil
	}
	*l = LimitValue(n)
	return nil
}

func (l LimitValue) MarshalJSON() ([]byte, error) {
	switch {
	case l == LimitUnlimited:
		return []byte("true"), nil
	case l < 0:
		return []byte("false"), nil
	}
	return []byte(strconv.FormatInt(int64(l), 10)), nil
}

// Scan and Value use the same encoding in the database column: -1 none,
// 0 unlimited, positive bound.
func (l *LimitValue) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		if v < 0 {
			*l = LimitNone
		} else {
			*l = LimitValue(v)
		}
		return nil
	case int32:
		return l.Scan(int64(v))
	}
	return fmt.Errorf("cannot scan %T into LimitValue", src)
}

func (l LimitValue) Value() (driver.Value, error) {
	if l < 0 {
		return int64(LimitNone), nil
	}
	return int64(l), nil
}

// Limitation is a per-membership feature limit row.
type Limitation struct {
	MembershipID string     `json:"membership_id" db:"membership_id"`
	Feature      string     `json:"feature" db:"feature"`
	Enabled      bool       `json:"enabled" db:"enabled"`
	Limit        LimitValue `json:"limit" db:"limit"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
