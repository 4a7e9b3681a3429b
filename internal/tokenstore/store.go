// Package tokenstore holds freshly generated mailbox passwords behind
// single-use reveal tokens. A token is consumed on first read, so a
// password can be shown to the customer exactly once and never lands in
// the database or in regular API responses.
package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edvin/mailhub/internal/crypto"
)

// ErrNotFound is returned when a token does not exist, has expired, or
// was already consumed.
var ErrNotFound = errors.New("reveal token not found or already used")

// Store is a one-time password escrow. Put stores a password under a
// fresh token; Take returns it and consumes the token. The account ID
// is bound into the stored payload, so a token can only be redeemed for
// the account it was issued for. A mismatched redeem still consumes the
// token.
type Store interface {
	Put(ctx context.Context, accountID, password string, ttl time.Duration) (string, error)
	Take(ctx context.Context, token, accountID string) (string, error)
}

// newToken returns a random reveal token.
func newToken() (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return "pwt_" + hex.EncodeToString(rawBytes), nil
}

type envelope struct {
	AccountID string `json:"account_id"`
	Password  string `json:"password"`
}

// sealer encrypts escrow payloads with a key derived from the site
// secret. With no secret configured it falls back to plain base64, which
// keeps single-node dev setups working; production deploys set
// SITE_SECRET.
type sealer struct {
	key []byte
}

func newSealer(siteSecret string) sealer {
	if siteSecret == "" {
		return sealer{}
	}
	return sealer{key: crypto.DeriveKey(siteSecret)}
}

func (s sealer) seal(accountID, password string) (string, error) {
	data, err := json.Marshal(envelope{AccountID: accountID, Password: password})
	if err != nil {
		return "", fmt.Errorf("seal payload: %w", err)
	}
	if s.key == nil {
		return base64.StdEncoding.EncodeToString(data), nil
	}
	return crypto.Encrypt(data, s.key)
}

func (s sealer) open(payload, accountID string) (string, error) {
	var data []byte
	var err error
	if s.key == nil {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		data, err = crypto.Decrypt(payload, s.key)
	}
	if err != nil {
		return "", ErrNotFound
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", ErrNotFound
	}
	if env.AccountID != accountID {
		return "", ErrNotFound
	}
	return env.Password, nil
}
