package tokenstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Sealer ----------

func TestSealer_RoundTrip(t *testing.T) {
	s := newSealer("site-secret")

	payload, err := s.seal("acct-1", "hunter2!")
	require.NoError(t, err)
	assert.NotContains(t, payload, "hunter2!")

	password, err := s.open(payload, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "hunter2!", password)
}

func TestSealer_WrongAccount(t *testing.T) {
	s := newSealer("site-secret")

	payload, err := s.seal("acct-1", "hunter2!")
	require.NoError(t, err)

	_, err = s.open(payload, "acct-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSealer_Tampered(t *testing.T) {
	s := newSealer("site-secret")

	payload, err := s.seal("acct-1", "hunter2!")
	require.NoError(t, err)

	_, err = s.open("x"+payload[1:], "acct-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSealer_WrongKey(t *testing.T) {
	payload, err := newSealer("secret-a").seal("acct-1", "hunter2!")
	require.NoError(t, err)

	_, err = newSealer("secret-b").open(payload, "acct-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSealer_NoSecretStillBindsAccount(t *testing.T) {
	s := newSealer("")

	payload, err := s.seal("acct-1", "hunter2!")
	require.NoError(t, err)

	password, err := s.open(payload, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "hunter2!", password)

	_, err = s.open(payload, "acct-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ---------- Memory store ----------

func TestMemoryStore_PutTake(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("site-secret")

	token, err := store.Put(ctx, "acct-1", "hunter2!", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "pwt_"))

	password, err := store.Take(ctx, token, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "hunter2!", password)
}

func TestMemoryStore_TokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("site-secret")

	token, err := store.Put(ctx, "acct-1", "hunter2!", time.Minute)
	require.NoError(t, err)

	_, err = store.Take(ctx, token, "acct-1")
	require.NoError(t, err)

	_, err = store.Take(ctx, token, "acct-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_WrongAccountConsumesToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("site-secret")

	token, err := store.Put(ctx, "acct-1", "hunter2!", time.Minute)
	require.NoError(t, err)

	_, err = store.Take(ctx, token, "acct-2")
	assert.ErrorIs(t, err, ErrNotFound)

	// The failed redeem burned the token.
	_, err = store.Take(ctx, token, "acct-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expired(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("site-secret")

	token, err := store.Put(ctx, "acct-1", "hunter2!", -time.Second)
	require.NoError(t, err)

	_, err = store.Take(ctx, token, "acct-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	_, err := NewMemory("site-secret").Take(context.Background(), "pwt_missing", "acct-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewToken_Unique(t *testing.T) {
	a, err := newToken()
	require.NoError(t, err)
	b, err := newToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 4+64)
}
