package provider

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := E(KindAlreadyExists, "cpanel", "address taken")
	assert.Equal(t, "cpanel: address taken", err.Error())

	wrapped := Wrap(KindRemoteUnreachable, "cpanel", "create account", errors.New("dial tcp: timeout"))
	assert.Equal(t, "cpanel: create account: dial tcp: timeout", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(KindRemoteUnreachable, "msgraph", "token exchange", cause)
	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	err := E(KindRateLimited, "purelymail", "slow down")
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.True(t, IsKind(err, KindRateLimited))
	assert.False(t, IsKind(err, KindNotFound))

	// Provider errors survive fmt wrapping.
	wrapped := fmt.Errorf("create mailbox: %w", err)
	assert.Equal(t, KindRateLimited, KindOf(wrapped))

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindFromStatus(t *testing.T) {
	assert.Equal(t, KindInvalidCredentials, KindFromStatus(http.StatusUnauthorized))
	assert.Equal(t, KindInvalidCredentials, KindFromStatus(http.StatusForbidden))
	assert.Equal(t, KindNotFound, KindFromStatus(http.StatusNotFound))
	assert.Equal(t, KindAlreadyExists, KindFromStatus(http.StatusConflict))
	assert.Equal(t, KindRateLimited, KindFromStatus(http.StatusTooManyRequests))
	assert.Equal(t, KindRemoteRejected, KindFromStatus(http.StatusBadRequest))
	assert.Equal(t, KindRemoteRejected, KindFromStatus(http.StatusInternalServerError))
}

func TestKindConstants(t *testing.T) {
	require.Equal(t, Kind("missing_params"), KindMissingParams)
	require.Equal(t, Kind("invalid_credentials"), KindInvalidCredentials)
	require.Equal(t, Kind("not_configured"), KindNotConfigured)
	require.Equal(t, Kind("remote_unreachable"), KindRemoteUnreachable)
	require.Equal(t, Kind("remote_rejected"), KindRemoteRejected)
	require.Equal(t, Kind("already_exists"), KindAlreadyExists)
	require.Equal(t, Kind("not_found"), KindNotFound)
	require.Equal(t, Kind("rate_limited"), KindRateLimited)
}
