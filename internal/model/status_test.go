package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusConstants(t *testing.T) {
	assert.Equal(t, "pending", StatusPending)
	assert.Equal(t, "provisioning", StatusProvisioning)
	assert.Equal(t, "active", StatusActive)
	assert.Equal(t, "failed", StatusFailed)
	assert.Equal(t, "suspended", StatusSuspended)
}

func TestCanTransition_LegalEdges(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusProvisioning))
	assert.True(t, CanTransition(StatusProvisioning, StatusActive))
	assert.True(t, CanTransition(StatusProvisioning, StatusFailed))
	assert.True(t, CanTransition(StatusActive, StatusSuspended))
	assert.True(t, CanTransition(StatusSuspended, StatusActive))
	assert.True(t, CanTransition(StatusFailed, StatusProvisioning))
}

func TestCanTransition_IllegalEdges(t *testing.T) {
	// Terminal and skip-ahead moves are all rejected.
	assert.False(t, CanTransition(StatusPending, StatusActive))
	assert.False(t, CanTransition(StatusPending, StatusFailed))
	assert.False(t, CanTransition(StatusPending, StatusSuspended))
	assert.False(t, CanTransition(StatusActive, StatusProvisioning))
	assert.False(t, CanTransition(StatusActive, StatusFailed))
	assert.False(t, CanTransition(StatusSuspended, StatusFailed))
	assert.False(t, CanTransition(StatusSuspended, StatusProvisioning))
	assert.False(t, CanTransition(StatusFailed, StatusActive))
	assert.False(t, CanTransition(StatusFailed, StatusSuspended))
	assert.False(t, CanTransition(StatusActive, StatusActive))
	assert.False(t, CanTransition("", StatusActive))
	assert.False(t, CanTransition(StatusActive, ""))
}

func TestCountsAgainstQuota(t *testing.T) {
	assert.True(t, CountsAgainstQuota(StatusPending))
	assert.True(t, CountsAgainstQuota(StatusProvisioning))
	assert.True(t, CountsAgainstQuota(StatusActive))
	assert.True(t, CountsAgainstQuota(StatusSuspended))
	assert.False(t, CountsAgainstQuota(StatusFailed))
	assert.False(t, CountsAgainstQuota(""))
}
