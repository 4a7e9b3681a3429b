package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	temporalmocks "go.temporal.io/sdk/mocks"

	"github.com/edvin/mailhub/internal/events"
	"github.com/edvin/mailhub/internal/tokenstore"
)

func TestNewServices(t *testing.T) {
	db := &mockDB{}
	tc := &temporalmocks.Client{}

	svcs := NewServices(Deps{
		DB:              db,
		Temporal:        tc,
		Providers:       testProviderRegistry(),
		Tokens:          tokenstore.NewMemory(""),
		Bus:             events.NewBus(zerolog.Nop()),
		Logger:          zerolog.Nop(),
		DefaultProvider: "purelymail",
		TokenTTL:        10 * time.Minute,
	})

	require.NotNil(t, svcs)
	assert.NotNil(t, svcs.PlatformConfig)
	assert.NotNil(t, svcs.Customer)
	assert.NotNil(t, svcs.Membership)
	assert.NotNil(t, svcs.Limitation)
	assert.NotNil(t, svcs.Quota)
	assert.NotNil(t, svcs.EmailAccount)
	assert.NotNil(t, svcs.APIKey)
	assert.NotNil(t, svcs.Search)
}
