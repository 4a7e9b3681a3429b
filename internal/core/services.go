package core

import (
	"time"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/mailhub/internal/events"
	"github.com/edvin/mailhub/internal/provider"
	"github.com/edvin/mailhub/internal/tokenstore"
)

type Services struct {
	PlatformConfig *PlatformConfigService
	Customer       *CustomerService
	Membership     *MembershipService
	Limitation     *LimitationService
	Quota          *QuotaService
	EmailAccount   *EmailAccountService
	APIKey         *APIKeyService
	Search         *SearchService
}

// Deps carries the shared infrastructure the services are built on. The
// zero TokenTTL falls back to the account service default.
type Deps struct {
	DB              DB
	Temporal        temporalclient.Client
	Providers       *provider.Registry
	Tokens          tokenstore.Store
	Bus             *events.Bus
	Logger          zerolog.Logger
	DefaultProvider string
	TokenTTL        time.Duration
}

func NewServices(d Deps) *Services {
	limitations := NewLimitationService(d.DB)
	accounts := NewEmailAccountService(d.DB, d.Temporal, d.Providers, d.Tokens, d.Bus,
		d.Logger, d.DefaultProvider, d.TokenTTL)

	return &Services{
		PlatformConfig: NewPlatformConfigService(d.DB),
		Customer:       NewCustomerService(d.DB, accounts),
		Membership:     NewMembershipService(d.DB, accounts),
		Limitation:     limitations,
		Quota:          NewQuotaService(d.DB, limitations),
		EmailAccount:   accounts,
		APIKey:         NewAPIKeyService(d.DB),
		Search:         NewSearchService(d.DB),
	}
}
