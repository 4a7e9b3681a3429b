package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/mailhub/internal/api/handler"
	mw "github.com/edvin/mailhub/internal/api/middleware"
	"github.com/edvin/mailhub/internal/config"
	"github.com/edvin/mailhub/internal/core"
	"github.com/edvin/mailhub/internal/events"
	"github.com/edvin/mailhub/internal/provider"
	"github.com/edvin/mailhub/internal/tokenstore"
)

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	corePool       *pgxpool.Pool
	temporalClient temporalclient.Client
	providers      *provider.Registry
	cfg            *config.Config
	auditLogger    *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, coreDB *pgxpool.Pool, temporalClient temporalclient.Client, cfg *config.Config, providers *provider.Registry, tokens tokenstore.Store, bus *events.Bus, defaultProvider string) *Server {
	services := core.NewServices(core.Deps{
		DB:              coreDB,
		Temporal:        temporalClient,
		Providers:       providers,
		Tokens:          tokens,
		Bus:             bus,
		Logger:          logger,
		DefaultProvider: defaultProvider,
		TokenTTL:        cfg.PasswordTokenTTL,
	})
	auditLogger := mw.NewAuditLogger(coreDB, logger)

	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       services,
		corePool:       coreDB,
		temporalClient: temporalClient,
		providers:      providers,
		cfg:            cfg,
		auditLogger:    auditLogger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.corePool))
		r.Use(s.auditLogger.Middleware)

		// Audit logs
		audit := handler.NewAudit(s.corePool)
		r.Get("/audit-logs", audit.List)

		// Platform config
		platformCfg := handler.NewPlatformConfig(s.services.PlatformConfig)
		r.Get("/platform/config", platformCfg.Get)
		r.Put("/platform/config", platformCfg.Update)

		// Customers
		customer := handler.NewCustomer(s.services.Customer)
		r.Get("/customers", customer.List)
		r.Post("/customers", customer.Create)
		r.Get("/customers/{id}", customer.Get)
		r.Put("/customers/{id}", customer.Update)
		r.Delete("/customers/{id}", customer.Delete)

		// Memberships
		membership := handler.NewMembership(s.services.Membership)
		r.Get("/customers/{customerID}/memberships", membership.ListByCustomer)
		r.Post("/customers/{customerID}/memberships", membership.Create)
		r.Get("/memberships/{id}", membership.Get)
		r.Post("/memberships/{id}/cancel", membership.Cancel)
		r.Delete("/memberships/{id}", membership.Delete)

		// Limitations and quota
		limitation := handler.NewLimitation(s.services.Limitation, s.services.Quota)
		r.Get("/memberships/{id}/limitations", limitation.List)
		r.Get("/memberships/{id}/limitations/{feature}", limitation.Get)
		r.Put("/memberships/{id}/limitations/{feature}", limitation.Set)
		r.Get("/memberships/{id}/quota", limitation.Quota)

		// Email accounts
		emailAccount := handler.NewEmailAccount(s.services.EmailAccount, s.providers)
		r.Get("/customers/{customerID}/email-accounts", emailAccount.ListByCustomer)
		r.Post("/customers/{customerID}/email-accounts", emailAccount.Create)
		r.Get("/email-accounts/{id}", emailAccount.Get)
		r.Delete("/email-accounts/{id}", emailAccount.Delete)
		r.Post("/email-accounts/{id}/suspend", emailAccount.Suspend)
		r.Post("/email-accounts/{id}/reactivate", emailAccount.Reactivate)
		r.Post("/email-accounts/{id}/retry", emailAccount.Retry)
		r.Post("/email-accounts/{id}/password", emailAccount.ChangePassword)
		r.Post("/email-accounts/{id}/password/reveal", emailAccount.RevealPassword)
		r.Get("/email-accounts/{id}/connection-settings", emailAccount.ConnectionSettings)
		r.Get("/email-accounts/{id}/usage", emailAccount.Usage)

		// Providers
		providerH := handler.NewProvider(s.providers)
		r.Get("/providers", providerH.List)
		r.Get("/providers/{id}/dns-instructions", providerH.DNSInstructions)
		r.Post("/providers/{id}/test", providerH.TestConnection)
		r.Post("/providers/test", providerH.TestAll)

		// Search
		search := handler.NewSearch(s.services.Search)
		r.Get("/search", search.Search)

		// API keys
		apiKey := handler.NewAPIKey(s.services.APIKey)
		r.Get("/api-keys", apiKey.List)
		r.Post("/api-keys", apiKey.Create)
		r.Get("/api-keys/{id}", apiKey.Get)
		r.Put("/api-keys/{id}", apiKey.Update)
		r.Delete("/api-keys/{id}", apiKey.Revoke)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close flushes the async audit writer.
func (s *Server) Close() {
	s.auditLogger.Close()
}
