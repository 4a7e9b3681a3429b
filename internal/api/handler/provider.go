package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailhub/internal/api/request"
	"github.com/edvin/mailhub/internal/api/response"
	"github.com/edvin/mailhub/internal/provider"
)

// ProviderHandler exposes the adapter registry: what backends exist,
// whether they are usable, and the static onboarding data per domain.
type ProviderHandler struct {
	registry *provider.Registry
}

func NewProvider(registry *provider.Registry) *ProviderHandler {
	return &ProviderHandler{registry: registry}
}

// providerInfo is the API view of one adapter.
type providerInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled"`
	Configured  bool   `json:"configured"`
	Available   bool   `json:"available"`
}

// List godoc
//
//	@Summary		List email providers
//	@Tags			Providers
//	@Security		ApiKeyAuth
//	@Success		200 {array} providerInfo
//	@Router			/providers [get]
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	adapters := h.registry.List()

	infos := make([]providerInfo, 0, len(adapters))
	for _, p := range adapters {
		infos = append(infos, providerInfo{
			ID:          p.ID(),
			DisplayName: p.DisplayName(),
			Enabled:     p.Enabled(),
			Configured:  p.Configured(),
			Available:   p.Enabled() && p.Configured(),
		})
	}

	response.WriteJSON(w, http.StatusOK, infos)
}

// DNSInstructions godoc
//
//	@Summary		DNS records a domain needs for this provider
//	@Description	Static instructions only; nothing here mutates DNS. The customer creates these records at their own DNS host.
//	@Tags			Providers
//	@Security		ApiKeyAuth
//	@Param			id path string true "Provider ID"
//	@Param			domain query string true "Mail domain"
//	@Success		200 {array} provider.DNSInstruction
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/providers/{id}/dns-instructions [get]
func (h *ProviderHandler) DNSInstructions(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		response.WriteError(w, http.StatusBadRequest, "missing required domain parameter")
		return
	}

	adapter, err := h.registry.Get(id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	instructions := adapter.DNSInstructions(domain)
	if instructions == nil {
		instructions = []provider.DNSInstruction{}
	}
	response.WriteJSON(w, http.StatusOK, instructions)
}

// TestConnection godoc
//
//	@Summary		Test one provider's credentials
//	@Tags			Providers
//	@Security		ApiKeyAuth
//	@Param			id path string true "Provider ID"
//	@Success		200 {object} map[string]string
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/providers/{id}/test [post]
func (h *ProviderHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	adapter, err := h.registry.Available(id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := adapter.TestConnection(r.Context()); err != nil {
		response.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TestAll godoc
//
//	@Summary		Test every available provider
//	@Description	Runs the connection test against each enabled and configured adapter. Returns per-provider "ok" or the failure text.
//	@Tags			Providers
//	@Security		ApiKeyAuth
//	@Success		200 {object} map[string]string
//	@Router			/providers/test [post]
func (h *ProviderHandler) TestAll(w http.ResponseWriter, r *http.Request) {
	results := h.registry.TestAll(r.Context())

	out := make(map[string]string, len(results))
	for id, err := range results {
		if err != nil {
			out[id] = err.Error()
		} else {
			out[id] = "ok"
		}
	}

	response.WriteJSON(w, http.StatusOK, out)
}
