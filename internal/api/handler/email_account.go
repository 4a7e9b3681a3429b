package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailhub/internal/api/request"
	"github.com/edvin/mailhub/internal/api/response"
	"github.com/edvin/mailhub/internal/core"
	"github.com/edvin/mailhub/internal/metrics"
	"github.com/edvin/mailhub/internal/model"
	"github.com/edvin/mailhub/internal/provider"
	"github.com/edvin/mailhub/internal/tokenstore"
)

// EmailAccount handles mailbox endpoints. Provider-facing reads
// (connection settings, remote usage) go through the registry; everything
// else is the account service.
type EmailAccount struct {
	svc       *core.EmailAccountService
	providers *provider.Registry
}

func NewEmailAccount(svc *core.EmailAccountService, providers *provider.Registry) *EmailAccount {
	return &EmailAccount{svc: svc, providers: providers}
}

// ListByCustomer godoc
//
//	@Summary		List a customer's mailboxes
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			customerID path string true "Customer ID"
//	@Param			membership_id query string false "Narrow to one membership"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.EmailAccount}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/customers/{customerID}/email-accounts [get]
func (h *EmailAccount) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := request.RequireID(chi.URLParam(r, "customerID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	pg := request.ParsePagination(r)

	var membershipID *string
	if m := r.URL.Query().Get("membership_id"); m != "" {
		membershipID = &m
	}

	accounts, hasMore, err := h.svc.ListByCustomer(r.Context(), customerID, membershipID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(accounts) > 0 {
		nextCursor = accounts[len(accounts)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, accounts, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a mailbox
//	@Description	Persists the mailbox in status pending and dispatches provisioning to the worker. The response returns before any provider I/O happens; poll the account status to follow the run. An empty password lets the platform generate one, readable exactly once via the reveal endpoint.
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			customerID path string true "Customer ID"
//	@Param			body body request.CreateEmailAccount true "Mailbox details"
//	@Success		202 {object} model.EmailAccount
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Failure		422 {object} response.ErrorResponse
//	@Router			/customers/{customerID}/email-accounts [post]
func (h *EmailAccount) Create(w http.ResponseWriter, r *http.Request) {
	customerID, err := request.RequireID(chi.URLParam(r, "customerID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateEmailAccount
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account := &model.EmailAccount{
		CustomerID:   customerID,
		MembershipID: req.MembershipID,
		SiteID:       req.SiteID,
		Address:      req.Address,
		Provider:     req.Provider,
		QuotaMB:      req.QuotaMB,
		PurchaseType: req.PurchaseType,
		PaymentID:    req.PaymentID,
	}
	if err := h.svc.Create(r.Context(), account, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, account)
}

// Get godoc
//
//	@Summary		Get a mailbox
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			id path string true "Account ID"
//	@Success		200 {object} model.EmailAccount
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/email-accounts/{id} [get]
func (h *EmailAccount) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, account)
}

// Delete godoc
//
//	@Summary		Delete a mailbox
//	@Description	Removes the local record immediately; remote cleanup runs in the background and never blocks the deletion. Refused while the mailbox is mid-provisioning.
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			id path string true "Account ID"
//	@Success		202
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/email-accounts/{id} [delete]
func (h *EmailAccount) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// Suspend godoc
//
//	@Summary		Suspend a mailbox
//	@Description	Blocks an active mailbox locally. The provider side is untouched; suspension is reversible.
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			id path string true "Account ID"
//	@Param			body body request.SuspendEmailAccount false "Suspension reason"
//	@Success		200 {object} model.EmailAccount
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/email-accounts/{id}/suspend [post]
func (h *EmailAccount) Suspend(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.SuspendEmailAccount
	if r.ContentLength > 0 {
		if err := request.Decode(r, &req); err != nil {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	account, err := h.svc.Suspend(r.Context(), id, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, account)
}

// Reactivate godoc
//
//	@Summary		Reactivate a suspended mailbox
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			id path string true "Account ID"
//	@Success		200 {object} model.EmailAccount
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/email-accounts/{id}/reactivate [post]
func (h *EmailAccount) Reactivate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.svc.Reactivate(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, account)
}

// Retry godoc
//
//	@Summary		Retry a failed provisioning run
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			id path string true "Account ID"
//	@Success		202
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/email-accounts/{id}/retry [post]
func (h *EmailAccount) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Retry(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// passwordChangeResponse carries the one-time reveal token when the
// platform generated the new password.
type passwordChangeResponse struct {
	RevealToken string `json:"reveal_token,omitempty"`
}

// ChangePassword godoc
//
//	@Summary		Rotate a mailbox password
//	@Description	Escrows the new password and dispatches the rotation to the worker. With an empty body password the platform generates one and returns a reveal token; the plaintext itself is never in this response.
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			id path string true "Account ID"
//	@Param			body body request.ChangeEmailPassword false "New password"
//	@Success		202 {object} passwordChangeResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/email-accounts/{id}/password [post]
func (h *EmailAccount) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.ChangeEmailPassword
	if r.ContentLength > 0 {
		if err := request.Decode(r, &req); err != nil {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	revealToken, err := h.svc.ChangePassword(r.Context(), id, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, passwordChangeResponse{RevealToken: revealToken})
}

type passwordRevealResponse struct {
	Password string `json:"password"`
}

// RevealPassword godoc
//
//	@Summary		Redeem a one-time password token
//	@Description	Returns the plaintext password exactly once. The token is consumed by the attempt whether or not it matches, so retries always fail.
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			id path string true "Account ID"
//	@Param			body body request.RevealEmailPassword true "Reveal token"
//	@Success		200 {object} passwordRevealResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/email-accounts/{id}/password/reveal [post]
func (h *EmailAccount) RevealPassword(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.RevealEmailPassword
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	password, err := h.svc.RevealPassword(r.Context(), id, req.Token)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			metrics.CountPasswordReveal("miss")
		}
		writeServiceError(w, err)
		return
	}

	metrics.CountPasswordReveal("revealed")
	response.WriteJSON(w, http.StatusOK, passwordRevealResponse{Password: password})
}

// connectionSettingsResponse is everything a mail client needs to reach
// the mailbox.
type connectionSettingsResponse struct {
	Provider   string                      `json:"provider"`
	IMAP       provider.ConnectionSettings `json:"imap"`
	SMTP       provider.ConnectionSettings `json:"smtp"`
	WebmailURL string                      `json:"webmail_url"`
}

// ConnectionSettings godoc
//
//	@Summary		Mail client settings for a mailbox
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			id path string true "Account ID"
//	@Success		200 {object} connectionSettingsResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		422 {object} response.ErrorResponse
//	@Router			/email-accounts/{id}/connection-settings [get]
func (h *EmailAccount) ConnectionSettings(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Settings are static data, so a disabled adapter can still serve
	// them; only an unknown provider fails.
	adapter, err := h.providers.Get(account.Provider)
	if err != nil {
		writeServiceError(w, fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err))
		return
	}

	response.WriteJSON(w, http.StatusOK, connectionSettingsResponse{
		Provider:   adapter.ID(),
		IMAP:       adapter.IMAPSettings(account.Address),
		SMTP:       adapter.SMTPSettings(account.Address),
		WebmailURL: adapter.WebmailURL(account.Address),
	})
}

// Usage godoc
//
//	@Summary		Live usage numbers from the provider
//	@Description	Proxies a read to the mailbox's backend. Expect this to be slower than the rest of the API and to fail when the backend is down.
//	@Tags			Email Accounts
//	@Security		ApiKeyAuth
//	@Param			id path string true "Account ID"
//	@Success		200 {object} provider.AccountInfo
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		422 {object} response.ErrorResponse
//	@Failure		502 {object} response.ErrorResponse
//	@Router			/email-accounts/{id}/usage [get]
func (h *EmailAccount) Usage(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	adapter, err := h.providers.Available(account.Provider)
	if err != nil {
		writeServiceError(w, fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err))
		return
	}

	info, err := adapter.AccountInfo(r.Context(), account.Address)
	if err != nil {
		if provider.IsKind(err, provider.KindNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, info)
}
