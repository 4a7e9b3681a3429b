package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/edvin/mailhub/internal/api/request"
	"github.com/edvin/mailhub/internal/api/response"
	"github.com/edvin/mailhub/internal/core"
	"github.com/edvin/mailhub/internal/model"
)

// Limitation serves per-membership feature limits and the derived quota
// numbers.
type Limitation struct {
	svc   *core.LimitationService
	quota *core.QuotaService
}

func NewLimitation(svc *core.LimitationService, quota *core.QuotaService) *Limitation {
	return &Limitation{svc: svc, quota: quota}
}

// List godoc
//
//	@Summary		List a membership's feature limits
//	@Tags			Limitations
//	@Security		ApiKeyAuth
//	@Param			id path string true "Membership ID"
//	@Success		200 {array} model.Limitation
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/memberships/{id}/limitations [get]
func (h *Limitation) List(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	limits, err := h.svc.ListByMembership(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if limits == nil {
		limits = []model.Limitation{}
	}

	response.WriteJSON(w, http.StatusOK, limits)
}

// Get godoc
//
//	@Summary		Get one feature limit
//	@Tags			Limitations
//	@Security		ApiKeyAuth
//	@Param			id path string true "Membership ID"
//	@Param			feature path string true "Feature key"
//	@Success		200 {object} model.Limitation
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/memberships/{id}/limitations/{feature} [get]
func (h *Limitation) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	feature, err := request.RequireID(chi.URLParam(r, "feature"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	lim, err := h.svc.Get(r.Context(), id, feature)
	if err != nil {
		// A missing row means the feature was never granted.
		if errors.Is(err, pgx.ErrNoRows) {
			response.WriteError(w, http.StatusNotFound, "limitation not set")
			return
		}
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, lim)
}

// Set godoc
//
//	@Summary		Set a feature limit
//	@Description	Upserts the limit row. The limit value follows the billing wire form: true or 0 mean unlimited, false means none, a positive integer is a strict bound.
//	@Tags			Limitations
//	@Security		ApiKeyAuth
//	@Param			id path string true "Membership ID"
//	@Param			feature path string true "Feature key"
//	@Param			body body request.SetLimitation true "Limit"
//	@Success		200 {object} model.Limitation
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/memberships/{id}/limitations/{feature} [put]
func (h *Limitation) Set(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	feature, err := request.RequireID(chi.URLParam(r, "feature"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.SetLimitation
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	lim := &model.Limitation{
		MembershipID: id,
		Feature:      feature,
		Enabled:      req.Enabled,
		Limit:        req.Limit,
	}
	if err := h.svc.Set(r.Context(), lim); err != nil {
		writeServiceError(w, err)
		return
	}

	saved, err := h.svc.Get(r.Context(), id, feature)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, saved)
}

// quotaResponse reports remaining mailbox slots for a membership.
type quotaResponse struct {
	Feature   string `json:"feature"`
	Remaining int64  `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// Quota godoc
//
//	@Summary		Remaining mailbox slots
//	@Description	How many more included mailboxes the membership admits. Unlimited plans report unlimited=true; plans without the feature report zero.
//	@Tags			Limitations
//	@Security		ApiKeyAuth
//	@Param			id path string true "Membership ID"
//	@Success		200 {object} quotaResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/memberships/{id}/quota [get]
func (h *Limitation) Quota(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	remaining, unlimited, err := h.quota.Remaining(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, quotaResponse{
		Feature:   model.FeatureEmailAccounts,
		Remaining: remaining,
		Unlimited: unlimited,
	})
}
