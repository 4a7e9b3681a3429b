package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailhub/internal/api/request"
	"github.com/edvin/mailhub/internal/api/response"
	"github.com/edvin/mailhub/internal/core"
	"github.com/edvin/mailhub/internal/model"
)

type Membership struct {
	svc *core.MembershipService
}

func NewMembership(svc *core.MembershipService) *Membership {
	return &Membership{svc: svc}
}

// ListByCustomer godoc
//
//	@Summary		List a customer's memberships
//	@Tags			Memberships
//	@Security		ApiKeyAuth
//	@Param			customerID path string true "Customer ID"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Membership}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/customers/{customerID}/memberships [get]
func (h *Membership) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := request.RequireID(chi.URLParam(r, "customerID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	pg := request.ParsePagination(r)

	memberships, hasMore, err := h.svc.ListByCustomer(r.Context(), customerID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(memberships) > 0 {
		nextCursor = memberships[len(memberships)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, memberships, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a membership for a customer
//	@Tags			Memberships
//	@Security		ApiKeyAuth
//	@Param			customerID path string true "Customer ID"
//	@Param			body body request.CreateMembership true "Membership details"
//	@Success		201 {object} model.Membership
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/customers/{customerID}/memberships [post]
func (h *Membership) Create(w http.ResponseWriter, r *http.Request) {
	customerID, err := request.RequireID(chi.URLParam(r, "customerID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateMembership
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	membership := &model.Membership{
		CustomerID: customerID,
		PlanName:   req.PlanName,
	}
	if err := h.svc.Create(r.Context(), membership); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, membership)
}

// Get godoc
//
//	@Summary		Get a membership
//	@Tags			Memberships
//	@Security		ApiKeyAuth
//	@Param			id path string true "Membership ID"
//	@Success		200 {object} model.Membership
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/memberships/{id} [get]
func (h *Membership) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	membership, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, membership)
}

// Cancel godoc
//
//	@Summary		Cancel a membership
//	@Description	Marks the membership canceled. Existing mailboxes keep running; the quota check stops admitting new ones.
//	@Tags			Memberships
//	@Security		ApiKeyAuth
//	@Param			id path string true "Membership ID"
//	@Success		200 {object} model.Membership
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/memberships/{id}/cancel [post]
func (h *Membership) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	membership, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, membership)
}

// Delete godoc
//
//	@Summary		Delete a membership and its mailboxes
//	@Description	Removes the membership, its limitations, and every attached mailbox. Remote mailbox cleanup runs asynchronously per account.
//	@Tags			Memberships
//	@Security		ApiKeyAuth
//	@Param			id path string true "Membership ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/memberships/{id} [delete]
func (h *Membership) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
