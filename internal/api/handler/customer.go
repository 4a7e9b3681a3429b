package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailhub/internal/api/request"
	"github.com/edvin/mailhub/internal/api/response"
	"github.com/edvin/mailhub/internal/core"
	"github.com/edvin/mailhub/internal/model"
)

type Customer struct {
	svc *core.CustomerService
}

func NewCustomer(svc *core.CustomerService) *Customer {
	return &Customer{svc: svc}
}

// List godoc
//
//	@Summary		List customers
//	@Tags			Customers
//	@Security		ApiKeyAuth
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Customer}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/customers [get]
func (h *Customer) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	customers, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(customers) > 0 {
		nextCursor = customers[len(customers)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, customers, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a customer
//	@Tags			Customers
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateCustomer true "Customer details"
//	@Success		201 {object} model.Customer
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/customers [post]
func (h *Customer) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCustomer
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer := &model.Customer{
		Name:  req.Name,
		Email: req.Email,
	}
	if err := h.svc.Create(r.Context(), customer); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, customer)
}

// Get godoc
//
//	@Summary		Get a customer
//	@Tags			Customers
//	@Security		ApiKeyAuth
//	@Param			id path string true "Customer ID"
//	@Success		200 {object} model.Customer
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/customers/{id} [get]
func (h *Customer) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, customer)
}

// Update godoc
//
//	@Summary		Update a customer
//	@Tags			Customers
//	@Security		ApiKeyAuth
//	@Param			id path string true "Customer ID"
//	@Param			body body request.UpdateCustomer true "Customer updates"
//	@Success		200 {object} model.Customer
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/customers/{id} [put]
func (h *Customer) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateCustomer
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := h.svc.Update(r.Context(), id, req.Name, req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, customer)
}

// Delete godoc
//
//	@Summary		Delete a customer and everything under it
//	@Description	Removes the customer, their memberships and limitations, and every mailbox they own. Remote mailbox cleanup runs asynchronously per account.
//	@Tags			Customers
//	@Security		ApiKeyAuth
//	@Param			id path string true "Customer ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/customers/{id} [delete]
func (h *Customer) Delete(w http.ResponseWriter, r *http.Request) {
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
