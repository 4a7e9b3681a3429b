package handler

import (
	"errors"
	"net/http"

	"github.com/edvin/mailhub/internal/api/response"
	"github.com/edvin/mailhub/internal/core"
	"github.com/edvin/mailhub/internal/tokenstore"
)

// writeServiceError translates the service layer's sentinel errors into
// HTTP status codes. Anything unrecognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrCustomerNotFound),
		errors.Is(err, core.ErrMembershipNotFound),
		errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, tokenstore.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrEmailExists),
		errors.Is(err, core.ErrStatusConflict):
		response.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrEmailInvalid),
		errors.Is(err, core.ErrQuotaExceeded),
		errors.Is(err, core.ErrEmailAccountsDisabled),
		errors.Is(err, core.ErrProviderUnavailable):
		response.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
