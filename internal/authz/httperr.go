package authz

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// RespondError maps the authorization error taxonomy to RFC7807 responses.
// Every mutation handler funnels through here so error kinds stay uniform.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrUnknownPermission):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Permission", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
