// Package httpx provides HTTP response utilities shared by all handlers.
package httpx

import (
	"errors"
	"net/http"

	"github.com/sabbak-erp/sabbak-erp/internal/shared"
)

// RespondError maps a domain error to an HTTP failure response.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrConflict):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidRef):
		Fail(w, http.StatusBadRequest, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, "internal error")
	}
}
