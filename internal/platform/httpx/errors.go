package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors mapped to HTTP statuses by RespondError.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to the stable JSON error envelope.
// Unrecognized errors become a 500 with a generic message so storage
// details never leak to clients.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrDuplicate):
		Error(w, http.StatusConflict, "duplicate")
	case errors.Is(err, ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrUnauthorized):
		Error(w, http.StatusUnauthorized, "unauthorized")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
