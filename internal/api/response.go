package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"lendflow/internal/domain"
)

type errorBody struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Message: message}})
}

// statusFromError maps domain errors to HTTP status codes. Unknown
// errors become a generic 500 so internals never leak to clients.
func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrBookNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrBookUnavailable),
		errors.Is(err, domain.ErrUserHasActiveLoan),
		errors.Is(err, domain.ErrNoMatchingActiveLoan),
		errors.Is(err, domain.ErrInvalidScore),
		errors.Is(err, domain.ErrInvalidName):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrDuplicateRecord):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "beklenmeyen bir hata oluştu"
	}
}
