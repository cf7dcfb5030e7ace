package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionFull),
		errors.Is(err, domain.ErrAlreadySignedUp),
		errors.Is(err, domain.ErrSessionAlreadyStarted),
		errors.Is(err, domain.ErrSessionNotStarted),
		errors.Is(err, domain.ErrCancellationNotAllowed):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrManagerEmailRequired):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
