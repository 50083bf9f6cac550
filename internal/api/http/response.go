package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsValidation(err), errors.As(err, &verrs):
		return http.StatusBadRequest
	case domain.IsPermission(err):
		return http.StatusForbidden
	case domain.IsConflict(err):
		return http.StatusConflict
	case domain.IsStore(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var verr *domain.ValidationError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		resp.Field = verr.Field
	case errors.As(err, &verrs) && len(verrs) > 0:
		resp.Field = verrs[0].Field()
		resp.Error = "invalid " + verrs[0].Field() + ": failed " + verrs[0].Tag()
	}

	switch status {
	case http.StatusInternalServerError:
		logger.Error("Unhandled error", "error", err)
		resp.Error = "internal error"
	case http.StatusServiceUnavailable:
		logger.Error("Record store unavailable", "error", err)
		resp.Error = "record store unavailable"
	}
	writeJSON(w, status, resp)
}
