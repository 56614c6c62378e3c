package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// handleError maps the domain error kinds onto HTTP statuses. Anything
// outside the taxonomy is logged and answered with a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch domain.Kind(err) {
	case domain.ErrValidation:
		respondError(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case domain.ErrNotFound:
		respondError(w, r, http.StatusNotFound, "not_found", err.Error())
	case domain.ErrState:
		respondError(w, r, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	case domain.ErrConflict:
		respondError(w, r, http.StatusConflict, "conflict", err.Error())
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			respondError(w, r, http.StatusGatewayTimeout, "timeout", "request timed out")
			return
		}
		logging.FromContext(r.Context(), nil).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
