package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps the error taxonomy onto HTTP status codes: validation
// errors 400/404, state-machine violations 409, gateway failures 502,
// unverified payments 402, anything else 500.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var transition *model.InvalidTransitionError
	if errors.As(err, &transition) {
		logger.Warn().Str("error", transition.Error()).Msg("transition rejected")
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: transition.Error(), Code: model.ErrCodeInvalidTransition})
		return
	}

	var gwErr *model.GatewayError
	if errors.As(err, &gwErr) {
		logger.Error().Err(err).Msg("gateway failure")
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "payment gateway unavailable", Code: model.ErrCodeGatewayUnavailable})
		return
	}

	var domain *model.DomainError
	if errors.As(err, &domain) {
		status := http.StatusBadRequest
		switch domain.Code {
		case model.ErrCodeOrderNotFound, model.ErrCodeCartLineNotFound, model.ErrCodeAddressNotFound, model.ErrCodeProductNotFound:
			status = http.StatusNotFound
		case model.ErrCodePaymentUnverified:
			status = http.StatusPaymentRequired
		}
		logger.Warn().Str("code", domain.Code).Str("error", domain.Message).Msg("request rejected")
		writeJSON(w, status, ErrorResponse{Error: domain.Message, Code: domain.Code})
		return
	}

	writeError(w, http.StatusInternalServerError, "internal error", logger)
}

// userID extracts the caller's account id supplied by the session
// collaborator via the X-User-ID header.
func userID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.Header.Get("X-User-ID"))
}
