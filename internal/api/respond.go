package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fpang/product-listai/internal/adapter"
	"github.com/fpang/product-listai/internal/enhance"
	"github.com/fpang/product-listai/internal/product"
	"github.com/fpang/product-listai/internal/session"
	"github.com/fpang/product-listai/internal/shopify"
	"github.com/rs/zerolog/log"
)

// Error kinds for lookups that fail before any orchestrator call.
const (
	KindNoSession       = "NoSession"
	KindProductNotFound = "ProductNotFound"
)

type outcomeResponse struct {
	enhance.Outcome
	Error *product.ErrorRecord `json:"error,omitempty"`
}

type errorResponse struct {
	Error product.ErrorRecord `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// httpError sends a request-validation failure.
func httpError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: product.ErrorRecord{Kind: "BadRequest", Message: msg}})
	if status >= http.StatusInternalServerError {
		log.Error().Int("status", status).Str("clientMsg", msg).Msg("HTTP error")
	}
}

// respondOutcome writes an orchestrator outcome with the status its error
// kind maps to.
func respondOutcome(w http.ResponseWriter, out enhance.Outcome) {
	respondJSON(w, statusFor(out.Err), outcomeResponse{Outcome: out, Error: out.ErrorRecord()})
}

// respondError writes a failure that produced no outcome.
func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	respondJSON(w, status, errorResponse{Error: product.ErrorRecord{Kind: errorKind(err), Message: err.Error()}})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, session.ErrNoSession):
		return KindNoSession
	case errors.Is(err, shopify.ErrProductNotFound):
		return KindProductNotFound
	}
	return enhance.ErrorKind(err)
}

// statusFor maps an error to its HTTP status. A nil error is 200.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch errorKind(err) {
	case KindNoSession, KindProductNotFound:
		return http.StatusNotFound
	case enhance.KindBusy, enhance.KindInvalidStateTransition:
		return http.StatusConflict
	case enhance.KindMissingInput:
		return http.StatusUnprocessableEntity
	case enhance.KindMalformedIdentifier:
		return http.StatusBadRequest
	case enhance.KindNotConfigured:
		return http.StatusNotImplemented
	case adapter.RejectedByRemote.String(), adapter.MalformedResponse.String(), shopify.RemoteRejected.String():
		return http.StatusBadGateway
	case adapter.Timeout.String():
		return http.StatusGatewayTimeout
	case adapter.Unreachable.String():
		return http.StatusServiceUnavailable
	case shopify.Unauthorized.String():
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
