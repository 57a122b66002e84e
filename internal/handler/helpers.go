package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agrovale/cobranca-bb-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error      string             `json:"error"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var notFound *domain.ErrNotFound
	var conflict *domain.ErrConflict
	var incomplete *domain.ErrIncompleteCustomer
	var terminal *domain.ErrTerminalState
	var exhausted *domain.ErrSequenceExhausted
	var formatErr *domain.ErrFormat
	var rejected *domain.ErrBankRejected
	var ambiguous *domain.ErrAmbiguousOutcome
	var transport *domain.ErrBankTransport
	var circuitOpen *domain.ErrCircuitOpen
	var unauthorized *domain.ErrUnauthorized
	var certErr *domain.ErrCertificate

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "payload inválido", Violations: validation.Violations})
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &incomplete):
		logger.Warn("incomplete billing profile",
			zap.String("customer_id", incomplete.CustomerID),
			zap.Strings("missing", incomplete.MissingFields),
		)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &terminal):
		logger.Debug("terminal state", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &exhausted):
		logger.Error("sequence exhausted", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &formatErr):
		logger.Debug("format error", zap.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &rejected):
		logger.Warn("bank rejected request",
			zap.String("operation", rejected.Operation),
			zap.String("code", rejected.Code),
		)
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &ambiguous):
		logger.Error("ambiguous outcome", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &transport):
		logger.Error("bank transport error", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &certErr):
		logger.Error("certificate error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
