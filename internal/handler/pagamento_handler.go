package handler

import (
	"encoding/json"
	"net/http"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type pixBatchRequest struct {
	NumeroRequisicao string           `json:"numero_requisicao,omitempty"`
	AccountID        string           `json:"account_id"`
	Lancamentos      []domain.PixLine `json:"lancamentos"`
}

type boletoBatchRequest struct {
	NumeroRequisicao string                     `json:"numero_requisicao,omitempty"`
	AccountID        string                     `json:"account_id"`
	Lancamentos      []domain.BoletoPaymentLine `json:"lancamentos"`
}

type guiaBatchRequest struct {
	NumeroRequisicao string                   `json:"numero_requisicao,omitempty"`
	AccountID        string                   `json:"account_id"`
	Lancamentos      []domain.GuiaPaymentLine `json:"lancamentos"`
}

// POST /v1/lotes/pix
func submitPixBatchHandler(svc *service.PagamentoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pixBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		result, err := svc.SubmitPixBatch(r.Context(), req.NumeroRequisicao, req.AccountID, req.Lancamentos, ActorFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// POST /v1/lotes/boletos
func submitBoletoBatchHandler(svc *service.PagamentoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boletoBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		result, err := svc.SubmitBoletoPayments(r.Context(), req.NumeroRequisicao, req.AccountID, req.Lancamentos, ActorFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// POST /v1/lotes/guias
func submitGuiaBatchHandler(svc *service.PagamentoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req guiaBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		result, err := svc.SubmitGuiaPayments(r.Context(), req.NumeroRequisicao, req.AccountID, req.Lancamentos, ActorFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// POST /v1/lotes/{numeroRequisicao}/liberar
func releaseBatchHandler(svc *service.PagamentoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IndicadorFloat string `json:"indicador_float,omitempty"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "JSON inválido")
				return
			}
		}

		numero := chi.URLParam(r, "numeroRequisicao")
		if err := svc.Release(r.Context(), numero, req.IndicadorFloat, ActorFromContext(r.Context())); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"numero_requisicao": numero, "status": "liberado"})
	}
}

// POST /v1/pagamentos/cancelar
func cancelPaymentsHandler(svc *service.PagamentoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AccountID string   `json:"account_id"`
			Codigos   []string `json:"codigos"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		outcomes, err := svc.Cancel(r.Context(), req.AccountID, req.Codigos, ActorFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"resultados": outcomes})
	}
}

// GET /v1/lotes/{numeroRequisicao}
func getBatchHandler(svc *service.PagamentoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.GetBatch(r.Context(), chi.URLParam(r, "numeroRequisicao"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
