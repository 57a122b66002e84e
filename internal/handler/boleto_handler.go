package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// POST /v1/boletos
func issueBoletoHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.IssueBoletoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		boleto, err := svc.Issue(r.Context(), &req, ActorFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, boleto)
	}
}

// GET /v1/boletos/{boletoId}
func getBoletoHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boleto, err := svc.Get(r.Context(), chi.URLParam(r, "boletoId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, boleto)
	}
}

// PATCH /v1/boletos/{boletoId}
func alterBoletoHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.AlterBoletoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		boleto, err := svc.Alter(r.Context(), chi.URLParam(r, "boletoId"), &req, ActorFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, boleto)
	}
}

// POST /v1/boletos/{boletoId}/baixa
func baixarBoletoHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boleto, err := svc.WriteOff(r.Context(), chi.URLParam(r, "boletoId"), ActorFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, boleto)
	}
}

// GET /v1/boletos/{boletoId}/banco — the bank's current view of the billet.
func bankStatusHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.FetchBankStatus(r.Context(), chi.URLParam(r, "boletoId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// GET /v1/boletos?convenio=...&situacao=...&indice=...&todos=true
func listBoletosHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := domain.ListBoletosQuery{
			AccountID: r.URL.Query().Get("account_id"),
			Convenio:  r.URL.Query().Get("convenio"),
			Situacao:  r.URL.Query().Get("situacao"),
			FetchAll:  r.URL.Query().Get("todos") == "true",
		}
		if v := r.URL.Query().Get("indice"); v != "" {
			if idx, err := strconv.Atoi(v); err == nil && idx >= 0 {
				q.StartIndex = idx
			}
		}
		if q.Convenio == "" {
			writeError(w, http.StatusBadRequest, "convenio é obrigatório")
			return
		}

		page, err := svc.List(r.Context(), &q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// POST /webhooks/bb/pagamento — payment confirmation callback from the bank.
// Authenticated by WebhookHMACMiddleware; idempotent on (nossoNumero, paidAt),
// so a duplicate delivery still returns 200.
func paymentWebhookHandler(svc *service.BoletoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var wh domain.PaymentWebhook
		if err := json.NewDecoder(r.Body).Decode(&wh); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}
		if wh.NossoNumero == "" || wh.PaidAt.IsZero() {
			writeError(w, http.StatusBadRequest, "nosso_numero e data_pagamento são obrigatórios")
			return
		}
		wh.SourceIP = r.RemoteAddr

		if err := svc.ConfirmPaymentFromWebhook(r.Context(), &wh); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "processado"})
	}
}
