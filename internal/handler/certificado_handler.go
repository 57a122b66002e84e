package handler

import (
	"net/http"

	"github.com/agrovale/cobranca-bb-go/internal/service"

	"go.uber.org/zap"
)

// GET /v1/certificados — dry-run view of the expiry check.
func certificateReportHandler(svc *service.CertificadoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Simulate(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// POST /v1/certificados/verificar — force a monitor pass outside the daily
// schedule, notifications included.
func certificateCheckHandler(svc *service.CertificadoService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.RunCheck(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
