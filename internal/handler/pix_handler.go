package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/service"

	"go.uber.org/zap"
)

// GET /v1/pix/recebidos?inicio=...&fim=...&pagina=...&todas=true
// Timestamps are RFC 3339.
func pixRecebidosHandler(svc *service.PixService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := time.Parse(time.RFC3339, r.URL.Query().Get("inicio"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "inicio inválido, esperado RFC 3339")
			return
		}
		end, err := time.Parse(time.RFC3339, r.URL.Query().Get("fim"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "fim inválido, esperado RFC 3339")
			return
		}

		q := domain.PixReceivedQuery{
			Start:    start,
			End:      end,
			FetchAll: r.URL.Query().Get("todas") == "true",
		}
		if v := r.URL.Query().Get("pagina"); v != "" {
			if p, err := strconv.Atoi(v); err == nil && p > 0 {
				q.Page = p
			}
		}

		page, err := svc.Recebidos(r.Context(), &q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}
