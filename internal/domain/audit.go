package domain

import "time"

// AuditEntry records one lifecycle transition or batch action. Boletos are
// never physically deleted; the audit trail is the history of what happened
// to them.
type AuditEntry struct {
	ID            string         `json:"id"`
	Actor         string         `json:"actor"` // operator subject, or "webhook"
	Action        string         `json:"action"`
	CorrelationID string         `json:"correlation_id"` // boleto id or numero requisicao
	Before        map[string]any `json:"before,omitempty"`
	After         map[string]any `json:"after,omitempty"`
	SourceIP      string         `json:"source_ip,omitempty"`
	At            time.Time      `json:"at"`
}

// Audit action names.
const (
	AuditBoletoIssued     = "boleto.emitido"
	AuditBoletoAltered    = "boleto.alterado"
	AuditBoletoWrittenOff = "boleto.baixado"
	AuditBoletoPaid       = "boleto.pago"
	AuditBatchSubmitted   = "lote.enviado"
	AuditBatchReleased    = "lote.liberado"
	AuditBatchCancelled   = "lote.cancelado"
)
