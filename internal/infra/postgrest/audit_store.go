package postgrest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// AuditStore appends to the audit_entries table. Entries are write-once;
// there is no update or delete path.
type AuditStore struct {
	client *Client
}

// NewAuditStore creates the store.
func NewAuditStore(client *Client) *AuditStore {
	return &AuditStore{client: client}
}

type auditRow struct {
	ID            string         `json:"id"`
	Actor         string         `json:"actor"`
	Action        string         `json:"action"`
	CorrelationID string         `json:"correlation_id"`
	Before        map[string]any `json:"before,omitempty"`
	After         map[string]any `json:"after,omitempty"`
	SourceIP      string         `json:"source_ip,omitempty"`
	At            string         `json:"at"`
}

// Append inserts the entry, assigning an id when the caller left it empty.
func (s *AuditStore) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	payload, err := json.Marshal(auditRow{
		ID:            entry.ID,
		Actor:         entry.Actor,
		Action:        entry.Action,
		CorrelationID: entry.CorrelationID,
		Before:        entry.Before,
		After:         entry.After,
		SourceIP:      entry.SourceIP,
		At:            entry.At.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return s.client.once(func() error {
		_, _, err := s.client.doRequest(ctx, http.MethodPost, "audit_entries", payload)
		return err
	})
}
