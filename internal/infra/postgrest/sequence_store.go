package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// SequenceStore keeps one sequence_counters row per (account, agreement).
// The advance is a filtered PATCH on the previous value: PostgREST applies it
// atomically, and an affected-row count of zero means a concurrent caller
// won the race.
type SequenceStore struct {
	client *Client
}

// NewSequenceStore creates the store.
func NewSequenceStore(client *Client) *SequenceStore {
	return &SequenceStore{client: client}
}

type sequenceRow struct {
	AccountID string `json:"account_id"`
	Convenio  string `json:"convenio"`
	LastValue uint64 `json:"last_value"`
}

// Get returns the last issued value for the key.
func (s *SequenceStore) Get(ctx context.Context, accountID, agreement string) (uint64, bool, error) {
	var rows []sequenceRow

	err := s.client.withRetry(ctx, func() error {
		path := fmt.Sprintf("sequence_counters?account_id=eq.%s&convenio=eq.%s&limit=1",
			url.QueryEscape(accountID), url.QueryEscape(agreement))
		body, _, err := s.client.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		rows = nil
		if len(body) == 0 || string(body) == "[]" {
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].LastValue, true, nil
}

// Create initializes the counter row. A unique constraint on
// (account_id, convenio) turns a lost creation race into ErrConflict.
func (s *SequenceStore) Create(ctx context.Context, accountID, agreement string, initial uint64) error {
	payload, err := json.Marshal(sequenceRow{AccountID: accountID, Convenio: agreement, LastValue: initial})
	if err != nil {
		return err
	}

	err = s.client.once(func() error {
		_, _, err := s.client.doRequest(ctx, http.MethodPost, "sequence_counters", payload)
		return err
	})

	var conflict *errConflictRow
	if errors.As(err, &conflict) {
		return &domain.ErrConflict{Resource: "sequence_counter", Key: accountID + "/" + agreement}
	}
	return err
}

// CompareAndSwap advances the counter only if the stored value still equals
// old. swapped=false means re-read and retry.
func (s *SequenceStore) CompareAndSwap(ctx context.Context, accountID, agreement string, old, new uint64) (bool, error) {
	payload, err := json.Marshal(map[string]uint64{"last_value": new})
	if err != nil {
		return false, err
	}

	var affected int
	err = s.client.once(func() error {
		path := fmt.Sprintf("sequence_counters?account_id=eq.%s&convenio=eq.%s&last_value=eq.%d",
			url.QueryEscape(accountID), url.QueryEscape(agreement), old)
		_, n, err := s.client.doRequest(ctx, http.MethodPatch, path, payload)
		affected = n
		return err
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
