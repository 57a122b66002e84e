// Package notify delivers monitor events to the external notification
// collaborator over HTTP, or to the log when no endpoint is configured.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agrovale/cobranca-bb-go/internal/domain"

	"go.uber.org/zap"
)

// HTTPNotifier posts notifications as JSON to a configured endpoint. With an
// empty URL it degrades to structured logging, which keeps the dev profile
// free of external dependencies.
type HTTPNotifier struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// New creates the notifier.
func New(url string, httpClient *http.Client, logger *zap.Logger) *HTTPNotifier {
	return &HTTPNotifier{url: url, http: httpClient, logger: logger}
}

func (n *HTTPNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	if n.url == "" {
		n.logger.Warn("notificação",
			zap.String("event", notification.Event),
			zap.String("severity", notification.Severity),
			zap.String("message", notification.Message),
		)
		return nil
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notificação rejeitada: status %d", resp.StatusCode)
	}
	return nil
}
