package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"bit10-swap/pkg/types"
)

// Notifier posts settled swaps to an external tracking endpoint. Delivery is
// best-effort: a failed notification is logged and dropped, never retried and
// never surfaced to the user.
type Notifier struct {
	url    string
	client *http.Client
}

// NewNotifier creates a notifier for the given tracking endpoint. An empty
// URL disables notifications.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// notification is the flattened payload the tracking endpoint expects
type notification struct {
	SwapID         string `json:"swap_id"`
	Network        string `json:"network"`
	Type           string `json:"transaction_type"`
	TokenInAmount  string `json:"token_in_amount"`
	TokenOutAmount string `json:"token_out_amount"`
	TxHashIn       string `json:"tx_hash_in"`
	// SettledAt is the settlement time in RFC 3339 format
	SettledAt string `json:"settled_at"`
}

// Notify delivers one settled record. Callers that must not block on the
// tracking endpoint should dispatch it on its own goroutine.
func (n *Notifier) Notify(record *types.SwapRecord) {
	if n.url == "" || record == nil {
		return
	}

	payload := notification{
		SwapID:         record.SwapID,
		Network:        string(record.Network),
		Type:           string(record.Type),
		TokenInAmount:  record.TokenInAmount,
		TokenOutAmount: record.TokenOutAmount,
		TxHashIn:       record.TxHashIn,
		SettledAt:      record.Time().Format(time.RFC3339Nano),
	}

	if err := n.post(payload); err != nil {
		log.Warn().Err(err).Str("swap_id", record.SwapID).Msg("failed to notify tracking endpoint")
	}
}

func (n *Notifier) post(payload notification) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tracking endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
