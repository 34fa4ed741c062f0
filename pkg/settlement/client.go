// Package settlement talks to the settlement authority gateway. The
// authority registers swap intents, hands back the literal transaction to
// submit, and adjudicates submitted transactions after verifying them
// on-chain itself.
package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bit10-swap/pkg/types"
)

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the settlement gateway. Transport errors
// propagate to the caller and are treated as retryable-by-user; adjudication
// errors arrive inside a SettlementResult.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a settlement client for the given gateway URL
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// CreateTransaction registers a swap intent and returns the literal on-chain
// transaction the client must submit. Call exactly once per attempt, after
// any required approval succeeds and before any on-chain submission; the
// returned parameters are bound to one submission and never reused.
func (c *Client) CreateTransaction(ctx context.Context, intent *types.SwapIntent) (*types.TransferParameters, error) {
	endpoint := fmt.Sprintf("%s/v1/%s/%s/transactions", c.baseURL, intent.SourceChain, intent.Type)

	var params types.TransferParameters
	if err := c.post(ctx, endpoint, intent, &params); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if params.To == "" || params.Value == "" {
		return nil, fmt.Errorf("settlement authority returned incomplete transfer parameters")
	}
	if params.Chain == "" {
		params.Chain = intent.SourceChain
	}
	return &params, nil
}

// ReportTransaction informs the authority that a transaction was placed
// on-chain and requests adjudication. The authority independently verifies
// the transaction before returning Ok.
func (c *Client) ReportTransaction(ctx context.Context, ref types.SubmittedTxRef) (*types.SettlementResult, error) {
	endpoint := fmt.Sprintf("%s/v1/%s/transactions/report", c.baseURL, ref.Chain)

	body := map[string]string{"ref": ref.Ref}
	var result types.SettlementResult
	if err := c.post(ctx, endpoint, body, &result); err != nil {
		return nil, fmt.Errorf("failed to report transaction: %w", err)
	}
	if result.Ok == nil && result.Err == nil {
		return nil, fmt.Errorf("settlement authority returned an empty result")
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError extracts the gateway's error message from a non-2xx response
func apiError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return fmt.Errorf("API returned status code %d", resp.StatusCode)
	}

	var errorResp map[string]any
	if jsonErr := json.Unmarshal(body, &errorResp); jsonErr == nil {
		if message, ok := errorResp["message"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, message)
		}
	}
	return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
}
