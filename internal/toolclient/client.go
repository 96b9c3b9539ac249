// Package toolclient is the gateway's HTTP client for the tool proxy.
package toolclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mbd888/fraudgate/internal/scoring"
	"github.com/mbd888/fraudgate/internal/traces"
)

// DefaultTimeout bounds every call to the tool proxy.
const DefaultTimeout = 15 * time.Second

// Client calls the tool proxy's HTTP tool endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ scoring.Tools = (*Client)(nil)

// New creates a client for the tool proxy at baseURL. Outbound requests
// carry the caller's trace context.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: traces.Transport(nil),
		},
	}
}

// apiError represents an error response from the tool proxy.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FlagAck is the tool proxy's acknowledgement of a flag.
type FlagAck struct {
	TxnID   string `json:"txn_id"`
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason"`
}

// doRequest makes an HTTP request to the tool proxy and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) (json.RawMessage, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if !json.Valid(respBody) {
		return nil, fmt.Errorf("invalid JSON response from %s", path)
	}
	return json.RawMessage(respBody), nil
}

// GetUserProfile fetches the user's profile.
func (c *Client) GetUserProfile(ctx context.Context, userID string) (scoring.UserProfile, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/tools/getUserProfile", url.Values{"user_id": {userID}})
	if err != nil {
		return nil, err
	}
	var profile scoring.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	return profile, nil
}

// GetTransactions fetches up to limit recent transactions.
func (c *Client) GetTransactions(ctx context.Context, userID string, limit int) (scoring.TransactionList, error) {
	q := url.Values{"user_id": {userID}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	raw, err := c.doRequest(ctx, http.MethodGet, "/tools/getTransactions", q)
	if err != nil {
		return scoring.TransactionList{}, err
	}
	var list scoring.TransactionList
	if err := json.Unmarshal(raw, &list); err != nil {
		return scoring.TransactionList{}, fmt.Errorf("decode transactions: %w", err)
	}
	return list, nil
}

// FlagTransaction submits a transaction for review.
func (c *Client) FlagTransaction(ctx context.Context, txnID, reason string) error {
	_, err := c.Flag(ctx, txnID, reason)
	return err
}

// Flag submits a transaction for review and returns the acknowledgement.
func (c *Client) Flag(ctx context.Context, txnID, reason string) (FlagAck, error) {
	raw, err := c.doRequest(ctx, http.MethodPost, "/tools/flagTransaction", url.Values{"txn_id": {txnID}, "reason": {reason}})
	if err != nil {
		return FlagAck{}, err
	}
	var ack FlagAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		return FlagAck{}, fmt.Errorf("decode flag ack: %w", err)
	}
	return ack, nil
}

// Ping checks that the tool proxy answers its liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/healthz", nil)
	return err
}
