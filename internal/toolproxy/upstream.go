package toolproxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mbd888/fraudgate/internal/traces"
)

// FailureClass categorises an upstream failure.
type FailureClass string

const (
	ClassUnreachable FailureClass = "upstream_unreachable"
	ClassStatus      FailureClass = "upstream_status"
	ClassInvalidJSON FailureClass = "upstream_invalid_json"
)

// maxUpstreamBody caps how much of an upstream response is read.
const maxUpstreamBody = 4 << 20

// UpstreamError is a classified upstream failure.
type UpstreamError struct {
	Class  FailureClass
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	return string(e.Class) + ": " + e.Detail
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ClassOf returns the failure class of err, defaulting to unreachable.
func ClassOf(err error) FailureClass {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Class
	}
	return ClassUnreachable
}

// Upstream talks to the user and transaction-history services.
type Upstream struct {
	usersAPI string
	txnAPI   string
	http     *http.Client
}

// NewUpstream creates an upstream client. Every call is bounded by timeout.
func NewUpstream(usersAPI, txnAPI string, timeout time.Duration) *Upstream {
	return &Upstream{
		usersAPI: strings.TrimRight(usersAPI, "/"),
		txnAPI:   strings.TrimRight(txnAPI, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: traces.Transport(nil),
		},
	}
}

// UserProfile fetches GET {USERS_API}/users/{id}. The body must be a JSON object.
func (u *Upstream) UserProfile(ctx context.Context, userID string) (map[string]any, error) {
	body, err := u.get(ctx, u.usersAPI+"/users/"+url.PathEscape(userID))
	if err != nil {
		return nil, err
	}
	var profile map[string]any
	if err := json.Unmarshal(body, &profile); err != nil || profile == nil {
		return nil, &UpstreamError{Class: ClassInvalidJSON, Detail: "user profile is not a JSON object", Err: err}
	}
	return profile, nil
}

// Transactions fetches GET {TXN_API}/transactions?user=&limit=. The upstream
// may answer with a bare array or an object holding "items".
func (u *Upstream) Transactions(ctx context.Context, userID string, limit int) ([]json.RawMessage, error) {
	q := url.Values{"user": {userID}, "limit": {strconv.Itoa(limit)}}
	body, err := u.get(ctx, u.txnAPI+"/transactions?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err == nil {
		return nonNil(items), nil
	}

	var wrapped struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, &UpstreamError{Class: ClassInvalidJSON, Detail: "transactions are neither a list nor an object with items", Err: err}
	}
	return nonNil(wrapped.Items), nil
}

func (u *Upstream) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &UpstreamError{Class: ClassUnreachable, Detail: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Class: ClassUnreachable, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, &UpstreamError{Class: ClassUnreachable, Detail: "read body", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Class: ClassStatus, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{Class: ClassInvalidJSON, Detail: "response body is not JSON"}
	}
	return body, nil
}

func nonNil(items []json.RawMessage) []json.RawMessage {
	if items == nil {
		return []json.RawMessage{}
	}
	return items
}
