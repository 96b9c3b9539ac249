// Package scoring implements the fraud scoring gateway: context fetch from
// the tool proxy, the ordered backend policy (vertex, studio, heuristic),
// best-effort flagging, and the HTTP handler.
package scoring

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Decision is the risk verdict for a transaction.
type Decision string

const (
	DecisionAllow   Decision = "ALLOW"
	DecisionReview  Decision = "REVIEW"
	DecisionDecline Decision = "DECLINE"
)

// DecisionSet lists the decisions a backend may return, in prompt order.
var DecisionSet = []Decision{DecisionAllow, DecisionReview, DecisionDecline}

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionAllow, DecisionReview, DecisionDecline:
		return true
	}
	return false
}

// BackendName identifies which stage produced a result.
type BackendName string

const (
	BackendVertex    BackendName = "vertex"
	BackendStudio    BackendName = "studio"
	BackendHeuristic BackendName = "heuristic"
)

// ScoreRequest is a transaction submitted for scoring.
type ScoreRequest struct {
	UserID   string
	TxnID    string
	Amount   decimal.Decimal
	Merchant string
	Geo      string
}

// UserProfile is opaque user context. Only a non-empty "error" field is
// interpreted.
type UserProfile map[string]any

// HasError reports whether the tool proxy annotated the profile with an
// upstream failure.
func (p UserProfile) HasError() bool {
	if p == nil {
		return false
	}
	switch v := p["error"].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	default:
		return true
	}
}

// TransactionList is the recent-transaction context. Records are opaque.
type TransactionList struct {
	Items []json.RawMessage `json:"items"`
	Error string            `json:"error,omitempty"`
}

// ModelResult is a structured risk assessment.
type ModelResult struct {
	RiskScore    float64  `json:"risk_score"`
	Decision     Decision `json:"decision"`
	Reasons      []string `json:"reasons"`
	FeaturesUsed []string `json:"features_used"`
}

// UserSummary describes the context the decision was made with.
type UserSummary struct {
	ID              string `json:"id"`
	RecentTxnCount  int    `json:"recent_txn_count"`
	ProfileHasError bool   `json:"profile_has_error"`
}

// ScoreResponse is the body of a successful POST /fraud/score.
type ScoreResponse struct {
	RiskScore    float64     `json:"risk_score"`
	Decision     Decision    `json:"decision"`
	Reasons      []string    `json:"reasons"`
	FeaturesUsed []string    `json:"features_used"`
	AIBackend    BackendName `json:"ai_backend"`
	UserSummary  UserSummary `json:"user_summary"`
}
