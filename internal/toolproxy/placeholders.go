package toolproxy

import "encoding/json"

const (
	DefaultTransactionLimit = 25
	MaxTransactionLimit     = 200

	placeholderName  = "Demo User"
	placeholderEmail = "demo.user@example.com"
)

// Profile is a user profile as returned to callers. Placeholders carry Error.
type Profile map[string]any

// TransactionList is the transactions payload as returned to callers.
type TransactionList struct {
	Items []json.RawMessage `json:"items"`
	Error string            `json:"error,omitempty"`
}

// FlagAck acknowledges a flagTransaction call.
type FlagAck struct {
	TxnID   string `json:"txn_id"`
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason"`
}

var placeholderTransactions = []json.RawMessage{
	json.RawMessage(`{"txn_id":"demo-txn-1","amount":42.5,"merchant":"Demo Coffee","geo":"US","ts":"2024-01-01T09:30:00Z"}`),
	json.RawMessage(`{"txn_id":"demo-txn-2","amount":129.99,"merchant":"Demo Electronics","geo":"US","ts":"2024-01-02T18:05:00Z"}`),
}

func placeholderProfile(userID string, err error) Profile {
	return Profile{
		"id":    userID,
		"name":  placeholderName,
		"email": placeholderEmail,
		"error": err.Error(),
	}
}

func placeholderTransactionList(err error) TransactionList {
	items := make([]json.RawMessage, len(placeholderTransactions))
	copy(items, placeholderTransactions)
	return TransactionList{Items: items, Error: err.Error()}
}

// NormalizeLimit applies the default and cap to a requested transaction limit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultTransactionLimit
	}
	if limit > MaxTransactionLimit {
		return MaxTransactionLimit
	}
	return limit
}
