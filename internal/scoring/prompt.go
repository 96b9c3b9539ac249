package scoring

import (
	"encoding/json"
	"time"
)

// MaxPromptTransactions caps how many recent transactions reach the model.
const MaxPromptTransactions = 20

const promptTask = "Assess credit/fraud risk for a single card transaction."

type promptPayload struct {
	Task               string            `json:"task"`
	Transaction        promptTxn         `json:"transaction"`
	UserProfile        UserProfile       `json:"user_profile"`
	RecentTransactions []json.RawMessage `json:"recent_transactions"`
	Requirements       promptReqs        `json:"requirements"`
}

type promptTxn struct {
	TxnID    string      `json:"txn_id"`
	Amount   json.Number `json:"amount"`
	Merchant string      `json:"merchant"`
	Geo      string      `json:"geo"`
	TsUTC    string      `json:"ts_utc"`
}

type promptReqs struct {
	RiskScoreRange    [2]float64 `json:"risk_score_range"`
	DecisionSet       []Decision `json:"decision_set"`
	ProvideTopReasons bool       `json:"provide_top_reasons"`
	JSONOnly          bool       `json:"json_only"`
}

// BuildPrompt renders the JSON prompt sent to every model backend.
func BuildPrompt(req ScoreRequest, profile UserProfile, items []json.RawMessage, now time.Time) ([]byte, error) {
	if profile == nil {
		profile = UserProfile{}
	}
	recent := items
	if len(recent) > MaxPromptTransactions {
		recent = recent[:MaxPromptTransactions]
	}
	if recent == nil {
		recent = []json.RawMessage{}
	}

	return json.Marshal(promptPayload{
		Task: promptTask,
		Transaction: promptTxn{
			TxnID:    req.TxnID,
			Amount:   json.Number(req.Amount.String()),
			Merchant: req.Merchant,
			Geo:      req.Geo,
			TsUTC:    now.UTC().Format(time.RFC3339Nano),
		},
		UserProfile:        profile,
		RecentTransactions: recent,
		Requirements: promptReqs{
			RiskScoreRange:    [2]float64{0.0, 1.0},
			DecisionSet:       DecisionSet,
			ProvideTopReasons: true,
			JSONOnly:          true,
		},
	})
}
