package scoring

import "github.com/shopspring/decimal"

// HeuristicThreshold is the amount above which the fallback rule asks for review.
var HeuristicThreshold = decimal.NewFromInt(5000)

const (
	heuristicLowScore    = 0.3
	heuristicHighScore   = 0.7
	heuristicReviewCut   = 0.6
	heuristicReasonText  = "Fallback heuristic (Gemini unavailable)."
	heuristicFeatureName = "amount_threshold"
)

// Heuristic is the deterministic last resort. It never fails and never
// declines.
func Heuristic(amount decimal.Decimal) ModelResult {
	score := heuristicLowScore
	if amount.GreaterThan(HeuristicThreshold) {
		score = heuristicHighScore
	}

	decision := DecisionAllow
	if score >= heuristicReviewCut {
		decision = DecisionReview
	}

	return ModelResult{
		RiskScore:    score,
		Decision:     decision,
		Reasons:      []string{heuristicReasonText, "amount=" + amount.String()},
		FeaturesUsed: []string{heuristicFeatureName},
	}
}
