package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Defaults applied to fields a model omits.
const (
	DefaultRiskScore = 0.5
	NoReasonsText    = "Model returned no reasons."
)

var (
	ErrNoJSONObject    = errors.New("no JSON object in model output")
	ErrMissingDecision = errors.New("model output has no decision")
	ErrUnknownDecision = errors.New("decision outside ALLOW/REVIEW/DECLINE")
	ErrRiskScoreRange  = errors.New("risk_score must be a number in [0,1]")
)

// rawModelResult keeps every field as raw JSON so absence and wrong types
// can be told apart.
type rawModelResult struct {
	RiskScore    json.RawMessage `json:"risk_score"`
	Decision     json.RawMessage `json:"decision"`
	Reasons      json.RawMessage `json:"reasons"`
	FeaturesUsed json.RawMessage `json:"features_used"`
}

// ParseModelOutput interprets model text as a ModelResult. It accepts bare
// JSON, a ```json fenced block, or a JSON object surrounded by prose. The
// decision field is required; everything else is defaulted.
func ParseModelOutput(text string) (ModelResult, error) {
	obj, err := extractJSONObject(text)
	if err != nil {
		return ModelResult{}, err
	}

	var raw rawModelResult
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return ModelResult{}, fmt.Errorf("decode model output: %w", err)
	}

	result := ModelResult{
		RiskScore:    DefaultRiskScore,
		Reasons:      []string{NoReasonsText},
		FeaturesUsed: []string{},
	}

	if isAbsent(raw.Decision) {
		return ModelResult{}, ErrMissingDecision
	}
	var decision string
	if err := json.Unmarshal(raw.Decision, &decision); err != nil {
		return ModelResult{}, fmt.Errorf("%w: %s", ErrUnknownDecision, raw.Decision)
	}
	decision = strings.ToUpper(strings.TrimSpace(decision))
	if decision == "" {
		result.Decision = DecisionReview
	} else {
		result.Decision = Decision(decision)
		if !result.Decision.Valid() {
			return ModelResult{}, fmt.Errorf("%w: %q", ErrUnknownDecision, decision)
		}
	}

	if !isAbsent(raw.RiskScore) {
		var score float64
		if err := json.Unmarshal(raw.RiskScore, &score); err != nil {
			return ModelResult{}, fmt.Errorf("%w: %s", ErrRiskScoreRange, raw.RiskScore)
		}
		if score < 0 || score > 1 {
			return ModelResult{}, fmt.Errorf("%w: %g", ErrRiskScoreRange, score)
		}
		result.RiskScore = score
	}

	if reasons := stringList(raw.Reasons); len(reasons) > 0 {
		result.Reasons = reasons
	}
	if features := stringList(raw.FeaturesUsed); features != nil {
		result.FeaturesUsed = features
	}

	return result, nil
}

// extractJSONObject returns the outermost {...} span of text.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```"); i >= 0 {
		inner := text[i+3:]
		inner = strings.TrimPrefix(inner, "json")
		if j := strings.Index(inner, "```"); j >= 0 {
			inner = inner[:j]
		}
		text = strings.TrimSpace(inner)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// stringList decodes a JSON array of strings, dropping non-string entries.
// A missing or non-array value yields nil.
func stringList(raw json.RawMessage) []string {
	if isAbsent(raw) {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
