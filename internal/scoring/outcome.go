package scoring

import "fmt"

// FailureReason classifies why a backend attempt did not produce a result.
type FailureReason string

const (
	// FailureDisabled means the backend was switched off by configuration.
	FailureDisabled FailureReason = "disabled"
	// FailureNotConfigured means required credentials or identifiers are missing.
	FailureNotConfigured FailureReason = "not_configured"
	// FailureCallFailed covers transport, auth, quota and timeout errors.
	FailureCallFailed FailureReason = "call_failed"
	// FailureMalformedOutput means the model answered but the text was not a usable result.
	FailureMalformedOutput FailureReason = "malformed_output"
)

// Outcome is the result of one backend attempt: either a ModelResult or a
// failure reason with its cause. The policy branches on OK, never on errors.
type Outcome struct {
	Backend BackendName
	Result  ModelResult
	Reason  FailureReason
	Err     error
}

// Succeeded builds a successful outcome.
func Succeeded(backend BackendName, result ModelResult) Outcome {
	return Outcome{Backend: backend, Result: result}
}

// Failed builds a failed outcome.
func Failed(backend BackendName, reason FailureReason, err error) Outcome {
	return Outcome{Backend: backend, Reason: reason, Err: err}
}

// OK reports whether the attempt produced a result.
func (o Outcome) OK() bool {
	return o.Reason == ""
}

// Label is the metrics/trace label for the outcome.
func (o Outcome) Label() string {
	if o.OK() {
		return "success"
	}
	return string(o.Reason)
}

func (o Outcome) String() string {
	if o.OK() {
		return fmt.Sprintf("%s: %s (risk_score=%g)", o.Backend, o.Result.Decision, o.Result.RiskScore)
	}
	if o.Err != nil {
		return fmt.Sprintf("%s: %s: %v", o.Backend, o.Reason, o.Err)
	}
	return fmt.Sprintf("%s: %s", o.Backend, o.Reason)
}
