package scoring

import (
	"context"
	"time"

	"github.com/mbd888/fraudgate/internal/logging"
	"github.com/mbd888/fraudgate/internal/traces"
	"github.com/shopspring/decimal"
)

// Backend is a model that can score a prompt. Implementations report every
// failure through the returned Outcome.
type Backend interface {
	Name() BackendName
	Score(ctx context.Context, prompt []byte) Outcome
}

// Policy selects which backends are attempted and in what order.
// It is built once at startup and read-only afterwards.
type Policy struct {
	Primary        Backend // nil or disabled means skip straight to Secondary
	Secondary      Backend
	ForceSecondary bool
	AttemptTimeout time.Duration
}

// Attempts returns the backends that will be tried, in order.
func (p Policy) Attempts() []Backend {
	var out []Backend
	if !p.ForceSecondary && p.Primary != nil {
		out = append(out, p.Primary)
	}
	if p.Secondary != nil {
		out = append(out, p.Secondary)
	}
	return out
}

// Decide walks the backends in priority order and returns the first usable
// result, or the heuristic when none succeeds. Each backend is tried at most
// once; Decide never fails.
func (p Policy) Decide(ctx context.Context, prompt []byte, amount decimal.Decimal) (ModelResult, BackendName) {
	logger := logging.L(ctx)

	for _, b := range p.Attempts() {
		outcome := p.attempt(ctx, b, prompt)
		backendAttempts.WithLabelValues(string(b.Name()), outcome.Label()).Inc()
		if outcome.OK() {
			return outcome.Result, b.Name()
		}
		logger.Warn("scoring backend failed, falling through",
			"backend", b.Name(),
			"reason", outcome.Reason,
			"error", outcome.Err,
		)
	}

	backendAttempts.WithLabelValues(string(BackendHeuristic), "success").Inc()
	return Heuristic(amount), BackendHeuristic
}

func (p Policy) attempt(ctx context.Context, b Backend, prompt []byte) Outcome {
	ctx, span := traces.StartSpan(ctx, "scoring.backend", traces.Backend(string(b.Name())))
	defer span.End()

	if p.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
		defer cancel()
	}

	outcome := b.Score(ctx, prompt)
	span.SetAttributes(traces.Outcome(outcome.Label()))
	if outcome.Err != nil {
		traces.RecordError(span, outcome.Err)
	}
	return outcome
}
