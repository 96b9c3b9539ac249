package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mbd888/fraudgate/internal/config"
	"github.com/mbd888/fraudgate/internal/logging"
	"github.com/mbd888/fraudgate/internal/traces"
)

// Service scores transactions. It is safe for concurrent use.
type Service struct {
	tools          Tools
	policy         Policy
	contextTimeout time.Duration
	flagTimeout    time.Duration
	logger         *slog.Logger
	now            func() time.Time

	flags sync.WaitGroup
}

// Option configures the service
type Option func(*Service)

// WithLogger sets the logger used for background flag notifications.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the prompt timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTimeouts overrides the context-fetch and flag-notification timeouts.
func WithTimeouts(contextTimeout, flagTimeout time.Duration) Option {
	return func(s *Service) {
		if contextTimeout > 0 {
			s.contextTimeout = contextTimeout
		}
		if flagTimeout > 0 {
			s.flagTimeout = flagTimeout
		}
	}
}

// NewService creates a scoring service.
func NewService(tools Tools, policy Policy, opts ...Option) (*Service, error) {
	if tools == nil {
		return nil, errors.New("tools client is required")
	}
	s := &Service{
		tools:          tools,
		policy:         policy,
		contextTimeout: config.DefaultContextTimeout,
		flagTimeout:    config.DefaultFlagTimeout,
		logger:         logging.Discard(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Score runs the full pipeline for one request. It always returns a
// response; backend and tool failures only change which path produced it.
func (s *Service) Score(ctx context.Context, req ScoreRequest) ScoreResponse {
	ctx, span := traces.StartSpan(ctx, "scoring.score", traces.UserID(req.UserID), traces.TxnID(req.TxnID))
	defer span.End()

	uc := FetchContext(ctx, s.tools, req.UserID, s.contextTimeout)

	var (
		result  ModelResult
		backend BackendName
	)
	prompt, err := BuildPrompt(req, uc.Profile, uc.Items, s.now())
	if err != nil {
		// Unreachable with decoded context, but the heuristic still answers.
		logging.L(ctx).Error("build prompt failed", "error", err)
		result, backend = Heuristic(req.Amount), BackendHeuristic
	} else {
		result, backend = s.policy.Decide(ctx, prompt, req.Amount)
	}

	span.SetAttributes(traces.Backend(string(backend)))
	decisionsTotal.WithLabelValues(string(result.Decision), string(backend)).Inc()

	if result.Decision != DecisionAllow {
		s.dispatchFlag(ctx, req.TxnID, FlagReason(result, backend))
	}

	return ScoreResponse{
		RiskScore:    result.RiskScore,
		Decision:     result.Decision,
		Reasons:      result.Reasons,
		FeaturesUsed: result.FeaturesUsed,
		AIBackend:    backend,
		UserSummary: UserSummary{
			ID:              req.UserID,
			RecentTxnCount:  len(uc.Items),
			ProfileHasError: uc.HasError,
		},
	}
}

// FlagReason is the review note sent with a non-ALLOW decision.
func FlagReason(result ModelResult, backend BackendName) string {
	first := ""
	if len(result.Reasons) > 0 {
		first = result.Reasons[0]
	}
	return fmt.Sprintf("%s via %s (risk_score=%g): %s", result.Decision, backend, result.RiskScore, first)
}

// dispatchFlag notifies the tool proxy without holding up the response.
// The notification outlives the request but not its own timeout.
func (s *Service) dispatchFlag(ctx context.Context, txnID, reason string) {
	logger := s.logger
	if reqID := logging.RequestID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	flagCtx := context.WithoutCancel(ctx)

	s.flags.Add(1)
	go func() {
		defer s.flags.Done()

		ctx, cancel := context.WithTimeout(flagCtx, s.flagTimeout)
		defer cancel()

		if err := s.tools.FlagTransaction(ctx, txnID, reason); err != nil {
			flagNotifications.WithLabelValues("failed").Inc()
			logger.Warn("flag notification failed", "txn_id", txnID, "error", err)
			return
		}
		flagNotifications.WithLabelValues("sent").Inc()
		logger.Debug("transaction flagged", "txn_id", txnID)
	}()
}

// WaitForFlags blocks until in-flight flag notifications finish or ctx ends.
func (s *Service) WaitForFlags(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.flags.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
