// Package toolproxy fronts the user and transaction-history services for the
// scoring gateway. Reads never fail the caller: upstream problems are folded
// into placeholder payloads carrying an error field. Flags land in a review
// queue and are pushed to connected reviewers.
package toolproxy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mbd888/fraudgate/internal/idgen"
	"github.com/mbd888/fraudgate/internal/logging"
	"github.com/mbd888/fraudgate/internal/pagination"
	"github.com/mbd888/fraudgate/internal/traces"
)

const (
	ToolGetUserProfile  = "getUserProfile"
	ToolGetTransactions = "getTransactions"
	ToolFlagTransaction = "flagTransaction"
)

// Notifier pushes recorded flags to live subscribers.
type Notifier interface {
	BroadcastFlagged(flag map[string]interface{})
}

// Service implements the tool operations.
type Service struct {
	upstream *Upstream
	store    Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier broadcasts every recorded flag.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger for fallbacks and flag writes.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the flag timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a tool service. A nil store means an in-memory queue.
func NewService(upstream *Upstream, store Store, opts ...Option) (*Service, error) {
	if upstream == nil {
		return nil, errors.New("toolproxy: upstream is required")
	}
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Service{
		upstream: upstream,
		store:    store,
		logger:   logging.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetUserProfile returns the upstream profile or a placeholder describing the failure.
func (s *Service) GetUserProfile(ctx context.Context, userID string) Profile {
	ctx, span := traces.StartSpan(ctx, "toolproxy.getUserProfile", traces.Tool(ToolGetUserProfile), traces.UserID(userID))
	defer span.End()

	profile, err := s.upstream.UserProfile(ctx, userID)
	if err != nil {
		traces.RecordError(span, err)
		s.fallback(ctx, ToolGetUserProfile, err)
		return placeholderProfile(userID, err)
	}
	return Profile(profile)
}

// GetTransactions returns up to limit recent transactions, or canned records
// describing the failure.
func (s *Service) GetTransactions(ctx context.Context, userID string, limit int) TransactionList {
	limit = NormalizeLimit(limit)
	ctx, span := traces.StartSpan(ctx, "toolproxy.getTransactions", traces.Tool(ToolGetTransactions), traces.UserID(userID))
	defer span.End()

	items, err := s.upstream.Transactions(ctx, userID, limit)
	if err != nil {
		traces.RecordError(span, err)
		s.fallback(ctx, ToolGetTransactions, err)
		return placeholderTransactionList(err)
	}
	return TransactionList{Items: items}
}

// FlagTransaction records txnID in the review queue and notifies reviewers.
func (s *Service) FlagTransaction(ctx context.Context, txnID, reason string) (FlagAck, error) {
	ctx, span := traces.StartSpan(ctx, "toolproxy.flagTransaction", traces.Tool(ToolFlagTransaction), traces.TxnID(txnID))
	defer span.End()

	flag := &FlaggedTransaction{
		ID:        idgen.WithPrefix("flag_"),
		TxnID:     txnID,
		Reason:    reason,
		Status:    FlagPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Record(ctx, flag); err != nil {
		traces.RecordError(span, err)
		s.log(ctx).Error("failed to record flag", "txn_id", txnID, "error", err)
		return FlagAck{}, err
	}
	flaggedTotal.Inc()
	s.log(ctx).Info("transaction flagged", "flag_id", flag.ID, "txn_id", txnID)

	if s.notifier != nil {
		s.notifier.BroadcastFlagged(map[string]interface{}{
			"id":         flag.ID,
			"txn_id":     flag.TxnID,
			"reason":     flag.Reason,
			"status":     string(flag.Status),
			"created_at": flag.CreatedAt,
		})
	}

	return FlagAck{TxnID: txnID, Flagged: true, Reason: reason}, nil
}

// ListFlagged returns one page of the review queue, newest first.
func (s *Service) ListFlagged(ctx context.Context, limit int, cursor string) (pagination.Page[*FlaggedTransaction], error) {
	switch {
	case limit <= 0:
		limit = DefaultFlaggedLimit
	case limit > MaxFlaggedLimit:
		limit = MaxFlaggedLimit
	}
	after, err := pagination.Decode(cursor)
	if err != nil {
		return pagination.Page[*FlaggedTransaction]{}, err
	}

	flags, err := s.store.List(ctx, limit+1, after)
	if err != nil {
		return pagination.Page[*FlaggedTransaction]{}, err
	}
	return pagination.NewPage(flags, limit, func(f *FlaggedTransaction) (time.Time, string) {
		return f.CreatedAt, f.ID
	}), nil
}

func (s *Service) fallback(ctx context.Context, tool string, err error) {
	class := ClassOf(err)
	upstreamFallbacks.WithLabelValues(tool, string(class)).Inc()
	s.log(ctx).Warn("upstream failed, serving placeholder", "tool", tool, "class", string(class), "error", err)
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	if id := logging.RequestID(ctx); id != "" {
		return s.logger.With("request_id", id)
	}
	return s.logger
}
