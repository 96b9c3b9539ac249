package scoring

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mbd888/fraudgate/internal/logging"
	"github.com/mbd888/fraudgate/internal/traces"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=context.go -destination=mocks/mocks.go -package=mocks Tools

// ContextFetchLimit is how many recent transactions are requested per score.
const ContextFetchLimit = 50

// Tools is the tool proxy as seen by the gateway.
type Tools interface {
	GetUserProfile(ctx context.Context, userID string) (UserProfile, error)
	GetTransactions(ctx context.Context, userID string, limit int) (TransactionList, error)
	FlagTransaction(ctx context.Context, txnID, reason string) error
}

// UserContext is the best-effort context a decision is made with.
type UserContext struct {
	Profile  UserProfile
	Items    []json.RawMessage
	HasError bool
}

// FetchContext loads profile and recent transactions concurrently. It never
// fails: a failed fetch degrades to empty context and sets HasError.
func FetchContext(ctx context.Context, tools Tools, userID string, timeout time.Duration) UserContext {
	ctx, span := traces.StartSpan(ctx, "scoring.fetch_context", traces.UserID(userID))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		profile    UserProfile
		txns       TransactionList
		profileErr error
		txnErr     error
	)

	// Each fetch records its own error so one failure does not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		profile, profileErr = tools.GetUserProfile(ctx, userID)
		return nil
	})
	g.Go(func() error {
		txns, txnErr = tools.GetTransactions(ctx, userID, ContextFetchLimit)
		return nil
	})
	_ = g.Wait()

	uc := UserContext{Profile: UserProfile{}, Items: []json.RawMessage{}}
	logger := logging.L(ctx)

	if profileErr != nil {
		logger.Warn("user profile fetch failed", "user_id", userID, "error", profileErr)
		traces.RecordError(span, profileErr)
		uc.HasError = true
	} else if profile != nil {
		uc.Profile = profile
		if profile.HasError() {
			uc.HasError = true
		}
	}

	if txnErr != nil {
		logger.Warn("transaction fetch failed", "user_id", userID, "error", txnErr)
		traces.RecordError(span, txnErr)
		uc.HasError = true
	} else if txns.Items != nil {
		uc.Items = txns.Items
	}

	return uc
}
