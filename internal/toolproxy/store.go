package toolproxy

import (
	"context"
	"errors"
	"time"

	"github.com/mbd888/fraudgate/internal/pagination"
)

var ErrStoreUnavailable = errors.New("review queue unavailable")

// FlagStatus is the review state of a flagged transaction.
type FlagStatus string

const (
	FlagPending FlagStatus = "pending"
)

const (
	DefaultFlaggedLimit = 50
	MaxFlaggedLimit     = 200
)

// FlaggedTransaction is an entry in the review queue.
type FlaggedTransaction struct {
	ID        string     `json:"id"`
	TxnID     string     `json:"txn_id"`
	Reason    string     `json:"reason"`
	Status    FlagStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store persists flagged transactions for human review.
type Store interface {
	Record(ctx context.Context, f *FlaggedTransaction) error
	// List returns up to limit entries newest first, starting after the
	// cursor when one is given.
	List(ctx context.Context, limit int, after *pagination.Cursor) ([]*FlaggedTransaction, error)
	Ping(ctx context.Context) error
}
