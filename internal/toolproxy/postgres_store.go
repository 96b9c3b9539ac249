package toolproxy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/mbd888/fraudgate/internal/pagination"
	"github.com/mbd888/fraudgate/migrations"
)

// PostgresStore persists the review queue in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed review queue.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the embedded goose migrations.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, p.db, migrations.FS)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (p *PostgresStore) Record(ctx context.Context, f *FlaggedTransaction) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO flagged_transactions (id, txn_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.TxnID, f.Reason, string(f.Status), f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, limit int, after *pagination.Cursor) ([]*FlaggedTransaction, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if after == nil {
		rows, err = p.db.QueryContext(ctx, `
			SELECT id, txn_id, reason, status, created_at
			FROM flagged_transactions
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `
			SELECT id, txn_id, reason, status, created_at
			FROM flagged_transactions
			WHERE (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit, after.CreatedAt, after.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*FlaggedTransaction
	for rows.Next() {
		f := &FlaggedTransaction{}
		var status string
		if err := rows.Scan(&f.ID, &f.TxnID, &f.Reason, &status, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Status = FlagStatus(status)
		f.CreatedAt = f.CreatedAt.UTC()
		result = append(result, f)
	}
	return result, rows.Err()
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

var _ Store = (*PostgresStore)(nil)
