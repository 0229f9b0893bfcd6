// Package postgres persists the engine in PostgreSQL via pgx. Amounts
// travel as text and are parsed into decimals on scan so NUMERIC columns
// never pass through floating point.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
	"github.com/odyssey-erp/ledger-engine/internal/platform/db"
)

// Store wraps a connection pool and exposes one repository view per
// engine concern.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store over an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Accounts returns the chart-of-accounts repository view.
func (s *Store) Accounts() *AccountStore { return &AccountStore{pool: s.pool} }

// Journals returns the journal-entry repository view.
func (s *Store) Journals() *JournalStore { return &JournalStore{pool: s.pool} }

// Templates returns the template repository view.
func (s *Store) Templates() *TemplateStore { return &TemplateStore{pool: s.pool} }

// Reports returns the read-only reporting view.
func (s *Store) Reports() *ReportStore { return &ReportStore{pool: s.pool} }

// AccountStore implements the chart-of-accounts repository.
type AccountStore struct {
	pool *pgxpool.Pool
}

// JournalStore implements the journal-entry repository.
type JournalStore struct {
	pool *pgxpool.Pool
}

// TemplateStore implements the template repository.
type TemplateStore struct {
	pool *pgxpool.Pool
}

// ReportStore implements the reporting repository.
type ReportStore struct {
	pool *pgxpool.Pool
}

// WithTx runs fn inside a database transaction. The sequence-row update
// in NextEntryNumber serialises concurrent posters for the duration of
// their transactions.
func (r *JournalStore) WithTx(ctx context.Context, fn func(context.Context, journals.TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// txRepository exposes the transactional journal operations.
type txRepository struct {
	tx pgx.Tx
}

func scanDecimal(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("storage/postgres: parse numeric %q: %w", raw, err)
	}
	return d, nil
}
