package journals

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// Repository encapsulates storage for journal entries. Writes happen
// inside WithTx so validation, line insertion, and entry numbering commit
// or roll back as one unit.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntry(ctx context.Context, id int64) (ledger.JournalEntry, error)
	ListEntries(ctx context.Context, f EntryFilter) ([]ledger.JournalEntry, error)
}

// TxRepository exposes the operations available within a transaction.
type TxRepository interface {
	AccountsByIDs(ctx context.Context, ids []int64) (map[int64]ledger.Account, error)
	InsertEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error)
	GetEntryForUpdate(ctx context.Context, id int64) (ledger.JournalEntry, error)
	UpdateEntryHeader(ctx context.Context, e ledger.JournalEntry) error
	ReplaceLines(ctx context.Context, entryID int64, lines []ledger.JournalEntryLine) error
	DeleteEntry(ctx context.Context, id int64) error

	// NextEntryNumber atomically increments the monotonic entry counter.
	// The increment is scoped to the surrounding transaction, so posted
	// entries observe a strictly increasing, duplicate-free sequence even
	// under concurrent posting.
	NextEntryNumber(ctx context.Context) (int64, error)
	MarkPosted(ctx context.Context, entryID, number int64, at time.Time) error
	MarkVoided(ctx context.Context, entryID int64, reason string, at time.Time) error

	// LinkSource records the originating document reference. A duplicate
	// link surfaces as ledger.ErrSourceAlreadyLinked.
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error
}
