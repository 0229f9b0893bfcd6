package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// DateRange bounds a report query. Nil endpoints are open; To is
// inclusive.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether a date falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if r.To != nil && d.After(*r.To) {
		return false
	}
	return true
}

// PostedLine is one posted, non-voided journal line joined with its entry
// header. Repositories return them ordered by (date, entry number, line
// number), which makes every read a pure function of posted state.
type PostedLine struct {
	EntryID     int64
	EntryNumber int64
	Date        time.Time
	LineNumber  int
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Repository reads committed posted state. Voided entries and drafts are
// never visible through it.
type Repository interface {
	PostedLines(ctx context.Context, r DateRange) ([]PostedLine, error)
	PostedLinesByAccount(ctx context.Context, accountID int64, r DateRange) ([]PostedLine, error)
	// AccountIDsWithMovements groups posted lines by account; it never
	// scans the full chart of accounts.
	AccountIDsWithMovements(ctx context.Context, r DateRange) ([]int64, error)
	AccountByID(ctx context.Context, id int64) (ledger.Account, error)
	Accounts(ctx context.Context) ([]ledger.Account, error)
}
