package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// Mode selects the status a new entry is created in.
type Mode string

const (
	ModeDraft  Mode = "DRAFT"
	ModePosted Mode = "POSTED"
)

// LineInput describes one journal line for a create or update request.
type LineInput struct {
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// CreateInput groups the fields required to create a journal entry.
// SourceModule and SourceID are optional and link the entry back to the
// originating business document.
type CreateInput struct {
	Date         time.Time
	Description  string
	SourceModule string
	SourceID     uuid.UUID
	Lines        []LineInput
}

// Validate checks the structural invariants that hold for drafts and
// posted entries alike. Balance is checked separately because drafts may
// be unbalanced.
func (in CreateInput) Validate() error {
	if in.Date.IsZero() {
		return ledger.Validationf("entry date required")
	}
	return validateLines(in.Lines)
}

func validateLines(lines []LineInput) error {
	if len(lines) < 2 {
		return ledger.Validationf("entry requires at least two lines, got %d", len(lines))
	}
	for idx, line := range lines {
		n := idx + 1
		if line.AccountID == 0 {
			return ledger.Validationf("line %d: account required", n)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return ledger.Validationf("line %d: negative amount", n)
		}
		if line.Debit.IsPositive() == line.Credit.IsPositive() {
			return ledger.Validationf("line %d: exactly one of debit and credit must be positive", n)
		}
	}
	return nil
}

// balance sums debits and credits across lines.
func balance(lines []LineInput) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// checkBalanced enforces the debits-equal-credits invariant exactly.
func checkBalanced(lines []LineInput) error {
	debit, credit := balance(lines)
	if !debit.Equal(credit) {
		return &ledger.UnbalancedEntryError{Difference: debit.Sub(credit)}
	}
	return nil
}

// UpdateInput patches a draft entry. Nil fields keep the stored value;
// a non-nil Lines slice replaces the lines wholesale.
type UpdateInput struct {
	Date        *time.Time
	Description *string
	Lines       []LineInput
}

// EntryFilter narrows List results.
type EntryFilter struct {
	Status *ledger.EntryStatus
	From   *time.Time
	To     *time.Time
}
