package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates a missing account, entry, or template.
	ErrNotFound = errors.New("ledger: not found")
	// ErrInvalidTransition indicates a status change outside DRAFT → POSTED → VOIDED.
	ErrInvalidTransition = errors.New("ledger: invalid status transition")
	// ErrImmutableEntry indicates an attempted edit of a posted or voided entry.
	ErrImmutableEntry = errors.New("ledger: entry is immutable after posting")
	// ErrSourceAlreadyLinked indicates the originating document already produced an entry.
	ErrSourceAlreadyLinked = errors.New("ledger: source already linked")
)

// ValidationError reports a structural defect in caller input: too few
// lines, a negative amount, or a debit/credit exclusivity violation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "ledger: " + e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// UnbalancedEntryError reports that an entry's debits do not equal its
// credits. Difference is signed debit minus credit.
type UnbalancedEntryError struct {
	Difference decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("ledger: entry does not balance, debit minus credit is %s", e.Difference)
}

// UnbalancedTemplateError reports that a template resolved to an
// unbalanced candidate entry, which is a configuration defect rather than
// a runtime condition. No plug line is ever inserted.
type UnbalancedTemplateError struct {
	TemplateCode string
	Difference   decimal.Decimal
}

func (e *UnbalancedTemplateError) Error() string {
	return fmt.Sprintf("ledger: template %s resolves unbalanced, debit minus credit is %s", e.TemplateCode, e.Difference)
}

// NonPostableAccountError names the line and account that reference a
// group or disabled account.
type NonPostableAccountError struct {
	LineNumber  int
	AccountCode string
}

func (e *NonPostableAccountError) Error() string {
	return fmt.Sprintf("ledger: line %d posts to non-postable account %s", e.LineNumber, e.AccountCode)
}

// UnknownAccountError names an account reference that does not resolve
// against the chart of accounts.
type UnknownAccountError struct {
	AccountCode string
	AccountID   int64
}

func (e *UnknownAccountError) Error() string {
	if e.AccountCode != "" {
		return fmt.Sprintf("ledger: unknown account %s", e.AccountCode)
	}
	return fmt.Sprintf("ledger: unknown account id %d", e.AccountID)
}

// MissingContextFieldError reports a context field a template requires but
// the caller did not supply. Required fields are never defaulted to zero,
// since that would silently unbalance the generated entry.
type MissingContextFieldError struct {
	Field string
}

func (e *MissingContextFieldError) Error() string {
	return fmt.Sprintf("ledger: trigger context is missing required field %s", e.Field)
}
