package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether the value is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// NormalSideDebit reports whether balances of this type grow with debits.
// Asset and expense accounts carry a debit normal balance; liability,
// equity and income accounts carry a credit normal balance.
func (t AccountType) NormalSideDebit() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// EntryStatus enumerates journal entry lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
	EntryStatusVoided EntryStatus = "VOIDED"
)

// Side marks a template line as debit or credit.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// AmountType selects how a template line resolves its amount against a
// trigger context.
type AmountType string

const (
	AmountTotal      AmountType = "TOTAL"
	AmountSubtotal   AmountType = "SUBTOTAL"
	AmountTax        AmountType = "TAX"
	AmountRetention  AmountType = "RETENTION"
	AmountNetPayment AmountType = "NET_PAYMENT"
	AmountPrincipal  AmountType = "PRINCIPAL"
	AmountInterest   AmountType = "INTEREST"
	AmountPercentage AmountType = "PERCENTAGE"
	AmountFixed      AmountType = "FIXED"
)

// Valid reports whether the value is a known amount type.
func (t AmountType) Valid() bool {
	switch t {
	case AmountTotal, AmountSubtotal, AmountTax, AmountRetention, AmountNetPayment,
		AmountPrincipal, AmountInterest, AmountPercentage, AmountFixed:
		return true
	}
	return false
}

// TriggerType enumerates the business events that templates respond to.
type TriggerType string

const (
	TriggerSaleInvoice      TriggerType = "SALE_INVOICE"
	TriggerPurchaseInvoice  TriggerType = "PURCHASE_INVOICE"
	TriggerCustomerPayment  TriggerType = "CUSTOMER_PAYMENT"
	TriggerSupplierPayment  TriggerType = "SUPPLIER_PAYMENT"
	TriggerSalaryPayment    TriggerType = "SALARY_PAYMENT"
	TriggerLoanDisbursement TriggerType = "LOAN_DISBURSEMENT"
	TriggerLoanPayment      TriggerType = "LOAN_PAYMENT"
	TriggerExpense          TriggerType = "EXPENSE"
)

// Valid reports whether the value is a known trigger type.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerSaleInvoice, TriggerPurchaseInvoice, TriggerCustomerPayment,
		TriggerSupplierPayment, TriggerSalaryPayment, TriggerLoanDisbursement,
		TriggerLoanPayment, TriggerExpense:
		return true
	}
	return false
}

// Account models a chart of accounts node. Codes are dotted hierarchical
// strings ("1.1.03"); the parent reference forms a tree.
type Account struct {
	ID             int64
	Code           string
	Name           string
	Type           AccountType
	ParentCode     *string
	IsDetail       bool
	AcceptsEntries bool
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Level is the dot-segment count of the account's code.
func (a Account) Level() int {
	return Level(a.Code)
}

// Postable reports whether journal lines may post directly to the account.
// Group accounts aggregate only; disabled accounts reject new lines.
func (a Account) Postable() bool {
	return a.IsDetail && a.AcceptsEntries && a.Active
}

// Level returns the hierarchy depth implied by a dotted account code.
// It is a pure function of the code and never stored.
func Level(code string) int {
	if code == "" {
		return 0
	}
	return strings.Count(code, ".") + 1
}

// JournalEntry captures a balanced set of debit/credit lines recording one
// accounting event. Number is zero until the entry is posted.
type JournalEntry struct {
	ID           int64
	Number       int64
	Date         time.Time
	Description  string
	Status       EntryStatus
	SourceModule string
	SourceID     uuid.UUID
	VoidReason   string
	PostedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalEntryLine
}

// JournalEntryLine stores a debit or credit amount for one account.
// Exactly one of Debit and Credit is positive, the other is zero.
type JournalEntryLine struct {
	ID          int64
	EntryID     int64
	LineNumber  int
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Template maps a business event to a parametrised set of journal lines.
type Template struct {
	ID        int64
	Code      string
	Name      string
	Trigger   TriggerType
	Active    bool
	Lines     []TemplateLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateLine describes one prospective journal line. AccountCode is
// resolved against the CoA at generation time, not at authoring time, so
// templates tolerate CoA changes.
type TemplateLine struct {
	LineNumber  int
	AccountCode string
	Side        Side
	AmountType  AmountType
	FixedAmount *decimal.Decimal
	Percentage  *decimal.Decimal
	Description string
}

// TriggerContext is the named bag of decimal amounts supplied by the
// originating document. Nil fields are absent, which is distinct from zero.
type TriggerContext struct {
	Total          *decimal.Decimal
	Subtotal       *decimal.Decimal
	Tax            *decimal.Decimal
	Retention      *decimal.Decimal
	NetPayment     *decimal.Decimal
	Principal      *decimal.Decimal
	Interest       *decimal.Decimal
	PercentageBase *decimal.Decimal
}

// Field returns the context amount backing an amount type and whether the
// caller supplied it. PERCENTAGE and FIXED do not map to context fields.
func (c TriggerContext) Field(t AmountType) (decimal.Decimal, bool) {
	var v *decimal.Decimal
	switch t {
	case AmountTotal:
		v = c.Total
	case AmountSubtotal:
		v = c.Subtotal
	case AmountTax:
		v = c.Tax
	case AmountRetention:
		v = c.Retention
	case AmountNetPayment:
		v = c.NetPayment
	case AmountPrincipal:
		v = c.Principal
	case AmountInterest:
		v = c.Interest
	default:
		return decimal.Zero, false
	}
	if v == nil {
		return decimal.Zero, false
	}
	return *v, true
}
