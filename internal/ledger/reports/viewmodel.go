package reports

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// AccountActivity aggregates posted movement totals for one account.
type AccountActivity struct {
	Account ledger.Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Balance applies the normal-balance sign rule: asset and expense
// balances grow with debits, liability, equity and income balances grow
// with credits. One formula serves every statement builder.
func (a AccountActivity) Balance() decimal.Decimal {
	if a.Account.Type.NormalSideDebit() {
		return a.Debit.Sub(a.Credit)
	}
	return a.Credit.Sub(a.Debit)
}

// StatementLine is one account row inside a statement section.
type StatementLine struct {
	AccountID int64
	Code      string
	Name      string
	Level     int
	Balance   decimal.Decimal
}

// Section groups statement lines under a label with their total.
type Section struct {
	Label string
	Lines []StatementLine
	Total decimal.Decimal
}

func (s *Section) add(activity AccountActivity, balance decimal.Decimal) {
	s.Lines = append(s.Lines, StatementLine{
		AccountID: activity.Account.ID,
		Code:      activity.Account.Code,
		Name:      activity.Account.Name,
		Level:     activity.Account.Level(),
		Balance:   balance,
	})
	s.Total = s.Total.Add(balance)
}
