package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// TrialBalanceRow summarises one account's posted totals over a range.
type TrialBalanceRow struct {
	AccountID     int64
	Code          string
	Name          string
	Type          ledger.AccountType
	TotalDebit    decimal.Decimal
	TotalCredit   decimal.Decimal
	EndingBalance decimal.Decimal
}

// TrialBalance holds per-account totals plus the global sums. For any
// date range TotalDebit equals TotalCredit; that is the double-entry
// invariant, independent of the per-account sign rule.
type TrialBalance struct {
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// BuildTrialBalance converts account activity into trial balance rows
// ordered by account code.
func BuildTrialBalance(activity []AccountActivity) TrialBalance {
	tb := TrialBalance{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, act := range activity {
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID:     act.Account.ID,
			Code:          act.Account.Code,
			Name:          act.Account.Name,
			Type:          act.Account.Type,
			TotalDebit:    act.Debit,
			TotalCredit:   act.Credit,
			EndingBalance: act.Balance(),
		})
		tb.TotalDebit = tb.TotalDebit.Add(act.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(act.Credit)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	return tb
}
