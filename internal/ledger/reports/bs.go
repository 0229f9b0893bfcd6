package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// BalanceSheet is the structured balance sheet at a cutoff date.
// PeriodResult is the net income or loss not yet closed to equity, folded
// into the right-hand side so the accounting equation holds:
// TotalAssets == Liabilities.Total + Equity.Total + PeriodResult.
type BalanceSheet struct {
	Assets                    Section
	Liabilities               Section
	Equity                    Section
	PeriodResult              decimal.Decimal
	TotalAssets               decimal.Decimal
	TotalLiabilitiesAndEquity decimal.Decimal
}

// BuildBalanceSheet aggregates inception-to-cutoff activity into asset,
// liability and equity sections. Income and expense activity contributes
// the period result.
func BuildBalanceSheet(activity []AccountActivity) BalanceSheet {
	bs := BalanceSheet{
		Assets:       Section{Label: "Assets"},
		Liabilities:  Section{Label: "Liabilities"},
		Equity:       Section{Label: "Equity"},
		PeriodResult: decimal.Zero,
	}
	for _, act := range activity {
		balance := act.Balance()
		switch act.Account.Type {
		case ledger.AccountTypeAsset:
			bs.Assets.add(act, balance)
		case ledger.AccountTypeLiability:
			bs.Liabilities.add(act, balance)
		case ledger.AccountTypeEquity:
			bs.Equity.add(act, balance)
		case ledger.AccountTypeIncome:
			bs.PeriodResult = bs.PeriodResult.Add(balance)
		case ledger.AccountTypeExpense:
			bs.PeriodResult = bs.PeriodResult.Sub(balance)
		}
	}
	for _, section := range []*Section{&bs.Assets, &bs.Liabilities, &bs.Equity} {
		sort.Slice(section.Lines, func(i, j int) bool { return section.Lines[i].Code < section.Lines[j].Code })
	}
	bs.TotalAssets = bs.Assets.Total
	bs.TotalLiabilitiesAndEquity = bs.Liabilities.Total.Add(bs.Equity.Total).Add(bs.PeriodResult)
	return bs
}
