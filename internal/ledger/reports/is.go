package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// IncomeStatementTotals carries the statement sums and the net result.
type IncomeStatementTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Result  decimal.Decimal
}

// IncomeStatement groups income and expense balances over a date range.
type IncomeStatement struct {
	Income  Section
	Expense Section
	Totals  IncomeStatementTotals
}

// BuildIncomeStatement aggregates activity into income and expense
// sections; Result is income minus expense.
func BuildIncomeStatement(activity []AccountActivity) IncomeStatement {
	is := IncomeStatement{
		Income:  Section{Label: "Income"},
		Expense: Section{Label: "Expense"},
	}
	for _, act := range activity {
		switch act.Account.Type {
		case ledger.AccountTypeIncome:
			is.Income.add(act, act.Balance())
		case ledger.AccountTypeExpense:
			is.Expense.add(act, act.Balance())
		}
	}
	for _, section := range []*Section{&is.Income, &is.Expense} {
		sort.Slice(section.Lines, func(i, j int) bool { return section.Lines[i].Code < section.Lines[j].Code })
	}
	is.Totals = IncomeStatementTotals{
		Income:  is.Income.Total,
		Expense: is.Expense.Total,
		Result:  is.Income.Total.Sub(is.Expense.Total),
	}
	return is
}
