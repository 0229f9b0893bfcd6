package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/accounts"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/reports"
	"github.com/odyssey-erp/ledger-engine/internal/storage/memory"
)

type fixture struct {
	journals *journals.Service
	reports  *reports.Service

	cash     int64
	ar       int64
	loan     int64
	capital  int64
	revenue  int64
	expenses int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	accountsService := accounts.NewService(store.Accounts())
	f := &fixture{
		journals: journals.NewService(store.Journals()),
		reports:  reports.NewService(store.Reports()),
	}
	ctx := context.Background()
	ids := map[string]*int64{
		"1.1": &f.cash, "1.2": &f.ar, "2.1": &f.loan,
		"3.1": &f.capital, "4.1": &f.revenue, "5.1": &f.expenses,
	}
	for _, a := range []struct {
		code string
		name string
		typ  ledger.AccountType
	}{
		{"1.1", "Cash", ledger.AccountTypeAsset},
		{"1.2", "Accounts Receivable", ledger.AccountTypeAsset},
		{"2.1", "Loans Payable", ledger.AccountTypeLiability},
		{"3.1", "Share Capital", ledger.AccountTypeEquity},
		{"4.1", "Sales Revenue", ledger.AccountTypeIncome},
		{"5.1", "General Expenses", ledger.AccountTypeExpense},
	} {
		acc, err := accountsService.Create(ctx, accounts.CreateInput{
			Code: a.code, Name: a.name, Type: a.typ,
			IsDetail: true, AcceptsEntries: true,
		})
		require.NoError(t, err)
		*ids[a.code] = acc.ID
	}
	return f
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f *fixture) post(t *testing.T, date time.Time, desc string, lines ...journals.LineInput) ledger.JournalEntry {
	t.Helper()
	entry, err := f.journals.Create(context.Background(), journals.CreateInput{
		Date:        date,
		Description: desc,
		Lines:       lines,
	}, journals.ModePosted)
	require.NoError(t, err)
	return entry
}

// seedActivity books capital injection, a loan, a sale on credit and a
// cash expense.
func (f *fixture) seedActivity(t *testing.T) {
	t.Helper()
	f.post(t, day(1), "capital injection",
		journals.LineInput{AccountID: f.cash, Debit: dec(1000)},
		journals.LineInput{AccountID: f.capital, Credit: dec(1000)},
	)
	f.post(t, day(2), "bank loan",
		journals.LineInput{AccountID: f.cash, Debit: dec(500)},
		journals.LineInput{AccountID: f.loan, Credit: dec(500)},
	)
	f.post(t, day(3), "sale on credit",
		journals.LineInput{AccountID: f.ar, Debit: dec(300)},
		journals.LineInput{AccountID: f.revenue, Credit: dec(300)},
	)
	f.post(t, day(4), "office supplies",
		journals.LineInput{AccountID: f.expenses, Debit: dec(120)},
		journals.LineInput{AccountID: f.cash, Credit: dec(120)},
	)
}

func TestTrialBalanceAlwaysBalances(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)

	tb, err := f.reports.TrialBalance(context.Background(), reports.DateRange{})
	require.NoError(t, err)
	require.True(t, tb.TotalDebit.Equal(tb.TotalCredit))
	require.True(t, tb.TotalDebit.Equal(dec(1920)))
	require.Len(t, tb.Rows, 6)

	// Rows come back ordered by code.
	require.Equal(t, "1.1", tb.Rows[0].Code)
	require.True(t, tb.Rows[0].EndingBalance.Equal(dec(1380)), "cash: 1000+500-120")
}

func TestTrialBalanceOmitsAccountsWithoutMovements(t *testing.T) {
	f := newFixture(t)
	f.post(t, day(1), "capital injection",
		journals.LineInput{AccountID: f.cash, Debit: dec(1000)},
		journals.LineInput{AccountID: f.capital, Credit: dec(1000)},
	)

	tb, err := f.reports.TrialBalance(context.Background(), reports.DateRange{})
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2)
}

func TestTrialBalanceRespectsDateRange(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)

	from, to := day(3), day(4)
	tb, err := f.reports.TrialBalance(context.Background(), reports.DateRange{From: &from, To: &to})
	require.NoError(t, err)
	require.True(t, tb.TotalDebit.Equal(dec(420)))
	require.True(t, tb.TotalDebit.Equal(tb.TotalCredit))
}

func TestVoidedEntriesVanishWithoutReversal(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)
	ctx := context.Background()

	extra := f.post(t, day(5), "duplicate sale",
		journals.LineInput{AccountID: f.ar, Debit: dec(300)},
		journals.LineInput{AccountID: f.revenue, Credit: dec(300)},
	)
	_, err := f.journals.Void(ctx, extra.ID, "double capture")
	require.NoError(t, err)

	tb, err := f.reports.TrialBalance(ctx, reports.DateRange{})
	require.NoError(t, err)
	require.True(t, tb.TotalDebit.Equal(dec(1920)), "voided entry must not contribute")

	// No reversal entry appears anywhere either.
	entries, err := f.journals.List(ctx, journals.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 5)
}

func TestBalanceSheetEquationHolds(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)

	bs, err := f.reports.BalanceSheet(context.Background(), day(30))
	require.NoError(t, err)

	require.True(t, bs.TotalAssets.Equal(dec(1680)), "cash 1380 + receivable 300")
	require.True(t, bs.Liabilities.Total.Equal(dec(500)))
	require.True(t, bs.Equity.Total.Equal(dec(1000)))
	require.True(t, bs.PeriodResult.Equal(dec(180)), "revenue 300 - expenses 120")
	require.True(t, bs.TotalAssets.Equal(bs.TotalLiabilitiesAndEquity))
}

func TestBalanceSheetUsesInceptionToCutoff(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)

	bs, err := f.reports.BalanceSheet(context.Background(), day(2))
	require.NoError(t, err)
	require.True(t, bs.TotalAssets.Equal(dec(1500)))
	require.True(t, bs.PeriodResult.IsZero())
	require.True(t, bs.TotalAssets.Equal(bs.TotalLiabilitiesAndEquity))
}

func TestIncomeStatement(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)

	is, err := f.reports.IncomeStatement(context.Background(), reports.DateRange{})
	require.NoError(t, err)
	require.True(t, is.Totals.Income.Equal(dec(300)))
	require.True(t, is.Totals.Expense.Equal(dec(120)))
	require.True(t, is.Totals.Result.Equal(dec(180)))
	require.Len(t, is.Income.Lines, 1)
	require.Len(t, is.Expense.Lines, 1)
}

func TestAccountMovementsRunningBalance(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)

	movements, err := f.reports.AccountMovements(context.Background(), f.cash, reports.DateRange{})
	require.NoError(t, err)
	require.Len(t, movements, 3)
	require.True(t, movements[0].RunningBalance.Equal(dec(1000)))
	require.True(t, movements[1].RunningBalance.Equal(dec(1500)))
	require.True(t, movements[2].RunningBalance.Equal(dec(1380)))

	// Movements are ordered by date then entry number then line number.
	for i := 1; i < len(movements); i++ {
		require.False(t, movements[i].Date.Before(movements[i-1].Date))
	}
}

func TestCreditNormalRunningBalance(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)

	movements, err := f.reports.AccountMovements(context.Background(), f.loan, reports.DateRange{})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.True(t, movements[0].RunningBalance.Equal(dec(500)), "liability balance grows with credits")
}

func TestAccountsWithMovements(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)

	ids, err := f.reports.AccountsWithMovements(context.Background(), reports.DateRange{})
	require.NoError(t, err)
	require.Len(t, ids, 6)
	for i := 1; i < len(ids); i++ {
		require.Less(t, ids[i-1], ids[i])
	}

	from := day(4)
	ids, err = f.reports.AccountsWithMovements(context.Background(), reports.DateRange{From: &from})
	require.NoError(t, err)
	require.Len(t, ids, 2)
}

func TestReportsAreReproducible(t *testing.T) {
	f := newFixture(t)
	f.seedActivity(t)
	ctx := context.Background()

	first, err := f.reports.TrialBalance(ctx, reports.DateRange{})
	require.NoError(t, err)
	second, err := f.reports.TrialBalance(ctx, reports.DateRange{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}
