package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Service derives account movement histories and financial statements
// from posted entries. It is a pure read-side composition: it performs no
// writes and holds no state beyond the repository handle, so re-invoking
// any method with the same arguments reproduces the identical result.
type Service struct {
	repo Repository
}

// NewService constructs the reporting service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Movement is one posted line on an account with the running balance
// after applying it.
type Movement struct {
	PostedLine
	RunningBalance decimal.Decimal
}

// AccountMovements returns the ordered movement history of one account
// within a range, with a running balance per the account type's normal
// balance side.
func (s *Service) AccountMovements(ctx context.Context, accountID int64, r DateRange) ([]Movement, error) {
	acc, err := s.repo.AccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.PostedLinesByAccount(ctx, accountID, r)
	if err != nil {
		return nil, err
	}
	debitNormal := acc.Type.NormalSideDebit()
	running := decimal.Zero
	out := make([]Movement, 0, len(lines))
	for _, line := range lines {
		if debitNormal {
			running = running.Add(line.Debit).Sub(line.Credit)
		} else {
			running = running.Add(line.Credit).Sub(line.Debit)
		}
		out = append(out, Movement{PostedLine: line, RunningBalance: running})
	}
	return out, nil
}

// AccountsWithMovements returns the ids of accounts that have posted
// lines within the range, sorted ascending.
func (s *Service) AccountsWithMovements(ctx context.Context, r DateRange) ([]int64, error) {
	ids, err := s.repo.AccountIDsWithMovements(ctx, r)
	if err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// TrialBalance sums posted activity per account over the range.
func (s *Service) TrialBalance(ctx context.Context, r DateRange) (TrialBalance, error) {
	activity, err := s.activity(ctx, r)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(activity), nil
}

// BalanceSheet reports balances at a cutoff date over the
// inception-to-date range.
func (s *Service) BalanceSheet(ctx context.Context, cutoff time.Time) (BalanceSheet, error) {
	activity, err := s.activity(ctx, DateRange{To: &cutoff})
	if err != nil {
		return BalanceSheet{}, err
	}
	return BuildBalanceSheet(activity), nil
}

// IncomeStatement sums income and expense balances over the range.
func (s *Service) IncomeStatement(ctx context.Context, r DateRange) (IncomeStatement, error) {
	activity, err := s.activity(ctx, r)
	if err != nil {
		return IncomeStatement{}, err
	}
	return BuildIncomeStatement(activity), nil
}

// activity groups posted lines in range by account. Only accounts with
// movements appear; empty accounts are never reported.
func (s *Service) activity(ctx context.Context, r DateRange) ([]AccountActivity, error) {
	lines, err := s.repo.PostedLines(ctx, r)
	if err != nil {
		return nil, err
	}
	byAccount := make(map[int64]*AccountActivity)
	order := make([]int64, 0)
	for _, line := range lines {
		act, ok := byAccount[line.AccountID]
		if !ok {
			acc, err := s.repo.AccountByID(ctx, line.AccountID)
			if err != nil {
				return nil, err
			}
			act = &AccountActivity{Account: acc, Debit: decimal.Zero, Credit: decimal.Zero}
			byAccount[line.AccountID] = act
			order = append(order, line.AccountID)
		}
		act.Debit = act.Debit.Add(line.Debit)
		act.Credit = act.Credit.Add(line.Credit)
	}
	out := make([]AccountActivity, 0, len(byAccount))
	for _, id := range order {
		out = append(out, *byAccount[id])
	}
	return out, nil
}
