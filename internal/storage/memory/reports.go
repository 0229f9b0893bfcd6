package memory

import (
	"context"
	"sort"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/reports"
)

func (r *ReportStore) PostedLines(_ context.Context, dr reports.DateRange) ([]reports.PostedLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.postedLines(dr, nil), nil
}

func (r *ReportStore) PostedLinesByAccount(_ context.Context, accountID int64, dr reports.DateRange) ([]reports.PostedLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.postedLines(dr, &accountID), nil
}

func (r *ReportStore) AccountIDsWithMovements(_ context.Context, dr reports.DateRange) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[int64]struct{})
	for _, e := range r.s.entries {
		if e.Status != ledger.EntryStatusPosted || !dr.Contains(e.Date) {
			continue
		}
		for _, line := range e.Lines {
			seen[line.AccountID] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *ReportStore) AccountByID(_ context.Context, id int64) (ledger.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	acc, ok := r.s.accounts[id]
	if !ok {
		return ledger.Account{}, ledger.ErrNotFound
	}
	return acc, nil
}

func (r *ReportStore) Accounts(_ context.Context) ([]ledger.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(r.s.accounts))
	for _, acc := range r.s.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// postedLines collects lines from POSTED entries in the range, ordered by
// date, entry number and line number. Caller holds the read lock.
func (r *ReportStore) postedLines(dr reports.DateRange, accountID *int64) []reports.PostedLine {
	var out []reports.PostedLine
	for _, e := range r.s.entries {
		if e.Status != ledger.EntryStatusPosted || !dr.Contains(e.Date) {
			continue
		}
		for _, line := range e.Lines {
			if accountID != nil && line.AccountID != *accountID {
				continue
			}
			out = append(out, reports.PostedLine{
				EntryID:     e.ID,
				EntryNumber: e.Number,
				Date:        e.Date,
				LineNumber:  line.LineNumber,
				AccountID:   line.AccountID,
				Debit:       line.Debit,
				Credit:      line.Credit,
				Description: line.Description,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].EntryNumber != out[j].EntryNumber {
			return out[i].EntryNumber < out[j].EntryNumber
		}
		return out[i].LineNumber < out[j].LineNumber
	})
	return out
}
