package postgres

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/reports"
)

const postedLineQuery = `SELECT e.id, e.number, e.date, l.line_number, l.account_id, l.debit::text, l.credit::text, l.description
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status = 'POSTED'`

func rangeClause(dr reports.DateRange, args *[]any) string {
	clause := ""
	if dr.From != nil {
		*args = append(*args, *dr.From)
		clause += fmt.Sprintf(" AND e.date >= $%d", len(*args))
	}
	if dr.To != nil {
		*args = append(*args, *dr.To)
		clause += fmt.Sprintf(" AND e.date <= $%d", len(*args))
	}
	return clause
}

func (r *ReportStore) PostedLines(ctx context.Context, dr reports.DateRange) ([]reports.PostedLine, error) {
	var args []any
	query := postedLineQuery + rangeClause(dr, &args) + ` ORDER BY e.date, e.number, l.line_number`
	return r.queryPostedLines(ctx, query, args)
}

func (r *ReportStore) PostedLinesByAccount(ctx context.Context, accountID int64, dr reports.DateRange) ([]reports.PostedLine, error) {
	args := []any{accountID}
	query := postedLineQuery + ` AND l.account_id = $1` + rangeClause(dr, &args) + ` ORDER BY e.date, e.number, l.line_number`
	return r.queryPostedLines(ctx, query, args)
}

func (r *ReportStore) AccountIDsWithMovements(ctx context.Context, dr reports.DateRange) ([]int64, error) {
	var args []any
	query := `SELECT DISTINCT l.account_id
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status = 'POSTED'` + rangeClause(dr, &args) + ` ORDER BY l.account_id`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ReportStore) AccountByID(ctx context.Context, id int64) (ledger.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

func (r *ReportStore) Accounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *ReportStore) queryPostedLines(ctx context.Context, query string, args []any) ([]reports.PostedLine, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []reports.PostedLine
	for rows.Next() {
		var line reports.PostedLine
		var debit, credit string
		if err := rows.Scan(&line.EntryID, &line.EntryNumber, &line.Date, &line.LineNumber, &line.AccountID, &debit, &credit, &line.Description); err != nil {
			return nil, err
		}
		if line.Debit, err = scanDecimal(debit); err != nil {
			return nil, err
		}
		if line.Credit, err = scanDecimal(credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
