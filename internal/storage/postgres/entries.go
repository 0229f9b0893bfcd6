package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
)

const entryColumns = `id, number, date, description, status, source_module, source_id, void_reason, posted_at, created_at, updated_at`

func scanEntry(row pgx.Row) (ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	err := row.Scan(&e.ID, &e.Number, &e.Date, &e.Description, &e.Status, &e.SourceModule, &e.SourceID, &e.VoidReason, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.JournalEntry{}, ledger.ErrNotFound
		}
		return ledger.JournalEntry{}, err
	}
	return e, nil
}

func loadLines(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, entryID int64) ([]ledger.JournalEntryLine, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, line_number, account_id, debit::text, credit::text, description
FROM journal_entry_lines WHERE entry_id=$1 ORDER BY line_number`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []ledger.JournalEntryLine
	for rows.Next() {
		var line ledger.JournalEntryLine
		var debit, credit string
		if err := rows.Scan(&line.ID, &line.EntryID, &line.LineNumber, &line.AccountID, &debit, &credit, &line.Description); err != nil {
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

func (r *JournalStore) GetEntry(ctx context.Context, id int64) (ledger.JournalEntry, error) {
	e, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if e.Lines, err = loadLines(ctx, r.pool, id); err != nil {
		return ledger.JournalEntry{}, err
	}
	return e, nil
}

func (r *JournalStore) ListEntries(ctx context.Context, f journals.EntryFilter) ([]ledger.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	var (
		conds []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []ledger.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Lines, err = loadLines(ctx, r.pool, entries[i].ID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *txRepository) AccountsByIDs(ctx context.Context, ids []int64) (map[int64]ledger.Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]ledger.Account, len(ids))
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *txRepository) InsertEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (number, date, description, status, source_module, source_id)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at, updated_at`,
		e.Number, e.Date, e.Description, e.Status, e.SourceModule, e.SourceID)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return ledger.JournalEntry{}, err
	}
	return e, nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (ledger.JournalEntry, error) {
	e, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if e.Lines, err = loadLines(ctx, r.tx, id); err != nil {
		return ledger.JournalEntry{}, err
	}
	return e, nil
}

func (r *txRepository) UpdateEntryHeader(ctx context.Context, e ledger.JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET date=$2, description=$3, updated_at=NOW() WHERE id=$1`,
		e.ID, e.Date, e.Description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *txRepository) ReplaceLines(ctx context.Context, entryID int64, lines []ledger.JournalEntryLine) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id=$1`, entryID); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_entry_lines (entry_id, line_number, account_id, debit, credit, description)
VALUES ($1,$2,$3,$4,$5,$6)`, entryID, line.LineNumber, line.AccountID, line.Debit.String(), line.Credit.String(), line.Description); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteEntry(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// NextEntryNumber bumps the single sequence row. The row stays locked
// until the transaction ends, which is what guarantees a gap-free run of
// numbers: a rolled-back poster releases its number for the next one.
func (r *txRepository) NextEntryNumber(ctx context.Context) (int64, error) {
	var number int64
	err := r.tx.QueryRow(ctx, `UPDATE journal_sequence SET last_number = last_number + 1 WHERE id = TRUE RETURNING last_number`).Scan(&number)
	if err != nil {
		return 0, err
	}
	return number, nil
}

func (r *txRepository) MarkPosted(ctx context.Context, entryID, number int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET number=$2, status=$3, posted_at=$4, updated_at=$4 WHERE id=$1`,
		entryID, number, ledger.EntryStatusPosted, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *txRepository) MarkVoided(ctx context.Context, entryID int64, reason string, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, void_reason=$3, updated_at=$4 WHERE id=$1`,
		entryID, ledger.EntryStatusVoided, reason, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, entry_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ledger.ErrSourceAlreadyLinked
		}
		return err
	}
	return nil
}
