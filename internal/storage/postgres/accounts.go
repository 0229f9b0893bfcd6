package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

const accountColumns = `id, code, name, type, parent_code, is_detail, accepts_entries, active, created_at, updated_at`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var a ledger.Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentCode, &a.IsDetail, &a.AcceptsEntries, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ledger.ErrNotFound
		}
		return ledger.Account{}, err
	}
	return a, nil
}

func (r *AccountStore) GetByCode(ctx context.Context, code string) (ledger.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code=$1`, code))
}

func (r *AccountStore) GetByID(ctx context.Context, id int64) (ledger.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

func (r *AccountStore) List(ctx context.Context) ([]ledger.Account, error) {
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

func (r *AccountStore) Insert(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO accounts (code, name, type, parent_code, is_detail, accepts_entries, active)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at, updated_at`,
		a.Code, a.Name, a.Type, a.ParentCode, a.IsDetail, a.AcceptsEntries, a.Active)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ledger.Account{}, ledger.Validationf("account code %s already exists", a.Code)
		}
		return ledger.Account{}, err
	}
	return a, nil
}

func (r *AccountStore) Update(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	row := r.pool.QueryRow(ctx, `UPDATE accounts SET name=$2, type=$3, parent_code=$4, is_detail=$5, accepts_entries=$6, active=$7, updated_at=NOW()
WHERE id=$1 RETURNING code, created_at, updated_at`,
		a.ID, a.Name, a.Type, a.ParentCode, a.IsDetail, a.AcceptsEntries, a.Active)
	if err := row.Scan(&a.Code, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ledger.ErrNotFound
		}
		return ledger.Account{}, err
	}
	return a, nil
}

func (r *AccountStore) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// HasPostedLines counts lines on entries that ever received a number.
// Voided entries keep their lines as history, so they count too.
func (r *AccountStore) HasPostedLines(ctx context.Context, accountID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1 AND e.number > 0)`, accountID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
