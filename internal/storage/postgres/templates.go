package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/platform/db"
)

func (r *TemplateStore) GetByCode(ctx context.Context, code string) (ledger.Template, error) {
	t, err := r.getTemplate(ctx, `SELECT id, code, name, trigger, active, created_at, updated_at FROM templates WHERE code=$1`, code)
	if err != nil {
		return ledger.Template{}, err
	}
	return t, nil
}

func (r *TemplateStore) FindActiveByTrigger(ctx context.Context, trigger ledger.TriggerType) ([]ledger.Template, error) {
	return r.listTemplates(ctx, `SELECT id, code, name, trigger, active, created_at, updated_at
FROM templates WHERE trigger=$1 AND active ORDER BY code`, trigger)
}

func (r *TemplateStore) List(ctx context.Context) ([]ledger.Template, error) {
	return r.listTemplates(ctx, `SELECT id, code, name, trigger, active, created_at, updated_at FROM templates ORDER BY code`)
}

// Upsert stores the template header and replaces its lines wholesale
// inside one transaction.
func (r *TemplateStore) Upsert(ctx context.Context, t ledger.Template) (ledger.Template, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO templates (code, name, trigger, active)
VALUES ($1,$2,$3,$4)
ON CONFLICT (code) DO UPDATE SET name=EXCLUDED.name, trigger=EXCLUDED.trigger, active=EXCLUDED.active, updated_at=NOW()
RETURNING id, created_at, updated_at`, t.Code, t.Name, t.Trigger, t.Active)
		if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM template_lines WHERE template_id=$1`, t.ID); err != nil {
			return err
		}
		for _, line := range t.Lines {
			if _, err := tx.Exec(ctx, `INSERT INTO template_lines (template_id, line_number, account_code, side, amount_type, fixed_amount, percentage, description)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				t.ID, line.LineNumber, line.AccountCode, line.Side, line.AmountType,
				decimalParam(line.FixedAmount), decimalParam(line.Percentage), line.Description); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ledger.Template{}, err
	}
	return t, nil
}

func (r *TemplateStore) getTemplate(ctx context.Context, query string, args ...any) (ledger.Template, error) {
	var t ledger.Template
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&t.ID, &t.Code, &t.Name, &t.Trigger, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Template{}, ledger.ErrNotFound
		}
		return ledger.Template{}, err
	}
	if t.Lines, err = r.loadTemplateLines(ctx, t.ID); err != nil {
		return ledger.Template{}, err
	}
	return t, nil
}

func (r *TemplateStore) listTemplates(ctx context.Context, query string, args ...any) ([]ledger.Template, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var templates []ledger.Template
	for rows.Next() {
		var t ledger.Template
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Trigger, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].Lines, err = r.loadTemplateLines(ctx, templates[i].ID); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (r *TemplateStore) loadTemplateLines(ctx context.Context, templateID int64) ([]ledger.TemplateLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT line_number, account_code, side, amount_type, fixed_amount::text, percentage::text, description
FROM template_lines WHERE template_id=$1 ORDER BY line_number`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []ledger.TemplateLine
	for rows.Next() {
		var line ledger.TemplateLine
		var fixed, pct *string
		if err := rows.Scan(&line.LineNumber, &line.AccountCode, &line.Side, &line.AmountType, &fixed, &pct, &line.Description); err != nil {
			return nil, err
		}
		if line.FixedAmount, err = decimalPtr(fixed); err != nil {
			return nil, err
		}
		if line.Percentage, err = decimalPtr(pct); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func decimalParam(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func decimalPtr(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := scanDecimal(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
