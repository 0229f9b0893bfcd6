package templates

import (
	"context"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// Repository persists journal entry templates. Upsert replaces a
// template's lines wholesale; there is no partial line patch, so a
// half-updated template is never stored.
type Repository interface {
	GetByCode(ctx context.Context, code string) (ledger.Template, error)
	FindActiveByTrigger(ctx context.Context, trigger ledger.TriggerType) ([]ledger.Template, error)
	Upsert(ctx context.Context, t ledger.Template) (ledger.Template, error)
	List(ctx context.Context) ([]ledger.Template, error)
}

// AccountResolver resolves account codes at generation time.
type AccountResolver interface {
	Resolve(ctx context.Context, code string) (ledger.Account, error)
}
