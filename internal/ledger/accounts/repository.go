package accounts

import (
	"context"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// Repository persists chart of accounts nodes.
type Repository interface {
	GetByCode(ctx context.Context, code string) (ledger.Account, error)
	GetByID(ctx context.Context, id int64) (ledger.Account, error)
	List(ctx context.Context) ([]ledger.Account, error)
	Insert(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Update(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Delete(ctx context.Context, id int64) error
	HasPostedLines(ctx context.Context, accountID int64) (bool, error)
}
