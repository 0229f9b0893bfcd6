package memory

import (
	"context"
	"sort"
	"time"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

func (r *AccountStore) GetByCode(_ context.Context, code string) (ledger.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.accountsByCode[code]
	if !ok {
		return ledger.Account{}, ledger.ErrNotFound
	}
	return r.s.accounts[id], nil
}

func (r *AccountStore) GetByID(_ context.Context, id int64) (ledger.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	acc, ok := r.s.accounts[id]
	if !ok {
		return ledger.Account{}, ledger.ErrNotFound
	}
	return acc, nil
}

func (r *AccountStore) List(_ context.Context) ([]ledger.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(r.s.accounts))
	for _, acc := range r.s.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *AccountStore) Insert(_ context.Context, a ledger.Account) (ledger.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accountsByCode[a.Code]; ok {
		return ledger.Account{}, ledger.Validationf("account code %s already exists", a.Code)
	}
	r.s.nextAccountID++
	a.ID = r.s.nextAccountID
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.s.accounts[a.ID] = a
	r.s.accountsByCode[a.Code] = a.ID
	return a, nil
}

func (r *AccountStore) Update(_ context.Context, a ledger.Account) (ledger.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.accounts[a.ID]
	if !ok {
		return ledger.Account{}, ledger.ErrNotFound
	}
	a.Code = current.Code
	a.CreatedAt = current.CreatedAt
	a.UpdatedAt = time.Now()
	r.s.accounts[a.ID] = a
	return a, nil
}

func (r *AccountStore) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acc, ok := r.s.accounts[id]
	if !ok {
		return ledger.ErrNotFound
	}
	delete(r.s.accounts, id)
	delete(r.s.accountsByCode, acc.Code)
	return nil
}

// HasPostedLines reports whether any entry that ever reached POSTED
// references the account. Voided entries count; their lines remain
// history.
func (r *AccountStore) HasPostedLines(_ context.Context, accountID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.entries {
		if e.Number == 0 {
			continue
		}
		for _, line := range e.Lines {
			if line.AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}
