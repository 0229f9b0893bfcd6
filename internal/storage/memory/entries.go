package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
)

func (r *JournalStore) GetEntry(_ context.Context, id int64) (ledger.JournalEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.entries[id]
	if !ok {
		return ledger.JournalEntry{}, ledger.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (r *JournalStore) ListEntries(_ context.Context, f journals.EntryFilter) ([]ledger.JournalEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]ledger.JournalEntry, 0, len(r.s.entries))
	for _, e := range r.s.entries {
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (tx *txStore) AccountsByIDs(_ context.Context, ids []int64) (map[int64]ledger.Account, error) {
	out := make(map[int64]ledger.Account, len(ids))
	for _, id := range ids {
		if acc, ok := tx.s.accounts[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

func (tx *txStore) InsertEntry(_ context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	tx.s.nextEntryID++
	e.ID = tx.s.nextEntryID
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	tx.s.entries[e.ID] = cloneEntry(e)
	return e, nil
}

func (tx *txStore) GetEntryForUpdate(_ context.Context, id int64) (ledger.JournalEntry, error) {
	e, ok := tx.s.entries[id]
	if !ok {
		return ledger.JournalEntry{}, ledger.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (tx *txStore) UpdateEntryHeader(_ context.Context, e ledger.JournalEntry) error {
	current, ok := tx.s.entries[e.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	current.Date = e.Date
	current.Description = e.Description
	current.UpdatedAt = time.Now()
	tx.s.entries[e.ID] = current
	return nil
}

func (tx *txStore) ReplaceLines(_ context.Context, entryID int64, lines []ledger.JournalEntryLine) error {
	current, ok := tx.s.entries[entryID]
	if !ok {
		return ledger.ErrNotFound
	}
	stored := make([]ledger.JournalEntryLine, 0, len(lines))
	for _, line := range lines {
		tx.s.nextLineID++
		line.ID = tx.s.nextLineID
		line.EntryID = entryID
		stored = append(stored, line)
	}
	current.Lines = stored
	current.UpdatedAt = time.Now()
	tx.s.entries[entryID] = current
	return nil
}

func (tx *txStore) DeleteEntry(_ context.Context, id int64) error {
	if _, ok := tx.s.entries[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(tx.s.entries, id)
	// Deleting a draft frees its source reference so the business event
	// can be posted again.
	for key, entryID := range tx.s.sources {
		if entryID == id {
			delete(tx.s.sources, key)
		}
	}
	return nil
}

func (tx *txStore) NextEntryNumber(_ context.Context) (int64, error) {
	tx.s.entryNumber++
	return tx.s.entryNumber, nil
}

func (tx *txStore) MarkPosted(_ context.Context, entryID, number int64, at time.Time) error {
	current, ok := tx.s.entries[entryID]
	if !ok {
		return ledger.ErrNotFound
	}
	current.Number = number
	current.Status = ledger.EntryStatusPosted
	postedAt := at
	current.PostedAt = &postedAt
	current.UpdatedAt = at
	tx.s.entries[entryID] = current
	return nil
}

func (tx *txStore) MarkVoided(_ context.Context, entryID int64, reason string, at time.Time) error {
	current, ok := tx.s.entries[entryID]
	if !ok {
		return ledger.ErrNotFound
	}
	current.Status = ledger.EntryStatusVoided
	current.VoidReason = reason
	current.UpdatedAt = at
	tx.s.entries[entryID] = current
	return nil
}

func (tx *txStore) LinkSource(_ context.Context, module string, ref uuid.UUID, entryID int64) error {
	key := sourceKey(module, ref)
	if _, ok := tx.s.sources[key]; ok {
		return ledger.ErrSourceAlreadyLinked
	}
	tx.s.sources[key] = entryID
	return nil
}

func sourceKey(module string, ref uuid.UUID) string {
	return fmt.Sprintf("%s|%s", module, ref)
}

func cloneEntry(e ledger.JournalEntry) ledger.JournalEntry {
	out := e
	out.Lines = append([]ledger.JournalEntryLine(nil), e.Lines...)
	if e.PostedAt != nil {
		postedAt := *e.PostedAt
		out.PostedAt = &postedAt
	}
	return out
}
