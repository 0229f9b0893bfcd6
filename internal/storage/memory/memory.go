// Package memory is an in-memory implementation of every repository in
// the engine, used for development and service tests. A single RWMutex
// serialises transactions, which makes entry numbering atomic; WithTx
// snapshots journal state so a failing transaction leaves nothing behind.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
)

// Store holds all engine state in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	accounts       map[int64]ledger.Account
	accountsByCode map[string]int64
	entries        map[int64]ledger.JournalEntry
	templates      map[string]ledger.Template
	sources        map[string]int64

	nextAccountID  int64
	nextEntryID    int64
	nextLineID     int64
	nextTemplateID int64
	entryNumber    int64
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		accounts:       make(map[int64]ledger.Account),
		accountsByCode: make(map[string]int64),
		entries:        make(map[int64]ledger.JournalEntry),
		templates:      make(map[string]ledger.Template),
		sources:        make(map[string]int64),
	}
}

// snapshot captures the journal state a transaction may mutate.
type snapshot struct {
	entries     map[int64]ledger.JournalEntry
	sources     map[string]int64
	nextEntryID int64
	nextLineID  int64
	entryNumber int64
}

func (s *Store) takeSnapshot() snapshot {
	return snapshot{
		entries:     maps.Clone(s.entries),
		sources:     maps.Clone(s.sources),
		nextEntryID: s.nextEntryID,
		nextLineID:  s.nextLineID,
		entryNumber: s.entryNumber,
	}
}

func (s *Store) restore(snap snapshot) {
	s.entries = snap.entries
	s.sources = snap.sources
	s.nextEntryID = snap.nextEntryID
	s.nextLineID = snap.nextLineID
	s.entryNumber = snap.entryNumber
}

// The repository interfaces overlap in method names, so the store is
// exposed through typed views rather than directly.

// Accounts returns the chart-of-accounts repository view.
func (s *Store) Accounts() *AccountStore { return &AccountStore{s: s} }

// Journals returns the journal-entry repository view.
func (s *Store) Journals() *JournalStore { return &JournalStore{s: s} }

// Templates returns the template repository view.
func (s *Store) Templates() *TemplateStore { return &TemplateStore{s: s} }

// Reports returns the read-only reporting view.
func (s *Store) Reports() *ReportStore { return &ReportStore{s: s} }

// AccountStore implements the chart-of-accounts repository.
type AccountStore struct {
	s *Store
}

// JournalStore implements the journal-entry repository.
type JournalStore struct {
	s *Store
}

// TemplateStore implements the template repository.
type TemplateStore struct {
	s *Store
}

// ReportStore implements the reporting repository.
type ReportStore struct {
	s *Store
}

// WithTx runs fn under the write lock. On error the journal state is
// restored from the snapshot, mirroring a transaction rollback.
func (r *JournalStore) WithTx(ctx context.Context, fn func(context.Context, journals.TxRepository) error) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.takeSnapshot()
	if err := fn(ctx, &txStore{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// txStore exposes the transactional operations. All methods run with the
// store's write lock already held.
type txStore struct {
	s *Store
}
