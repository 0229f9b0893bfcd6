package journals

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// Service coordinates creating, posting and voiding journal entries.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs the journal entry store service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates and persists a new entry in the requested mode. With
// ModePosted the entry number is assigned from the monotonic counter in
// the same transaction that inserts the rows, so no partially persisted
// entry and no duplicate or missing number is ever observable.
func (s *Service) Create(ctx context.Context, in CreateInput, mode Mode) (ledger.JournalEntry, error) {
	if mode != ModeDraft && mode != ModePosted {
		return ledger.JournalEntry{}, ledger.Validationf("unknown create mode %q", mode)
	}
	if err := in.Validate(); err != nil {
		return ledger.JournalEntry{}, err
	}
	if mode == ModePosted {
		if err := checkBalanced(in.Lines); err != nil {
			return ledger.JournalEntry{}, err
		}
	}
	var entry ledger.JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.ensurePostable(ctx, tx, in.Lines); err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, ledger.JournalEntry{
			Date:         in.Date,
			Description:  in.Description,
			Status:       ledger.EntryStatusDraft,
			SourceModule: in.SourceModule,
			SourceID:     in.SourceID,
		})
		if err != nil {
			return err
		}
		lines := toEntryLines(inserted.ID, in.Lines)
		if err := tx.ReplaceLines(ctx, inserted.ID, lines); err != nil {
			return err
		}
		inserted.Lines = lines
		if mode == ModePosted {
			number, err := tx.NextEntryNumber(ctx)
			if err != nil {
				return err
			}
			postedAt := s.now()
			if err := tx.MarkPosted(ctx, inserted.ID, number, postedAt); err != nil {
				return err
			}
			inserted.Number = number
			inserted.Status = ledger.EntryStatusPosted
			inserted.PostedAt = &postedAt
		}
		if in.SourceModule != "" {
			if err := tx.LinkSource(ctx, in.SourceModule, in.SourceID, inserted.ID); err != nil {
				return err
			}
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	return entry, nil
}

// Post transitions a draft entry to POSTED. The balance is re-validated at
// transition time because draft lines may have been edited since creation.
func (s *Service) Post(ctx context.Context, entryID int64) (ledger.JournalEntry, error) {
	var entry ledger.JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != ledger.EntryStatusDraft {
			return fmt.Errorf("entry %d is %s: %w", entryID, current.Status, ledger.ErrInvalidTransition)
		}
		lines := toLineInputs(current.Lines)
		if err := validateLines(lines); err != nil {
			return err
		}
		if err := checkBalanced(lines); err != nil {
			return err
		}
		if err := s.ensurePostable(ctx, tx, lines); err != nil {
			return err
		}
		number, err := tx.NextEntryNumber(ctx)
		if err != nil {
			return err
		}
		postedAt := s.now()
		if err := tx.MarkPosted(ctx, current.ID, number, postedAt); err != nil {
			return err
		}
		current.Number = number
		current.Status = ledger.EntryStatusPosted
		current.PostedAt = &postedAt
		entry = current
		return nil
	})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	return entry, nil
}

// Void transitions a posted entry to VOIDED. Lines are neither deleted
// nor mutated; voided entries stop contributing to balances.
func (s *Service) Void(ctx context.Context, entryID int64, reason string) (ledger.JournalEntry, error) {
	var entry ledger.JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != ledger.EntryStatusPosted {
			return fmt.Errorf("entry %d is %s: %w", entryID, current.Status, ledger.ErrInvalidTransition)
		}
		if err := tx.MarkVoided(ctx, current.ID, reason, s.now()); err != nil {
			return err
		}
		current.Status = ledger.EntryStatusVoided
		current.VoidReason = reason
		entry = current
		return nil
	})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	return entry, nil
}

// Update patches a draft entry. Posted and voided entries are immutable.
func (s *Service) Update(ctx context.Context, entryID int64, in UpdateInput) (ledger.JournalEntry, error) {
	var entry ledger.JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != ledger.EntryStatusDraft {
			return fmt.Errorf("entry %d is %s: %w", entryID, current.Status, ledger.ErrImmutableEntry)
		}
		if in.Date != nil {
			if in.Date.IsZero() {
				return ledger.Validationf("entry date required")
			}
			current.Date = *in.Date
		}
		if in.Description != nil {
			current.Description = *in.Description
		}
		if in.Lines != nil {
			if err := validateLines(in.Lines); err != nil {
				return err
			}
			if err := s.ensurePostable(ctx, tx, in.Lines); err != nil {
				return err
			}
			lines := toEntryLines(current.ID, in.Lines)
			if err := tx.ReplaceLines(ctx, current.ID, lines); err != nil {
				return err
			}
			current.Lines = lines
		}
		if err := tx.UpdateEntryHeader(ctx, current); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	return entry, nil
}

// Delete removes a draft entry. Posted entries can only be voided.
func (s *Service) Delete(ctx context.Context, entryID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != ledger.EntryStatusDraft {
			return fmt.Errorf("entry %d is %s: %w", entryID, current.Status, ledger.ErrImmutableEntry)
		}
		return tx.DeleteEntry(ctx, current.ID)
	})
}

// Get returns one entry with its lines.
func (s *Service) Get(ctx context.Context, entryID int64) (ledger.JournalEntry, error) {
	return s.repo.GetEntry(ctx, entryID)
}

// List returns entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, f EntryFilter) ([]ledger.JournalEntry, error) {
	return s.repo.ListEntries(ctx, f)
}

// ensurePostable resolves every referenced account and rejects lines
// against group, disabled, or unknown accounts.
func (s *Service) ensurePostable(ctx context.Context, tx TxRepository, lines []LineInput) error {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	accs, err := tx.AccountsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for idx, line := range lines {
		acc, ok := accs[line.AccountID]
		if !ok {
			return &ledger.UnknownAccountError{AccountID: line.AccountID}
		}
		if !acc.Postable() {
			return &ledger.NonPostableAccountError{LineNumber: idx + 1, AccountCode: acc.Code}
		}
	}
	return nil
}

func toEntryLines(entryID int64, lines []LineInput) []ledger.JournalEntryLine {
	out := make([]ledger.JournalEntryLine, 0, len(lines))
	for idx, line := range lines {
		out = append(out, ledger.JournalEntryLine{
			EntryID:     entryID,
			LineNumber:  idx + 1,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return out
}

func toLineInputs(lines []ledger.JournalEntryLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return out
}
