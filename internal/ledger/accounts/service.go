package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// Service maintains the chart of accounts. It enforces the tree
// invariants only; accounts have no lifecycle state machine.
type Service struct {
	repo Repository
}

// NewService constructs the chart of accounts service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput groups the fields for a new account.
type CreateInput struct {
	Code           string
	Name           string
	Type           ledger.AccountType
	ParentCode     *string
	IsDetail       bool
	AcceptsEntries bool
}

func (in CreateInput) validate() error {
	if err := validateCode(in.Code); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return ledger.Validationf("account name required")
	}
	if !in.Type.Valid() {
		return ledger.Validationf("unknown account type %q", in.Type)
	}
	if in.ParentCode != nil {
		if err := validateCode(*in.ParentCode); err != nil {
			return err
		}
		if *in.ParentCode == in.Code {
			return ledger.Validationf("account %s cannot be its own parent", in.Code)
		}
	}
	return nil
}

func validateCode(code string) error {
	if code == "" {
		return ledger.Validationf("account code required")
	}
	for _, seg := range strings.Split(code, ".") {
		if seg == "" {
			return ledger.Validationf("account code %q has an empty segment", code)
		}
		for _, r := range seg {
			if (r < '0' || r > '9') && (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
				return ledger.Validationf("account code %q has an invalid character", code)
			}
		}
	}
	return nil
}

// Create registers a new account. It fails if the code exists, if the
// parent is missing, or if the parent already has lines posted against it
// and would silently become a group account.
func (s *Service) Create(ctx context.Context, in CreateInput) (ledger.Account, error) {
	if err := in.validate(); err != nil {
		return ledger.Account{}, err
	}
	if _, err := s.repo.GetByCode(ctx, in.Code); err == nil {
		return ledger.Account{}, ledger.Validationf("account code %s already exists", in.Code)
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return ledger.Account{}, err
	}
	if in.ParentCode != nil {
		parent, err := s.repo.GetByCode(ctx, *in.ParentCode)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return ledger.Account{}, ledger.Validationf("parent account %s does not exist", *in.ParentCode)
			}
			return ledger.Account{}, err
		}
		if err := s.demoteToGroup(ctx, parent); err != nil {
			return ledger.Account{}, err
		}
	}
	return s.repo.Insert(ctx, ledger.Account{
		Code:           in.Code,
		Name:           in.Name,
		Type:           in.Type,
		ParentCode:     in.ParentCode,
		IsDetail:       in.IsDetail,
		AcceptsEntries: in.AcceptsEntries,
		Active:         true,
	})
}

// demoteToGroup clears the detail flags of an account that gains a child.
// A postable parent with posted lines cannot become a group account.
func (s *Service) demoteToGroup(ctx context.Context, parent ledger.Account) error {
	if !parent.IsDetail {
		return nil
	}
	posted, err := s.repo.HasPostedLines(ctx, parent.ID)
	if err != nil {
		return err
	}
	if posted {
		return ledger.Validationf("account %s has posted lines and cannot become a group account", parent.Code)
	}
	parent.IsDetail = false
	parent.AcceptsEntries = false
	_, err = s.repo.Update(ctx, parent)
	return err
}

// UpdateInput carries the mutable account fields. Nil pointers keep the
// stored value.
type UpdateInput struct {
	Name           *string
	AcceptsEntries *bool
	Active         *bool
}

// Update edits an account's administrative fields. Code, type and parent
// are immutable identity.
func (s *Service) Update(ctx context.Context, code string, in UpdateInput) (ledger.Account, error) {
	acc, err := s.Resolve(ctx, code)
	if err != nil {
		return ledger.Account{}, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return ledger.Account{}, ledger.Validationf("account name required")
		}
		acc.Name = *in.Name
	}
	if in.AcceptsEntries != nil {
		acc.AcceptsEntries = *in.AcceptsEntries
	}
	if in.Active != nil {
		acc.Active = *in.Active
	}
	return s.repo.Update(ctx, acc)
}

// Upsert applies create-or-update semantics keyed on the account code, so
// administrative seeding stays idempotent under re-invocation.
func (s *Service) Upsert(ctx context.Context, in CreateInput) (ledger.Account, error) {
	if err := in.validate(); err != nil {
		return ledger.Account{}, err
	}
	existing, err := s.repo.GetByCode(ctx, in.Code)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return s.Create(ctx, in)
		}
		return ledger.Account{}, err
	}
	if existing.IsDetail && !in.IsDetail {
		posted, err := s.repo.HasPostedLines(ctx, existing.ID)
		if err != nil {
			return ledger.Account{}, err
		}
		if posted {
			return ledger.Account{}, ledger.Validationf("account %s has posted lines and cannot become a group account", existing.Code)
		}
	}
	existing.Name = in.Name
	existing.Type = in.Type
	existing.IsDetail = in.IsDetail
	existing.AcceptsEntries = in.AcceptsEntries
	return s.repo.Update(ctx, existing)
}

// Resolve returns the account registered under a code.
func (s *Service) Resolve(ctx context.Context, code string) (ledger.Account, error) {
	acc, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return ledger.Account{}, fmt.Errorf("account %s: %w", code, ledger.ErrNotFound)
		}
		return ledger.Account{}, err
	}
	return acc, nil
}

// List returns all accounts ordered by code.
func (s *Service) List(ctx context.Context) ([]ledger.Account, error) {
	return s.repo.List(ctx)
}

// Deactivate soft-disables an account. Disabled accounts reject new lines
// but keep their posted history.
func (s *Service) Deactivate(ctx context.Context, code string) (ledger.Account, error) {
	acc, err := s.Resolve(ctx, code)
	if err != nil {
		return ledger.Account{}, err
	}
	acc.Active = false
	return s.repo.Update(ctx, acc)
}

// Delete removes an account that has never been posted against. Accounts
// with posted lines are soft-disabled instead of deleted.
func (s *Service) Delete(ctx context.Context, code string) error {
	acc, err := s.Resolve(ctx, code)
	if err != nil {
		return err
	}
	posted, err := s.repo.HasPostedLines(ctx, acc.ID)
	if err != nil {
		return err
	}
	if posted {
		return ledger.Validationf("account %s has posted lines, deactivate it instead", code)
	}
	return s.repo.Delete(ctx, acc.ID)
}
