package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// amountScale is the ledger's minimum currency unit, 0.01.
const amountScale = 2

var hundred = decimal.NewFromInt(100)

// Service authors templates and resolves them into balanced entry
// candidates against a trigger context.
type Service struct {
	repo     Repository
	accounts AccountResolver
}

// NewService constructs the template engine service.
func NewService(repo Repository, accounts AccountResolver) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// LineSpec describes one template line for authoring.
type LineSpec struct {
	AccountCode string
	Side        ledger.Side
	AmountType  ledger.AmountType
	FixedAmount *decimal.Decimal
	Percentage  *decimal.Decimal
	Description string
}

// UpsertInput groups the fields for authoring a template. Lines replace
// the stored lines wholesale.
type UpsertInput struct {
	Code    string
	Name    string
	Trigger ledger.TriggerType
	Active  bool
	Lines   []LineSpec
}

func (in UpsertInput) validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return ledger.Validationf("template code required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return ledger.Validationf("template name required")
	}
	if !in.Trigger.Valid() {
		return ledger.Validationf("unknown trigger type %q", in.Trigger)
	}
	if len(in.Lines) < 2 {
		return ledger.Validationf("template %s requires at least two lines", in.Code)
	}
	debitAccounts := map[string]struct{}{}
	creditAccounts := map[string]struct{}{}
	for idx, line := range in.Lines {
		n := idx + 1
		if line.AccountCode == "" {
			return ledger.Validationf("template %s line %d: account code required", in.Code, n)
		}
		switch line.Side {
		case ledger.SideDebit:
			debitAccounts[line.AccountCode] = struct{}{}
		case ledger.SideCredit:
			creditAccounts[line.AccountCode] = struct{}{}
		default:
			return ledger.Validationf("template %s line %d: side must be DEBIT or CREDIT", in.Code, n)
		}
		if !line.AmountType.Valid() {
			return ledger.Validationf("template %s line %d: unknown amount type %q", in.Code, n, line.AmountType)
		}
		if line.AmountType == ledger.AmountPercentage {
			if line.Percentage == nil || !line.Percentage.IsPositive() {
				return ledger.Validationf("template %s line %d: percentage must be positive", in.Code, n)
			}
		}
		if line.AmountType == ledger.AmountFixed {
			if line.FixedAmount == nil || line.FixedAmount.IsNegative() {
				return ledger.Validationf("template %s line %d: fixed amount must be zero or positive", in.Code, n)
			}
		}
	}
	if len(debitAccounts) == 0 || len(creditAccounts) == 0 {
		return ledger.Validationf("template %s requires at least one debit and one credit line", in.Code)
	}
	distinct := false
	for code := range debitAccounts {
		if _, ok := creditAccounts[code]; !ok {
			distinct = true
			break
		}
	}
	if !distinct {
		for code := range creditAccounts {
			if _, ok := debitAccounts[code]; !ok {
				distinct = true
				break
			}
		}
	}
	if !distinct {
		return ledger.Validationf("template %s debit and credit lines must reference distinct accounts", in.Code)
	}
	return nil
}

// Upsert creates or replaces a template keyed on its code. Account codes
// are not resolved here; templates tolerate CoA changes until generation.
// Balance cannot be validated without a context, so only structure is
// checked.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (ledger.Template, error) {
	if err := in.validate(); err != nil {
		return ledger.Template{}, err
	}
	lines := make([]ledger.TemplateLine, 0, len(in.Lines))
	for idx, spec := range in.Lines {
		lines = append(lines, ledger.TemplateLine{
			LineNumber:  idx + 1,
			AccountCode: spec.AccountCode,
			Side:        spec.Side,
			AmountType:  spec.AmountType,
			FixedAmount: spec.FixedAmount,
			Percentage:  spec.Percentage,
			Description: spec.Description,
		})
	}
	return s.repo.Upsert(ctx, ledger.Template{
		Code:    in.Code,
		Name:    in.Name,
		Trigger: in.Trigger,
		Active:  in.Active,
		Lines:   lines,
	})
}

// Get returns a template by code, active or not.
func (s *Service) Get(ctx context.Context, code string) (ledger.Template, error) {
	t, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return ledger.Template{}, fmt.Errorf("template %s: %w", code, ledger.ErrNotFound)
		}
		return ledger.Template{}, err
	}
	return t, nil
}

// List returns all templates.
func (s *Service) List(ctx context.Context) ([]ledger.Template, error) {
	return s.repo.List(ctx)
}

// ResolveTrigger returns the single active template registered for a
// trigger type. Zero matches is ErrNotFound; more than one is ambiguous
// and the caller must select by code instead.
func (s *Service) ResolveTrigger(ctx context.Context, trigger ledger.TriggerType) (ledger.Template, error) {
	matches, err := s.repo.FindActiveByTrigger(ctx, trigger)
	if err != nil {
		return ledger.Template{}, err
	}
	switch len(matches) {
	case 0:
		return ledger.Template{}, fmt.Errorf("trigger %s: %w", trigger, ledger.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return ledger.Template{}, ledger.Validationf("trigger %s matches %d active templates, select one by code", trigger, len(matches))
	}
}

// ProposedLine is one resolved line of an entry candidate.
type ProposedLine struct {
	AccountID   int64
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// ProposedEntry is a balanced entry candidate. It is not persisted; the
// caller decides between draft and direct posting.
type ProposedEntry struct {
	TemplateCode string
	Description  string
	Lines        []ProposedLine
}

// Generate resolves a template and a trigger context into a balanced
// entry candidate. Lines that resolve to exactly zero are dropped, after
// which the candidate must still balance; an imbalance means the template
// itself is misconfigured and generation fails rather than inserting a
// corrective plug line.
func (s *Service) Generate(ctx context.Context, code string, tc ledger.TriggerContext) (ProposedEntry, error) {
	tmpl, err := s.Get(ctx, code)
	if err != nil {
		return ProposedEntry{}, err
	}
	if !tmpl.Active {
		return ProposedEntry{}, fmt.Errorf("template %s is inactive: %w", code, ledger.ErrNotFound)
	}
	proposed := ProposedEntry{TemplateCode: tmpl.Code, Description: tmpl.Name}
	debit, credit := decimal.Zero, decimal.Zero
	for _, line := range tmpl.Lines {
		// Every line's account must resolve, including lines that end up
		// dropped for a zero amount.
		acc, err := s.accounts.Resolve(ctx, line.AccountCode)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return ProposedEntry{}, &ledger.UnknownAccountError{AccountCode: line.AccountCode}
			}
			return ProposedEntry{}, err
		}
		amount, err := resolveAmount(tmpl.Code, line, tc)
		if err != nil {
			return ProposedEntry{}, err
		}
		if amount.IsNegative() {
			return ProposedEntry{}, ledger.Validationf("template %s line %d resolves to negative amount %s", tmpl.Code, line.LineNumber, amount)
		}
		if amount.IsZero() {
			continue
		}
		out := ProposedLine{
			AccountID:   acc.ID,
			AccountCode: acc.Code,
			Description: line.Description,
		}
		switch line.Side {
		case ledger.SideDebit:
			out.Debit = amount
			debit = debit.Add(amount)
		case ledger.SideCredit:
			out.Credit = amount
			credit = credit.Add(amount)
		}
		proposed.Lines = append(proposed.Lines, out)
	}
	if !debit.Equal(credit) {
		return ProposedEntry{}, &ledger.UnbalancedTemplateError{
			TemplateCode: tmpl.Code,
			Difference:   debit.Sub(credit),
		}
	}
	return proposed, nil
}

// resolveAmount maps a template line's amount type to a concrete decimal.
// Required context fields must be present; they are never defaulted.
func resolveAmount(templateCode string, line ledger.TemplateLine, tc ledger.TriggerContext) (decimal.Decimal, error) {
	switch line.AmountType {
	case ledger.AmountPercentage:
		if line.Percentage == nil {
			return decimal.Zero, ledger.Validationf("template %s line %d: percentage not set", templateCode, line.LineNumber)
		}
		if tc.PercentageBase == nil {
			return decimal.Zero, &ledger.MissingContextFieldError{Field: "percentageBase"}
		}
		// Round to the minimum currency unit, half to even.
		return tc.PercentageBase.Mul(*line.Percentage).Div(hundred).RoundBank(amountScale), nil
	case ledger.AmountFixed:
		if line.FixedAmount == nil {
			return decimal.Zero, ledger.Validationf("template %s line %d: fixed amount not set", templateCode, line.LineNumber)
		}
		return *line.FixedAmount, nil
	default:
		amount, ok := tc.Field(line.AmountType)
		if !ok {
			return decimal.Zero, &ledger.MissingContextFieldError{Field: contextFieldName(line.AmountType)}
		}
		return amount, nil
	}
}

func contextFieldName(t ledger.AmountType) string {
	switch t {
	case ledger.AmountTotal:
		return "total"
	case ledger.AmountSubtotal:
		return "subtotal"
	case ledger.AmountTax:
		return "tax"
	case ledger.AmountRetention:
		return "retention"
	case ledger.AmountNetPayment:
		return "netPayment"
	case ledger.AmountPrincipal:
		return "principal"
	case ledger.AmountInterest:
		return "interest"
	}
	return strings.ToLower(string(t))
}
