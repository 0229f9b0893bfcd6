// Package posting is the engine facade consumed by the document workflow.
// Callers supply a trigger and a context of amounts; they never construct
// journal lines themselves.
package posting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/templates"
)

// Service composes the template engine and the journal entry store.
type Service struct {
	templates *templates.Service
	journals  *journals.Service
	now       func() time.Time
}

// NewService constructs the posting facade.
func NewService(t *templates.Service, j *journals.Service) *Service {
	return &Service{templates: t, journals: j, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Request identifies the business event to post. Either TemplateCode or
// Trigger selects the template; Source ties the generated entry back to
// the originating document and makes re-posting the same event a
// conflict.
type Request struct {
	TemplateCode string
	Trigger      ledger.TriggerType
	Context      ledger.TriggerContext
	Date         time.Time
	Description  string
	SourceModule string
	SourceID     uuid.UUID
}

// Generate resolves the request into a balanced entry candidate without
// persisting anything.
func (s *Service) Generate(ctx context.Context, req Request) (templates.ProposedEntry, error) {
	code, err := s.templateCode(ctx, req)
	if err != nil {
		return templates.ProposedEntry{}, err
	}
	return s.templates.Generate(ctx, code, req.Context)
}

// GenerateAndPost resolves the request and persists the candidate in the
// requested mode.
func (s *Service) GenerateAndPost(ctx context.Context, req Request, mode journals.Mode) (ledger.JournalEntry, error) {
	proposed, err := s.Generate(ctx, req)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	date := req.Date
	if date.IsZero() {
		date = s.now()
	}
	description := req.Description
	if description == "" {
		description = proposed.Description
	}
	input := journals.CreateInput{
		Date:         date,
		Description:  description,
		SourceModule: req.SourceModule,
		SourceID:     req.SourceID,
		Lines:        make([]journals.LineInput, 0, len(proposed.Lines)),
	}
	for _, line := range proposed.Lines {
		input.Lines = append(input.Lines, journals.LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return s.journals.Create(ctx, input, mode)
}

func (s *Service) templateCode(ctx context.Context, req Request) (string, error) {
	if req.TemplateCode != "" {
		return req.TemplateCode, nil
	}
	if req.Trigger == "" {
		return "", ledger.Validationf("template code or trigger type required")
	}
	tmpl, err := s.templates.ResolveTrigger(ctx, req.Trigger)
	if err != nil {
		return "", err
	}
	return tmpl.Code, nil
}
