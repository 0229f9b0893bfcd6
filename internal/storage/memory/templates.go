package memory

import (
	"context"
	"sort"
	"time"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

func (r *TemplateStore) GetByCode(_ context.Context, code string) (ledger.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[code]
	if !ok {
		return ledger.Template{}, ledger.ErrNotFound
	}
	return cloneTemplate(t), nil
}

func (r *TemplateStore) FindActiveByTrigger(_ context.Context, trigger ledger.TriggerType) ([]ledger.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []ledger.Template
	for _, t := range r.s.templates {
		if t.Trigger == trigger && t.Active {
			out = append(out, cloneTemplate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *TemplateStore) Upsert(_ context.Context, t ledger.Template) (ledger.Template, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	if existing, ok := r.s.templates[t.Code]; ok {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	} else {
		r.s.nextTemplateID++
		t.ID = r.s.nextTemplateID
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	r.s.templates[t.Code] = cloneTemplate(t)
	return t, nil
}

func (r *TemplateStore) List(_ context.Context) ([]ledger.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]ledger.Template, 0, len(r.s.templates))
	for _, t := range r.s.templates {
		out = append(out, cloneTemplate(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func cloneTemplate(t ledger.Template) ledger.Template {
	out := t
	out.Lines = append([]ledger.TemplateLine(nil), t.Lines...)
	return out
}
