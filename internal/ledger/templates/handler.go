package templates

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the template engine.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers template routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{code}", h.Show)
	r.Put("/{code}", h.Upsert)
	r.Post("/{code}/preview", h.Preview)
}

type templateLineRequest struct {
	AccountCode string           `json:"accountCode" validate:"required"`
	Side        string           `json:"side" validate:"required,oneof=DEBIT CREDIT"`
	AmountType  string           `json:"amountType" validate:"required"`
	FixedAmount *decimal.Decimal `json:"fixedAmount"`
	Percentage  *decimal.Decimal `json:"percentage"`
	Description string           `json:"description"`
}

type upsertTemplateRequest struct {
	Name    string                `json:"name" validate:"required"`
	Trigger string                `json:"trigger" validate:"required"`
	Active  bool                  `json:"active"`
	Lines   []templateLineRequest `json:"lines" validate:"required,min=2"`
}

// contextRequest mirrors a trigger context. Absent fields stay nil;
// templates requiring them fail generation instead of assuming zero.
type contextRequest struct {
	Total          *decimal.Decimal `json:"total"`
	Subtotal       *decimal.Decimal `json:"subtotal"`
	Tax            *decimal.Decimal `json:"tax"`
	Retention      *decimal.Decimal `json:"retention"`
	NetPayment     *decimal.Decimal `json:"netPayment"`
	Principal      *decimal.Decimal `json:"principal"`
	Interest       *decimal.Decimal `json:"interest"`
	PercentageBase *decimal.Decimal `json:"percentageBase"`
}

func (req contextRequest) toContext() ledger.TriggerContext {
	return ledger.TriggerContext{
		Total:          req.Total,
		Subtotal:       req.Subtotal,
		Tax:            req.Tax,
		Retention:      req.Retention,
		NetPayment:     req.NetPayment,
		Principal:      req.Principal,
		Interest:       req.Interest,
		PercentageBase: req.PercentageBase,
	}
}

type templateLineResponse struct {
	LineNumber  int              `json:"lineNumber"`
	AccountCode string           `json:"accountCode"`
	Side        string           `json:"side"`
	AmountType  string           `json:"amountType"`
	FixedAmount *decimal.Decimal `json:"fixedAmount,omitempty"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
	Description string           `json:"description,omitempty"`
}

type templateResponse struct {
	Code    string                 `json:"code"`
	Name    string                 `json:"name"`
	Trigger string                 `json:"trigger"`
	Active  bool                   `json:"active"`
	Lines   []templateLineResponse `json:"lines"`
}

type proposedLineResponse struct {
	AccountID   int64           `json:"accountId"`
	AccountCode string          `json:"accountCode"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

type proposedEntryResponse struct {
	TemplateCode string                 `json:"templateCode"`
	Description  string                 `json:"description"`
	Lines        []proposedLineResponse `json:"lines"`
}

func toTemplateResponse(t ledger.Template) templateResponse {
	out := templateResponse{
		Code:    t.Code,
		Name:    t.Name,
		Trigger: string(t.Trigger),
		Active:  t.Active,
		Lines:   make([]templateLineResponse, 0, len(t.Lines)),
	}
	for _, line := range t.Lines {
		out.Lines = append(out.Lines, templateLineResponse{
			LineNumber:  line.LineNumber,
			AccountCode: line.AccountCode,
			Side:        string(line.Side),
			AmountType:  string(line.AmountType),
			FixedAmount: line.FixedAmount,
			Percentage:  line.Percentage,
			Description: line.Description,
		})
	}
	return out
}

func toProposedResponse(p ProposedEntry) proposedEntryResponse {
	out := proposedEntryResponse{
		TemplateCode: p.TemplateCode,
		Description:  p.Description,
		Lines:        make([]proposedLineResponse, 0, len(p.Lines)),
	}
	for _, line := range p.Lines {
		out.Lines = append(out.Lines, proposedLineResponse{
			AccountID:   line.AccountID,
			AccountCode: line.AccountCode,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return out
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list templates failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	out := make([]templateResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTemplateResponse(t))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTemplateResponse(t))
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	lines := make([]LineSpec, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, LineSpec{
			AccountCode: line.AccountCode,
			Side:        ledger.Side(line.Side),
			AmountType:  ledger.AmountType(line.AmountType),
			FixedAmount: line.FixedAmount,
			Percentage:  line.Percentage,
			Description: line.Description,
		})
	}
	t, err := h.service.Upsert(r.Context(), UpsertInput{
		Code:    chi.URLParam(r, "code"),
		Name:    req.Name,
		Trigger: ledger.TriggerType(req.Trigger),
		Active:  req.Active,
		Lines:   lines,
	})
	if err != nil {
		h.logger.Error("upsert template failed", "error", err, "code", chi.URLParam(r, "code"))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTemplateResponse(t))
}

// Preview resolves the template against a context without persisting
// anything.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	proposed, err := h.service.Generate(r.Context(), chi.URLParam(r, "code"), req.toContext())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProposedResponse(proposed))
}
