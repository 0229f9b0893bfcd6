package posting

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
	"github.com/odyssey-erp/ledger-engine/internal/platform/httpx"
)

// Handler wires the generate-and-post facade endpoint.
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

// MountRoutes registers posting routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.GenerateAndPost)
	r.Post("/preview", h.Preview)
}

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

type postingRequest struct {
	TemplateCode string         `json:"templateCode"`
	Trigger      string         `json:"trigger"`
	Context      contextRequest `json:"context"`
	Date         string         `json:"date"`
	Description  string         `json:"description"`
	Mode         string         `json:"mode" validate:"omitempty,oneof=DRAFT POSTED"`
	SourceModule string         `json:"sourceModule"`
	SourceID     uuid.UUID      `json:"sourceId"`
}

const dateLayout = "2006-01-02"

func (req postingRequest) toRequest() (Request, error) {
	out := Request{
		TemplateCode: req.TemplateCode,
		Trigger:      ledger.TriggerType(req.Trigger),
		Description:  req.Description,
		SourceModule: req.SourceModule,
		SourceID:     req.SourceID,
		Context: ledger.TriggerContext{
			Total:          req.Context.Total,
			Subtotal:       req.Context.Subtotal,
			Tax:            req.Context.Tax,
			Retention:      req.Context.Retention,
			NetPayment:     req.Context.NetPayment,
			Principal:      req.Context.Principal,
			Interest:       req.Context.Interest,
			PercentageBase: req.Context.PercentageBase,
		},
	}
	if req.Date != "" {
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return Request{}, err
		}
		out.Date = date
	}
	return out, nil
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

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req postingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	in, err := req.toRequest()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid posting date")
		return
	}
	proposed, err := h.service.Generate(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := proposedEntryResponse{
		TemplateCode: proposed.TemplateCode,
		Description:  proposed.Description,
		Lines:        make([]proposedLineResponse, 0, len(proposed.Lines)),
	}
	for _, line := range proposed.Lines {
		out.Lines = append(out.Lines, proposedLineResponse{
			AccountID:   line.AccountID,
			AccountCode: line.AccountCode,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) GenerateAndPost(w http.ResponseWriter, r *http.Request) {
	var req postingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	in, err := req.toRequest()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid posting date")
		return
	}
	mode := journals.Mode(req.Mode)
	if mode == "" {
		mode = journals.ModePosted
	}
	entry, err := h.service.GenerateAndPost(r.Context(), in, mode)
	if err != nil {
		h.logger.Error("generate and post failed", "error", err,
			"template", req.TemplateCode, "trigger", req.Trigger)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":     entry.ID,
		"number": entry.Number,
		"status": string(entry.Status),
	})
}
