package journals

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the journal entry store.
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

// MountRoutes registers journal entry routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/post", h.Post)
	r.Post("/{id}/void", h.Void)
}

type lineRequest struct {
	AccountID   int64           `json:"accountId" validate:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

type createEntryRequest struct {
	Date         string        `json:"date" validate:"required"`
	Description  string        `json:"description"`
	Mode         string        `json:"mode" validate:"omitempty,oneof=DRAFT POSTED"`
	SourceModule string        `json:"sourceModule"`
	SourceID     uuid.UUID     `json:"sourceId"`
	Lines        []lineRequest `json:"lines" validate:"required,min=2"`
}

type updateEntryRequest struct {
	Date        *string       `json:"date"`
	Description *string       `json:"description"`
	Lines       []lineRequest `json:"lines"`
}

type voidRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type lineResponse struct {
	LineNumber  int             `json:"lineNumber"`
	AccountID   int64           `json:"accountId"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

type entryResponse struct {
	ID           int64          `json:"id"`
	Number       int64          `json:"number,omitempty"`
	Date         string         `json:"date"`
	Description  string         `json:"description"`
	Status       string         `json:"status"`
	SourceModule string         `json:"sourceModule,omitempty"`
	SourceID     *uuid.UUID     `json:"sourceId,omitempty"`
	VoidReason   string         `json:"voidReason,omitempty"`
	PostedAt     *time.Time     `json:"postedAt,omitempty"`
	Lines        []lineResponse `json:"lines"`
}

const dateLayout = "2006-01-02"

func toEntryResponse(e ledger.JournalEntry) entryResponse {
	out := entryResponse{
		ID:          e.ID,
		Number:      e.Number,
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
		Status:      string(e.Status),
		VoidReason:  e.VoidReason,
		PostedAt:    e.PostedAt,
		Lines:       make([]lineResponse, 0, len(e.Lines)),
	}
	if e.SourceModule != "" {
		out.SourceModule = e.SourceModule
		sourceID := e.SourceID
		out.SourceID = &sourceID
	}
	for _, line := range e.Lines {
		out.Lines = append(out.Lines, lineResponse{
			LineNumber:  line.LineNumber,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return out
}

func toLineInputsFromRequest(lines []lineRequest) []LineInput {
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

func entryID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var filter EntryFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := ledger.EntryStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid from date")
			return
		}
		filter.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid to date")
			return
		}
		filter.To = &to
	}
	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list entries failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry date")
		return
	}
	mode := Mode(req.Mode)
	if mode == "" {
		mode = ModeDraft
	}
	entry, err := h.service.Create(r.Context(), CreateInput{
		Date:         date,
		Description:  req.Description,
		SourceModule: req.SourceModule,
		SourceID:     req.SourceID,
		Lines:        toLineInputsFromRequest(req.Lines),
	}, mode)
	if err != nil {
		h.logger.Error("create entry failed", "error", err, "mode", mode)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	var req updateEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	var in UpdateInput
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry date")
			return
		}
		in.Date = &date
	}
	in.Description = req.Description
	if req.Lines != nil {
		in.Lines = toLineInputsFromRequest(req.Lines)
	}
	entry, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	entry, err := h.service.Post(r.Context(), id)
	if err != nil {
		h.logger.Error("post entry failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	var req voidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.Void(r.Context(), id, req.Reason)
	if err != nil {
		h.logger.Error("void entry failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
