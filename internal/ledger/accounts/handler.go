package accounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
	"github.com/odyssey-erp/ledger-engine/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the chart of accounts.
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

// MountRoutes registers account routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{code}", h.Show)
	r.Patch("/{code}", h.Update)
	r.Delete("/{code}", h.Delete)
	r.Post("/{code}/deactivate", h.Deactivate)
}

type createAccountRequest struct {
	Code           string  `json:"code" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Type           string  `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	ParentCode     *string `json:"parentCode"`
	IsDetail       bool    `json:"isDetail"`
	AcceptsEntries bool    `json:"acceptsEntries"`
}

type updateAccountRequest struct {
	Name           *string `json:"name"`
	AcceptsEntries *bool   `json:"acceptsEntries"`
	Active         *bool   `json:"active"`
}

type accountResponse struct {
	ID             int64   `json:"id"`
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	ParentCode     *string `json:"parentCode,omitempty"`
	Level          int     `json:"level"`
	IsDetail       bool    `json:"isDetail"`
	AcceptsEntries bool    `json:"acceptsEntries"`
	Active         bool    `json:"active"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Code:           a.Code,
		Name:           a.Name,
		Type:           string(a.Type),
		ParentCode:     a.ParentCode,
		Level:          a.Level(),
		IsDetail:       a.IsDetail,
		AcceptsEntries: a.AcceptsEntries,
		Active:         a.Active,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	acc, err := h.service.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(acc))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	acc, err := h.service.Create(r.Context(), CreateInput{
		Code:           req.Code,
		Name:           req.Name,
		Type:           ledger.AccountType(req.Type),
		ParentCode:     req.ParentCode,
		IsDetail:       req.IsDetail,
		AcceptsEntries: req.AcceptsEntries,
	})
	if err != nil {
		h.logger.Error("create account failed", "error", err, "code", req.Code)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(acc))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	acc, err := h.service.Update(r.Context(), chi.URLParam(r, "code"), UpdateInput{
		Name:           req.Name,
		AcceptsEntries: req.AcceptsEntries,
		Active:         req.Active,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(acc))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	acc, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(acc))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
