package reports

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/ledger-engine/internal/platform/httpx"
)

// Handler wires HTTP endpoints for financial statements. Identical
// concurrent report requests are collapsed into one computation, since
// statements are pure functions of posted state.
type Handler struct {
	logger  *slog.Logger
	service *Service
	group   singleflight.Group
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.TrialBalance)
	r.Get("/balance-sheet", h.BalanceSheet)
	r.Get("/income-statement", h.IncomeStatement)
	r.Get("/accounts/{id}/movements", h.AccountMovements)
}

const dateLayout = "2006-01-02"

func parseRange(r *http.Request) (DateRange, error) {
	var dr DateRange
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid from date %q", raw)
		}
		dr.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid to date %q", raw)
		}
		dr.To = &to
	}
	return dr, nil
}

// cutoffParam reads the balance sheet cutoff, defaulting to today. The
// default is truncated to the date so the cutoff handed to the service
// matches the day-granular cache key built from it.
func cutoffParam(r *http.Request) (time.Time, error) {
	if raw := r.URL.Query().Get("cutoff"); raw != "" {
		cutoff, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid cutoff date %q", raw)
		}
		return cutoff, nil
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
}

func rangeKey(prefix string, dr DateRange) string {
	from, to := "", ""
	if dr.From != nil {
		from = dr.From.Format(dateLayout)
	}
	if dr.To != nil {
		to = dr.To.Format(dateLayout)
	}
	return prefix + "|" + from + "|" + to
}

type trialBalanceRowResponse struct {
	AccountID     int64           `json:"accountId"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	TotalDebit    decimal.Decimal `json:"totalDebit"`
	TotalCredit   decimal.Decimal `json:"totalCredit"`
	EndingBalance decimal.Decimal `json:"endingBalance"`
}

type trialBalanceResponse struct {
	Rows        []trialBalanceRowResponse `json:"rows"`
	TotalDebit  decimal.Decimal           `json:"totalDebit"`
	TotalCredit decimal.Decimal           `json:"totalCredit"`
}

type statementLineResponse struct {
	AccountID int64           `json:"accountId"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Level     int             `json:"level"`
	Balance   decimal.Decimal `json:"balance"`
}

type sectionResponse struct {
	Label string                  `json:"label"`
	Lines []statementLineResponse `json:"lines"`
	Total decimal.Decimal         `json:"total"`
}

type balanceSheetResponse struct {
	Assets                    sectionResponse `json:"assets"`
	Liabilities               sectionResponse `json:"liabilities"`
	Equity                    sectionResponse `json:"equity"`
	PeriodResult              decimal.Decimal `json:"periodResult"`
	TotalAssets               decimal.Decimal `json:"totalAssets"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"totalLiabilitiesAndEquity"`
}

type incomeStatementResponse struct {
	Income  sectionResponse `json:"income"`
	Expense sectionResponse `json:"expense"`
	Result  decimal.Decimal `json:"result"`
}

type movementResponse struct {
	EntryID        int64           `json:"entryId"`
	EntryNumber    int64           `json:"entryNumber"`
	Date           string          `json:"date"`
	LineNumber     int             `json:"lineNumber"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Description    string          `json:"description,omitempty"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

func toSectionResponse(s Section) sectionResponse {
	out := sectionResponse{Label: s.Label, Total: s.Total, Lines: make([]statementLineResponse, 0, len(s.Lines))}
	for _, line := range s.Lines {
		out.Lines = append(out.Lines, statementLineResponse{
			AccountID: line.AccountID,
			Code:      line.Code,
			Name:      line.Name,
			Level:     line.Level,
			Balance:   line.Balance,
		})
	}
	return out
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	dr, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err, _ := h.group.Do(rangeKey("tb", dr), func() (any, error) {
		// Followers collapsed onto this call must not inherit the first
		// caller's cancellation.
		return h.service.TrialBalance(context.WithoutCancel(r.Context()), dr)
	})
	if err != nil {
		h.logger.Error("trial balance failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	tb := result.(TrialBalance)
	out := trialBalanceResponse{
		Rows:        make([]trialBalanceRowResponse, 0, len(tb.Rows)),
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
	}
	for _, row := range tb.Rows {
		out.Rows = append(out.Rows, trialBalanceRowResponse{
			AccountID:     row.AccountID,
			Code:          row.Code,
			Name:          row.Name,
			Type:          string(row.Type),
			TotalDebit:    row.TotalDebit,
			TotalCredit:   row.TotalCredit,
			EndingBalance: row.EndingBalance,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	cutoff, err := cutoffParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err, _ := h.group.Do("bs|"+cutoff.Format(dateLayout), func() (any, error) {
		return h.service.BalanceSheet(context.WithoutCancel(r.Context()), cutoff)
	})
	if err != nil {
		h.logger.Error("balance sheet failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	bs := result.(BalanceSheet)
	httpx.JSON(w, http.StatusOK, balanceSheetResponse{
		Assets:                    toSectionResponse(bs.Assets),
		Liabilities:               toSectionResponse(bs.Liabilities),
		Equity:                    toSectionResponse(bs.Equity),
		PeriodResult:              bs.PeriodResult,
		TotalAssets:               bs.TotalAssets,
		TotalLiabilitiesAndEquity: bs.TotalLiabilitiesAndEquity,
	})
}

func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	dr, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err, _ := h.group.Do(rangeKey("is", dr), func() (any, error) {
		return h.service.IncomeStatement(context.WithoutCancel(r.Context()), dr)
	})
	if err != nil {
		h.logger.Error("income statement failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	is := result.(IncomeStatement)
	httpx.JSON(w, http.StatusOK, incomeStatementResponse{
		Income:  toSectionResponse(is.Income),
		Expense: toSectionResponse(is.Expense),
		Result:  is.Totals.Result,
	})
}

func (h *Handler) AccountMovements(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	dr, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	movements, err := h.movements(r.Context(), id, dr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]movementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, movementResponse{
			EntryID:        m.EntryID,
			EntryNumber:    m.EntryNumber,
			Date:           m.Date.Format(dateLayout),
			LineNumber:     m.LineNumber,
			Debit:          m.Debit,
			Credit:         m.Credit,
			Description:    m.Description,
			RunningBalance: m.RunningBalance,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) movements(ctx context.Context, id int64, dr DateRange) ([]Movement, error) {
	result, err, _ := h.group.Do(rangeKey("mv|"+strconv.FormatInt(id, 10), dr), func() (any, error) {
		return h.service.AccountMovements(context.WithoutCancel(ctx), id, dr)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Movement), nil
}
