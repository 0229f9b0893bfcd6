package reports

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger-engine/internal/ledger"
)

// ctxSensitiveRepo fails any call made with a cancelled context,
// mirroring how a database-backed repository behaves.
type ctxSensitiveRepo struct{}

func (ctxSensitiveRepo) PostedLines(ctx context.Context, _ DateRange) ([]PostedLine, error) {
	return nil, ctx.Err()
}

func (ctxSensitiveRepo) PostedLinesByAccount(ctx context.Context, _ int64, _ DateRange) ([]PostedLine, error) {
	return nil, ctx.Err()
}

func (ctxSensitiveRepo) AccountIDsWithMovements(ctx context.Context, _ DateRange) ([]int64, error) {
	return nil, ctx.Err()
}

func (ctxSensitiveRepo) AccountByID(ctx context.Context, id int64) (ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Account{}, err
	}
	return ledger.Account{ID: id, Code: "1.1", Name: "Cash", Type: ledger.AccountTypeAsset}, nil
}

func (ctxSensitiveRepo) Accounts(ctx context.Context) ([]ledger.Account, error) {
	return nil, ctx.Err()
}

func TestTrialBalanceSurvivesCallerCancellation(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(ctxSensitiveRepo{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/trial-balance", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	// The collapsed computation is shared with followers, so one caller
	// going away must not poison the result.
	h.TrialBalance(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCutoffParamDefaultsToWholeDay(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/balance-sheet", nil)
	cutoff, err := cutoffParam(req)
	require.NoError(t, err)

	// The cache key is day-granular; the cutoff must round-trip through
	// the same layout unchanged.
	roundTripped, err := time.Parse(dateLayout, cutoff.Format(dateLayout))
	require.NoError(t, err)
	require.True(t, cutoff.Equal(roundTripped))

	req = httptest.NewRequest(http.MethodGet, "/balance-sheet?cutoff=2024-06-30", nil)
	cutoff, err = cutoffParam(req)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), cutoff)

	req = httptest.NewRequest(http.MethodGet, "/balance-sheet?cutoff=junk", nil)
	_, err = cutoffParam(req)
	require.Error(t, err)
}
