package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/ledger-engine/internal/ledger/accounts"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/posting"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/reports"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/templates"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AccountsHandler  *accounts.Handler
	JournalsHandler  *journals.Handler
	TemplatesHandler *templates.Handler
	ReportsHandler   *reports.Handler
	PostingHandler   *posting.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/accounts", params.AccountsHandler.MountRoutes)
	r.Route("/entries", params.JournalsHandler.MountRoutes)
	r.Route("/templates", params.TemplatesHandler.MountRoutes)
	r.Route("/reports", params.ReportsHandler.MountRoutes)
	r.Route("/postings", params.PostingHandler.MountRoutes)

	return r
}
