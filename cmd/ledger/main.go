package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odyssey-erp/ledger-engine/internal/app"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/accounts"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/journals"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/posting"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/reports"
	"github.com/odyssey-erp/ledger-engine/internal/ledger/templates"
	"github.com/odyssey-erp/ledger-engine/internal/platform/db"
	"github.com/odyssey-erp/ledger-engine/internal/storage/memory"
	"github.com/odyssey-erp/ledger-engine/internal/storage/postgres"
)

// repos bundles the per-concern repository views of whichever store is
// configured.
type repos struct {
	accounts  accounts.Repository
	journals  journals.Repository
	templates templates.Repository
	reports   reports.Repository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var r repos
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		store := postgres.New(pool)
		r = repos{
			accounts:  store.Accounts(),
			journals:  store.Journals(),
			templates: store.Templates(),
			reports:   store.Reports(),
		}
	} else {
		logger.Warn("PG_DSN not set, using in-memory store")
		store := memory.New()
		r = repos{
			accounts:  store.Accounts(),
			journals:  store.Journals(),
			templates: store.Templates(),
			reports:   store.Reports(),
		}
	}

	accountsService := accounts.NewService(r.accounts)
	journalsService := journals.NewService(r.journals)
	templatesService := templates.NewService(r.templates, accountsService)
	reportsService := reports.NewService(r.reports)
	postingService := posting.NewService(templatesService, journalsService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AccountsHandler:  accounts.NewHandler(logger, accountsService),
		JournalsHandler:  journals.NewHandler(logger, journalsService),
		TemplatesHandler: templates.NewHandler(logger, templatesService),
		ReportsHandler:   reports.NewHandler(logger, reportsService),
		PostingHandler:   posting.NewHandler(logger, postingService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
