package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/config"
	"github.com/mamadbah2/stones/internal/repository/mongodb"
	"github.com/mamadbah2/stones/internal/repository/sheets"
	"github.com/mamadbah2/stones/internal/scheduler"
	"github.com/mamadbah2/stones/internal/server/handlers"
	"github.com/mamadbah2/stones/internal/server/router"
	formsvc "github.com/mamadbah2/stones/internal/service/forms"
	reportingsvc "github.com/mamadbah2/stones/internal/service/reporting"
	stonesclient "github.com/mamadbah2/stones/pkg/clients/stones"
	whatsappclient "github.com/mamadbah2/stones/pkg/clients/whatsapp"
	"github.com/mamadbah2/stones/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, baseLogger)
	stop()

	if err != nil {
		baseLogger.Error("server stopped with error", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
	_ = baseLogger.Sync()
}

// run wires the service and blocks until ctx is cancelled or the HTTP server fails.
// Every resource opened here is released before it returns.
func run(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) error {
	client := stonesclient.NewClient(cfg.Backend, logger.Named(baseLogger, "clients.stones"))
	registry := formsvc.NewRegistry(client, cfg.Form.NavigateDelay, cfg.Form.SessionTTL, logger.Named(baseLogger, "svc.forms"))

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			return fmt.Errorf("init sheets repository: %w", err)
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, snapshot history disabled")
	}

	var snapshotStore reportingsvc.SnapshotStore
	if cfg.MongoDB.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			return fmt.Errorf("init mongodb repository: %w", err)
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		snapshotStore = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, latest snapshot disabled")
	}

	reportingSvc := reportingsvc.NewService(client, sheetsRepo, snapshotStore, logger.Named(baseLogger, "svc.reporting"))

	formHandler := handlers.NewFormHandler(registry, logger.Named(baseLogger, "handlers.forms"))
	stonesHandler := handlers.NewStonesHandler(client, reportingSvc, logger.Named(baseLogger, "handlers.stones"))
	engine := router.New(cfg.Server, formHandler, stonesHandler, logger.Named(baseLogger, "router"))

	var notifier scheduler.SummaryNotifier
	if cfg.WhatsApp.Enabled() {
		notifier = whatsappclient.NewSummaryNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.Recipients, logger.Named(baseLogger, "clients.whatsapp"))
		baseLogger.Info("whatsapp summary delivery enabled", zap.Int("recipients", len(cfg.WhatsApp.Recipients)))
	}

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, registry, notifier, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("stones_api", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server crashed: %w", err)
		}
		return nil
	case <-ctx.Done():
		baseLogger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
