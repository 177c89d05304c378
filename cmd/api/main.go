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

	"github.com/Dan9191/coop-ledger/internal/config"
	"github.com/Dan9191/coop-ledger/internal/export"
	"github.com/Dan9191/coop-ledger/internal/handler"
	"github.com/Dan9191/coop-ledger/internal/notify"
	"github.com/Dan9191/coop-ledger/internal/report"
	"github.com/Dan9191/coop-ledger/internal/repository"
	"github.com/Dan9191/coop-ledger/internal/scheduler"
	"github.com/Dan9191/coop-ledger/internal/service"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	repo, err := repository.Open(ctx, cfg.DBDriver, cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize layers
	policy := cfg.Policy()
	svc := service.NewService(repo, policy, logger)
	agg := report.NewAggregator(repo, policy)
	exp := report.NewExporter(agg, export.NewWorkbookSink(cfg.ExportDir), logger)
	h := handler.NewHandler(svc, agg, exp, repo, logger)

	// Schedule the daily overdue scan
	sender := notify.NewSender(cfg, logger)
	sched, err := scheduler.Start(cfg.OverdueSchedule, scheduler.NewOverdueScan(agg, sender, logger), logger)
	if err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer func() { <-sched.Stop().Done() }()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}()

	logger.Infof("Starting server on %s (store: %s, loan terms: %v days, interest %s)",
		addr, cfg.DBDriver, policy.AllowedTerms, policy.InterestRate.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("Server failed: %v", err)
	}
	logger.Info("Server stopped")
}
