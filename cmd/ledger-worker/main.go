package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Norfeusz/finance-manager-sub000/internal/config"
	"github.com/Norfeusz/finance-manager-sub000/internal/events"
	"github.com/Norfeusz/finance-manager-sub000/internal/ledger"
	applog "github.com/Norfeusz/finance-manager-sub000/internal/log"
	"github.com/Norfeusz/finance-manager-sub000/internal/storage"
	"github.com/Norfeusz/finance-manager-sub000/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting ledger-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	auditWorker := worker.NewAuditWorker(ledger.NewBalances(repo), cfg.AuditBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One audit at startup catches drift accumulated while the worker
	// was down.
	if _, err := auditWorker.RunAudit(ctx); err != nil {
		logger.Error("Startup audit failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, events.Handlers{
			EntriesPosted: auditWorker.HandleEntriesPosted,
			MonthClosed:   auditWorker.HandleMonthClosed,
		})
	})
	g.Go(func() error {
		return auditWorker.RunPeriodic(ctx, cfg.AuditInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
