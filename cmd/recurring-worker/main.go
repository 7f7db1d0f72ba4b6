// The recurring-worker drives the scheduler on a ticker for deployments
// without an external cron hitting the batch endpoint. Both paths share the
// same dedup, so running worker and cron together stays safe.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
	"bilancio/internal/metrics"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	applog.Setup()
	logger := applog.ForComponent(applog.ComponentWorker)

	logger.Info("starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	scheduler := services.NewRecurringScheduler(repo, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("recurring expense worker configured",
		"interval", cfg.ProcessInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	runOnce(ctx, scheduler, logger)

	ticker := time.NewTicker(cfg.ProcessInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce(ctx, scheduler, logger)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	logger.Info("recurring-worker shutdown complete")
}

func runOnce(ctx context.Context, scheduler *services.RecurringScheduler, logger *applog.Logger) {
	start := time.Now()
	result, err := scheduler.ProcessDueTemplates(ctx, time.Now())
	metrics.ObserveRun(result.Processed, result.Skipped, time.Since(start), err)
	if err != nil {
		logger.ErrorContext(ctx, "recurring expense run failed", applog.FieldError, err)
		return
	}
	logger.InfoContext(ctx, "recurring expense run complete",
		applog.FieldProcessed, result.Processed,
		applog.FieldSkipped, result.Skipped)
}
