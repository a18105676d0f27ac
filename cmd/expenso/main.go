package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expenso/internal/amqp"
	"expenso/internal/auth"
	"expenso/internal/cli"
	apphttp "expenso/internal/http"
	"expenso/internal/log"
	"expenso/internal/reports"
	"expenso/internal/services"
	"expenso/internal/storage"
)

const sessionSweepInterval = time.Hour

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Expense events are optional; without a broker the app runs standalone.
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.WorkerPrefetch)
		if err != nil {
			logger.Warn("AMQP unavailable, expense events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Publishing expense events", "exchange", cfg.AMQPExchange)
		}
	}

	expenses := services.NewExpenseService(repo, publisher)
	engine := reports.NewEngine(repo,
		reports.WithTrendMonths(cfg.TrendMonths),
		reports.WithRecentLimit(cfg.RecentLimit),
	)
	sessions := auth.NewSessions(repo, cfg.SessionTTL, cfg.SecureCookies)

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		CacheTTL:           cfg.CacheTTL,
		CacheSize:          cfg.CacheSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CurrencySymbol:     cfg.CurrencySymbol,
	}, apphttp.Deps{
		Expenses: expenses,
		Reports:  engine,
		Sessions: sessions,
		DB:       repo,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	go sweepSessions(ctx, logger, repo)

	logger.Info("Starting expenso server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}

// sweepSessions deletes expired sessions until ctx is cancelled.
func sweepSessions(ctx context.Context, logger *log.Logger, repo *storage.SQLiteRepository) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpiredSessions(ctx)
			if err != nil {
				logger.Failure(ctx, "Session sweep failed", err)
				continue
			}
			if n > 0 {
				logger.Debug("Expired sessions removed", "count", n)
			}
		}
	}
}
