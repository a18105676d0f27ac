package main

import (
	"os"

	"expenso/internal/amqp"
	"expenso/internal/cli"
	"expenso/internal/log"
	"expenso/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the events worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.WorkerPrefetch)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	logger.Info("Starting expenso-events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"prefetch", cfg.WorkerPrefetch)

	if err := worker.NewAuditWorker(repo).Run(ctx, client); err != nil {
		logger.Error("Events worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Events worker stopped gracefully")
}
