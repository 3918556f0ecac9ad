package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"evaluator-backend/internal/bootstrap"
	"evaluator-backend/internal/queue"
	"evaluator-backend/internal/shared/config"
	"evaluator-backend/internal/shared/telemetry"
	"evaluator-backend/internal/workerproc"
)

func main() {
	cfg := config.Load()
	if _, err := telemetry.Init(cfg.Debug); err != nil {
		telemetry.Warn("worker.logger_init_failed", map[string]any{"error": err.Error()})
	}
	defer telemetry.Sync()

	queueURL := strings.TrimSpace(cfg.EvalQueueURL)
	if queueURL == "" {
		telemetry.Error("worker.config_invalid", map[string]any{"error": "EVAL_SQS_QUEUE_URL is required"})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := queue.NewSQSAPI(ctx, cfg.AWSRegion)
	if err != nil {
		telemetry.Error("worker.sqs_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	// The worker only consumes; evaluations it processes must not be re-enqueued.
	cfg.EvalQueueURL = ""
	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("worker.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	poller := &workerproc.Poller{
		API:               api,
		QueueURL:          queueURL,
		Processor:         app.Processor,
		Concurrency:       envInt("EVAL_WORKER_CONCURRENCY", workerproc.DefaultConcurrency),
		VisibilitySeconds: envInt("EVAL_SQS_VISIBILITY_TIMEOUT_SECONDS", workerproc.DefaultVisibilitySeconds),
		ShutdownTimeout:   time.Duration(envInt("EVAL_SHUTDOWN_TIMEOUT_SECONDS", int(workerproc.DefaultShutdownTimeout/time.Second))) * time.Second,
	}
	poller.Run(ctx)
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
