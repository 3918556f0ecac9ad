package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evaluator-backend/internal/bootstrap"
	"evaluator-backend/internal/shared/config"
	"evaluator-backend/internal/shared/server"
	"evaluator-backend/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	if _, err := telemetry.Init(cfg.Debug); err != nil {
		telemetry.Warn("api.logger_init_failed", map[string]any{"error": err.Error()})
	}
	defer telemetry.Sync()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("api.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	addr := server.Addr(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		telemetry.Info("api.listening", map[string]any{"addr": addr, "env": cfg.Env, "provider": cfg.LLMProvider})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Error("api.server_error", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	telemetry.Info("api.shutdown", map[string]any{"timeout": shutdownTimeout.String()})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("api.shutdown_failed", map[string]any{"error": err.Error()})
	}

	// Inline evaluations started before shutdown still need to record their outcome.
	done := make(chan struct{})
	go func() {
		app.EvaluationsService.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		telemetry.Warn("api.shutdown_inflight_abandoned", nil)
	}
	if app.DB != nil {
		app.DB.Close()
	}
}
