package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/risknavigator/document-classifier/internal/adapters/http"
	"github.com/risknavigator/document-classifier/internal/bootstrap"
	"github.com/risknavigator/document-classifier/internal/config"
	"github.com/risknavigator/document-classifier/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(httpadapter.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	budget := time.Duration(cfg.RequestBudgetSeconds) * time.Second
	router := httpadapter.NewRouter(app.ClassifyUC, app.ListUC, app.Metrics, httpadapter.Options{
		RequestBudget:  budget,
		RateLimitRPS:   cfg.APIRateLimitRPS,
		RateLimitBurst: cfg.APIRateLimitBurst,
		MaxInFlight:    cfg.APIMaxInFlight,
	}).Handler()

	// Write timeout has to outlast the classification budget or the server
	// cuts off batches still waiting on the oracle.
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: budget + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api_server_error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
