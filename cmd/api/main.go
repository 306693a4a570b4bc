package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/Htaaxx/NotebookLLM/internal/adapters/http"
	"github.com/Htaaxx/NotebookLLM/internal/bootstrap"
	"github.com/Htaaxx/NotebookLLM/internal/config"
	"github.com/Htaaxx/NotebookLLM/internal/observability/logging"
	"github.com/Htaaxx/NotebookLLM/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("notebook-api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("notebook-api")
	app, err := bootstrap.New(ctx, cfg, metrics.NewGatewayMetrics("notebook-api", httpMetrics.Registerer()))
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.RunSessionJanitor(ctx)

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Ingest:    app.IngestUC,
		Documents: app.DocumentsUC,
		Manager:   app.DocumentsUC,
		Query:     app.QueryUC,
		Mindmap:   app.MindmapUC,
		Recall:    app.RecallUC,
	}, httpMetrics)
	handler, err := router.Handler()
	if err != nil {
		logger.Error("router_init_failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.GatewayTimeout * 3,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
