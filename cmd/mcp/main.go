// Command mcp exposes Q&A, mindmap and active recall as MCP tools over
// stdio. Logs go to stderr because stdout carries the protocol.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/Htaaxx/NotebookLLM/internal/adapters/mcp"
	"github.com/Htaaxx/NotebookLLM/internal/bootstrap"
	"github.com/Htaaxx/NotebookLLM/internal/config"
	"github.com/Htaaxx/NotebookLLM/internal/observability/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, "notebook-mcp", cfg.LogLevel, "json")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, nil)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.RunSessionJanitor(ctx)

	s := mcpadapter.NewServer(version, mcpadapter.NewHandlers(app.QueryUC, app.MindmapUC, app.RecallUC))
	if err := mcpadapter.ServeStdio(s); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
