package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/gridview/internal/bootstrap"
	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/core"
	_ "github.com/JonMunkholm/gridview/internal/core/views" // Register all views
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database", cfg.Database.Enabled(),
		"remote_odata_url", cfg.Remote.ODataURL,
		"rows_per_page", cfg.Table.RowsPerPage,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.Open(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("failed to open data stack", "error", err)
		os.Exit(1)
	}
	defer stack.Close()

	// Log registered views
	slog.Info("views registered",
		"count", core.ViewCount(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("view group", "group", group, "views", len(core.ByGroup(group)))
	}

	server, err := web.NewServer(web.Options{
		Config:     cfg,
		Bindings:   stack.Bindings(nil),
		Tickets:    stack.Tickets,
		RowSources: stack.RowSources(),
		Logger:     slog.Default(),
	})
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Serve(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		stack.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
