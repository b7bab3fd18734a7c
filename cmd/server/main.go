// Command server runs the AsyncHire dashboard.
//
// Configuration comes from the environment (or a .env file); see
// internal/config. JWT_SECRET is required:
//
//	JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/server
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/asynchire/internal/config"
	"github.com/sakif/asynchire/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	if len(cfg.AdminEmails) == 0 {
		logger.Warn("ADMIN_EMAILS is empty, nobody can reach the admin dashboard")
	}
	if !cfg.CookieSecure {
		logger.Warn("COOKIE_SECURE=false, auth cookies will be sent over plain HTTP")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
