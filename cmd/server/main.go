// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-fileprotect.
//
// go-fileprotect is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeremyhahn/go-fileprotect/internal/config"
	"github.com/jeremyhahn/go-fileprotect/internal/server"
	"github.com/jeremyhahn/go-fileprotect/pkg/engine"
	"github.com/jeremyhahn/go-fileprotect/pkg/logging"
)

var (
	// Version information (set during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("fileprotect server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Git Commit: %s\n", commit)
		fmt.Printf("  Built:      %s\n", date)
		os.Exit(0)
	}

	// Check for config file override via environment
	if envConfig := os.Getenv("FILEPROTECT_CONFIG"); envConfig != "" {
		*configPath = envConfig
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.NewLoggerFromConfig(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting fileprotect server",
		"config", *configPath,
		"version", version,
		"port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port)

	// Load the native engine. A load failure degrades readiness instead
	// of exiting, so orchestrators see the probe fail rather than a
	// crash loop.
	binding, err := engine.NewNativeBinding(cfg.Engine.Library)
	if err != nil {
		logger.Warnf("failed to load engine library %s: %v", cfg.Engine.Library, err)
		binding = nil
	}

	srv, err := server.New(cfg, logger, binding)
	if err != nil {
		logger.Fatalf("failed to create server: %v", err)
	}

	shutdownCtx := setupSignalHandler(logger)

	if err := srv.Start(); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}

	<-shutdownCtx.Done()
	logger.Info("Shutdown signal received")

	shutdownTimeout, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownTimeout); err != nil {
		logger.Errorf("error during shutdown: %v", err)
		os.Exit(1)
	}

	logger.Info("Server stopped successfully")
}

// setupSignalHandler sets up signal handling for graceful shutdown
func setupSignalHandler(logger *logging.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	return ctx
}
