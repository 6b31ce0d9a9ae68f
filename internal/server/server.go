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

// Package server assembles the fileprotect service: the native engine
// binding, metrics registry, health checker, REST listener, and the
// dedicated Prometheus endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-fileprotect/internal/config"
	"github.com/jeremyhahn/go-fileprotect/internal/rest"
	"github.com/jeremyhahn/go-fileprotect/pkg/engine"
	"github.com/jeremyhahn/go-fileprotect/pkg/health"
	"github.com/jeremyhahn/go-fileprotect/pkg/logging"
	"github.com/jeremyhahn/go-fileprotect/pkg/metrics"
)

// Server is the unified fileprotect server running the REST listener and
// the metrics endpoint.
type Server struct {
	config   *config.Config
	logger   *logging.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	engine   engine.Engine

	restServer    *rest.Server
	metricsServer *http.Server
	healthChecker *health.Checker
	collector     *metrics.ResourceCollector

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server from the loaded configuration. The binding is
// injected so the caller decides between the native engine and a stub;
// a nil binding leaves the service up but not ready, which keeps probe
// endpoints and metrics observable while the engine library is absent.
func New(cfg *config.Config, logger *logging.Logger, binding engine.Binding) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewLoggerFromConfig(cfg.Logging.Level, cfg.Logging.Format)
	}

	ctx, cancel := context.WithCancel(context.Background())

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	s := &Server{
		config:   cfg,
		logger:   logger,
		registry: registry,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}

	engineLoaded := binding != nil
	if binding == nil {
		binding = engine.NewUnavailableBinding(fmt.Errorf("engine library %s not loaded", cfg.Engine.Library))
	}

	if err := s.initializeEngine(binding); err != nil {
		cancel()
		return nil, err
	}

	s.initializeHealth(engineLoaded)

	if err := s.initializeREST(); err != nil {
		cancel()
		return nil, err
	}

	if cfg.Metrics.Enabled {
		s.initializeMetricsServer()
	}

	return s, nil
}

// initializeEngine wraps the binding in the serialized adapter and the
// metrics decorator.
func (s *Server) initializeEngine(binding engine.Binding) error {
	adapter, err := engine.NewAdapter(binding, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create engine adapter: %w", err)
	}

	s.engine = metrics.NewInstrumentedEngine(adapter, s.metrics)
	s.logger.Info("Engine adapter initialized", "library", s.config.Engine.Library)
	return nil
}

// initializeHealth registers the engine readiness check.
func (s *Server) initializeHealth(engineLoaded bool) {
	s.healthChecker = health.NewChecker()

	detail := ""
	if !engineLoaded {
		detail = fmt.Sprintf("engine library %s not loaded", s.config.Engine.Library)
	}
	s.healthChecker.RegisterCheck("engine", health.EngineCheck(engineLoaded, detail))
}

// initializeREST builds the REST listener around the instrumented engine.
func (s *Server) initializeREST() error {
	restServer, err := rest.NewServer(&rest.Config{
		Host:    s.config.Server.Host,
		Port:    s.config.Server.Port,
		Engine:  s.engine,
		Metrics: s.metrics,
		Version: buildVersion(),
		Logger:  s.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create REST server: %w", err)
	}

	restServer.SetHealthChecker(s.healthChecker)
	s.restServer = restServer
	return nil
}

// initializeMetricsServer prepares the Prometheus endpoint on its own
// port so scrapes never contend with engine calls.
func (s *Server) initializeMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle(s.config.Metrics.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
	}
}

// Start starts the REST listener, the metrics endpoint, and the resource
// collector, then marks the startup probe as passed.
func (s *Server) Start() error {
	s.logger.Info("Starting fileprotect server",
		"service", s.config.Service.Name,
		"environment", s.config.Service.Environment)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.restServer.Start(); err != nil {
			s.logger.Errorf("REST server error: %v", err)
		}
	}()

	if s.metricsServer != nil {
		s.collector = metrics.StartResourceCollector(s.ctx, s.metrics, 30*time.Second)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.logger.Info("Starting metrics server",
				"address", s.metricsServer.Addr,
				"path", s.config.Metrics.Path)
			if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Errorf("metrics server error: %v", err)
			}
		}()
	}

	s.healthChecker.MarkStarted()
	s.logger.Info("All servers started successfully")
	return nil
}

// Shutdown stops the listeners and waits for in-flight requests to
// drain, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down fileprotect server")

	var firstErr error

	if err := s.restServer.Stop(ctx); err != nil {
		firstErr = err
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to shutdown metrics server: %w", err)
		}
	}

	if s.collector != nil {
		s.collector.Stop()
	}

	s.cancel()
	s.wg.Wait()

	s.logger.Info("Server stopped")
	return firstErr
}

// RESTServer returns the REST listener, primarily for tests.
func (s *Server) RESTServer() *rest.Server {
	return s.restServer
}

// HealthChecker returns the server's health checker.
func (s *Server) HealthChecker() *health.Checker {
	return s.healthChecker
}

// buildVersion retrieves the version from build information.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			if len(setting.Value) >= 7 {
				return setting.Value[:7]
			}
			return setting.Value
		}
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return "dev"
}
