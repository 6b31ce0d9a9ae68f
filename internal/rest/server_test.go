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

package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jeremyhahn/go-fileprotect/pkg/engine"
	"github.com/jeremyhahn/go-fileprotect/pkg/health"
	"github.com/jeremyhahn/go-fileprotect/pkg/metrics"
)

func TestNewServerRequiresConfig(t *testing.T) {
	if _, err := NewServer(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestNewServerRequiresEngine(t *testing.T) {
	_, err := NewServer(&Config{
		Metrics: metrics.New(prometheus.NewRegistry()),
	})
	if err == nil {
		t.Error("Expected error for missing engine")
	}
}

func TestNewServerRequiresMetrics(t *testing.T) {
	_, err := NewServer(&Config{
		Engine: &stubEngine{},
	})
	if err == nil {
		t.Error("Expected error for missing metrics")
	}
}

func TestNewServerDefaults(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubEngine{result: engine.Result{Status: true}})

	if srv.Port() != 8080 {
		t.Errorf("Expected default port 8080, got %d", srv.Port())
	}
}

func getProbe(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, HealthCheckResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp HealthCheckResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode probe response: %v", err)
	}
	return rec, resp
}

func TestProbesWithoutChecker(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubEngine{})

	for _, path := range []string{"/health/live", "/health/ready", "/health/startup"} {
		rec, resp := getProbe(t, srv.Handler(), path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200 without a checker, got %d", path, rec.Code)
		}
		if resp.Status != health.StatusHealthy {
			t.Errorf("%s: expected healthy, got %s", path, resp.Status)
		}
	}
}

func TestStartupProbeLifecycle(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubEngine{})

	checker := health.NewChecker()
	srv.SetHealthChecker(checker)

	rec, resp := getProbe(t, srv.Handler(), "/health/startup")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before MarkStarted, got %d", rec.Code)
	}
	if resp.Status != health.StatusUnhealthy {
		t.Errorf("Expected unhealthy before MarkStarted, got %s", resp.Status)
	}

	checker.MarkStarted()

	rec, resp = getProbe(t, srv.Handler(), "/health/startup")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 after MarkStarted, got %d", rec.Code)
	}
	if resp.Status != health.StatusHealthy {
		t.Errorf("Expected healthy after MarkStarted, got %s", resp.Status)
	}
}

func TestReadinessReflectsEngineCheck(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubEngine{})

	checker := health.NewChecker()
	checker.RegisterCheck("engine", health.EngineCheck(false, "library not found"))
	srv.SetHealthChecker(checker)

	rec, resp := getProbe(t, srv.Handler(), "/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 with engine unloaded, got %d", rec.Code)
	}
	if resp.Status != health.StatusUnhealthy {
		t.Errorf("Expected unhealthy, got %s", resp.Status)
	}
	if len(resp.Checks) != 1 || resp.Checks[0].Name != "engine" {
		t.Errorf("Expected the engine check result, got %+v", resp.Checks)
	}
}

func TestReadinessHealthyEngine(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubEngine{})

	checker := health.NewChecker()
	checker.RegisterCheck("engine", health.EngineCheck(true, ""))
	srv.SetHealthChecker(checker)

	rec, resp := getProbe(t, srv.Handler(), "/health/ready")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if resp.Status != health.StatusHealthy {
		t.Errorf("Expected healthy, got %s", resp.Status)
	}
}

func TestRecoveryMiddlewareReturns500(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubEngine{})

	router := srv.Handler()
	// Wrap a panicking handler in the server's middleware stack directly.
	panicking := srv.RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 from recovery middleware, got %d", rec.Code)
	}

	// The real router stays functional after a panic elsewhere.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from health endpoint, got %d", rec.Code)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubEngine{})

	req := httptest.NewRequest(http.MethodPost, "/v1/unknown_op", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
