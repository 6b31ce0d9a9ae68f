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
	"context"
	"encoding/json"
	"net/http"

	"github.com/jeremyhahn/go-fileprotect/pkg/engine"
	"github.com/jeremyhahn/go-fileprotect/pkg/health"
	"github.com/jeremyhahn/go-fileprotect/pkg/logging"
	"github.com/jeremyhahn/go-fileprotect/pkg/metrics"
)

// HandlerContext holds dependencies for the request handlers. Everything
// is injected; handlers share no global state and are safe for
// concurrent use.
type HandlerContext struct {
	// Version is the API version
	Version string
	// Engine is the (instrumented) protection engine
	Engine engine.Engine
	// Metrics records request-level instrumentation
	Metrics *metrics.Metrics
	// Logger is the request logger
	Logger *logging.Logger
	// HealthChecker manages health check probes
	HealthChecker HealthChecker
}

// HealthChecker defines the interface for health checking.
type HealthChecker interface {
	Live(ctx context.Context) health.CheckResult
	Ready(ctx context.Context) []health.CheckResult
	Startup(ctx context.Context) health.CheckResult
}

// NewHandlerContext creates a new handler context.
func NewHandlerContext(eng engine.Engine, m *metrics.Metrics, logger *logging.Logger, version string) *HandlerContext {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &HandlerContext{
		Version: version,
		Engine:  eng,
		Metrics: m,
		Logger:  logger,
	}
}

// SetHealthChecker sets the health checker for the handler context.
func (h *HandlerContext) SetHealthChecker(checker HealthChecker) {
	h.HealthChecker = checker
}

// HealthHandler handles GET /health requests.
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Version: h.Version,
	}
	writeJSON(w, resp, http.StatusOK)
}

// InspectFileHandler handles POST /v1/inspect_file requests.
//
// Every handler follows the same lifecycle: track the request in flight,
// decode and validate, invoke the engine, classify the outcome. The
// deferred finish runs on every exit path, so the in-flight gauge always
// returns to its pre-call value and latency is observed exactly once.
func (h *HandlerContext) InspectFileHandler(w http.ResponseWriter, r *http.Request) {
	finish := h.Metrics.TrackRequest(metrics.OpInspectFile)
	defer finish()

	var req engine.FileDescriptor
	if err := decodeRequest(r, &req); err != nil {
		h.reject(w, metrics.OpInspectFile, err)
		return
	}

	result, err := h.Engine.GetFileStatus(r.Context(), req)
	if err != nil {
		h.fault(w, metrics.OpInspectFile, err)
		return
	}

	h.respond(w, metrics.OpInspectFile, result)
}

// ProtectFileHandler handles POST /v1/protect_file requests.
func (h *HandlerContext) ProtectFileHandler(w http.ResponseWriter, r *http.Request) {
	finish := h.Metrics.TrackRequest(metrics.OpProtectFile)
	defer finish()

	var req engine.ProtectRequest
	if err := decodeRequest(r, &req); err != nil {
		h.reject(w, metrics.OpProtectFile, err)
		return
	}

	result, err := h.Engine.ProtectFile(r.Context(), req)
	if err != nil {
		h.fault(w, metrics.OpProtectFile, err)
		return
	}

	h.respond(w, metrics.OpProtectFile, result)
}

// UnprotectFileHandler handles POST /v1/unprotect_file requests.
func (h *HandlerContext) UnprotectFileHandler(w http.ResponseWriter, r *http.Request) {
	finish := h.Metrics.TrackRequest(metrics.OpUnprotectFile)
	defer finish()

	var req engine.UnprotectRequest
	if err := decodeRequest(r, &req); err != nil {
		h.reject(w, metrics.OpUnprotectFile, err)
		return
	}

	result, err := h.Engine.UnprotectFile(r.Context(), req)
	if err != nil {
		h.fault(w, metrics.OpUnprotectFile, err)
		return
	}

	h.respond(w, metrics.OpUnprotectFile, result)
}

// validatable is implemented by every request type.
type validatable interface {
	Validate() error
}

// decodeRequest unmarshals the body into req and validates required
// fields, inherited ones included.
func decodeRequest(r *http.Request, req validatable) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return err
	}
	return req.Validate()
}

// reject terminates a request that failed parsing or validation. A
// well-formed negative engine result never lands here; only malformed
// input does.
func (h *HandlerContext) reject(w http.ResponseWriter, method string, err error) {
	h.Logger.Info("request validation failed", "method", method, "error", err.Error())
	h.Metrics.RecordRequest(method, metrics.StatusValidationError)
	writeError(w, err, http.StatusBadRequest)
}

// fault terminates a request on an unexpected failure during engine
// invocation.
func (h *HandlerContext) fault(w http.ResponseWriter, method string, err error) {
	h.Logger.Errorf("error in %s: %v", method, err)
	h.Metrics.RecordRequest(method, metrics.StatusError)
	writeError(w, err, http.StatusInternalServerError)
}

// respond serializes the engine result with a success status. An engine
// result with Status=false is still a successful RPC; only transport,
// validation, and unexpected faults map to 4xx/5xx.
func (h *HandlerContext) respond(w http.ResponseWriter, method string, result engine.Result) {
	h.Metrics.RecordRequest(method, metrics.StatusSuccess)
	writeJSON(w, result, http.StatusOK)
}
