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

package metrics

import (
	"context"
	"time"

	"github.com/jeremyhahn/go-fileprotect/pkg/engine"
)

// InstrumentedEngine wraps an engine.Engine, timing every call and
// counting outcomes per engine function. Errors pass through unchanged.
//
// Usage:
//
//	adapter, _ := engine.NewAdapter(binding, logger)
//	eng := metrics.NewInstrumentedEngine(adapter, m)
type InstrumentedEngine struct {
	next    engine.Engine
	metrics *Metrics
}

// NewInstrumentedEngine wraps next with call metrics recorded into m.
func NewInstrumentedEngine(next engine.Engine, m *Metrics) *InstrumentedEngine {
	return &InstrumentedEngine{
		next:    next,
		metrics: m,
	}
}

// GetFileStatus invokes the wrapped engine's GetFileStatus.
func (e *InstrumentedEngine) GetFileStatus(ctx context.Context, req engine.FileDescriptor) (engine.Result, error) {
	return e.instrument(FnGetFileStatus, func() (engine.Result, error) {
		return e.next.GetFileStatus(ctx, req)
	})
}

// UnprotectFile invokes the wrapped engine's UnprotectFile.
func (e *InstrumentedEngine) UnprotectFile(ctx context.Context, req engine.UnprotectRequest) (engine.Result, error) {
	return e.instrument(FnUnprotectFile, func() (engine.Result, error) {
		return e.next.UnprotectFile(ctx, req)
	})
}

// ProtectFile invokes the wrapped engine's ProtectFile.
func (e *InstrumentedEngine) ProtectFile(ctx context.Context, req engine.ProtectRequest) (engine.Result, error) {
	return e.instrument(FnProtectFile, func() (engine.Result, error) {
		return e.next.ProtectFile(ctx, req)
	})
}

func (e *InstrumentedEngine) instrument(function string, call func() (engine.Result, error)) (engine.Result, error) {
	start := time.Now()
	result, err := call()
	duration := time.Since(start).Seconds()

	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	e.metrics.RecordEngineCall(function, status, duration)

	return result, err
}
