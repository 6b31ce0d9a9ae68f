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
	"runtime"
	"time"
)

// ResourceCollector periodically updates the process gauges (goroutine
// count, memory usage, GC pauses, uptime) on a Metrics set.
type ResourceCollector struct {
	metrics  *Metrics
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration
	started  time.Time
}

// NewResourceCollector creates a collector updating m at the specified
// interval.
func NewResourceCollector(ctx context.Context, m *Metrics, interval time.Duration) *ResourceCollector {
	collectorCtx, cancel := context.WithCancel(ctx)
	return &ResourceCollector{
		metrics:  m,
		ctx:      collectorCtx,
		cancel:   cancel,
		interval: interval,
		started:  time.Now(),
	}
}

// Start begins collecting at the configured interval. This method blocks
// and should typically be run in a goroutine. It returns when Stop() is
// called or the parent context is cancelled.
func (rc *ResourceCollector) Start() {
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	rc.collect()

	for {
		select {
		case <-rc.ctx.Done():
			return
		case <-ticker.C:
			rc.collect()
		}
	}
}

// Stop halts the resource collector.
func (rc *ResourceCollector) Stop() {
	rc.cancel()
}

func (rc *ResourceCollector) collect() {
	rc.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	rc.metrics.MemoryAllocBytes.Set(float64(memStats.Alloc))
	rc.metrics.MemorySysBytes.Set(float64(memStats.Sys))
	rc.metrics.GCPauseTotalSeconds.Set(float64(memStats.PauseTotalNs) / 1e9)
	rc.metrics.ServerUptime.Set(time.Since(rc.started).Seconds())
}

// CollectOnce performs a single collection outside of the periodic loop.
// Useful for immediate gauge updates at startup.
func (rc *ResourceCollector) CollectOnce() {
	rc.collect()
}

// StartResourceCollector creates and starts a resource collector in the
// background, returning it for lifecycle management.
func StartResourceCollector(ctx context.Context, m *Metrics, interval time.Duration) *ResourceCollector {
	collector := NewResourceCollector(ctx, m, interval)
	go collector.Start()
	return collector
}
