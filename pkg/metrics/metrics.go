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

// Package metrics provides Prometheus instrumentation for the fileprotect
// service. It exposes request counters, latency histograms, in-flight
// gauges, and engine-call metrics. All metrics live on an injected
// Registerer so tests can use a fresh registry per test instead of
// patching process-wide state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all fileprotect metrics
	Namespace = "fileprotect"

	// Label names
	LabelMethod   = "method"
	LabelStatus   = "status"
	LabelFunction = "function"

	// Status values. A well-formed negative engine result is still a
	// success at the request layer; only transport, validation, and
	// unexpected faults carry the other labels.
	StatusSuccess         = "success"
	StatusError           = "error"
	StatusValidationError = "validation_error"

	// RPC method names
	OpInspectFile   = "inspect_file"
	OpProtectFile   = "protect_file"
	OpUnprotectFile = "unprotect_file"

	// Engine function names
	FnGetFileStatus = "get_file_status"
	FnProtectFile   = "protect_file"
	FnUnprotectFile = "unprotect_file"
)

var (
	// requestBuckets cover the end-to-end request path, dominated by the
	// engine call which can take tens of seconds on large files.
	requestBuckets = []float64{.05, .1, .25, .5, .75, 1, 2.5, 5, 7.5, 10, 15, 30, 60}

	// engineBuckets cover the native call alone.
	engineBuckets = []float64{.01, .025, .05, .1, .25, .5, .75, 1, 2.5, 5}
)

// Metrics holds every collector the service records into. Recording is
// best-effort and never fails the caller.
type Metrics struct {
	// RequestsTotal counts requests by method and outcome.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks wall-clock request latency by method.
	RequestDuration *prometheus.HistogramVec

	// ActiveRequests tracks the number of requests currently being
	// processed per method.
	ActiveRequests *prometheus.GaugeVec

	// EngineCallsTotal counts calls into the native engine by function
	// and outcome.
	EngineCallsTotal *prometheus.CounterVec

	// EngineCallDuration tracks time spent inside the native engine by
	// function.
	EngineCallDuration *prometheus.HistogramVec

	// Goroutines is the current number of goroutines, updated by the
	// resource collector.
	Goroutines prometheus.Gauge

	// MemoryAllocBytes is the current bytes of allocated heap objects.
	MemoryAllocBytes prometheus.Gauge

	// MemorySysBytes is the total bytes of memory obtained from the OS.
	MemorySysBytes prometheus.Gauge

	// GCPauseTotalSeconds is the cumulative GC stop-the-world pause time.
	GCPauseTotalSeconds prometheus.Gauge

	// ServerUptime is the seconds since the service started.
	ServerUptime prometheus.Gauge
}

// New creates the full metric set registered against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "requests_total",
				Help:      "Total number of requests by method and outcome",
			},
			[]string{LabelMethod, LabelStatus},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "request_duration_seconds",
				Help:      "Time spent processing requests",
				Buckets:   requestBuckets,
			},
			[]string{LabelMethod},
		),
		ActiveRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "active_requests",
				Help:      "Number of requests currently being processed",
			},
			[]string{LabelMethod},
		),
		EngineCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "engine_calls_total",
				Help:      "Total number of calls into the native protection engine",
			},
			[]string{LabelFunction, LabelStatus},
		),
		EngineCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "engine_call_duration_seconds",
				Help:      "Time spent inside the native protection engine",
				Buckets:   engineBuckets,
			},
			[]string{LabelFunction},
		),
		Goroutines: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),
		MemoryAllocBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "memory_alloc_bytes",
				Help:      "Current bytes of allocated heap objects",
			},
		),
		MemorySysBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "memory_sys_bytes",
				Help:      "Total bytes of memory obtained from the OS",
			},
		),
		GCPauseTotalSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "gc_pause_total_seconds",
				Help:      "Cumulative time spent in GC stop-the-world pauses",
			},
		),
		ServerUptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "server_uptime_seconds",
				Help:      "Server uptime in seconds since startup",
			},
		),
	}
}

// RecordRequest records a request outcome for a method.
func (m *Metrics) RecordRequest(method, status string) {
	m.RequestsTotal.WithLabelValues(method, status).Inc()
}

// TrackRequest marks a request as in flight for the given method and
// returns a function that must run on every exit path, typically via
// defer. The returned function observes the elapsed latency and returns
// the in-flight gauge to its pre-call value regardless of outcome.
func (m *Metrics) TrackRequest(method string) func() {
	m.ActiveRequests.WithLabelValues(method).Inc()
	start := time.Now()

	return func() {
		m.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		m.ActiveRequests.WithLabelValues(method).Dec()
	}
}

// RecordEngineCall records an engine invocation with its duration and
// outcome.
func (m *Metrics) RecordEngineCall(function, status string, duration float64) {
	m.EngineCallsTotal.WithLabelValues(function, status).Inc()
	m.EngineCallDuration.WithLabelValues(function).Observe(duration)
}
