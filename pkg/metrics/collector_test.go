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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectOnceUpdatesGauges(t *testing.T) {
	m := New(prometheus.NewRegistry())
	rc := NewResourceCollector(context.Background(), m, time.Minute)
	defer rc.Stop()

	rc.CollectOnce()

	if got := testutil.ToFloat64(m.Goroutines); got <= 0 {
		t.Errorf("Expected positive goroutine count, got %v", got)
	}
	if got := testutil.ToFloat64(m.MemoryAllocBytes); got <= 0 {
		t.Errorf("Expected positive heap allocation, got %v", got)
	}
	if got := testutil.ToFloat64(m.MemorySysBytes); got <= 0 {
		t.Errorf("Expected positive system memory, got %v", got)
	}
}

func TestCollectorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New(prometheus.NewRegistry())
	rc := NewResourceCollector(ctx, m, time.Millisecond)

	done := make(chan struct{})
	go func() {
		rc.Start()
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Collector did not stop after context cancellation")
	}
}
