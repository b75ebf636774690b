// observability.go: dispatch metrics and hook execution tracing
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
)

// DispatchMetrics tracks registry-level dispatch counters. Counters are
// atomic so observers may read them while a dispatch is in flight.
type DispatchMetrics struct {
	EventsTriggered  atomic.Int64
	HooksExecuted    atomic.Int64
	HookFailures     atomic.Int64
	HookTimeouts     atomic.Int64
	PropagationStops atomic.Int64
}

// Snapshot returns a point-in-time copy of the counters.
func (m *DispatchMetrics) Snapshot() DispatchMetricsSnapshot {
	return DispatchMetricsSnapshot{
		EventsTriggered:  m.EventsTriggered.Load(),
		HooksExecuted:    m.HooksExecuted.Load(),
		HookFailures:     m.HookFailures.Load(),
		HookTimeouts:     m.HookTimeouts.Load(),
		PropagationStops: m.PropagationStops.Load(),
		GeneratedAt:      timecache.CachedTime(),
	}
}

// DispatchMetricsSnapshot is a plain-value view of DispatchMetrics.
type DispatchMetricsSnapshot struct {
	EventsTriggered  int64     `json:"events_triggered"`
	HooksExecuted    int64     `json:"hooks_executed"`
	HookFailures     int64     `json:"hook_failures"`
	HookTimeouts     int64     `json:"hook_timeouts"`
	PropagationStops int64     `json:"propagation_stops"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// TraceRecord captures one hook execution while tracing is enabled.
type TraceRecord struct {
	Event      string        `json:"event"`
	Pattern    string        `json:"pattern"`
	PluginName string        `json:"plugin_name"`
	Priority   int           `json:"priority"`
	Elapsed    time.Duration `json:"elapsed"`
	At         time.Time     `json:"at"`
}

// trace records one completed hook execution. It is a no-op unless tracing
// is enabled; tracing never changes dispatch outcomes.
func (r *HookRegistry) trace(event string, entry *hookEntry, elapsed time.Duration) {
	if !r.tracing {
		return
	}
	record := TraceRecord{
		Event:      event,
		Pattern:    entry.hook.Pattern,
		PluginName: entry.pluginName(),
		Priority:   entry.hook.Priority,
		Elapsed:    elapsed,
		At:         timecache.CachedTime(),
	}
	r.traces = append(r.traces, record)
	r.logger.Debug("hook executed",
		"event", event,
		"pattern", entry.hook.Pattern,
		"plugin", record.PluginName,
		"priority", record.Priority,
		"elapsed", elapsed)
}
