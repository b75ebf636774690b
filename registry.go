// registry.go: pattern-matched, priority-ordered hook registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"reflect"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ErrorStrategy governs how a hook failure during dispatch affects the
// remaining chain and the caller.
type ErrorStrategy string

const (
	// StrategyLogAndContinue logs the failure and continues with the next
	// hook. This is the default strategy.
	StrategyLogAndContinue ErrorStrategy = "log_and_continue"

	// StrategyFailFast aborts the chain on the first failing hook and
	// surfaces the failure to the caller.
	StrategyFailFast ErrorStrategy = "fail_fast"

	// StrategyCollectAll records failures, continues to the end of the chain
	// and never surfaces them to the caller.
	StrategyCollectAll ErrorStrategy = "collect_all"
)

// hookEntry is one registered hook under a pattern. fnPtr captures the
// handler's code pointer so Unregister can identify it later.
type hookEntry struct {
	hook  Hook
	owner *PluginInstance
	fnPtr uintptr
}

// pluginName returns the owning plugin's name, or "host" for hooks the host
// registered directly.
func (e *hookEntry) pluginName() string {
	if e.owner == nil {
		return "host"
	}
	return e.owner.Name()
}

// HookRegistry owns the mapping from event pattern to an ordered list of hook
// entries and executes matched hooks when events fire.
//
// Pattern semantics: patterns are dot-segmented event names, stored verbatim.
// A '*' matches any run of characters (it crosses segment boundaries); literal
// dots in the pattern match literal dots in the event name. "user.*" matches
// "user.login" and "user.logout" but not "admin.login"; "db.before_*" matches
// "db.before_save" but not "db.after_save". Matching is computed at trigger
// time against every registered pattern; there is no pre-compiled index.
//
// Ordering: each dispatch pools the entries of every matching pattern and
// sorts them once by priority descending. The sort is stable, so
// equal-priority hooks run in the order their patterns were registered, and
// within one pattern in registration order.
//
// The registry performs no internal locking; see the package documentation
// for the concurrency contract.
type HookRegistry struct {
	hooks    map[string][]*hookEntry
	patterns []string // registration order of patterns, drives stable pooling
	strategy ErrorStrategy
	tracing  bool
	traces   []TraceRecord
	metrics  *DispatchMetrics
	logger   Logger
}

// NewHookRegistry creates a hook registry with the given logger (Logger
// interface or nil for silent operation).
func NewHookRegistry(logger any) *HookRegistry {
	return &HookRegistry{
		hooks:    make(map[string][]*hookEntry),
		strategy: StrategyLogAndContinue,
		metrics:  &DispatchMetrics{},
		logger:   NewLogger(logger),
	}
}

// Register attaches a blocking hook to an event pattern. Duplicate
// registrations are legal; both entries will fire.
func (r *HookRegistry) Register(pattern string, fn HookFunc, opts ...HookOption) {
	r.RegisterHook(NewHook(pattern, fn, opts...), nil)
}

// RegisterCooperative attaches a cooperative hook to an event pattern. The
// hook only runs under TriggerContext.
func (r *HookRegistry) RegisterCooperative(pattern string, fn CtxHookFunc, opts ...HookOption) {
	r.RegisterHook(NewCooperativeHook(pattern, fn, opts...), nil)
}

// RegisterHook appends a hook descriptor to its pattern's list under the
// given owner (nil for host-level hooks) and re-sorts that list by priority
// descending, stable.
func (r *HookRegistry) RegisterHook(h Hook, owner *PluginInstance) {
	if h.Func == nil && h.CtxFunc == nil {
		r.logger.Warn("ignoring hook with no handler", "pattern", h.Pattern)
		return
	}
	if h.Mode == "" {
		h.Mode = ModeBlocking
	}

	entry := &hookEntry{hook: h, owner: owner, fnPtr: handlerPointer(h)}

	if _, exists := r.hooks[h.Pattern]; !exists {
		r.patterns = append(r.patterns, h.Pattern)
	}
	r.hooks[h.Pattern] = append(r.hooks[h.Pattern], entry)
	sort.SliceStable(r.hooks[h.Pattern], func(i, j int) bool {
		return r.hooks[h.Pattern][i].hook.Priority > r.hooks[h.Pattern][j].hook.Priority
	})

	r.logger.Debug("registered hook",
		"pattern", h.Pattern,
		"plugin", entry.pluginName(),
		"priority", h.Priority,
		"timeout", h.Timeout,
		"mode", string(h.Mode))
}

// Unregister removes the first entry under the exact pattern whose handler
// and owner match. It reports whether a removal occurred. Other patterns are
// untouched even if they would match the same events via wildcards.
func (r *HookRegistry) Unregister(pattern string, fn any, owner *PluginInstance) bool {
	entries, exists := r.hooks[pattern]
	if !exists {
		return false
	}

	ptr := reflect.ValueOf(fn).Pointer()
	for i, entry := range entries {
		if entry.fnPtr == ptr && entry.owner == owner {
			r.hooks[pattern] = append(entries[:i], entries[i+1:]...)
			r.logger.Debug("unregistered hook", "pattern", pattern, "plugin", entry.pluginName())
			return true
		}
	}
	return false
}

// UnregisterOwner removes every entry owned by the given plugin instance
// across all patterns and returns the number of entries removed. Used by the
// manager when a plugin unloads or fails mid-load.
func (r *HookRegistry) UnregisterOwner(owner *PluginInstance) int {
	if owner == nil {
		return 0
	}
	removed := 0
	for pattern, entries := range r.hooks {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.owner == owner {
				removed++
				continue
			}
			kept = append(kept, entry)
		}
		r.hooks[pattern] = kept
	}
	return removed
}

// handlerPointer resolves the code pointer used for Unregister identity.
func handlerPointer(h Hook) uintptr {
	if h.Func != nil {
		return reflect.ValueOf(h.Func).Pointer()
	}
	if h.CtxFunc != nil {
		return reflect.ValueOf(h.CtxFunc).Pointer()
	}
	return 0
}

// matchPattern reports whether a fired event name matches a registered
// pattern, by exact equality or wildcard expansion.
func matchPattern(pattern, event string) bool {
	if pattern == event {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return false
	}
	return g.Match(event)
}

// matchingEntries pools the entries of every pattern matching the event and
// sorts the pool once by priority descending, stable.
func (r *HookRegistry) matchingEntries(event string) []*hookEntry {
	var matched []*hookEntry
	for _, pattern := range r.patterns {
		if !matchPattern(pattern, event) {
			continue
		}
		matched = append(matched, r.hooks[pattern]...)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].hook.Priority > matched[j].hook.Priority
	})
	return matched
}

// GetHooks returns the dispatch list for one event: every entry whose pattern
// matches, in execution order.
func (r *HookRegistry) GetHooks(event string) []HookInfo {
	entries := r.matchingEntries(event)
	infos := make([]HookInfo, 0, len(entries))
	for _, entry := range entries {
		info := HookInfo{
			Pattern:  entry.hook.Pattern,
			Priority: entry.hook.Priority,
			Timeout:  entry.hook.Timeout,
			Mode:     entry.hook.Mode,
		}
		if entry.owner != nil {
			info.PluginName = entry.owner.Name()
		}
		infos = append(infos, info)
	}
	return infos
}

// GetEvents returns all registered event patterns in registration order.
func (r *HookRegistry) GetEvents() []string {
	events := make([]string, 0, len(r.patterns))
	for _, pattern := range r.patterns {
		if _, exists := r.hooks[pattern]; exists {
			events = append(events, pattern)
		}
	}
	return events
}

// ClearEvent removes every hook registered under one exact pattern.
func (r *HookRegistry) ClearEvent(pattern string) {
	if _, exists := r.hooks[pattern]; !exists {
		return
	}
	delete(r.hooks, pattern)
	for i, p := range r.patterns {
		if p == pattern {
			r.patterns = append(r.patterns[:i], r.patterns[i+1:]...)
			break
		}
	}
	r.logger.Debug("cleared hooks for pattern", "pattern", pattern)
}

// ClearAll removes every registered hook.
func (r *HookRegistry) ClearAll() {
	r.hooks = make(map[string][]*hookEntry)
	r.patterns = nil
	r.logger.Debug("cleared all hooks")
}

// SetErrorStrategy selects the active error handling strategy. Unknown
// values are rejected.
func (r *HookRegistry) SetErrorStrategy(strategy ErrorStrategy) error {
	switch strategy {
	case StrategyLogAndContinue, StrategyFailFast, StrategyCollectAll:
		r.strategy = strategy
		r.logger.Debug("error strategy set", "strategy", string(strategy))
		return nil
	default:
		return NewInvalidStrategyError(string(strategy))
	}
}

// ErrorStrategy returns the active error handling strategy.
func (r *HookRegistry) ErrorStrategy() ErrorStrategy {
	return r.strategy
}

// EnableTracing toggles execution tracing. Tracing records per-hook elapsed
// time and does not change dispatch outcomes.
func (r *HookRegistry) EnableTracing(enabled bool) {
	r.tracing = enabled
	if !enabled {
		r.traces = nil
	}
	r.logger.Debug("hook tracing toggled", "enabled", enabled)
}

// Traces returns a copy of the trace records collected since tracing was
// enabled.
func (r *HookRegistry) Traces() []TraceRecord {
	out := make([]TraceRecord, len(r.traces))
	copy(out, r.traces)
	return out
}

// Metrics exposes the registry's dispatch counters.
func (r *HookRegistry) Metrics() *DispatchMetrics {
	return r.metrics
}
