// hook.go: hook descriptors, handler types and execution modes
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"context"
	"errors"
	"time"
)

// DefaultPriority is assigned to hooks that do not set an explicit priority.
// Higher priorities run earlier.
const DefaultPriority = 50

// ErrStopPropagation is the control signal a handler returns to halt the
// remaining hook chain for the current dispatch. It is not a failure: the
// most recently produced data becomes the dispatch result. Handlers may
// return it directly or wrapped; detection uses errors.Is.
var ErrStopPropagation = errors.New("hook propagation stopped")

// HookFunc is a blocking hook handler. It receives the running event data and
// may return a replacement value. Returning nil data leaves the running data
// unchanged for the next hook.
type HookFunc func(data any) (any, error)

// CtxHookFunc is a cooperative hook handler. It must honor ctx for
// cancellation and deadlines; suspension happens only at the handler's own
// blocking points on the context.
type CtxHookFunc func(ctx context.Context, data any) (any, error)

// ExecutionMode selects the dispatch path a hook supports.
type ExecutionMode string

const (
	// ModeBlocking hooks run inline on the blocking dispatch path and are
	// offloaded to a worker on the cooperative path.
	ModeBlocking ExecutionMode = "blocking"

	// ModeCooperative hooks require a context and can only run on the
	// cooperative dispatch path; blocking dispatch skips them with a warning.
	ModeCooperative ExecutionMode = "cooperative"
)

// Hook is the explicit descriptor for a handler attached to an event pattern.
//
// The descriptor is a plain value: plugins build their descriptor set once
// during construction and the registry consumes it at registration time. No
// runtime introspection of plugin values takes place.
type Hook struct {
	// Pattern is the event pattern this hook listens on. It may contain '*'
	// wildcard segments; see HookRegistry for matching semantics.
	Pattern string

	// Priority orders execution within one dispatch; higher runs earlier.
	Priority int

	// Timeout bounds a single execution of the handler. Zero means no limit.
	Timeout time.Duration

	// Mode selects blocking or cooperative execution.
	Mode ExecutionMode

	// Func is the handler for ModeBlocking hooks.
	Func HookFunc

	// CtxFunc is the handler for ModeCooperative hooks.
	CtxFunc CtxHookFunc
}

// HookOption customizes a hook descriptor.
type HookOption func(*Hook)

// WithPriority sets the hook execution priority (higher runs earlier).
func WithPriority(priority int) HookOption {
	return func(h *Hook) {
		h.Priority = priority
	}
}

// WithTimeout bounds a single execution of the hook handler.
func WithTimeout(timeout time.Duration) HookOption {
	return func(h *Hook) {
		h.Timeout = timeout
	}
}

// NewHook builds a blocking hook descriptor for the given pattern.
func NewHook(pattern string, fn HookFunc, opts ...HookOption) Hook {
	h := Hook{
		Pattern:  pattern,
		Priority: DefaultPriority,
		Mode:     ModeBlocking,
		Func:     fn,
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// NewCooperativeHook builds a cooperative hook descriptor for the given
// pattern. Cooperative hooks only run under TriggerContext.
func NewCooperativeHook(pattern string, fn CtxHookFunc, opts ...HookOption) Hook {
	h := Hook{
		Pattern:  pattern,
		Priority: DefaultPriority,
		Mode:     ModeCooperative,
		CtxFunc:  fn,
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// HookInfo describes one entry of a dispatch list for administrative
// inspection. PluginName is empty for host-level hooks.
type HookInfo struct {
	Pattern    string
	PluginName string
	Priority   int
	Timeout    time.Duration
	Mode       ExecutionMode
}
