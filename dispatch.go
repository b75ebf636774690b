// dispatch.go: blocking and cooperative hook execution paths
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// hookResult carries a handler's output across the worker channel.
type hookResult struct {
	out any
	err error
}

// Trigger fires an event on the blocking dispatch path.
//
// Matched hooks run in priority order on the calling goroutine. Each hook can
// replace the running data; a hook returning nil data leaves it unchanged.
// Cooperative hooks cannot run here and are skipped with a warning. A hook
// returning ErrStopPropagation halts the walk and the most recently produced
// data is returned. Failures are governed by the active error strategy;
// Trigger returns a non-nil error only under StrategyFailFast.
func (r *HookRegistry) Trigger(event string, data any) (any, error) {
	entries := r.matchingEntries(event)
	if len(entries) == 0 {
		r.logger.Debug("no hooks registered for event", "event", event)
		return data, nil
	}

	r.metrics.EventsTriggered.Add(1)
	if r.tracing {
		r.logger.Debug("triggering event", "event", event, "hooks", len(entries))
	}

	result := data
	var failures []error

	for _, entry := range entries {
		if entry.owner != nil && !entry.owner.Enabled() {
			r.logger.Debug("skipping hook from disabled plugin",
				"event", event, "plugin", entry.pluginName())
			continue
		}
		if entry.hook.Mode == ModeCooperative {
			r.logger.Warn("skipping cooperative hook in blocking dispatch, use TriggerContext",
				"event", event, "pattern", entry.hook.Pattern, "plugin", entry.pluginName())
			continue
		}

		out, err := r.runBlocking(entry, result, event)

		next, stop, failErr := r.applyOutcome(event, entry, out, err, result, &failures)
		result = next
		if failErr != nil {
			return result, failErr
		}
		if stop {
			break
		}
	}

	if len(failures) > 0 && r.strategy == StrategyCollectAll {
		r.logger.Warn("event completed with hook failures",
			"event", event, "failures", len(failures))
	}
	return result, nil
}

// TriggerContext fires an event on the cooperative dispatch path.
//
// Pooling, ordering, skip and error-strategy rules match Trigger, but both
// hook kinds run: cooperative hooks receive a per-hook context and blocking
// hooks are offloaded to a worker goroutine so they do not stall the caller's
// scheduler. Hooks for one call always run strictly sequentially. A per-hook
// timeout cancels only that hook's pending work; cancellation of ctx itself
// aborts the remaining chain.
func (r *HookRegistry) TriggerContext(ctx context.Context, event string, data any) (any, error) {
	entries := r.matchingEntries(event)
	if len(entries) == 0 {
		r.logger.Debug("no hooks registered for event", "event", event)
		return data, nil
	}

	r.metrics.EventsTriggered.Add(1)
	if r.tracing {
		r.logger.Debug("triggering event", "event", event, "hooks", len(entries), "mode", "cooperative")
	}

	result := data
	var failures []error

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if entry.owner != nil && !entry.owner.Enabled() {
			r.logger.Debug("skipping hook from disabled plugin",
				"event", event, "plugin", entry.pluginName())
			continue
		}

		out, err := r.runCooperative(ctx, entry, result, event)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// The whole dispatch was canceled, not just this hook.
			return result, err
		}

		next, stop, failErr := r.applyOutcome(event, entry, out, err, result, &failures)
		result = next
		if failErr != nil {
			return result, failErr
		}
		if stop {
			break
		}
	}

	if len(failures) > 0 && r.strategy == StrategyCollectAll {
		r.logger.Warn("event completed with hook failures",
			"event", event, "failures", len(failures))
	}
	return result, nil
}

// applyOutcome folds one hook's result into the running data and applies the
// stop-propagation signal and the active error strategy. It returns the new
// running data, whether the chain should halt, and the failure to surface
// under StrategyFailFast.
func (r *HookRegistry) applyOutcome(event string, entry *hookEntry, out any, err error, result any, failures *[]error) (any, bool, error) {
	if err == nil {
		if out != nil {
			result = out
		}
		r.metrics.HooksExecuted.Add(1)
		return result, false, nil
	}

	if errors.Is(err, ErrStopPropagation) {
		// Control signal, not a failure. The hook may still have produced a
		// final value.
		if out != nil {
			result = out
		}
		r.metrics.PropagationStops.Add(1)
		r.logger.Info("hook propagation stopped",
			"event", event, "plugin", entry.pluginName())
		return result, true, nil
	}

	r.metrics.HookFailures.Add(1)
	r.logger.Error("hook execution failed",
		"event", event,
		"pattern", entry.hook.Pattern,
		"plugin", entry.pluginName(),
		"error", err)

	r.notifyOwner(entry, err)

	switch r.strategy {
	case StrategyFailFast:
		return result, true, NewHookError(event, entry.pluginName(), err)
	case StrategyCollectAll:
		*failures = append(*failures, err)
	}
	// StrategyLogAndContinue: move on to the next hook.
	return result, false, nil
}

// notifyOwner reports a hook failure to the owning plugin's error callback.
// Notification is best-effort: a panicking callback is recovered and logged,
// never allowed to replace the original failure.
func (r *HookRegistry) notifyOwner(entry *hookEntry, hookErr error) {
	if entry.owner == nil {
		return
	}
	notifiable, ok := entry.owner.Plugin().(ErrorNotifiable)
	if !ok {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("plugin error callback panicked",
				"plugin", entry.owner.Name(), "panic", fmt.Sprint(rec))
		}
	}()
	notifiable.OnError(hookErr)
}

// runBlocking executes one blocking hook, bounding it with the hook's timeout
// when one is set. Deadline enforcement runs the handler on a worker
// goroutine and waits; on overrun the worker is abandoned rather than
// preempted, since running code cannot be safely interrupted, and a timeout
// failure is reported.
func (r *HookRegistry) runBlocking(entry *hookEntry, data any, event string) (any, error) {
	started := time.Now()

	if entry.hook.Timeout <= 0 {
		out, err := callHook(entry.hook.Func, data)
		r.trace(event, entry, time.Since(started))
		return out, err
	}

	ch := make(chan hookResult, 1)
	go func() {
		out, err := callHook(entry.hook.Func, data)
		ch <- hookResult{out, err}
	}()

	timer := time.NewTimer(entry.hook.Timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		r.trace(event, entry, time.Since(started))
		return res.out, res.err
	case <-timer.C:
		r.metrics.HookTimeouts.Add(1)
		return nil, NewHookTimeoutError(event, entry.pluginName(), entry.hook.Timeout)
	}
}

// runCooperative executes one hook under the cooperative path. Cooperative
// hooks receive a context carrying the hook's deadline; blocking hooks are
// offloaded to a worker and raced against the same deadline. The deadline
// cancels only this hook's pending work, never the sibling hooks.
func (r *HookRegistry) runCooperative(ctx context.Context, entry *hookEntry, data any, event string) (any, error) {
	hookCtx := ctx
	cancel := context.CancelFunc(func() {})
	if entry.hook.Timeout > 0 {
		hookCtx, cancel = context.WithTimeout(ctx, entry.hook.Timeout)
	}
	defer cancel()

	started := time.Now()
	ch := make(chan hookResult, 1)
	go func() {
		if entry.hook.Mode == ModeCooperative {
			out, err := callCtxHook(entry.hook.CtxFunc, hookCtx, data)
			ch <- hookResult{out, err}
			return
		}
		out, err := callHook(entry.hook.Func, data)
		ch <- hookResult{out, err}
	}()

	select {
	case res := <-ch:
		r.trace(event, entry, time.Since(started))
		return res.out, res.err
	case <-hookCtx.Done():
		if parentErr := ctx.Err(); parentErr != nil {
			return nil, parentErr
		}
		r.metrics.HookTimeouts.Add(1)
		return nil, NewHookTimeoutError(event, entry.pluginName(), entry.hook.Timeout)
	}
}

// callHook invokes a blocking handler, converting a panic into a hook
// failure so one crashing plugin cannot take down the host.
func callHook(fn HookFunc, data any) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("hook panicked: %v", rec)
		}
	}()
	return fn(data)
}

// callCtxHook invokes a cooperative handler with panic recovery.
func callCtxHook(fn CtxHookFunc, ctx context.Context, data any) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("hook panicked: %v", rec)
		}
	}()
	return fn(ctx, data)
}
