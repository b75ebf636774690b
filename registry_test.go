// registry_test.go: Tests for hook registration, ordering and pattern matching
//
// This test suite covers the hook registry surface: registration and
// unregistration semantics, priority ordering guarantees, wildcard pattern
// matching and the administrative operations.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookRegistry_RegisterAndGetHooks(t *testing.T) {
	registry := NewHookRegistry(nil)

	registry.Register("user.login", func(data any) (any, error) { return nil, nil },
		WithPriority(80), WithTimeout(time.Second))
	registry.Register("user.login", func(data any) (any, error) { return nil, nil })

	hooks := registry.GetHooks("user.login")
	require.Len(t, hooks, 2)

	assert.Equal(t, "user.login", hooks[0].Pattern)
	assert.Equal(t, 80, hooks[0].Priority)
	assert.Equal(t, time.Second, hooks[0].Timeout)
	assert.Equal(t, ModeBlocking, hooks[0].Mode)
	assert.Empty(t, hooks[0].PluginName, "host-level hooks carry no plugin name")

	assert.Equal(t, DefaultPriority, hooks[1].Priority)
	assert.Zero(t, hooks[1].Timeout)
}

func TestHookRegistry_RegisterWithoutHandler(t *testing.T) {
	logger := NewTestLogger()
	registry := NewHookRegistry(logger)

	registry.RegisterHook(Hook{Pattern: "user.login"}, nil)

	assert.Empty(t, registry.GetHooks("user.login"))
	assert.True(t, logger.HasMessage("WARN", "ignoring hook with no handler"))
}

func TestHookRegistry_DuplicateRegistrationBothFire(t *testing.T) {
	registry := NewHookRegistry(nil)

	calls := 0
	fn := func(data any) (any, error) {
		calls++
		return nil, nil
	}
	registry.Register("order.created", fn)
	registry.Register("order.created", fn)

	_, err := registry.Trigger("order.created", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestHookRegistry_PriorityOrdering(t *testing.T) {
	registry := NewHookRegistry(nil)

	rng := rand.New(rand.NewSource(42))
	priorities := make([]int, 20)
	var executed []int

	for i := range priorities {
		priorities[i] = rng.Intn(200) - 50
		priority := priorities[i]
		registry.Register("report.generate", func(data any) (any, error) {
			executed = append(executed, priority)
			return nil, nil
		}, WithPriority(priority))
	}

	_, err := registry.Trigger("report.generate", nil)
	require.NoError(t, err)
	require.Len(t, executed, len(priorities))

	assert.True(t, sort.SliceIsSorted(executed, func(i, j int) bool {
		return executed[i] > executed[j]
	}), "hooks must run in descending priority order, got %v", executed)
}

func TestHookRegistry_EqualPriorityKeepsRegistrationOrder(t *testing.T) {
	registry := NewHookRegistry(nil)

	var executed []string
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("hook-%d", i)
		registry.Register("cache.flush", func(data any) (any, error) {
			executed = append(executed, id)
			return nil, nil
		})
	}

	_, err := registry.Trigger("cache.flush", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hook-0", "hook-1", "hook-2", "hook-3", "hook-4"}, executed)
}

func TestHookRegistry_WildcardMatching(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		event   string
		matches bool
	}{
		{"exact match", "user.login", "user.login", true},
		{"exact mismatch", "user.login", "user.logout", false},
		{"trailing wildcard matches login", "user.*", "user.login", true},
		{"trailing wildcard matches logout", "user.*", "user.logout", true},
		{"trailing wildcard rejects other prefix", "user.*", "admin.login", false},
		{"embedded wildcard matches before_save", "db.before_*", "db.before_save", true},
		{"embedded wildcard matches before_delete", "db.before_*", "db.before_delete", true},
		{"embedded wildcard rejects after_save", "db.before_*", "db.after_save", false},
		{"wildcard crosses segments", "user.*", "user.profile.updated", true},
		{"global wildcard", "*", "anything.at.all", true},
		{"no partial exact match", "user", "user.login", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, matchPattern(tt.pattern, tt.event))
		})
	}
}

func TestHookRegistry_WildcardDispatchPoolsPatterns(t *testing.T) {
	registry := NewHookRegistry(nil)

	var executed []string
	record := func(id string, priority int) {
		registry.Register(map[string]string{
			"exact":  "user.login",
			"wild":   "user.*",
			"global": "*",
		}[id], func(data any) (any, error) {
			executed = append(executed, id)
			return nil, nil
		}, WithPriority(priority))
	}
	record("exact", 10)
	record("wild", 30)
	record("global", 20)

	_, err := registry.Trigger("user.login", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"wild", "global", "exact"}, executed,
		"pooled entries from all matching patterns run in one priority order")
}

func TestHookRegistry_Unregister(t *testing.T) {
	registry := NewHookRegistry(nil)

	calls := 0
	fn := func(data any) (any, error) {
		calls++
		return nil, nil
	}
	other := func(data any) (any, error) { return nil, nil }

	registry.Register("user.login", fn)
	registry.Register("user.login", other)

	assert.True(t, registry.Unregister("user.login", fn, nil))
	assert.False(t, registry.Unregister("user.login", fn, nil), "second removal finds nothing")
	assert.False(t, registry.Unregister("no.such.pattern", fn, nil))

	_, err := registry.Trigger("user.login", nil)
	require.NoError(t, err)
	assert.Zero(t, calls, "unregistered handler must not fire")
	assert.Len(t, registry.GetHooks("user.login"), 1)
}

func TestHookRegistry_UnregisterIsPatternExact(t *testing.T) {
	registry := NewHookRegistry(nil)

	fn := func(data any) (any, error) { return nil, nil }
	registry.Register("user.*", fn)

	// The wildcard entry matches user.login events, but unregistration is
	// keyed on the registered pattern, not on events it would match.
	assert.False(t, registry.Unregister("user.login", fn, nil))
	assert.True(t, registry.Unregister("user.*", fn, nil))
}

func TestHookRegistry_UnregisterOwner(t *testing.T) {
	registry := NewHookRegistry(nil)
	owner := &PluginInstance{info: PluginInfo{Name: "audit"}, enabled: true}

	fn := func(data any) (any, error) { return nil, nil }
	registry.RegisterHook(NewHook("user.login", fn), owner)
	registry.RegisterHook(NewHook("user.logout", fn), owner)
	registry.Register("user.login", fn) // host-level, must survive

	assert.Equal(t, 2, registry.UnregisterOwner(owner))
	assert.Equal(t, 0, registry.UnregisterOwner(owner))
	assert.Equal(t, 0, registry.UnregisterOwner(nil))
	assert.Len(t, registry.GetHooks("user.login"), 1)
}

func TestHookRegistry_GetEvents(t *testing.T) {
	registry := NewHookRegistry(nil)
	fn := func(data any) (any, error) { return nil, nil }

	registry.Register("user.login", fn)
	registry.Register("db.*", fn)
	registry.Register("user.login", fn)

	assert.Equal(t, []string{"user.login", "db.*"}, registry.GetEvents())
}

func TestHookRegistry_ClearEvent(t *testing.T) {
	registry := NewHookRegistry(nil)
	fn := func(data any) (any, error) { return nil, nil }

	registry.Register("user.login", fn)
	registry.Register("user.logout", fn)

	registry.ClearEvent("user.login")
	assert.Empty(t, registry.GetHooks("user.login"))
	assert.Len(t, registry.GetHooks("user.logout"), 1)
	assert.Equal(t, []string{"user.logout"}, registry.GetEvents())

	// Clearing an unknown pattern is a no-op.
	registry.ClearEvent("never.registered")
}

func TestHookRegistry_ClearAll(t *testing.T) {
	registry := NewHookRegistry(nil)
	fn := func(data any) (any, error) { return nil, nil }

	registry.Register("user.login", fn)
	registry.Register("db.*", fn)

	registry.ClearAll()
	assert.Empty(t, registry.GetEvents())
	assert.Empty(t, registry.GetHooks("user.login"))
}

func TestHookRegistry_ErrorStrategySelection(t *testing.T) {
	registry := NewHookRegistry(nil)

	assert.Equal(t, StrategyLogAndContinue, registry.ErrorStrategy(), "default strategy")

	require.NoError(t, registry.SetErrorStrategy(StrategyFailFast))
	assert.Equal(t, StrategyFailFast, registry.ErrorStrategy())

	err := registry.SetErrorStrategy(ErrorStrategy("explode"))
	require.Error(t, err)
	assert.Equal(t, StrategyFailFast, registry.ErrorStrategy(), "rejected strategy leaves the active one untouched")
}
