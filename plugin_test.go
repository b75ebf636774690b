// plugin_test.go: Tests for the plugin contract, metadata and base plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInfo(t *testing.T) {
	tests := []struct {
		name    string
		info    PluginInfo
		errCode string
	}{
		{
			name: "valid",
			info: PluginInfo{Name: "cache", Version: "1.0.0"},
		},
		{
			name: "valid with dependencies",
			info: PluginInfo{Name: "cache", Version: "1.0.0", Dependencies: []string{"db"}},
		},
		{
			name:    "missing name",
			info:    PluginInfo{Version: "1.0.0"},
			errCode: ErrCodeMissingPluginName,
		},
		{
			name:    "missing version",
			info:    PluginInfo{Name: "cache"},
			errCode: ErrCodeMissingPluginVersion,
		},
		{
			name:    "empty dependency name",
			info:    PluginInfo{Name: "cache", Version: "1.0.0", Dependencies: []string{"db", ""}},
			errCode: ErrCodeInvalidContract,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInfo(tt.info)
			if tt.errCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assertErrorCode(t, err, tt.errCode)
		})
	}
}

func TestBasePlugin_CollectsDescriptors(t *testing.T) {
	var base BasePlugin

	base.RegisterHook("user.login", func(data any) (any, error) { return nil, nil },
		WithPriority(80), WithTimeout(time.Second))
	base.RegisterCooperativeHook("task.run", func(ctx context.Context, data any) (any, error) {
		return nil, nil
	})

	hooks := base.Hooks()
	require.Len(t, hooks, 2)

	assert.Equal(t, "user.login", hooks[0].Pattern)
	assert.Equal(t, 80, hooks[0].Priority)
	assert.Equal(t, time.Second, hooks[0].Timeout)
	assert.Equal(t, ModeBlocking, hooks[0].Mode)
	assert.NotNil(t, hooks[0].Func)

	assert.Equal(t, "task.run", hooks[1].Pattern)
	assert.Equal(t, DefaultPriority, hooks[1].Priority)
	assert.Equal(t, ModeCooperative, hooks[1].Mode)
	assert.NotNil(t, hooks[1].CtxFunc)
}

func TestBasePlugin_HooksReturnsCopy(t *testing.T) {
	var base BasePlugin
	base.RegisterHook("a.b", func(data any) (any, error) { return nil, nil })

	hooks := base.Hooks()
	hooks[0].Pattern = "mutated"

	assert.Equal(t, "a.b", base.Hooks()[0].Pattern, "callers must not be able to mutate the declared set")
}

func TestPluginInstance_RuntimeHookRegistration(t *testing.T) {
	manager := NewManager()
	require.NoError(t, manager.Register(newTestPlugin("dynamic")))

	inst, err := manager.Load("dynamic")
	require.NoError(t, err)

	fn := func(data any) (any, error) { return "late", nil }
	inst.RegisterHook("user.login", fn)

	result, err := manager.Trigger("user.login", nil)
	require.NoError(t, err)
	assert.Equal(t, "late", result)

	hooks := manager.Registry().GetHooks("user.login")
	require.Len(t, hooks, 1)
	assert.Equal(t, "dynamic", hooks[0].PluginName, "runtime hooks carry instance ownership")

	assert.True(t, inst.UnregisterHook("user.login", fn))
	assert.Empty(t, manager.Registry().GetHooks("user.login"))
}

func TestPluginInstance_RuntimeHooksRemovedOnUnload(t *testing.T) {
	manager := NewManager()
	require.NoError(t, manager.Register(newTestPlugin("dynamic")))

	inst, err := manager.Load("dynamic")
	require.NoError(t, err)
	inst.RegisterHook("user.login", func(data any) (any, error) { return nil, nil })

	require.NoError(t, manager.Unload("dynamic"))
	assert.Empty(t, manager.Registry().GetHooks("user.login"))
}

func TestPluginInstance_TriggerThroughManager(t *testing.T) {
	manager := NewManager()

	manager.RegisterHook("ping", func(data any) (any, error) { return "pong", nil })

	require.NoError(t, manager.Register(newTestPlugin("caller")))
	inst, err := manager.Load("caller")
	require.NoError(t, err)

	result, err := inst.Trigger("ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", result)

	result, err = inst.TriggerContext(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", result)
}
