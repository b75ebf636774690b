// plugin.go: plugin contract, metadata and the embeddable base plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"context"
	"fmt"
)

// PluginInfo carries a plugin's identity and dependency metadata.
type PluginInfo struct {
	// Name uniquely identifies the plugin within a manager.
	Name string `json:"name" yaml:"name"`

	// Version is the plugin's version string.
	Version string `json:"version" yaml:"version"`

	// Description is a human-readable summary of what the plugin does.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Author identifies who maintains the plugin.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Dependencies lists the names of plugins that must be loaded before
	// this one, in declaration order.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Plugin is the contract every extension unit implements. A plugin is a plain
// value satisfying this interface; no base type embedding is required,
// although BasePlugin is available for convenience.
type Plugin interface {
	// Info returns the plugin's identity and dependency metadata.
	Info() PluginInfo

	// Hooks returns the hook descriptors this plugin declares. The manager
	// collects them once at load time and registers them under the plugin's
	// ownership.
	Hooks() []Hook
}

// Loadable is implemented by plugins that need a lifecycle callback when
// they are loaded. An error aborts the load.
type Loadable interface {
	OnLoad() error
}

// Unloadable is implemented by plugins that need a lifecycle callback when
// they are unloaded. An error from OnUnload propagates to the Unload caller.
type Unloadable interface {
	OnUnload() error
}

// ErrorNotifiable is implemented by plugins that want to be told when one of
// their hooks fails during dispatch. Notification is best-effort.
type ErrorNotifiable interface {
	OnError(err error)
}

// ValidateInfo checks plugin metadata: the name and version must be
// non-empty. Dependency entries must be non-empty names.
func ValidateInfo(info PluginInfo) error {
	if info.Name == "" {
		return NewMissingPluginNameError()
	}
	if info.Version == "" {
		return NewMissingPluginVersionError(info.Name)
	}
	for i, dep := range info.Dependencies {
		if dep == "" {
			return NewInvalidContractError(
				fmt.Sprintf("plugin %q dependency %d is empty", info.Name, i))
		}
	}
	return nil
}

// BasePlugin is an embeddable helper that collects hook descriptors declared
// before the plugin is loaded. Embedding it gives a plugin the imperative
// RegisterHook registration style:
//
//	type CachePlugin struct {
//		godispatch.BasePlugin
//	}
//
//	func NewCachePlugin() *CachePlugin {
//		p := &CachePlugin{}
//		p.RegisterHook("db.before_*", p.invalidate, godispatch.WithPriority(80))
//		return p
//	}
//
// The embedding plugin still implements Info itself.
type BasePlugin struct {
	hooks []Hook
}

// RegisterHook declares a blocking hook to be registered when the plugin
// loads.
func (b *BasePlugin) RegisterHook(pattern string, fn HookFunc, opts ...HookOption) {
	b.hooks = append(b.hooks, NewHook(pattern, fn, opts...))
}

// RegisterCooperativeHook declares a cooperative hook to be registered when
// the plugin loads.
func (b *BasePlugin) RegisterCooperativeHook(pattern string, fn CtxHookFunc, opts ...HookOption) {
	b.hooks = append(b.hooks, NewCooperativeHook(pattern, fn, opts...))
}

// Hooks returns the descriptors collected so far.
func (b *BasePlugin) Hooks() []Hook {
	out := make([]Hook, len(b.hooks))
	copy(out, b.hooks)
	return out
}

// PluginInstance is the loaded-instance record the manager keeps for each
// plugin. It carries the enabled flag consulted at dispatch time and the
// manager back-reference, and it owns the plugin's hook registry entries.
type PluginInstance struct {
	plugin  Plugin
	info    PluginInfo
	enabled bool
	manager *Manager
}

// Name returns the plugin's unique name.
func (pi *PluginInstance) Name() string {
	return pi.info.Name
}

// Info returns the plugin's metadata.
func (pi *PluginInstance) Info() PluginInfo {
	return pi.info
}

// Plugin returns the underlying plugin value.
func (pi *PluginInstance) Plugin() Plugin {
	return pi.plugin
}

// Enabled reports whether the plugin's hooks participate in dispatch.
func (pi *PluginInstance) Enabled() bool {
	return pi.enabled
}

// RegisterHook registers an additional blocking hook owned by this instance.
// Unlike BasePlugin.RegisterHook this takes effect immediately; the entry is
// removed when the instance unloads, like the declared hooks.
func (pi *PluginInstance) RegisterHook(pattern string, fn HookFunc, opts ...HookOption) {
	pi.manager.registry.RegisterHook(NewHook(pattern, fn, opts...), pi)
}

// UnregisterHook removes a hook owned by this instance from one exact
// pattern. It reports whether a removal occurred.
func (pi *PluginInstance) UnregisterHook(pattern string, fn any) bool {
	return pi.manager.registry.Unregister(pattern, fn, pi)
}

// Trigger fires an event through the owning manager's registry.
func (pi *PluginInstance) Trigger(event string, data any) (any, error) {
	return pi.manager.Trigger(event, data)
}

// TriggerContext fires an event through the owning manager's registry on the
// cooperative dispatch path.
func (pi *PluginInstance) TriggerContext(ctx context.Context, event string, data any) (any, error) {
	return pi.manager.TriggerContext(ctx, event, data)
}

// Config looks up one of this plugin's configuration options, returning def
// when it is absent.
func (pi *PluginInstance) Config(key string, def any) any {
	return pi.manager.GetPluginConfig(pi.info.Name, key, def)
}

// String implements fmt.Stringer.
func (pi *PluginInstance) String() string {
	return fmt.Sprintf("<Plugin name=%q version=%q enabled=%t>", pi.info.Name, pi.info.Version, pi.enabled)
}
