// manager.go: plugin lifecycle orchestration and event dispatch surface
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"context"
)

// Built-in lifecycle events. They are ordinary events dispatched through the
// manager's hook registry; any hook can subscribe to them like user events.
const (
	EventPluginRegistered = "dispatch.plugin.registered"
	EventPluginLoaded     = "dispatch.plugin.loaded"
	EventPluginUnloaded   = "dispatch.plugin.unloaded"
	EventPluginError      = "dispatch.plugin.error"

	// Reserved for host convenience; the manager never fires these itself.
	EventAppStartup  = "dispatch.app.startup"
	EventAppShutdown = "dispatch.app.shutdown"
)

// DefinitionResolver re-resolves a plugin definition whose source may have
// changed externally. Reload consults it before loading again; hosts that do
// not hot-swap definitions can leave it unset.
type DefinitionResolver func(name string) (Plugin, error)

// Manager is the central orchestrator for plugin registration, dependency
// ordered loading, enable/disable control and configuration lookup. It owns a
// HookRegistry and routes both plugin-declared and host-level hooks through
// it.
//
// Registered definitions survive load/unload cycles; loaded instances exist
// from a successful Load until Unload. The manager performs no internal
// locking; see the package documentation for the concurrency contract.
type Manager struct {
	registry    *HookRegistry
	definitions map[string]Plugin
	order       []string // definition registration order
	loaded      map[string]*PluginInstance
	loading     map[string]bool // in-progress loads, detects dependency cycles
	config      PluginConfigs
	validate    bool
	discoverer  Discoverer
	resolver    DefinitionResolver
	logger      Logger
}

// ManagerOption configures a Manager at construction.
type ManagerOption func(*Manager)

// WithLogger injects the logger used by the manager and its registry
// (Logger interface or nil for silent operation).
func WithLogger(logger any) ManagerOption {
	return func(m *Manager) {
		m.logger = NewLogger(logger)
	}
}

// WithConfig supplies the plugin configuration map. It is read-only after
// construction.
func WithConfig(config PluginConfigs) ManagerOption {
	return func(m *Manager) {
		m.config = config
	}
}

// WithMetadataValidation toggles plugin metadata validation during Register.
// Validation is on by default.
func WithMetadataValidation(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.validate = enabled
	}
}

// WithDiscoverer injects the discovery collaborator used by DiscoverPlugins.
func WithDiscoverer(d Discoverer) ManagerOption {
	return func(m *Manager) {
		m.discoverer = d
	}
}

// WithResolver injects the definition resolver consulted by Reload.
func WithResolver(r DefinitionResolver) ManagerOption {
	return func(m *Manager) {
		m.resolver = r
	}
}

// NewManager creates a plugin manager. With no options it validates metadata,
// carries an empty configuration and logs nowhere.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		definitions: make(map[string]Plugin),
		loaded:      make(map[string]*PluginInstance),
		loading:     make(map[string]bool),
		config:      PluginConfigs{},
		validate:    true,
		logger:      NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registry = NewHookRegistry(m.logger)
	return m
}

// Registry exposes the manager's hook registry for direct administrative
// access.
func (m *Manager) Registry() *HookRegistry {
	return m.registry
}

// Register stores a plugin definition under its name. Metadata is validated
// unless disabled via WithMetadataValidation. Registering a name twice
// overwrites the previous definition with a warning, not an error. Fires the
// plugin-registered lifecycle event.
func (m *Manager) Register(plugin Plugin) error {
	if plugin == nil {
		return NewInvalidContractError("plugin definition is nil")
	}

	info := plugin.Info()
	if m.validate {
		if err := ValidateInfo(info); err != nil {
			return err
		}
	} else if info.Name == "" {
		// Even unvalidated definitions need a key to be stored under.
		return NewMissingPluginNameError()
	}

	if _, exists := m.definitions[info.Name]; exists {
		m.logger.Warn("plugin already registered, overwriting", "plugin", info.Name)
	} else {
		m.order = append(m.order, info.Name)
	}
	m.definitions[info.Name] = plugin
	m.logger.Info("registered plugin", "plugin", info.Name, "version", info.Version)

	m.fireEvent(EventPluginRegistered, map[string]any{
		"plugin_name": info.Name,
		"version":     info.Version,
	})
	return nil
}

// Unregister unloads the plugin if currently loaded and drops its
// definition. Unknown names fail with a not-found error.
func (m *Manager) Unregister(name string) error {
	if _, exists := m.definitions[name]; !exists {
		return NewPluginNotFoundError(name)
	}
	if _, loaded := m.loaded[name]; loaded {
		if err := m.Unload(name); err != nil {
			return err
		}
	}
	delete(m.definitions, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.logger.Info("unregistered plugin", "plugin", name)
	return nil
}

// Load instantiates a registered plugin: dependencies are loaded first
// (depth-first, failing on cycles), the plugin's declared hooks are
// registered under its ownership, its load callback runs and the instance is
// marked enabled. Load is idempotent — a loaded plugin is returned as-is.
// Any failure leaves the plugin unloaded with none of its hooks registered,
// fires the plugin-error lifecycle event and is reported as a load failure.
func (m *Manager) Load(name string) (*PluginInstance, error) {
	def, registered := m.definitions[name]
	if !registered {
		return nil, NewPluginNotFoundError(name)
	}
	if inst, alreadyLoaded := m.loaded[name]; alreadyLoaded {
		m.logger.Warn("plugin already loaded", "plugin", name)
		return inst, nil
	}
	if m.loading[name] {
		return nil, NewDependencyCycleError(name)
	}
	m.loading[name] = true
	defer delete(m.loading, name)

	inst := &PluginInstance{plugin: def, info: def.Info(), manager: m}

	if err := m.loadInstance(inst); err != nil {
		m.registry.UnregisterOwner(inst)
		m.fireEvent(EventPluginError, map[string]any{
			"plugin_name": name,
			"error":       err.Error(),
		})
		return nil, NewPluginLoadError(name, err)
	}

	inst.enabled = true
	m.loaded[name] = inst
	m.logger.Info("loaded plugin", "plugin", name, "version", inst.info.Version)

	m.fireEvent(EventPluginLoaded, map[string]any{
		"plugin_name": name,
		"version":     inst.info.Version,
	})
	return inst, nil
}

// loadInstance runs the load sequence: dependencies, declared hooks, load
// callback. Hook entries registered here are rolled back by the caller on
// failure.
func (m *Manager) loadInstance(inst *PluginInstance) error {
	for _, dep := range inst.info.Dependencies {
		if m.IsLoaded(dep) {
			continue
		}
		m.logger.Info("loading dependency", "plugin", inst.Name(), "dependency", dep)
		if _, err := m.Load(dep); err != nil {
			return NewDependencyError(inst.Name(), dep, err)
		}
	}

	for _, h := range inst.plugin.Hooks() {
		m.registry.RegisterHook(h, inst)
	}

	if loadable, ok := inst.plugin.(Loadable); ok {
		if err := loadable.OnLoad(); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll attempts to load every registered plugin not yet loaded, in
// registration order, continuing past individual failures. It returns the
// names that loaded successfully; failures are logged, not raised.
func (m *Manager) LoadAll() []string {
	var succeeded []string
	var failed []string

	for _, name := range m.order {
		if m.IsLoaded(name) {
			continue
		}
		if _, err := m.Load(name); err != nil {
			m.logger.Error("failed to load plugin", "plugin", name, "error", err)
			failed = append(failed, name)
			continue
		}
		succeeded = append(succeeded, name)
	}

	m.logger.Info("plugin load pass complete", "loaded", len(succeeded), "failed", len(failed))
	return succeeded
}

// Unload invokes the plugin's unload callback, removes every hook entry the
// instance owns and drops it from the loaded set. Unlike Load, an unload
// callback error propagates to the caller and leaves the plugin loaded.
func (m *Manager) Unload(name string) error {
	inst, loaded := m.loaded[name]
	if !loaded {
		return NewPluginNotLoadedError(name)
	}

	if unloadable, ok := inst.plugin.(Unloadable); ok {
		if err := unloadable.OnUnload(); err != nil {
			m.logger.Error("plugin unload callback failed", "plugin", name, "error", err)
			return NewPluginUnloadError(name, err)
		}
	}

	inst.enabled = false
	removed := m.registry.UnregisterOwner(inst)
	delete(m.loaded, name)
	m.logger.Info("unloaded plugin", "plugin", name, "hooks_removed", removed)

	m.fireEvent(EventPluginUnloaded, map[string]any{"plugin_name": name})
	return nil
}

// UnloadAll unloads every loaded plugin, continuing past individual failures
// (logged, not raised) — intentionally asymmetric with single-plugin Unload.
func (m *Manager) UnloadAll() {
	for _, name := range m.order {
		if !m.IsLoaded(name) {
			continue
		}
		if err := m.Unload(name); err != nil {
			m.logger.Error("failed to unload plugin", "plugin", name, "error", err)
		}
	}
	m.logger.Info("unloaded all plugins")
}

// Reload unloads the plugin if loaded, re-resolves its definition through the
// configured resolver (when one is set) and loads it again.
func (m *Manager) Reload(name string) (*PluginInstance, error) {
	if _, registered := m.definitions[name]; !registered {
		return nil, NewPluginNotFoundError(name)
	}
	m.logger.Info("reloading plugin", "plugin", name)

	if m.IsLoaded(name) {
		if err := m.Unload(name); err != nil {
			return nil, err
		}
	}

	if m.resolver != nil {
		def, err := m.resolver(name)
		if err != nil {
			return nil, NewPluginLoadError(name, err)
		}
		if def != nil {
			m.definitions[name] = def
		}
	}

	return m.Load(name)
}

// DiscoverPlugins delegates to the configured discovery collaborator to
// produce plugin definitions from matching files under directory, registers
// each one and returns the discovered names. Discovered plugins are
// registered, not loaded.
func (m *Manager) DiscoverPlugins(ctx context.Context, directory, pattern string, recursive bool) ([]string, error) {
	if m.discoverer == nil {
		return nil, NewDiscoveryError("no discoverer configured", nil)
	}

	plugins, err := m.discoverer.Discover(ctx, directory, pattern, recursive)
	if err != nil {
		return nil, err
	}

	var discovered []string
	for _, plugin := range plugins {
		if err := m.Register(plugin); err != nil {
			m.logger.Error("failed to register discovered plugin", "error", err)
			continue
		}
		discovered = append(discovered, plugin.Info().Name)
	}

	m.logger.Info("plugin discovery complete", "directory", directory, "discovered", len(discovered))
	return discovered, nil
}

// RegisterHook registers a host-level blocking hook (no owning plugin).
func (m *Manager) RegisterHook(pattern string, fn HookFunc, opts ...HookOption) {
	m.registry.Register(pattern, fn, opts...)
}

// RegisterCooperativeHook registers a host-level cooperative hook.
func (m *Manager) RegisterCooperativeHook(pattern string, fn CtxHookFunc, opts ...HookOption) {
	m.registry.RegisterCooperative(pattern, fn, opts...)
}

// UnregisterHook removes a host-level hook from one exact pattern. It
// reports whether a removal occurred.
func (m *Manager) UnregisterHook(pattern string, fn any) bool {
	return m.registry.Unregister(pattern, fn, nil)
}

// Trigger fires an event on the blocking dispatch path.
func (m *Manager) Trigger(event string, data any) (any, error) {
	return m.registry.Trigger(event, data)
}

// TriggerContext fires an event on the cooperative dispatch path.
func (m *Manager) TriggerContext(ctx context.Context, event string, data any) (any, error) {
	return m.registry.TriggerContext(ctx, event, data)
}

// GetPlugin returns the loaded instance for name.
func (m *Manager) GetPlugin(name string) (*PluginInstance, bool) {
	inst, ok := m.loaded[name]
	return inst, ok
}

// GetAllPlugins returns a copy of the loaded-instances map.
func (m *Manager) GetAllPlugins() map[string]*PluginInstance {
	out := make(map[string]*PluginInstance, len(m.loaded))
	for name, inst := range m.loaded {
		out[name] = inst
	}
	return out
}

// GetRegisteredPlugins returns the names of all registered definitions in
// registration order.
func (m *Manager) GetRegisteredPlugins() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// GetLoadedPlugins returns the names of all loaded plugins in registration
// order.
func (m *Manager) GetLoadedPlugins() []string {
	var out []string
	for _, name := range m.order {
		if m.IsLoaded(name) {
			out = append(out, name)
		}
	}
	return out
}

// IsLoaded reports whether a plugin is currently loaded.
func (m *Manager) IsLoaded(name string) bool {
	_, ok := m.loaded[name]
	return ok
}

// EnablePlugin re-enables a loaded plugin's hooks at dispatch time. No
// re-registration takes place.
func (m *Manager) EnablePlugin(name string) error {
	inst, loaded := m.loaded[name]
	if !loaded {
		return NewPluginNotLoadedError(name)
	}
	inst.enabled = true
	m.logger.Info("enabled plugin", "plugin", name)
	return nil
}

// DisablePlugin causes the registry to skip the plugin's hooks at dispatch
// time. The hook entries stay registered.
func (m *Manager) DisablePlugin(name string) error {
	inst, loaded := m.loaded[name]
	if !loaded {
		return NewPluginNotLoadedError(name)
	}
	inst.enabled = false
	m.logger.Info("disabled plugin", "plugin", name)
	return nil
}

// GetPluginConfig looks up one plugin configuration option, returning def if
// the plugin or the key is absent. The configuration map is immutable after
// construction.
func (m *Manager) GetPluginConfig(name, key string, def any) any {
	return m.config.Get(name, key, def)
}

// SetErrorStrategy selects the registry's error handling strategy.
func (m *Manager) SetErrorStrategy(strategy ErrorStrategy) error {
	return m.registry.SetErrorStrategy(strategy)
}

// EnableHookTracing toggles per-hook execution tracing on the registry.
func (m *Manager) EnableHookTracing(enabled bool) {
	m.registry.EnableTracing(enabled)
}

// GetEvents returns all registered event patterns in registration order.
func (m *Manager) GetEvents() []string {
	return m.registry.GetEvents()
}

// fireEvent dispatches a built-in lifecycle event. Hook failures during
// lifecycle dispatch are logged, never allowed to fail the lifecycle
// operation that fired them.
func (m *Manager) fireEvent(event string, data map[string]any) {
	if _, err := m.registry.Trigger(event, data); err != nil {
		m.logger.Error("lifecycle event dispatch failed", "event", event, "error", err)
	}
}
