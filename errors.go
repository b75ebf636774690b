// errors.go: structured error definitions for the go-dispatch system
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"time"

	"github.com/agilira/go-errors"
)

// Error codes for the go-dispatch system
const (
	// Plugin registration errors (1000-1099)
	ErrCodeInvalidContract    = "DISPATCH_1001"
	ErrCodeRegistrationFailed = "DISPATCH_1002"

	// Metadata validation errors (1100-1199)
	ErrCodeMissingPluginName    = "DISPATCH_1101"
	ErrCodeMissingPluginVersion = "DISPATCH_1102"
	ErrCodeInvalidVersion       = "DISPATCH_1103"

	// Plugin lifecycle errors (1200-1299)
	ErrCodePluginNotFound  = "DISPATCH_1201"
	ErrCodePluginNotLoaded = "DISPATCH_1202"
	ErrCodePluginLoad      = "DISPATCH_1203"
	ErrCodePluginUnload    = "DISPATCH_1204"

	// Dependency resolution errors (1300-1399)
	ErrCodeDependencyFailed = "DISPATCH_1301"
	ErrCodeDependencyCycle  = "DISPATCH_1302"

	// Hook execution errors (1400-1499)
	ErrCodeHookFailed      = "DISPATCH_1401"
	ErrCodeHookTimeout     = "DISPATCH_1402"
	ErrCodeInvalidStrategy = "DISPATCH_1403"

	// Discovery errors (1500-1599)
	ErrCodeDiscoveryFailed   = "DISPATCH_1501"
	ErrCodeInvalidManifest   = "DISPATCH_1502"
	ErrCodeUnknownPluginType = "DISPATCH_1503"

	// Configuration errors (1600-1699)
	ErrCodeConfigFileError  = "DISPATCH_1601"
	ErrCodeConfigParseError = "DISPATCH_1602"
)

// Registration error constructors

func NewInvalidContractError(detail string) *errors.Error {
	return errors.New(ErrCodeInvalidContract, "Invalid plugin contract").
		WithUserMessage("Plugin definition does not satisfy the plugin contract").
		WithContext("detail", detail).
		WithSeverity("error")
}

func NewRegistrationError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeRegistrationFailed, "Plugin registration failed").
		WithUserMessage("The plugin could not be registered").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

// Validation error constructors

func NewMissingPluginNameError() *errors.Error {
	return errors.New(ErrCodeMissingPluginName, "Missing plugin name").
		WithUserMessage("Plugin must declare a non-empty name").
		WithSeverity("error")
}

func NewMissingPluginVersionError(name string) *errors.Error {
	return errors.New(ErrCodeMissingPluginVersion, "Missing plugin version").
		WithUserMessage("Plugin must declare a non-empty version").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewInvalidVersionError(name, version string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeInvalidVersion, "Invalid plugin version").
		WithUserMessage("Plugin version must be a valid semantic version").
		WithContext("plugin_name", name).
		WithContext("version", version).
		WithSeverity("error")
}

// Lifecycle error constructors

func NewPluginNotFoundError(name string) *errors.Error {
	return errors.New(ErrCodePluginNotFound, "Plugin not found").
		WithUserMessage("No plugin is registered under this name").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewPluginNotLoadedError(name string) *errors.Error {
	return errors.New(ErrCodePluginNotLoaded, "Plugin not loaded").
		WithUserMessage("The plugin is registered but not currently loaded").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewPluginLoadError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePluginLoad, "Plugin load failed").
		WithUserMessage("The plugin could not be loaded").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewPluginUnloadError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePluginUnload, "Plugin unload failed").
		WithUserMessage("The plugin unload callback reported an error").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

// Dependency error constructors

func NewDependencyError(name, dependency string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDependencyFailed, "Dependency resolution failed").
		WithUserMessage("A declared plugin dependency could not be loaded").
		WithContext("plugin_name", name).
		WithContext("dependency", dependency).
		WithSeverity("error")
}

func NewDependencyCycleError(name string) *errors.Error {
	return errors.New(ErrCodeDependencyCycle, "Dependency cycle detected").
		WithUserMessage("Plugin dependency graph contains a cycle").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

// Hook execution error constructors

func NewHookError(event, plugin string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeHookFailed, "Hook execution failed").
		WithUserMessage("A hook handler returned an error during dispatch").
		WithContext("event", event).
		WithContext("plugin_name", plugin).
		WithSeverity("error")
}

func NewHookTimeoutError(event, plugin string, timeout time.Duration) *errors.Error {
	return errors.New(ErrCodeHookTimeout, "Hook execution timed out").
		WithUserMessage("A hook handler exceeded its deadline").
		WithContext("event", event).
		WithContext("plugin_name", plugin).
		WithContext("timeout", timeout.String()).
		WithSeverity("error")
}

func NewInvalidStrategyError(strategy string) *errors.Error {
	return errors.New(ErrCodeInvalidStrategy, "Invalid error strategy").
		WithUserMessage("Error strategy must be one of log_and_continue, fail_fast, collect_all").
		WithContext("strategy", strategy).
		WithSeverity("error")
}

// Discovery error constructors

func NewDiscoveryError(detail string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeDiscoveryFailed, "Plugin discovery failed").
			WithUserMessage("Plugin discovery could not complete").
			WithContext("detail", detail).
			WithSeverity("error")
	}
	return errors.New(ErrCodeDiscoveryFailed, "Plugin discovery failed").
		WithUserMessage("Plugin discovery could not complete").
		WithContext("detail", detail).
		WithSeverity("error")
}

func NewInvalidManifestError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeInvalidManifest, "Invalid plugin manifest").
		WithUserMessage("The plugin manifest file could not be parsed or validated").
		WithContext("manifest_path", path).
		WithSeverity("error")
}

func NewUnknownPluginTypeError(pluginType string) *errors.Error {
	return errors.New(ErrCodeUnknownPluginType, "Unknown plugin type").
		WithUserMessage("No factory is registered for this manifest plugin type").
		WithContext("plugin_type", pluginType).
		WithSeverity("error")
}

// Configuration error constructors

func NewConfigFileError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigFileError, "Configuration file error").
		WithUserMessage("The configuration file could not be read").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("The configuration file could not be parsed").
		WithContext("config_path", path).
		WithSeverity("error")
}
