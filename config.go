// config.go: per-plugin configuration map and file loading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"fmt"
	"os"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// PluginConfigs maps plugin names to their option maps. The manager treats
// it as read-only after construction; plugins read it through
// PluginInstance.Config.
type PluginConfigs map[string]map[string]any

// Get looks up one option for one plugin, returning def when the plugin or
// the key is absent.
func (c PluginConfigs) Get(plugin, key string, def any) any {
	options, ok := c[plugin]
	if !ok {
		return def
	}
	value, ok := options[key]
	if !ok {
		return def
	}
	return value
}

// LoadPluginConfigs reads a configuration file keyed by plugin name and
// returns it as a PluginConfigs. The format is detected from the file
// extension; YAML goes through the full-spec parser, everything else through
// Argus (JSON, TOML, HCL, INI, Properties).
func LoadPluginConfigs(path string) (PluginConfigs, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- host-supplied config path
	if err != nil {
		return nil, NewConfigFileError(path, err)
	}

	format := argus.DetectFormat(path)

	if format == argus.FormatYAML {
		configs := PluginConfigs{}
		if err := yaml.Unmarshal(data, &configs); err != nil {
			return nil, NewConfigParseError(path, err)
		}
		return configs, nil
	}

	raw, err := argus.ParseConfig(data, format)
	if err != nil {
		return nil, NewConfigParseError(path, err)
	}

	configs := make(PluginConfigs, len(raw))
	for name, value := range raw {
		options, ok := value.(map[string]any)
		if !ok {
			return nil, NewConfigParseError(path,
				fmt.Errorf("plugin %q: expected an option map, got %T", name, value))
		}
		configs[name] = options
	}
	return configs, nil
}
