// discovery.go: manifest-based plugin discovery
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Discoverer produces plugin definitions from files under a directory. The
// manager delegates DiscoverPlugins to an injected Discoverer so hosts can
// supply their own instantiation strategy.
type Discoverer interface {
	Discover(ctx context.Context, directory, pattern string, recursive bool) ([]Plugin, error)
}

// Manifest is the on-disk description of a discoverable plugin (JSON or
// YAML). Type selects the factory that instantiates it; Options are passed
// through to the factory untouched.
type Manifest struct {
	Name         string         `json:"name" yaml:"name"`
	Version      string         `json:"version" yaml:"version"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	Author       string         `json:"author,omitempty" yaml:"author,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Type         string         `json:"type" yaml:"type"`
	Options      map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Info converts the manifest metadata to a PluginInfo.
func (m Manifest) Info() PluginInfo {
	return PluginInfo{
		Name:         m.Name,
		Version:      m.Version,
		Description:  m.Description,
		Author:       m.Author,
		Dependencies: m.Dependencies,
	}
}

// Validate checks the manifest for the fields discovery requires. The
// version must parse as semantic versioning.
func (m Manifest) Validate() error {
	if m.Name == "" {
		return NewMissingPluginNameError()
	}
	if m.Version == "" {
		return NewMissingPluginVersionError(m.Name)
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return NewInvalidVersionError(m.Name, m.Version, err)
	}
	if m.Type == "" {
		return NewUnknownPluginTypeError("")
	}
	return nil
}

// PluginFactory instantiates a plugin from a validated manifest.
type PluginFactory func(manifest Manifest) (Plugin, error)

// ManifestDiscoverer scans directories for manifest files and turns them
// into plugin definitions through per-type factories. Files that fail to
// parse, validate or instantiate are logged and skipped; a missing or
// unreadable root directory fails the whole scan.
type ManifestDiscoverer struct {
	factories map[string]PluginFactory
	logger    Logger
}

// NewManifestDiscoverer creates a discoverer with no factories registered
// (Logger interface or nil for silent operation).
func NewManifestDiscoverer(logger any) *ManifestDiscoverer {
	return &ManifestDiscoverer{
		factories: make(map[string]PluginFactory),
		logger:    NewLogger(logger),
	}
}

// RegisterFactory binds a factory to a manifest type. Re-registering a type
// replaces the previous factory.
func (d *ManifestDiscoverer) RegisterFactory(pluginType string, factory PluginFactory) {
	d.factories[pluginType] = factory
}

// Discover scans directory for files whose base name matches pattern
// (filepath.Match syntax, e.g. "*.plugin.json") and instantiates a plugin
// for each valid manifest. With recursive set, subdirectories are scanned
// depth-first in lexical order.
func (d *ManifestDiscoverer) Discover(ctx context.Context, directory, pattern string, recursive bool) ([]Plugin, error) {
	info, err := os.Stat(directory)
	if err != nil {
		return nil, NewDiscoveryError(fmt.Sprintf("cannot access discovery directory %s", directory), err)
	}
	if !info.IsDir() {
		return nil, NewDiscoveryError(fmt.Sprintf("discovery path is not a directory: %s", directory), nil)
	}

	var plugins []Plugin
	if err := d.scanDirectory(ctx, directory, pattern, recursive, &plugins); err != nil {
		return nil, err
	}
	return plugins, nil
}

// scanDirectory collects plugins from one directory level, recursing when
// asked. Per-file failures are logged and skipped.
func (d *ManifestDiscoverer) scanDirectory(ctx context.Context, path, pattern string, recursive bool, plugins *[]Plugin) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return NewDiscoveryError(fmt.Sprintf("failed to read directory %s", path), err)
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fullPath := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			if recursive {
				if err := d.scanDirectory(ctx, fullPath, pattern, recursive, plugins); err != nil {
					return err
				}
			}
			continue
		}

		if matched, err := filepath.Match(pattern, entry.Name()); err != nil || !matched {
			continue
		}

		plugin, err := d.instantiate(fullPath)
		if err != nil {
			d.logger.Error("skipping plugin manifest", "path", fullPath, "error", err)
			continue
		}
		d.logger.Info("discovered plugin", "plugin", plugin.Info().Name, "path", fullPath)
		*plugins = append(*plugins, plugin)
	}
	return nil
}

// instantiate parses, validates and builds one plugin from a manifest file.
func (d *ManifestDiscoverer) instantiate(path string) (Plugin, error) {
	manifest, err := d.parseManifest(path)
	if err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, NewInvalidManifestError(path, err)
	}

	factory, ok := d.factories[manifest.Type]
	if !ok {
		return nil, NewUnknownPluginTypeError(manifest.Type)
	}

	plugin, err := factory(manifest)
	if err != nil {
		return nil, NewInvalidManifestError(path, err)
	}
	return plugin, nil
}

// parseManifest reads a manifest file, trying JSON first and YAML second.
func (d *ManifestDiscoverer) parseManifest(path string) (Manifest, error) {
	var manifest Manifest

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the scanned directory
	if err != nil {
		return manifest, NewInvalidManifestError(path, err)
	}

	if jsonErr := json.Unmarshal(data, &manifest); jsonErr != nil {
		if yamlErr := yaml.Unmarshal(data, &manifest); yamlErr != nil {
			return manifest, NewInvalidManifestError(path, yamlErr)
		}
	}
	return manifest, nil
}

// ManifestPlugin is the plugin produced for manifests whose factories do not
// attach behavior of their own: it carries the manifest metadata and
// options, declares no hooks and exposes its options for the host to wire.
// It is also a convenient base for factory implementations.
type ManifestPlugin struct {
	BasePlugin
	info    PluginInfo
	options map[string]any
}

// NewManifestPlugin builds a hook-less plugin from a manifest.
func NewManifestPlugin(manifest Manifest) *ManifestPlugin {
	return &ManifestPlugin{
		info:    manifest.Info(),
		options: manifest.Options,
	}
}

// Info returns the metadata declared by the manifest.
func (p *ManifestPlugin) Info() PluginInfo {
	return p.info
}

// Option returns one manifest option, or def when absent.
func (p *ManifestPlugin) Option(key string, def any) any {
	if value, ok := p.options[key]; ok {
		return value
	}
	return def
}
