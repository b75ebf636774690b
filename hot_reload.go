// hot_reload.go: manifest file watching and live plugin reload
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package godispatch

import (
	"time"

	"github.com/agilira/argus"
)

// HotReloadOptions tunes the manifest watcher.
type HotReloadOptions struct {
	// PollInterval is how often watched manifests are checked for changes.
	// Zero selects a 2s default.
	PollInterval time.Duration

	// MaxWatchedFiles caps the number of manifests under watch. Zero
	// selects 100.
	MaxWatchedFiles int
}

// HotReloader watches plugin manifest files and keeps the manager in sync:
// a modified manifest is re-parsed, its definition re-registered and the
// plugin reloaded; a deleted manifest unregisters its plugin.
//
// Change callbacks arrive on the watcher's goroutine, so a host using a
// HotReloader must not drive the same manager from other goroutines without
// its own coordination.
type HotReloader struct {
	manager    *Manager
	discoverer *ManifestDiscoverer
	watcher    *argus.Watcher
	logger     Logger
	watched    map[string]string // manifest path -> plugin name
}

// NewHotReloader creates a reloader bound to a manager and the discoverer
// that knows how to instantiate its manifests.
func NewHotReloader(manager *Manager, discoverer *ManifestDiscoverer, opts HotReloadOptions) *HotReloader {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.MaxWatchedFiles <= 0 {
		opts.MaxWatchedFiles = 100
	}

	logger := manager.logger
	watcher := argus.New(argus.Config{
		PollInterval:         opts.PollInterval,
		MaxWatchedFiles:      opts.MaxWatchedFiles,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filepath string) {
			logger.Error("manifest watching error", "error", err, "file", filepath)
		},
	})

	return &HotReloader{
		manager:    manager,
		discoverer: discoverer,
		watcher:    watcher,
		logger:     logger,
		watched:    make(map[string]string),
	}
}

// WatchManifest puts one manifest file under watch. The manifest must parse
// and validate up front so the reloader knows which plugin it describes;
// the plugin itself does not have to be registered yet.
func (hr *HotReloader) WatchManifest(path string) error {
	manifest, err := hr.discoverer.parseManifest(path)
	if err != nil {
		return err
	}
	if err := manifest.Validate(); err != nil {
		return NewInvalidManifestError(path, err)
	}

	if err := hr.watcher.Watch(path, hr.handleChange); err != nil {
		return NewDiscoveryError("failed to watch manifest", err)
	}
	hr.watched[path] = manifest.Name
	hr.logger.Info("watching plugin manifest", "plugin", manifest.Name, "path", path)
	return nil
}

// Start begins monitoring the watched manifests.
func (hr *HotReloader) Start() error {
	return hr.watcher.Start()
}

// Stop halts monitoring. Watched paths are retained, so Start can resume.
func (hr *HotReloader) Stop() error {
	return hr.watcher.Stop()
}

// handleChange processes one filesystem event on a watched manifest.
func (hr *HotReloader) handleChange(event argus.ChangeEvent) {
	hr.logger.Debug("manifest change detected",
		"path", event.Path,
		"is_create", event.IsCreate,
		"is_delete", event.IsDelete,
		"is_modify", event.IsModify)

	if event.IsDelete {
		hr.handleDelete(event.Path)
		return
	}
	hr.handleUpdate(event.Path)
}

// handleUpdate re-reads an added or modified manifest, swaps in the fresh
// definition and reloads the plugin.
func (hr *HotReloader) handleUpdate(path string) {
	plugin, err := hr.discoverer.instantiate(path)
	if err != nil {
		hr.logger.Error("manifest changed but could not be reloaded", "path", path, "error", err)
		return
	}

	name := plugin.Info().Name
	if previous, ok := hr.watched[path]; ok && previous != name {
		// The manifest was renamed in place; retire the old plugin.
		hr.handleDelete(path)
	}
	hr.watched[path] = name

	if err := hr.manager.Register(plugin); err != nil {
		hr.logger.Error("failed to re-register plugin from manifest", "plugin", name, "error", err)
		return
	}
	if _, err := hr.manager.Reload(name); err != nil {
		hr.logger.Error("failed to reload plugin from manifest", "plugin", name, "error", err)
		return
	}
	hr.logger.Info("reloaded plugin from manifest", "plugin", name, "path", path)
}

// handleDelete unregisters the plugin whose manifest disappeared.
func (hr *HotReloader) handleDelete(path string) {
	name, ok := hr.watched[path]
	if !ok {
		return
	}
	delete(hr.watched, path)

	if err := hr.manager.Unregister(name); err != nil {
		hr.logger.Error("failed to unregister plugin after manifest removal", "plugin", name, "error", err)
		return
	}
	hr.logger.Info("unregistered plugin after manifest removal", "plugin", name, "path", path)
}
