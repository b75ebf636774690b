// Package godispatch provides an embeddable plugin and hook system for Go
// applications. Host applications define named extension points (events) and
// independently registered plugins attach ordered, filterable handlers (hooks)
// to them, with failures in one handler isolated from the host and from
// sibling handlers.
//
// Key Features:
//   - Priority-ordered hook execution with stable ties
//   - Event namespacing with wildcard patterns ("user.*", "db.before_*")
//   - Blocking and cooperative (context-aware) dispatch paths
//   - Per-hook timeout protection
//   - Configurable error strategies (log-and-continue, fail-fast, collect-all)
//   - Plugin lifecycle orchestration with dependency resolution
//   - Manifest-based plugin discovery and hot reload
//   - Pluggable structured logging and execution tracing
//
// Basic Usage:
//
//	type AuditPlugin struct {
//		godispatch.BasePlugin
//	}
//
//	func (p *AuditPlugin) Info() godispatch.PluginInfo {
//		return godispatch.PluginInfo{Name: "audit", Version: "1.0.0"}
//	}
//
//	func NewAuditPlugin() *AuditPlugin {
//		p := &AuditPlugin{}
//		p.RegisterHook("user.*", func(data any) (any, error) {
//			// observe or transform the event payload
//			return data, nil
//		}, godispatch.WithPriority(100))
//		return p
//	}
//
//	manager := godispatch.NewManager()
//	if err := manager.Register(NewAuditPlugin()); err != nil {
//		log.Fatal(err)
//	}
//	manager.LoadAll()
//	result, err := manager.Trigger("user.login", map[string]any{"id": 42})
//
// Concurrency:
// The registry and manager mutate shared state without internal locking. The
// design assumes a single logical caller at a time; hosts that dispatch from
// multiple goroutines must serialize calls externally. Worker goroutines are
// used internally only to bound hook execution time and never touch shared
// state.
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package godispatch
