// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtimeplugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-async-trace/futurescope/debughost"
)

func init() {
	Register("tokio", func() Plugin { return &tokioPlugin{} })
}

// tokioPlugin instruments the tokio runtime's task lifecycle: task
// creation, poll, shutdown, and deallocation of the raw task pointer
// underneath a spawned future.
type tokioPlugin struct{}

func (p *tokioPlugin) Name() string { return "tokio" }

func (p *tokioPlugin) InstrumentPoints() []InstrumentPoint {
	return []InstrumentPoint{
		{
			Symbol: "tokio::runtime::task::raw::RawTask::new",
			EntryTracers: []TracerFactory{
				NewVariableTracer("id.__0", "local"),
				NewBacktraceTracer(),
			},
		},
		{
			Symbol:       "tokio::runtime::task::raw::RawTask::poll",
			EntryTracers: []TracerFactory{NewVariableTracer("self.ptr.pointer", "local")},
		},
		{
			Symbol:       "tokio::runtime::task::raw::RawTask::shutdown",
			EntryTracers: []TracerFactory{NewVariableTracer("self.ptr.pointer", "local")},
		},
		{
			Symbol:       "tokio::runtime::task::raw::RawTask::dealloc",
			EntryTracers: []TracerFactory{NewVariableTracer("self.ptr.pointer", "local")},
		},
	}
}

func (p *tokioPlugin) ExtraBreakpoints() []string {
	return []string{"tokio::runtime::context::CONTEXT"}
}

func (p *tokioPlugin) OnBreakpoint(symbol string, inferior debughost.Inferior) map[string]any {
	val, err := inferior.Evaluate("static", "CONTEXT")
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return map[string]any{"context": val.Repr}
}

func (p *tokioPlugin) ProcessData(data map[string][]Invocation) string {
	var b strings.Builder
	fmt.Fprintln(&b, "----- Tokio Runtime Data Report -----")
	symbols := make([]string, 0, len(data))
	for sym := range data {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		invocations := data[sym]
		fmt.Fprintf(&b, "\n  Symbol: %s (%d calls)\n", sym, len(invocations))
		for i, inv := range invocations {
			fmt.Fprintf(&b, "    Invocation %d (Thread %d):\n", i+1, inv.ThreadID)
			writeTracerMap(&b, "Entry Traces", inv.EntryTracers)
			writeTracerMap(&b, "Exit Traces", inv.ExitTracers)
		}
	}
	fmt.Fprintln(&b, "\n-------------------------------------")
	return b.String()
}

func writeTracerMap(b *strings.Builder, label string, m map[string]any) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(b, "      %s:\n", label)
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		s := fmt.Sprintf("%v", m[n])
		if len(s) > 200 {
			s = s[:200]
		}
		fmt.Fprintf(b, "        - %s: %s\n", n, s)
	}
}
