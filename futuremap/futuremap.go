// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package futuremap joins a typegraph.Index's state machines with
// symtab poll-symbol resolution into the future map artifact: the
// handoff file a debugger-side session uses to know which poll
// symbols to break on and which type each one belongs to.
package futuremap

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/go-async-trace/futurescope/symtab"
	"github.com/go-async-trace/futurescope/typegraph"
)

// Entry is one future map record: a state-machine type paired with
// the mangled poll symbol that drives it forward, if one was found.
type Entry struct {
	TypeID     string `json:"type_id,omitempty"`
	Name       string `json:"name"`
	PollSymbol string `json:"poll_symbol,omitempty"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
}

// Build resolves a poll symbol for every state machine in ix against
// tbl and returns the future map keyed by "0x<type_id>" when a type
// id is available, falling back to the bare type name otherwise.
func Build(ix *typegraph.Index, tbl *symtab.Table) map[string]Entry {
	out := make(map[string]Entry)
	for _, sm := range ix.StateMachines() {
		e := Entry{TypeID: sm.TypeID, Name: sm.Name}
		if len(sm.Locations) > 0 {
			e.File = sm.Locations[0].File
			e.Line = sm.Locations[0].Line
		}
		if tbl != nil {
			if sym, ok := tbl.FindPollSymbol(sm.Name); ok {
				e.PollSymbol = sym
			}
		}
		out[key(sm)] = e
	}
	return out
}

func key(t *typegraph.TypeRecord) string {
	if t.TypeID != "" {
		return fmt.Sprintf("0x%s", t.TypeID)
	}
	return t.Name
}

// Analysis is the richer, human-facing companion artifact: every
// async function found, every state machine found, and the
// dependency tree among them.
type Analysis struct {
	AsyncFunctions []string            `json:"async_functions"`
	StateMachines  []string            `json:"state_machines"`
	DependencyTree map[string][]string `json:"dependency_tree"`
}

// BuildAnalysis summarizes ix into an Analysis. AsyncFunctions is the
// subset of state machines specifically classified async_env;
// StateMachines is every classified type regardless of kind.
func BuildAnalysis(ix *typegraph.Index) Analysis {
	a := Analysis{DependencyTree: ix.DependencyTree()}
	for _, sm := range ix.StateMachines() {
		a.StateMachines = append(a.StateMachines, sm.Name)
		if sm.Classification == typegraph.AsyncEnv {
			a.AsyncFunctions = append(a.AsyncFunctions, sm.Name)
		}
	}
	sort.Strings(a.AsyncFunctions)
	sort.Strings(a.StateMachines)
	return a
}

// WriteJSON writes v to w as indented JSON, matching the readable,
// diffable artifact style the rest of the toolchain's JSON outputs
// use.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
