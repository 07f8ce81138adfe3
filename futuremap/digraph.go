// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package futuremap

import "github.com/go-async-trace/futurescope/typegraph"

// A DependencyNode is one state machine in the visualizable
// dependency graph: its dependencies (transitive, as
// typegraph.Index.Deps computes them) and a single
// representative declaration site, per the "Also persists, for
// visualization, an adjacency listing..." bullet of specification
// §4.D.
type DependencyNode struct {
	Name string   `json:"name"`
	File string   `json:"file,omitempty"`
	Line int      `json:"line,omitempty"`
	Deps []string `json:"deps"`
}

// A DependencyGraph is the adjacency listing both the DOT and SVG
// renderers in internal/digraph consume, built once here so the two
// outputs can never drift apart.
type DependencyGraph struct {
	Nodes []DependencyNode `json:"nodes"`
}

// BuildDependencyGraph materializes ix's state-machine dependency
// tree (typegraph.Index.DependencyTree) into a DependencyGraph, in
// the state machines' index order.
func BuildDependencyGraph(ix *typegraph.Index) DependencyGraph {
	tree := ix.DependencyTree()
	var g DependencyGraph
	for _, sm := range ix.StateMachines() {
		node := DependencyNode{Name: sm.Name, Deps: tree[sm.Name]}
		if len(sm.Locations) > 0 {
			node.File = sm.Locations[0].File
			node.Line = sm.Locations[0].Line
		}
		g.Nodes = append(g.Nodes, node)
	}
	return g
}
