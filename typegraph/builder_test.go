// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package typegraph

import (
	"strings"
	"testing"

	"github.com/go-async-trace/futurescope/diestream"
)

func mustBuild(t *testing.T, dump string) *Index {
	t.Helper()
	recs, skipped, err := diestream.ReadAll(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if skipped != 0 {
		t.Logf("skipped %d malformed lines", skipped)
	}
	ix, err := Build(recs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix
}

// TestMinimalAsyncEnv covers specification scenario 1: a single
// async_fn_env structure with one artificial state member.
func TestMinimalAsyncEnv(t *testing.T) {
	const dump = `
 <0><b>: Abbrev Number: 1 (DW_TAG_compile_unit)
    DW_AT_comp_dir    : /src
    DW_AT_name        : src/lib.rs
 <1><100>: Abbrev Number: 2 (DW_TAG_structure_type)
    DW_AT_name        : my_task::{async_fn_env#0}
    DW_AT_byte_size   : 24
    DW_AT_alignment   : 8
 <2><108>: Abbrev Number: 3 (DW_TAG_member)
    DW_AT_name        : __state
    DW_AT_data_member_location: 0
    DW_AT_artificial  : 1
`
	ix := mustBuild(t, dump)
	sms := ix.StateMachines()
	if len(sms) != 1 {
		t.Fatalf("got %d state machines, want 1", len(sms))
	}
	sm := sms[0]
	if sm.Classification != AsyncEnv {
		t.Errorf("classification = %v, want async_env", sm.Classification)
	}
	if !sm.IsStateMachine() {
		t.Errorf("IsStateMachine() = false for async_env, violates invariant 2")
	}
	if len(sm.Members) != 1 || sm.Members[0].Name != "__state" || !sm.Members[0].IsArtificial {
		t.Errorf("members = %+v", sm.Members)
	}
}

// TestDependencyNesting covers specification scenario 2.
func TestDependencyNesting(t *testing.T) {
	const dump = `
 <0><1>: Abbrev Number: 1 (DW_TAG_compile_unit)
    DW_AT_comp_dir    : /src
    DW_AT_name        : src/lib.rs
 <1><10>: Abbrev Number: 2 (DW_TAG_structure_type)
    DW_AT_name        : A::{async_fn_env#0}
    DW_AT_byte_size   : 8
 <2><18>: Abbrev Number: 3 (DW_TAG_member)
    DW_AT_name        : b
    DW_AT_type        : <0x20>
 <1><20>: Abbrev Number: 2 (DW_TAG_structure_type)
    DW_AT_name        : B::{async_fn_env#0}
    DW_AT_byte_size   : 8
 <2><28>: Abbrev Number: 3 (DW_TAG_member)
    DW_AT_name        : c
    DW_AT_type        : <0x30>
 <1><30>: Abbrev Number: 2 (DW_TAG_structure_type)
    DW_AT_name        : C::{async_fn_env#0}
    DW_AT_byte_size   : 8
`
	ix := mustBuild(t, dump)
	tree := ix.DependencyTree()

	a, ok := ix.ByName("A::{async_fn_env#0}")
	if !ok {
		t.Fatal("A not found")
	}
	b, ok := ix.ByName("B::{async_fn_env#0}")
	if !ok {
		t.Fatal("B not found")
	}

	if got := tree[a.Name]; !sameSet(got, []string{b.Name, "C::{async_fn_env#0}"}) {
		t.Errorf("deps(A) = %v, want {B, C}", got)
	}
	if got := tree[b.Name]; !sameSet(got, []string{"C::{async_fn_env#0}"}) {
		t.Errorf("deps(B) = %v, want {C}", got)
	}
	if got := tree["C::{async_fn_env#0}"]; len(got) != 0 {
		t.Errorf("deps(C) = %v, want {}", got)
	}

	roots := ix.Roots()
	if !sameSet(roots, []string{a.Name}) {
		t.Errorf("roots = %v, want {A}", roots)
	}
}

// TestUniqueRenaming covers the boundary behavior of a structure name
// appearing twice across compilation units.
func TestUniqueRenaming(t *testing.T) {
	const dump = `
 <0><1>: Abbrev Number: 1 (DW_TAG_compile_unit)
    DW_AT_comp_dir    : /src
    DW_AT_name        : src/a.rs
 <1><50>: Abbrev Number: 2 (DW_TAG_structure_type)
    DW_AT_name        : Widget::{async_fn_env#0}
    DW_AT_byte_size   : 8
 <0><2>: Abbrev Number: 1 (DW_TAG_compile_unit)
    DW_AT_comp_dir    : /src
    DW_AT_name        : src/b.rs
 <1><60>: Abbrev Number: 2 (DW_TAG_structure_type)
    DW_AT_name        : Widget::{async_fn_env#0}
    DW_AT_byte_size   : 8
`
	ix := mustBuild(t, dump)
	if len(ix.All()) != 2 {
		t.Fatalf("got %d types, want 2", len(ix.All()))
	}
	first := ix.All()[0]
	second := ix.All()[1]
	if first.Name != "Widget::{async_fn_env#0}" {
		t.Errorf("first.Name = %q, want unchanged", first.Name)
	}
	if second.Name != "Widget::{async_fn_env#0}<0x60>" {
		t.Errorf("second.Name = %q, want re-keyed with type id", second.Name)
	}
}

// TestZeroMemberStruct covers the boundary behavior of a structure
// with no members, classified on name alone.
func TestZeroMemberStruct(t *testing.T) {
	const dump = `
 <0><1>: Abbrev Number: 1 (DW_TAG_compile_unit)
    DW_AT_comp_dir    : /src
    DW_AT_name        : src/a.rs
 <1><70>: Abbrev Number: 2 (DW_TAG_structure_type)
    DW_AT_name        : plain::Config
    DW_AT_byte_size   : 0
`
	ix := mustBuild(t, dump)
	if len(ix.All()) != 1 {
		t.Fatalf("got %d types, want 1", len(ix.All()))
	}
	rec := ix.All()[0]
	if len(rec.Members) != 0 {
		t.Errorf("members = %+v, want empty", rec.Members)
	}
	if rec.Classification != Plain {
		t.Errorf("classification = %v, want plain", rec.Classification)
	}
}

// TestUnknownMemberType covers the boundary behavior of a member
// whose AT_type references an unresolvable type-id.
func TestUnknownMemberType(t *testing.T) {
	const dump = `
 <0><1>: Abbrev Number: 1 (DW_TAG_compile_unit)
    DW_AT_comp_dir    : /src
    DW_AT_name        : src/a.rs
 <1><80>: Abbrev Number: 2 (DW_TAG_structure_type)
    DW_AT_name        : orphan_future::{async_fn_env#0}
    DW_AT_byte_size   : 16
 <2><88>: Abbrev Number: 3 (DW_TAG_member)
    DW_AT_name        : dangling
    DW_AT_type        : <0xdead>
`
	ix := mustBuild(t, dump)
	sm := ix.All()[0]
	if len(sm.Members) != 1 || sm.Members[0].TypeRef != "dead" {
		t.Fatalf("members = %+v", sm.Members)
	}
	deps := ix.Deps(sm)
	if len(deps) != 0 {
		t.Errorf("deps = %v, want empty (unresolved type_ref truncates traversal)", deps)
	}
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]bool, len(got))
	for _, g := range got {
		seen[g] = true
	}
	for _, w := range want {
		if !seen[w] {
			return false
		}
	}
	return true
}
