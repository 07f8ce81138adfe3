// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package typegraph materializes the DIE stream produced by
// diestream into structure TypeRecords with their members, and
// classifies which of those structures are compiler-generated future
// state machines.
package typegraph

// Classification of a TypeRecord.
type Classification string

const (
	Plain        Classification = "plain"
	StateMachine Classification = "state_machine"
	AsyncEnv     Classification = "async_env"
)

// UnknownType is the sentinel type_ref used when a member DIE has no
// AT_type attribute. A type-id that does not resolve against the type
// index is kept as its raw hex value instead.
const UnknownType = "unknown"

// A Location is a (file, line) pair derived from a member's
// declaration site, used only for display.
type Location struct {
	File string
	Line int
}

// A MemberRecord is one member of a TypeRecord.
type MemberRecord struct {
	Name         string
	Offset       int
	Alignment    int
	IsArtificial bool

	// TypeRef is the hex type-id of this member's declared type,
	// or UnknownType.
	TypeRef string

	DeclFile string // "" if unresolved
	DeclLine int    // 0 if unresolved
}

// A TypeRecord is materialized from one structure_type DIE.
type TypeRecord struct {
	TypeID string // hex DIE offset, unique within the index; primary key
	Name   string // source-level type name, possibly generic/compiler-internal

	Size      int
	Alignment int

	Members []MemberRecord

	Classification Classification

	// Locations is the derived set of declaration sites of this
	// type's members, used for display only.
	Locations []Location
}

// IsStateMachine reports whether t is a state machine or a strict
// refinement of one (async_env).
func (t *TypeRecord) IsStateMachine() bool {
	return t.Classification == StateMachine || t.Classification == AsyncEnv
}
