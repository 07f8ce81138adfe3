// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diestream turns the textual output of an external
// debug-info dumper (objdump --dwarf=info and tools printing the same
// "<depth><offset>: Abbrev Number: N (DW_TAG_...)" form) into a flat
// sequence of structured DIE records.
//
// The package itself never launches the dumper; callers pipe its
// stdout through NewReader or ReadAll. This mirrors the way the rest of this module
// treats the dumper as an external collaborator (see internal/demangle
// for the analogous treatment of the symbol-table dumper and the
// demangler).
package diestream

// A Record is one debug information entry, flattened from the
// dumper's indented textual form.
type Record struct {
	Depth  int               // nesting depth, read from the first <N> pair
	Offset string            // hex DIE offset within the debug-info section, without "0x"
	Tag    string            // e.g. "structure_type", "member", "compile_unit"
	Attrs  map[string]string // attribute name (without the AT_/DW_AT_ prefix) to its cleaned value
}

// Attribute name constants, matching the fixed allowlist in the
// specification. Only these are ever populated in Record.Attrs.
const (
	AttrName               = "name"
	AttrByteSize           = "byte_size"
	AttrAlignment          = "alignment"
	AttrType               = "type"
	AttrDataMemberLocation = "data_member_location"
	AttrDeclFile           = "decl_file"
	AttrDeclLine           = "decl_line"
	AttrArtificial         = "artificial"
	AttrCompDir            = "comp_dir"
)

// Tag name constants for the tags this module cares about. The
// dumper emits many more tags; everything else passes through the
// Reader untouched so that blockEnd (see typegraph/builder.go) can
// skip over it.
const (
	TagCompileUnit   = "compile_unit"
	TagStructureType = "structure_type"
	TagMember        = "member"
)
