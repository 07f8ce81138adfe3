// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lineprog resolves per-compilation-unit file tables: the
// 1-based index to fully-qualified path mapping that DW_AT_decl_file
// attributes reference.
package lineprog

import "path"

// A FileTable maps a 1-based file index to a fully qualified path for
// a single compilation unit. It is reset at the start of each unit.
type FileTable struct {
	compDir string
	byIndex map[int]string
	next    int
}

// NewFileTable returns an empty table for a compilation unit compiled
// in compDir.
func NewFileTable(compDir string) *FileTable {
	return &FileTable{compDir: compDir, byIndex: make(map[int]string), next: 1}
}

// Add records the next file name in the unit's preamble, assigning it
// the next sequential 1-based index. Absolute names are stored
// verbatim; relative names are joined to the compilation directory.
func (t *FileTable) Add(name string) {
	full := name
	if name != "" && !path.IsAbs(name) && t.compDir != "" {
		full = path.Join(t.compDir, name)
	}
	t.byIndex[t.next] = full
	t.next++
}

// Resolve returns the fully qualified path for a 1-based file index,
// or ("", false) if the index is unknown.
func (t *FileTable) Resolve(index int) (string, bool) {
	p, ok := t.byIndex[index]
	return p, ok
}
