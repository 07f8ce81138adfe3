// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symtab resolves the compiler-generated poll symbol that
// corresponds to a state-machine type, by pairing an external
// symbol-table dumper's output with an external demangler's output
// and matching on the demangled type prefix.
package symtab

import (
	"context"

	"github.com/go-async-trace/futurescope/internal/demangle"
)

// Table is a loaded, line-aligned symbol table ready for poll-symbol
// matching.
type Table struct {
	lines          *demangle.Lines
	ReducedQuality bool
}

// Load invokes the configured dumper/demangler pipeline against
// binary and returns a ready-to-query Table.
func Load(ctx context.Context, binary string, cfg demangle.Config) (*Table, error) {
	lines, err := demangle.Load(ctx, binary, cfg)
	if err != nil {
		return nil, err
	}
	return &Table{lines: lines, ReducedQuality: lines.ReducedQuality}, nil
}

// Len reports the number of aligned symbol-table entries.
func (t *Table) Len() int { return len(t.lines.Mangled) }
