// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package demangle shells out to an external symbol-table dumper and
// an external demangler and zips their outputs into aligned lines.
// Demangling is never performed in-process — that is an explicit
// Non-goal of the system this package is part of.
package demangle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Config names the external tools this package invokes as
// subprocesses.
type Config struct {
	// SymtabDumper is the argv of the symbol-table dumper (e.g.
	// {"objdump", "-t"}, whose lines carry a section column and at
	// least six fields); the binary path is appended as the final
	// argument.
	SymtabDumper []string

	// Demangler is the argv of a demangler that reads the
	// dumper's stdout on its own stdin and preserves line count
	// (e.g. {"rustfilt"} or {"c++filt"}). A nil or empty
	// Demangler disables demangling: matching falls back to
	// mangled names and ReducedQuality is set.
	Demangler []string
}

// Lines holds the symbol-table text reduced to .text entries with at
// least six whitespace-separated fields, with each mangled symbol
// paired with its demangled form at the same output index.
type Lines struct {
	Mangled        []string
	Demangled      []string
	ReducedQuality bool
}

// Load runs the configured dumper (and, if configured, the
// demangler) against binary and returns the aligned, filtered symbol
// lines.
func Load(ctx context.Context, binary string, cfg Config) (*Lines, error) {
	if len(cfg.SymtabDumper) == 0 {
		return nil, fmt.Errorf("demangle: no symbol-table dumper configured")
	}

	argv := append(append([]string{}, cfg.SymtabDumper...), binary)
	dumperCmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var rawBuf bytes.Buffer

	if len(cfg.Demangler) == 0 {
		dumperCmd.Stdout = &rawBuf
		if err := dumperCmd.Run(); err != nil {
			return nil, fmt.Errorf("demangle: running symbol-table dumper: %w", err)
		}
		return assemble(rawBuf.String(), rawBuf.String(), true)
	}

	demanglerCmd := exec.CommandContext(ctx, cfg.Demangler[0], cfg.Demangler[1:]...)
	pr, pw := io.Pipe()
	dumperCmd.Stdout = io.MultiWriter(pw, &rawBuf)
	demanglerCmd.Stdin = pr
	var demBuf bytes.Buffer
	demanglerCmd.Stdout = &demBuf

	// The dumper and demangler run concurrently, connected by a
	// pipe, exactly like a shell pipeline: the demangler starts
	// consuming output before the dumper finishes producing it.
	// They are only synchronized (and their outputs zipped) once
	// both have exited.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := dumperCmd.Run()
		pw.CloseWithError(err)
		return err
	})
	g.Go(demanglerCmd.Run)
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("demangle: running dumper/demangler pipeline: %w", err)
	}

	return assemble(rawBuf.String(), demBuf.String(), false)
}

// assemble implements the "subprocess aliasing of two outputs" design
// note: it asserts the two outputs have equal line counts rather than
// relying on the tools' incidental behavior, then filters to .text
// lines with enough fields to be a symbol entry.
func assemble(raw, dem string, reduced bool) (*Lines, error) {
	rawLines := strings.Split(raw, "\n")
	demLines := strings.Split(dem, "\n")
	if !reduced && len(rawLines) != len(demLines) {
		return nil, fmt.Errorf("demangle: dumper produced %d lines but demangler produced %d lines; outputs must stay line-aligned", len(rawLines), len(demLines))
	}

	out := &Lines{ReducedQuality: reduced}
	for i, rl := range rawLines {
		if !strings.Contains(rl, ".text") {
			continue
		}
		fields := strings.Fields(rl)
		if len(fields) < 6 {
			continue
		}
		mangled := fields[len(fields)-1]

		dl := rl
		if i < len(demLines) {
			dl = demLines[i]
		}
		demangledSym := dl
		if idx := strings.Index(rl, mangled); idx >= 0 && idx < len(dl) {
			demangledSym = dl[idx:]
		}

		out.Mangled = append(out.Mangled, mangled)
		out.Demangled = append(out.Demangled, strings.TrimSpace(demangledSym))
	}
	return out, nil
}
