// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command futuremap recovers the compiler-generated future
// state-machine types in a compiled binary's debug information and
// pairs each one with the mangled symbol of the poll function that
// drives it, writing the result as a JSON "future map" file.
//
// Usage:
//
//	futuremap [flags] <binary> <out.json>
//
// The future map is the handoff artifact between the offline
// recovery pipeline (this command) and a debugger-attached trace
// sequencer: it tells the sequencer which symbols to break on and
// which display name to use for each one. See the asyncdiag command
// for a read-only textual or JSON report over the same recovered
// data, without writing a future map.
//
// futuremap never parses debug information or demangles symbols
// itself; it shells out to an external DWARF dumper and an external
// demangler, matching the module's Non-goal on in-process demangling.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/go-async-trace/futurescope/diestream"
	"github.com/go-async-trace/futurescope/futuremap"
	"github.com/go-async-trace/futurescope/internal/demangle"
	"github.com/go-async-trace/futurescope/internal/digraph"
	"github.com/go-async-trace/futurescope/symtab"
	"github.com/go-async-trace/futurescope/typegraph"
)

func main() {
	var (
		flagDwarfDumper = flag.String("dwarfdump", "llvm-dwarfdump --debug-info", "argv of the external debug-info dumper")
		flagNM          = flag.String("nm", "nm -C", "argv of the external symbol-table dumper")
		flagDemangler   = flag.String("demangler", "rustfilt", "argv of the external demangler; empty disables demangling")
		flagAnalysis    = flag.String("analysis", "", "optional path to also write the analysis JSON artifact")
		flagDot         = flag.String("dot", "", "optional path to also write a Graphviz DOT dependency graph")
		flagSVG         = flag.String("svg", "", "optional path to also write an SVG dependency graph")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <binary> <out.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	binary, outPath := flag.Arg(0), flag.Arg(1)

	ix, err := buildTypeGraph(*flagDwarfDumper, binary)
	if err != nil {
		log.Fatal(err)
	}

	tbl, err := symtab.Load(context.Background(), binary, demangle.Config{
		SymtabDumper: splitArgv(*flagNM),
		Demangler:    splitArgv(*flagDemangler),
	})
	if err != nil {
		log.Printf("futuremap: symbol resolution unavailable, emitting poll_symbol-less entries: %v", err)
		tbl = nil
	} else if tbl.ReducedQuality {
		log.Printf("futuremap: demangler unavailable, matching against mangled names (reduced match quality)")
	}

	fm := futuremap.Build(ix, tbl)
	if err := writeJSONFile(outPath, fm); err != nil {
		log.Fatalf("futuremap: writing %s: %v", outPath, err)
	}

	if *flagAnalysis != "" {
		a := futuremap.BuildAnalysis(ix)
		if err := writeJSONFile(*flagAnalysis, a); err != nil {
			log.Fatalf("futuremap: writing %s: %v", *flagAnalysis, err)
		}
	}

	if *flagDot != "" || *flagSVG != "" {
		g := futuremap.BuildDependencyGraph(ix)
		if *flagDot != "" {
			if err := writeFile(*flagDot, func(f *os.File) error { return digraph.WriteDOT(f, g) }); err != nil {
				log.Fatalf("futuremap: writing %s: %v", *flagDot, err)
			}
		}
		if *flagSVG != "" {
			if err := writeFile(*flagSVG, func(f *os.File) error { return digraph.WriteSVG(f, g) }); err != nil {
				log.Fatalf("futuremap: writing %s: %v", *flagSVG, err)
			}
		}
	}
}

// buildTypeGraph runs the configured DWARF dumper against binary and
// materializes its output into a typegraph.Index. A dumper that fails
// to launch, exits nonzero, or emits no compile_unit record is fatal,
// per specification §4.A's failure conditions.
func buildTypeGraph(dumperArgv, binary string) (*typegraph.Index, error) {
	argv := append(splitArgv(dumperArgv), binary)
	cmd := exec.Command(argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("futuremap: starting debug-info dumper: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("futuremap: starting debug-info dumper: %w", err)
	}
	recs, skipped, readErr := diestream.ReadAll(stdout)
	waitErr := cmd.Wait()
	if waitErr != nil {
		return nil, fmt.Errorf("futuremap: debug-info dumper failed: %w", waitErr)
	}
	if readErr != nil {
		return nil, fmt.Errorf("futuremap: reading debug-info stream: %w", readErr)
	}
	if skipped > 0 {
		log.Printf("futuremap: skipped %d malformed debug-info lines", skipped)
	}

	hasUnit := false
	for _, r := range recs {
		if r.Tag == diestream.TagCompileUnit {
			hasUnit = true
			break
		}
	}
	if !hasUnit {
		return nil, fmt.Errorf("futuremap: no compile_unit record found in dumper output")
	}

	ix, err := typegraph.Build(recs)
	if err != nil {
		return nil, fmt.Errorf("futuremap: building type graph: %w", err)
	}
	return ix, nil
}

func splitArgv(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}

func writeJSONFile(path string, v any) error {
	return writeFile(path, func(f *os.File) error { return futuremap.WriteJSON(f, v) })
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}
