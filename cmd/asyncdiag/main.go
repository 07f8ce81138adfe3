// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command asyncdiag is a read-only report over a compiled binary's
// recovered async state machines: which functions are async, which
// compiler-generated types back them, and how they depend on one
// another. Unlike futuremap it writes nothing a debugger session
// needs; it exists for a human deciding whether a binary is worth
// tracing at all, and, given a previously captured chrome-trace
// document, for summarizing how long its poll invocations actually
// took.
//
// Usage:
//
//	asyncdiag [flags] <binary>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/go-async-trace/futurescope/chrometrace"
	"github.com/go-async-trace/futurescope/diestream"
	"github.com/go-async-trace/futurescope/futuremap"
	"github.com/go-async-trace/futurescope/internal/latency"
	"github.com/go-async-trace/futurescope/typegraph"
)

func main() {
	var (
		flagDwarfDumper = flag.String("dwarfdump", "llvm-dwarfdump --debug-info", "argv of the external debug-info dumper")
		flagJSON        = flag.Bool("json", false, "print the analysis as JSON instead of a text report")
		flagTrace       = flag.String("trace", "", "path to a chrome-trace JSON document; if set, also print a poll-duration histogram")
		flagBuckets     = flag.Int("buckets", 10, "number of histogram buckets for -trace")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <binary>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	binary := flag.Arg(0)

	ix, err := buildTypeGraph(*flagDwarfDumper, binary)
	if err != nil {
		log.Fatal(err)
	}
	a := futuremap.BuildAnalysis(ix)

	if *flagJSON {
		if err := futuremap.WriteJSON(os.Stdout, a); err != nil {
			log.Fatalf("asyncdiag: %v", err)
		}
	} else {
		printReport(os.Stdout, a)
	}

	if *flagTrace != "" {
		if err := printHistogram(os.Stdout, *flagTrace, *flagBuckets); err != nil {
			log.Fatalf("asyncdiag: %v", err)
		}
	}
}

func printReport(w *os.File, a futuremap.Analysis) {
	fmt.Fprintf(w, "async functions: %d\n", len(a.AsyncFunctions))
	for _, name := range a.AsyncFunctions {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintf(w, "state machines: %d\n", len(a.StateMachines))
	for _, name := range a.StateMachines {
		deps := a.DependencyTree[name]
		if len(deps) == 0 {
			fmt.Fprintf(w, "  %s\n", name)
			continue
		}
		fmt.Fprintf(w, "  %s -> %s\n", name, strings.Join(deps, ", "))
	}
}

// printHistogram loads the durations recorded in the trace document
// at path and prints a fixed-width linear-scale histogram of them,
// in the spirit of the rest of the toolchain's terminal-friendly
// text reports.
func printHistogram(w *os.File, path string, buckets int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	durations, err := chrometrace.ReadDurations(f)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}
	if len(durations) == 0 {
		fmt.Fprintln(w, "poll durations: no complete B/E pairs found")
		return nil
	}

	scale := latency.NewLinear(durations)
	counts := make([]int, buckets)
	for _, d := range durations {
		i := int(scale.Of(d) * float64(buckets))
		if i >= buckets {
			i = buckets - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}
	major, _ := scale.Ticks(buckets)

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	fmt.Fprintf(w, "poll durations (us), %d samples:\n", len(durations))
	for i, c := range counts {
		bar := ""
		if max > 0 {
			bar = strings.Repeat("#", c*40/max)
		}
		fmt.Fprintf(w, "  %10.1f | %-40s %d\n", major[i], bar, c)
	}
	return nil
}

func buildTypeGraph(dumperArgv, binary string) (*typegraph.Index, error) {
	argv := append(splitArgv(dumperArgv), binary)
	cmd := exec.Command(argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("asyncdiag: starting debug-info dumper: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("asyncdiag: starting debug-info dumper: %w", err)
	}
	recs, skipped, readErr := diestream.ReadAll(stdout)
	waitErr := cmd.Wait()
	if waitErr != nil {
		return nil, fmt.Errorf("asyncdiag: debug-info dumper failed: %w", waitErr)
	}
	if readErr != nil {
		return nil, fmt.Errorf("asyncdiag: reading debug-info stream: %w", readErr)
	}
	if skipped > 0 {
		log.Printf("asyncdiag: skipped %d malformed debug-info lines", skipped)
	}

	ix, err := typegraph.Build(recs)
	if err != nil {
		return nil, fmt.Errorf("asyncdiag: building type graph: %w", err)
	}
	return ix, nil
}

func splitArgv(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}
