// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package digraph

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-async-trace/futurescope/futuremap"
)

// svg is a minimal hand-rolled SVG rect/line/text writer, trimmed down
// from cmd/memheat's SVG helper to the handful of primitives a box-
// and-line dependency graph needs.
type svg struct {
	w   io.Writer
	err error
}

type svglen float64

func (v svglen) String() string { return strconv.FormatFloat(float64(v), 'f', -1, 32) }

func (s *svg) printf(format string, a ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, a...)
}

func (s *svg) rect(x, y, w, h float64, fill string) {
	s.printf("<rect x=\"%v\" y=\"%v\" width=\"%v\" height=\"%v\" fill=\"%s\" stroke=\"#333\"/>\n",
		svglen(x), svglen(y), svglen(w), svglen(h), fill)
}

func (s *svg) line(x1, y1, x2, y2 float64) {
	s.printf("<line x1=\"%v\" y1=\"%v\" x2=\"%v\" y2=\"%v\" stroke=\"#888\"/>\n",
		svglen(x1), svglen(y1), svglen(x2), svglen(y2))
}

func (s *svg) text(x, y float64, anchor, text string) {
	s.printf("<text x=\"%v\" y=\"%v\" text-anchor=\"%s\" font-family=\"monospace\" font-size=\"11\">", svglen(x), svglen(y), anchor)
	if s.err == nil {
		s.err = xml.EscapeText(s.w, []byte(text))
	}
	s.printf("</text>\n")
}

const (
	boxWidth  = 220
	boxHeight = 40
	colGap    = 60
	rowGap    = 16
)

// WriteSVG renders g as a standalone SVG document: one box per state
// machine, laid out left-to-right by dependency depth (root nodes at
// depth 0), with a line per dependency edge — the same layout
// direction WriteDOT's rankdir=LR expresses in Graphviz's own layout
// engine.
func WriteSVG(w io.Writer, g futuremap.DependencyGraph) error {
	depth, order := rankNodes(g)

	byDepth := map[int][]string{}
	for _, name := range order {
		byDepth[depth[name]] = append(byDepth[depth[name]], name)
	}
	maxDepth := 0
	for d := range byDepth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	maxRows := 0
	for _, names := range byDepth {
		if len(names) > maxRows {
			maxRows = len(names)
		}
	}

	width := float64(maxDepth+1)*(boxWidth+colGap) + colGap
	height := float64(maxRows)*(boxHeight+rowGap) + rowGap

	center := map[string][2]float64{}
	rowIdx := map[int]int{}
	for _, name := range order {
		d := depth[name]
		row := rowIdx[d]
		rowIdx[d]++
		x := colGap + float64(d)*(boxWidth+colGap)
		y := rowGap + float64(row)*(boxHeight+rowGap)
		center[name] = [2]float64{x + boxWidth/2, y + boxHeight/2}
	}

	s := &svg{w: w}
	s.printf("<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%v\" height=\"%v\">\n", svglen(width), svglen(height))

	byName := map[string]futuremap.DependencyNode{}
	for _, n := range g.Nodes {
		byName[n.Name] = n
	}

	for _, n := range g.Nodes {
		for _, dep := range n.Deps {
			src, dst := center[n.Name], center[dep]
			s.line(src[0], src[1], dst[0], dst[1])
		}
	}
	for _, name := range order {
		c := center[name]
		s.rect(c[0]-boxWidth/2, c[1]-boxHeight/2, boxWidth, boxHeight, "lightblue")
		label := name
		if len(label) > 28 {
			label = label[:25] + "..."
		}
		s.text(c[0], c[1], "middle", label)
		if n := byName[name]; n.File != "" {
			s.text(c[0], c[1]+14, "middle", fmt.Sprintf("%s:%d", shortPath(n.File), n.Line))
		}
	}
	s.printf("</svg>\n")
	return s.err
}

func shortPath(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// rankNodes assigns every node a depth (longest path from a root,
// computed over the dependency DAG the specification's invariant 3
// guarantees is acyclic) and returns a stable visiting order.
func rankNodes(g futuremap.DependencyGraph) (depth map[string]int, order []string) {
	depth = make(map[string]int, len(g.Nodes))
	names := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		names = append(names, n.Name)
		depth[n.Name] = 0
	}
	depsOf := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		depsOf[n.Name] = n.Deps
	}

	// The adjacency listing is already a DAG (invariant 3), so a
	// fixed number of relaxation passes bounded by the node count
	// converges on the longest-path depth.
	for i := 0; i < len(names); i++ {
		changed := false
		for _, n := range names {
			for _, dep := range depsOf[n] {
				if depth[dep] < depth[n]+1 {
					depth[dep] = depth[n] + 1
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return depth, names
}
