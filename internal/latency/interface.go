// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package latency buckets poll-duration samples for the async
// diagnostics report: how long each poll() invocation the tracer
// observed actually ran, summarized as a histogram instead of a raw
// event dump.
package latency

// A Scale maps a set of input samples onto [0, 1] and picks tick
// marks for them.
type Scale interface {
	Of(x float64) float64
	Ticks(n int) (major, minor []float64)
}
