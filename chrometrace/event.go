// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chrometrace defines the InvocationEvent record the trace
// sequencer emits and the chrome-trace-format document it is
// serialized into.
package chrometrace

import (
	"encoding/json"
	"io"
)

//go:generate stringer -type=Phase

// Phase is one of the chrome-trace event phases this system emits:
// begin/end for a poll interval, instant for a plugin probe, and the
// async begin/step/end trio reserved for a runtimeplugin.Plugin's own
// correlation scheme (tracesession itself never constructs events with
// these three phases).
type Phase int

const (
	PhaseBegin Phase = iota
	PhaseEnd
	PhaseInstant
	PhaseAsyncBegin
	PhaseAsyncStep
	PhaseAsyncEnd
)

// Code returns the single-letter chrome-trace phase code ("B", "E",
// "i", "b", "n", "e") for p.
func (p Phase) Code() string {
	switch p {
	case PhaseBegin:
		return "B"
	case PhaseEnd:
		return "E"
	case PhaseInstant:
		return "i"
	case PhaseAsyncBegin:
		return "b"
	case PhaseAsyncStep:
		return "n"
	case PhaseAsyncEnd:
		return "e"
	default:
		return "?"
	}
}

// An InvocationEvent is one recorded occurrence of a poll entry,
// poll exit, or plugin probe.
type InvocationEvent struct {
	Phase       Phase
	TimestampUs float64
	ThreadID    int
	Name        string
	Category    string
	Args        map[string]any
	AsyncID     string // non-empty only for PhaseAsyncBegin/Step/End
	Unwound     bool   // true if Phase == PhaseEnd and the frame was unwound
}

// wireEvent is the JSON shape of one traceEvents[] entry.
type wireEvent struct {
	Ph   string         `json:"ph"`
	Ts   float64        `json:"ts"`
	Pid  int            `json:"pid"`
	Tid  int            `json:"tid"`
	Name string         `json:"name"`
	Cat  string         `json:"cat,omitempty"`
	Args map[string]any `json:"args,omitempty"`
	ID   string         `json:"id,omitempty"`
}

func (e InvocationEvent) toWire() wireEvent {
	name := e.Name
	if e.Unwound {
		name += " (unwound)"
	}
	return wireEvent{
		Ph:   e.Phase.Code(),
		Ts:   e.TimestampUs,
		Pid:  1,
		Tid:  e.ThreadID,
		Name: name,
		Cat:  e.Category,
		Args: e.Args,
		ID:   e.AsyncID,
	}
}

// Document is the top-level chrome-trace JSON document: persisted
// artifact 4 in the specification's external interfaces.
type Document struct {
	DisplayTimeUnit string      `json:"displayTimeUnit"`
	TraceEvents     []wireEvent `json:"traceEvents"`
}

// NewDocument wraps events into a Document ready to serialize,
// converting timestamps and phases into their wire representation.
func NewDocument(events []InvocationEvent) Document {
	doc := Document{DisplayTimeUnit: "us", TraceEvents: make([]wireEvent, len(events))}
	for i, e := range events {
		doc.TraceEvents[i] = e.toWire()
	}
	return doc
}

// Write serializes events as indented chrome-trace JSON to w.
func Write(w io.Writer, events []InvocationEvent) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(events))
}

// ReadDurations reads a chrome-trace document written by Write and
// returns the wall-clock duration, in microseconds, of every
// complete B/E pair on each thread. Events are paired LIFO per
// thread, matching the nested poll-frame stacking tracesession
// produces; an E with no open B on its thread is ignored. This is
// the only reader asyncdiag needs: a poll-duration histogram over a
// previously captured trace, not a full replay of the document.
func ReadDurations(r io.Reader) ([]float64, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	type open struct{ ts float64 }
	stacks := map[int][]open{}
	var durations []float64
	for _, e := range doc.TraceEvents {
		switch e.Ph {
		case "B":
			stacks[e.Tid] = append(stacks[e.Tid], open{ts: e.Ts})
		case "E":
			s := stacks[e.Tid]
			if len(s) == 0 {
				continue
			}
			top := s[len(s)-1]
			stacks[e.Tid] = s[:len(s)-1]
			durations = append(durations, e.Ts-top.ts)
		}
	}
	return durations, nil
}
