// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracesession

import (
	"testing"
	"time"

	"github.com/go-async-trace/futurescope/chrometrace"
	"github.com/go-async-trace/futurescope/debughost"
	"github.com/go-async-trace/futurescope/futuremap"
	"github.com/go-async-trace/futurescope/runtimeplugin"
)

// fakeInferior hands out strictly increasing PCs and clock readings,
// enough to drive the two-stage protocol in tests without a real
// debugger.
type fakeInferior struct {
	pc  uint64
	ts  int64
	raw bool // whether ClockMonotonicRaw reports success
}

func (f *fakeInferior) ReadPC(tid int) (uint64, error) {
	f.pc++
	return f.pc, nil
}
func (f *fakeInferior) ReadMemory(addr uint64, size int) ([]byte, error) {
	return make([]byte, size), nil
}
func (f *fakeInferior) Evaluate(scope, expr string) (debughost.Value, error) {
	return debughost.Value{Repr: "42"}, nil
}
func (f *fakeInferior) Backtrace(tid int) ([]debughost.Frame, error) {
	return []debughost.Frame{{PC: f.pc, Name: "frame0"}}, nil
}
func (f *fakeInferior) ClockMonotonicRaw() (time.Duration, bool) {
	f.ts++
	return time.Duration(f.ts) * time.Microsecond, f.raw
}

type finishPair struct {
	onReturn, onUnwind func(debughost.Inferior, int)
}

// fakeHost is a scripted BreakpointHost: SetSymbolBreakpoint and
// SetAddressBreakpoint record their handler for the test to fire
// explicitly; SetFinishBreakpoint pushes onto a per-thread stack so
// nested poll frames on the same thread unwind LIFO, as real nested
// frames would.
type fakeHost struct {
	symbolHandlers map[string]func(debughost.Inferior, int)
	addrHandlers   map[uint64]func(debughost.Inferior, int)
	finishStack    map[int][]finishPair
	continues      int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		symbolHandlers: make(map[string]func(debughost.Inferior, int)),
		addrHandlers:   make(map[uint64]func(debughost.Inferior, int)),
		finishStack:    make(map[int][]finishPair),
	}
}

func (h *fakeHost) SetSymbolBreakpoint(symbol string, onHit func(debughost.Inferior, int)) (debughost.BreakpointID, error) {
	h.symbolHandlers[symbol] = onHit
	return 0, nil
}
func (h *fakeHost) SetAddressBreakpoint(addr uint64, oneShot bool, onHit func(debughost.Inferior, int)) (debughost.BreakpointID, error) {
	h.addrHandlers[addr] = onHit
	return 0, nil
}
func (h *fakeHost) SetFinishBreakpoint(tid int, onReturn, onUnwind func(debughost.Inferior, int)) error {
	h.finishStack[tid] = append(h.finishStack[tid], finishPair{onReturn, onUnwind})
	return nil
}
func (h *fakeHost) Continue() error { h.continues++; return nil }

func (h *fakeHost) fireSymbol(symbol string, inferior debughost.Inferior, tid int) {
	handler := h.symbolHandlers[symbol]
	if handler == nil {
		panic("no handler for symbol " + symbol)
	}
	handler(inferior, tid)
}

func (h *fakeHost) fireLastAddr(inferior debughost.Inferior, tid int) {
	var maxAddr uint64
	for addr := range h.addrHandlers {
		if addr > maxAddr {
			maxAddr = addr
		}
	}
	handler := h.addrHandlers[maxAddr]
	delete(h.addrHandlers, maxAddr)
	handler(inferior, tid)
}

func (h *fakeHost) fireReturn(tid int, inferior debughost.Inferior) {
	stack := h.finishStack[tid]
	top := stack[len(stack)-1]
	h.finishStack[tid] = stack[:len(stack)-1]
	top.onReturn(inferior, tid)
}

type nopPlugin struct{}

func (nopPlugin) Name() string                                             { return "nop" }
func (nopPlugin) InstrumentPoints() []runtimeplugin.InstrumentPoint        { return nil }
func (nopPlugin) ExtraBreakpoints() []string                               { return nil }
func (nopPlugin) OnBreakpoint(string, debughost.Inferior) map[string]any   { return nil }
func (nopPlugin) ProcessData(map[string][]runtimeplugin.Invocation) string { return "" }

func TestNestedPollBalancedTrace(t *testing.T) {
	seq := NewSequencer(nopPlugin{})
	host := newFakeHost()
	fm := map[string]futuremap.Entry{
		"0x1": {TypeID: "1", Name: "A", PollSymbol: "poll_A"},
		"0x2": {TypeID: "2", Name: "B", PollSymbol: "poll_B"},
		"0x3": {TypeID: "3", Name: "C", PollSymbol: "poll_C"},
	}
	seq.Install(host, fm)

	inferior := &fakeInferior{raw: true}
	const tid = 7

	for _, sym := range []string{"poll_A", "poll_B", "poll_C"} {
		host.fireSymbol(sym, inferior, tid)
		host.fireLastAddr(inferior, tid)
	}
	host.fireReturn(tid, inferior)
	host.fireReturn(tid, inferior)
	host.fireReturn(tid, inferior)

	events := seq.Events()
	wantNames := []string{"A", "B", "C", "C", "B", "A"}
	wantPhases := []chrometrace.Phase{
		chrometrace.PhaseBegin, chrometrace.PhaseBegin, chrometrace.PhaseBegin,
		chrometrace.PhaseEnd, chrometrace.PhaseEnd, chrometrace.PhaseEnd,
	}
	if len(events) != len(wantNames) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantNames), events)
	}
	prevTs := -1.0
	for i, e := range events {
		if e.Name != wantNames[i] {
			t.Errorf("event %d name = %q, want %q", i, e.Name, wantNames[i])
		}
		if e.Phase != wantPhases[i] {
			t.Errorf("event %d phase = %v, want %v", i, e.Phase, wantPhases[i])
		}
		if e.TimestampUs <= prevTs {
			t.Errorf("event %d timestamp %v did not increase from %v", i, e.TimestampUs, prevTs)
		}
		prevTs = e.TimestampUs
	}
	if host.continues != 9 {
		t.Errorf("host.continues = %d, want 9 (one per entry/temp/finish handler invocation)", host.continues)
	}
}

func TestUnwoundFrame(t *testing.T) {
	seq := NewSequencer(nopPlugin{})
	host := newFakeHost()
	fm := map[string]futuremap.Entry{
		"0x1": {TypeID: "1", Name: "X", PollSymbol: "poll_X"},
	}
	seq.Install(host, fm)

	inferior := &fakeInferior{}
	host.fireSymbol("poll_X", inferior, 1)
	host.fireLastAddr(inferior, 1)

	stack := host.finishStack[1]
	top := stack[len(stack)-1]
	host.finishStack[1] = stack[:len(stack)-1]
	top.onUnwind(inferior, 1)

	events := seq.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	end := events[1]
	if end.Phase != chrometrace.PhaseEnd || !end.Unwound {
		t.Errorf("end event = %+v, want Phase=E Unwound=true", end)
	}
	if end.Category != "future_poll_unwind" {
		t.Errorf("end event category = %q, want %q", end.Category, "future_poll_unwind")
	}
	if host.continues != 3 {
		t.Errorf("host.continues = %d, want 3 (entry, temp, finish handler invocations)", host.continues)
	}
}

func TestDumpClosesOpenFrames(t *testing.T) {
	seq := NewSequencer(nopPlugin{})
	host := newFakeHost()
	fm := map[string]futuremap.Entry{"0x1": {TypeID: "1", Name: "X", PollSymbol: "poll_X"}}
	seq.Install(host, fm)

	inferior := &fakeInferior{}
	host.fireSymbol("poll_X", inferior, 1)
	host.fireLastAddr(inferior, 1)

	var buf []byte
	w := &sliceWriter{&buf}
	if err := seq.Dump(w); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(seq.frames) != 0 {
		t.Errorf("frames left open after Dump: %v", seq.frames)
	}
	last := seq.Events()[len(seq.Events())-1]
	if last.Name != "X (prog_exit)" {
		t.Errorf("last event name = %q, want %q", last.Name, "X (prog_exit)")
	}
	if host.continues != 2 {
		t.Errorf("host.continues = %d, want 2 (entry, temp handler invocations)", host.continues)
	}
}

type sliceWriter struct{ buf *[]byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}
