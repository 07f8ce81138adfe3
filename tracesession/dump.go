// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracesession

import (
	"io"
	"sort"
	"time"

	"github.com/go-async-trace/futurescope/chrometrace"
)

// Dump writes every recorded event as chrome-trace JSON to w, per the
// "Output format" bullet of specification §4.E. Every poll frame still
// open at dump time is closed with an E event tagged "(prog_exit)"
// first, in the order its entry was first observed so that repeated
// dumps of the same run stay deterministic. Dump does not check
// whether the inferior is still alive: it closes open frames in
// either case, and a finish breakpoint that fires for such a frame
// afterwards emits no second E event.
func (s *Sequencer) Dump(w io.Writer) error {
	s.closeOpenFrames()
	return chrometrace.Write(w, s.events)
}

func (s *Sequencer) closeOpenFrames() {
	type open struct {
		key   frameKey
		frame *pollFrame
	}
	var pending []open
	for key, frame := range s.frames {
		if frame.state == Completed {
			continue
		}
		pending = append(pending, open{key, frame})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].frame.seq < pending[j].frame.seq })

	for _, o := range pending {
		s.events = append(s.events, chrometrace.InvocationEvent{
			Phase:       chrometrace.PhaseEnd,
			TimestampUs: float64(time.Now().UnixMicro()),
			ThreadID:    o.key.tid,
			Name:        o.frame.name + " (prog_exit)",
			Category:    "future_poll_exit",
		})
		o.frame.state = Completed
		delete(s.frames, o.key)
	}
}
