// Package avmdebug implements stack-trace rendering for the emulator:
// the aux-stack-derived call chain recorded at the point of a halt or
// error, reported either as a concrete list of code points or as
// Unknown when the machine never ran.
//
// Grounded on original_source/src/emulator.rs's StackTrace enum,
// Machine::get_stack_trace, and its Display impl; named avmdebug after
// the teacher's wasmdebug package, which plays the analogous role of
// rendering a host-readable trace over an internal execution state.
package avmdebug

import (
	"strings"

	"github.com/mini-avm/avm/internal/value"
)

// StackTrace is either Unknown (no trace was ever captured) or a known,
// ordered list of call-site code points, outermost call first.
type StackTrace struct {
	known bool
	frame []value.CodePt
}

// Unknown is the "no trace available" sentinel.
func Unknown() StackTrace { return StackTrace{} }

// Known constructs a trace from the aux stack's recorded code points.
func Known(frames []value.CodePt) StackTrace {
	cp := make([]value.CodePt, len(frames))
	copy(cp, frames)
	return StackTrace{known: true, frame: cp}
}

// IsKnown reports whether the trace carries frames.
func (s StackTrace) IsKnown() bool { return s.known }

// Frames returns the recorded code points. Nil when unknown.
func (s StackTrace) Frames() []value.CodePt { return s.frame }

func (s StackTrace) String() string {
	if !s.known {
		return "[stack trace unknown]"
	}
	parts := make([]string, len(s.frame))
	for i, cp := range s.frame {
		parts[i] = cp.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
