// Package avmerr implements the emulator's ExecutionError taxonomy:
// the three ways a machine operation can fail, carrying enough context
// (a reason string, optionally a pc and/or offending value, optionally
// a wrapped cause) to render a useful diagnostic without unwinding a Go
// panic through the interpreter loop.
//
// Grounded on original_source/src/emulator.rs's ExecutionError enum and
// its Display impl.
package avmerr

import (
	"fmt"

	"github.com/mini-avm/avm/internal/value"
)

// Kind discriminates the three ExecutionError shapes.
type Kind int

const (
	// KindStopped is an error raised while the machine was already
	// Stopped — e.g. popping from an empty stack once the machine has
	// stopped.
	KindStopped Kind = iota
	// KindRunning is an error raised mid-execution, anchored to the pc
	// it occurred at and, where relevant, the offending value.
	KindRunning
	// KindWrapped re-raises a prior ExecutionError (the machine was
	// already in MachineState::Error) with additional context.
	KindWrapped
)

// ExecutionError is the emulator's error type. The zero value is not a
// valid ExecutionError; always construct via Stopped, Running, or Wrap.
type ExecutionError struct {
	kind   Kind
	reason string
	pc     value.CodePt
	val    *value.Value
	inner  *ExecutionError
}

// Stopped constructs a KindStopped error: reason occurred with no
// machine pc to anchor it to.
func Stopped(reason string) ExecutionError {
	return ExecutionError{kind: KindStopped, reason: reason}
}

// Running constructs a KindRunning error anchored to pc, optionally
// carrying the value involved (e.g. a type mismatch's operand).
func Running(reason string, pc value.CodePt, val *value.Value) ExecutionError {
	return ExecutionError{kind: KindRunning, reason: reason, pc: pc, val: val}
}

// Wrap constructs a KindWrapped error: reason occurred while the
// machine was already in an error state carrying inner.
func Wrap(reason string, inner ExecutionError) ExecutionError {
	c := inner
	return ExecutionError{kind: KindWrapped, reason: reason, inner: &c}
}

func (e ExecutionError) Kind() Kind { return e.kind }

// Reason returns the error's own reason string (not any wrapped cause's).
func (e ExecutionError) Reason() string { return e.reason }

// PC returns the anchoring code point and true, for a KindRunning error.
func (e ExecutionError) PC() (value.CodePt, bool) {
	if e.kind != KindRunning {
		return value.CodePt{}, false
	}
	return e.pc, true
}

// Value returns the offending value and true, if one was supplied to a
// KindRunning error.
func (e ExecutionError) Value() (value.Value, bool) {
	if e.kind != KindRunning || e.val == nil {
		return value.Value{}, false
	}
	return *e.val, true
}

// Unwrap returns the wrapped cause and true, for a KindWrapped error.
func (e ExecutionError) Unwrap() (ExecutionError, bool) {
	if e.kind != KindWrapped || e.inner == nil {
		return ExecutionError{}, false
	}
	return *e.inner, true
}

// Error implements the error interface.
func (e ExecutionError) Error() string {
	switch e.kind {
	case KindStopped:
		return fmt.Sprintf("error with machine stopped: %s", e.reason)
	case KindWrapped:
		return fmt.Sprintf("%s (%s)", e.reason, e.inner.Error())
	default: // KindRunning
		if e.val != nil {
			return fmt.Sprintf("%s (%s) with value %s", e.reason, e.pc, e.val.String())
		}
		return fmt.Sprintf("%s (%s)", e.reason, e.pc)
	}
}
