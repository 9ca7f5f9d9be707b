// Package emulator implements Machine, the AVM interpreter: a primary
// stack, an auxiliary stack doubling as the call-return chain, a single
// register slot, and the post-link static value, dispatching the
// runtime opcode set over a LinkedProgram. Ported from
// original_source/src/emulator.rs's Machine/ValueStack/run_one, with
// RuntimeEnvironment wired in as run/mod.rs's newer Machine::new(program,
// env) does (see DESIGN.md's internal/emulator entry for why the
// retrieved emulator.rs and run/mod.rs disagree on this and how that
// gap was resolved).
package emulator

import (
	"github.com/mini-avm/avm/internal/avmconfig"
	"github.com/mini-avm/avm/internal/avmdebug"
	"github.com/mini-avm/avm/internal/avmerr"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/program"
	"github.com/mini-avm/avm/internal/runtimeenv"
	"github.com/mini-avm/avm/internal/value"
)

type stateKind int

const (
	stateStopped stateKind = iota
	stateError
	stateRunning
)

// machineState mirrors MachineState: Stopped, Error(ExecutionError), or
// Running(pc).
type machineState struct {
	kind stateKind
	err  avmerr.ExecutionError
	pc   value.CodePt
}

func stopped() machineState { return machineState{kind: stateStopped} }

func errored(e avmerr.ExecutionError) machineState {
	return machineState{kind: stateError, err: e}
}

func running(pc value.CodePt) machineState {
	return machineState{kind: stateRunning, pc: pc}
}

func (s machineState) isRunning() bool { return s.kind == stateRunning }

// newExecErr builds the ExecutionError variant matching st, mirroring
// ExecutionError::new's dispatch on the current MachineState.
func newExecErr(reason string, st machineState, val *value.Value) avmerr.ExecutionError {
	switch st.kind {
	case stateStopped:
		return avmerr.Stopped(reason)
	case stateError:
		return avmerr.Wrap(reason, st.err)
	default:
		return avmerr.Running(reason, st.pc, val)
	}
}

// Machine is the AVM interpreter's full execution state.
type Machine struct {
	stack    valueStack
	auxStack valueStack
	state    machineState
	code     []instruction.Instruction
	static   value.Value
	register value.Value

	env *runtimeenv.RuntimeEnvironment

	callStackCeiling int
}

// New constructs a Machine ready to execute prog against env, bounding
// the aux stack's call-return depth at cfg's CallStackCeiling — there
// is no pushFrame-style call-frame struct here (AVM's calling
// convention is the plain AuxPush/AuxPop/Jump protocol), so the aux
// stack's own length plays the role the teacher's callEngine.frames
// slice does.
func New(prog program.LinkedProgram, env *runtimeenv.RuntimeEnvironment, cfg avmconfig.EmulatorConfig) *Machine {
	return &Machine{
		state:            stopped(),
		code:             prog.Code,
		static:           prog.StaticVal,
		register:         value.None(),
		env:              env,
		callStackCeiling: cfg.CallStackCeiling(),
	}
}

// Reset clears both stacks and returns the machine to Stopped.
func (m *Machine) Reset() {
	m.stack.makeEmpty()
	m.auxStack.makeEmpty()
	m.state = stopped()
}

// RuntimeEnv returns the environment this machine executes against.
func (m *Machine) RuntimeEnv() *runtimeenv.RuntimeEnvironment { return m.env }

// PopStack pops and returns the top of the primary stack.
func (m *Machine) PopStack() (value.Value, error) {
	return m.stack.pop(m.state)
}

// GetStackTrace reports the aux stack's recorded call chain: every
// return address a caller has AuxPushed and not yet AuxPopped.
func (m *Machine) GetStackTrace() avmdebug.StackTrace {
	return avmdebug.Known(m.auxStack.allCodePts())
}

// IsRunning reports whether the machine is in the Running state.
func (m *Machine) IsRunning() bool { return m.state.isRunning() }

// IsStopped reports whether the machine is in the Stopped state.
func (m *Machine) IsStopped() bool { return m.state.kind == stateStopped }

// Err returns the machine's halting error and true, if it is in the
// Error state.
func (m *Machine) Err() (avmerr.ExecutionError, bool) {
	if m.state.kind != stateError {
		return avmerr.ExecutionError{}, false
	}
	return m.state.err, true
}

// PC returns the running pc and true, if the machine is Running.
func (m *Machine) PC() (value.CodePt, bool) {
	if m.state.kind != stateRunning {
		return value.CodePt{}, false
	}
	return m.state.pc, true
}

func (m *Machine) getPC() (value.CodePt, error) {
	if m.state.kind != stateRunning {
		return value.CodePt{}, newExecErr("tried to get PC of non-running machine", m.state, nil)
	}
	return m.state.pc, nil
}

func (m *Machine) incrPC() {
	if m.state.kind != stateRunning {
		panic("tried to increment PC of non-running machine")
	}
	next, ok := m.state.pc.Incr()
	if !ok {
		panic("machine PC was set of external CodePt")
	}
	m.state = running(next)
}

// TestCall invokes the exported function entered at entry with args
// pushed so arg[0] ends up nearest a stashed stop code point, matching
// test_call's calling convention, then runs to completion (or to a
// blocking Inbox) and returns the resulting stack's contents.
func (m *Machine) TestCall(entry value.CodePt, args []value.Value) ([]value.Value, error) {
	stopPC := value.Internal(len(m.code) + 1)
	for i := len(args) - 1; i >= 0; i-- {
		m.stack.push(args[i])
	}
	m.stack.pushCodePoint(stopPC)
	m.state = running(entry)

	m.Run(&stopPC)

	switch m.state.kind {
	case stateStopped:
		return nil, newExecErr("execution stopped", m.state, nil)
	case stateError:
		return nil, m.state.err
	default:
		out := make([]value.Value, len(m.stack.contents))
		copy(out, m.stack.contents)
		return out, nil
	}
}

// Run executes instructions until the machine stops running, an
// unrecovered error occurs, the pc reaches stopPC (if given), or a
// single step makes no progress (a blocking Inbox) — in that last
// case the machine is left Running at the same pc rather than
// Stopped, matching TestCall's "Running means success" contract.
func (m *Machine) Run(stopPC *value.CodePt) {
	for m.state.isRunning() {
		if stopPC != nil && m.state.pc.Equal(*stopPC) {
			return
		}
		progressed, err := m.runOne()
		if err != nil {
			if ee, ok := err.(avmerr.ExecutionError); ok {
				m.state = errored(ee)
			} else {
				m.state = errored(avmerr.Stopped(err.Error()))
			}
			return
		}
		if !progressed {
			return
		}
	}
}
