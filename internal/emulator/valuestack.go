package emulator

import (
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
)

// valueStack is the emulator's primary- or aux-stack storage: a plain
// LIFO of Values with typed pop helpers that raise the matching
// ExecutionError when the top doesn't have the expected shape. Ported
// from ValueStack in emulator.rs.
type valueStack struct {
	contents []value.Value
}

func (s *valueStack) isEmpty() bool { return len(s.contents) == 0 }

func (s *valueStack) makeEmpty() { s.contents = nil }

func (s *valueStack) push(v value.Value) { s.contents = append(s.contents, v) }

func (s *valueStack) pushUint(u uint256.Uint256) { s.push(value.Int(u)) }

func (s *valueStack) pushUsize(n int) { s.pushUint(uint256.FromUsize(n)) }

func (s *valueStack) pushCodePoint(cp value.CodePt) { s.push(value.CodePointValue(cp)) }

func (s *valueStack) pushBool(b bool) {
	if b {
		s.pushUint(uint256.One())
	} else {
		s.pushUint(uint256.Zero())
	}
}

func (s *valueStack) top() (value.Value, bool) {
	if s.isEmpty() {
		return value.Value{}, false
	}
	return s.contents[len(s.contents)-1], true
}

func (s *valueStack) pop(st machineState) (value.Value, error) {
	if s.isEmpty() {
		return value.Value{}, newExecErr("stack underflow", st, nil)
	}
	n := len(s.contents) - 1
	v := s.contents[n]
	s.contents = s.contents[:n]
	return v, nil
}

func (s *valueStack) popCodePoint(st machineState) (value.CodePt, error) {
	v, err := s.pop(st)
	if err != nil {
		return value.CodePt{}, err
	}
	cp, ok := v.AsCodePoint()
	if !ok {
		return value.CodePt{}, newExecErr("expected CodePoint on stack", st, &v)
	}
	return cp, nil
}

func (s *valueStack) popUint(st machineState) (uint256.Uint256, error) {
	v, err := s.pop(st)
	if err != nil {
		return uint256.Uint256{}, err
	}
	i, ok := v.AsInt()
	if !ok {
		return uint256.Uint256{}, newExecErr("expected integer on stack", st, &v)
	}
	return i, nil
}

func (s *valueStack) popUsize(st machineState) (int, error) {
	u, err := s.popUint(st)
	if err != nil {
		return 0, err
	}
	n, ok := u.ToUsize()
	if !ok {
		v := value.Int(u)
		return 0, newExecErr("expected small integer on stack", st, &v)
	}
	return n, nil
}

func (s *valueStack) popBool(st machineState) (bool, error) {
	n, err := s.popUsize(st)
	if err != nil {
		return false, err
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		v := value.Int(uint256.FromUsize(n))
		return false, newExecErr("expected bool on stack", st, &v)
	}
}

func (s *valueStack) popTuple(st machineState) ([]value.Value, error) {
	v, err := s.pop(st)
	if err != nil {
		return nil, err
	}
	tup, ok := v.AsTuple()
	if !ok {
		return nil, newExecErr("expected tuple on stack", st, &v)
	}
	return tup, nil
}

// allCodePts returns every CodePoint-kinded Value currently on the
// stack, outermost (bottom) first — the aux stack's recorded call
// chain, per Machine.get_stack_trace.
func (s *valueStack) allCodePts() []value.CodePt {
	var out []value.CodePt
	for _, v := range s.contents {
		if cp, ok := v.AsCodePoint(); ok {
			out = append(out, cp)
		}
	}
	return out
}
