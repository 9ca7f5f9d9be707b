package postlink

import (
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
)

// FixTupleSize performs the post-link pipeline's second pass: expanding
// the variable-arity global-variable and wide-tuple compile-time
// opcodes into chains of the fixed-arity-TUPLE_SIZE runtime Tget/Tset
// (and, for globals, Rget/Rset). globalNumLimit is the total flat
// global-variable index space accumulated by the Linker; it sizes the
// shared tree every GetGlobalVar/SetGlobalVar navigates.
//
// Ported from the pipeline shape in link/mod.rs's postlink_compile and
// spec §4.5's pass-2 prose; xformcode.rs's exact Tget/Tset macro
// expansion was not available to port line-for-line (see DESIGN.md).
func FixTupleSize(code []instruction.Instruction, globalNumLimit int) []instruction.Instruction {
	depth := value.TreeDepth(globalNumLimit)
	var out []instruction.Instruction
	for _, insn := range code {
		switch insn.Opcode {
		case instruction.GetGlobalVar:
			idx := immediateUsize(insn)
			out = append(out, expandGet(idx, depth)...)
		case instruction.SetGlobalVar:
			idx := immediateUsize(insn)
			out = append(out, expandSet(idx, depth)...)
		case instruction.TupleGet:
			idx := immediateUsize(insn)
			d := value.TreeDepth(idx + 1)
			out = append(out, expandTupleGet(idx, d)...)
		case instruction.TupleSet:
			idx := immediateUsize(insn)
			d := value.TreeDepth(idx + 1)
			out = append(out, expandTupleSet(idx, d)...)
		default:
			out = append(out, insn)
		}
	}
	return out
}

func immediateUsize(insn instruction.Instruction) int {
	if insn.Immediate == nil {
		return 0
	}
	i, ok := insn.Immediate.AsInt()
	if !ok {
		return 0
	}
	n, _ := i.ToUsize()
	return n
}

func tgetImm(d int) instruction.Instruction {
	return instruction.New(instruction.Tget).WithImmediate(value.Int(uint256.FromUsize(d)))
}

func tsetImm(d int) instruction.Instruction {
	return instruction.New(instruction.Tset).WithImmediate(value.Int(uint256.FromUsize(d)))
}

// expandGet builds `Rget; Tget(d0); …; Tget(d_{depth-1})`.
func expandGet(idx, depth int) []instruction.Instruction {
	digits := value.Digits(idx, depth)
	out := make([]instruction.Instruction, 0, depth+1)
	out = append(out, instruction.New(instruction.Rget))
	for _, d := range digits {
		out = append(out, tgetImm(d))
	}
	return out
}

// expandSet builds the read-modify-write chain that places the value
// already on top of the stack at global index idx and writes the
// rebuilt frame back via Rset:
//
//	Rget
//	(Dup0; AuxPush; Tget(d_i)) for each of the first depth-1 digits
//	Tset(d_{depth-1})
//	(AuxPop; Tset(d_i)) for the remaining digits, innermost first
//	Rset
func expandSet(idx, depth int) []instruction.Instruction {
	digits := value.Digits(idx, depth)
	var out []instruction.Instruction
	out = append(out, instruction.New(instruction.Rget))
	for i := 0; i < depth-1; i++ {
		out = append(out,
			instruction.New(instruction.Dup0),
			instruction.New(instruction.AuxPush),
			tgetImm(digits[i]),
		)
	}
	out = append(out, tsetImm(digits[depth-1]))
	for i := depth - 2; i >= 0; i-- {
		out = append(out,
			instruction.New(instruction.AuxPop),
			tsetImm(digits[i]),
		)
	}
	out = append(out, instruction.New(instruction.Rset))
	return out
}

// expandTupleGet is expandGet without the Rget: the tuple to navigate
// is already on the stack (language-level wide-tuple access; the
// Mini codegen that would emit idx >= TUPLE_SIZE here is out of scope,
// so this path exists for completeness but is untested against a real
// frontend).
func expandTupleGet(idx, depth int) []instruction.Instruction {
	digits := value.Digits(idx, depth)
	out := make([]instruction.Instruction, 0, depth)
	for _, d := range digits {
		out = append(out, tgetImm(d))
	}
	return out
}

// expandTupleSet is expandSet without the leading Rget / trailing Rset:
// it rewrites the stack-resident tuple in place and leaves the new
// tuple on top of the stack.
func expandTupleSet(idx, depth int) []instruction.Instruction {
	digits := value.Digits(idx, depth)
	var out []instruction.Instruction
	for i := 0; i < depth-1; i++ {
		out = append(out,
			instruction.New(instruction.Dup0),
			instruction.New(instruction.AuxPush),
			tgetImm(digits[i]),
		)
	}
	out = append(out, tsetImm(digits[depth-1]))
	for i := depth - 2; i >= 0; i-- {
		out = append(out,
			instruction.New(instruction.AuxPop),
			tsetImm(digits[i]),
		)
	}
	return out
}
