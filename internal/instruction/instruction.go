// Package instruction defines the AVM's Instruction and Opcode types:
// the unit the Linker relocates, the post-link pipeline rewrites, and
// the emulator dispatches. Ported from emulator.rs's Opcode match arms
// and link/mod.rs's relocation and label-translation logic.
package instruction

import (
	"fmt"

	"github.com/mini-avm/avm/internal/value"
)

// Opcode identifies an instruction's effect. The runtime group is
// dispatchable by the emulator; the compile-time group must be
// eliminated by the post-link pipeline and is a fatal RunningErr if it
// ever reaches dispatch.
type Opcode int

const (
	// Runtime opcodes.
	Noop Opcode = iota
	Panic
	Jump
	Cjump
	GetPC
	Rget
	Rset
	PushStatic
	Tset
	Tget
	Pop
	AuxPush
	AuxPop
	Xget
	Xset
	Dup0
	Dup1
	Dup2
	Swap1
	Swap2
	Not
	UnaryMinus
	BitwiseNeg
	Hash
	Hash2
	Len
	Plus
	Minus
	Mul
	Div
	Mod
	Sdiv
	Smod
	AddMod
	MulMod
	Exp
	LessThan
	GreaterThan
	SLessThan
	SGreaterThan
	Equal
	NotEqual
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	Byte
	SignExtend
	LogicalAnd
	LogicalOr
	DebugPrint
	Inbox
	Log

	// Compile-time-only opcodes — fatal if dispatched.
	GetLocal
	SetLocal
	MakeFrame
	Label
	PushExternal
	TupleGet
	TupleSet
	ArrayGet
	UncheckedFixedArrayGet
	GetGlobalVar
	SetGlobalVar
	Return
)

var opcodeNames = map[Opcode]string{
	Noop: "noop", Panic: "panic", Jump: "jump", Cjump: "cjump", GetPC: "getpc",
	Rget: "rget", Rset: "rset", PushStatic: "pushstatic", Tset: "tset", Tget: "tget",
	Pop: "pop", AuxPush: "auxpush", AuxPop: "auxpop", Xget: "xget", Xset: "xset",
	Dup0: "dup0", Dup1: "dup1", Dup2: "dup2", Swap1: "swap1", Swap2: "swap2",
	Not: "not", UnaryMinus: "unaryminus", BitwiseNeg: "bitwiseneg", Hash: "hash",
	Hash2: "hash2", Len: "len", Plus: "plus", Minus: "minus", Mul: "mul", Div: "div",
	Mod: "mod", Sdiv: "sdiv", Smod: "smod", AddMod: "addmod", MulMod: "mulmod", Exp: "exp",
	LessThan: "lessthan", GreaterThan: "greaterthan", SLessThan: "slessthan",
	SGreaterThan: "sgreaterthan", Equal: "equal", NotEqual: "notequal",
	BitwiseAnd: "bitwiseand", BitwiseOr: "bitwiseor", BitwiseXor: "bitwisexor",
	Byte: "byte", SignExtend: "signextend", LogicalAnd: "logicaland", LogicalOr: "logicalor",
	DebugPrint: "debugprint", Inbox: "inbox", Log: "log",
	GetLocal: "getlocal", SetLocal: "setlocal", MakeFrame: "makeframe", Label: "label",
	PushExternal: "pushexternal", TupleGet: "tupleget", TupleSet: "tupleset",
	ArrayGet: "arrayget", UncheckedFixedArrayGet: "uncheckedfixedarrayget",
	GetGlobalVar: "getglobalvar", SetGlobalVar: "setglobalvar", Return: "return",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// IsCompileTimeOnly reports whether op must be eliminated by the
// post-link pipeline before it can reach the emulator.
func (op Opcode) IsCompileTimeOnly() bool {
	return op >= GetLocal
}

// IsControlTransfer reports whether op sets pc directly rather than
// letting run_one's default pc+1 advance apply.
func (op Opcode) IsControlTransfer() bool {
	return op == Jump || op == Cjump
}

// Location is a coarse source-position annotation: a file identifier
// (indexing the linked program's SourceFileMap) plus a line number.
// Only used for diagnostics; it never affects execution.
type Location struct {
	FileID int
	Line   int
}

// DebugInfo carries optional, execution-irrelevant annotations for an
// instruction: its originating source location, if known.
type DebugInfo struct {
	Loc *Location
}

// Instruction is {opcode, optional immediate, debug info}. An immediate
// is pushed onto the stack before the opcode's own effect applies.
type Instruction struct {
	Opcode    Opcode
	Immediate *value.Value
	Debug     DebugInfo
}

// New constructs an instruction with no immediate.
func New(op Opcode) Instruction {
	return Instruction{Opcode: op}
}

// WithImmediate returns a copy of insn carrying imm as its immediate.
func (insn Instruction) WithImmediate(imm value.Value) Instruction {
	insn.Immediate = &imm
	return insn
}

// WithDebug returns a copy of insn carrying the given debug info.
func (insn Instruction) WithDebug(d DebugInfo) Instruction {
	insn.Debug = d
	return insn
}

// Relocate shifts every CodePt or Label reachable from insn's immediate
// by the given offsets, per spec §4.3. Instructions with no immediate,
// or an immediate that is neither a code point, a label, nor a tuple
// that (recursively) contains one, are returned unchanged.
func Relocate(insn Instruction, intOffset, extOffset, funcOffset int) Instruction {
	if insn.Immediate == nil {
		return insn
	}
	relocated := relocateValue(*insn.Immediate, intOffset, extOffset, funcOffset)
	insn.Immediate = &relocated
	return insn
}

func relocateValue(v value.Value, intOffset, extOffset, funcOffset int) value.Value {
	switch v.Kind() {
	case value.KindCodePoint:
		cp, _ := v.AsCodePoint()
		return value.CodePointValue(cp.Relocate(intOffset, extOffset))
	case value.KindLabel:
		l, _ := v.AsLabel()
		newL, _ := l.Relocate(funcOffset)
		return value.LabelValue(newL)
	case value.KindTuple:
		tup, _ := v.AsTuple()
		out := make([]value.Value, len(tup))
		for i, e := range tup {
			out[i] = relocateValue(e, intOffset, extOffset, funcOffset)
		}
		return value.Tuple(out...)
	default:
		return v
	}
}

// TranslateLabels replaces every Label-valued immediate (or Label nested
// in a tuple immediate) reachable from insn with its resolved code
// point, per the Linker's cross-wiring step. Returns an error naming the
// unresolved label if table has no entry for one encountered.
func TranslateLabels(insn Instruction, table map[value.Label]value.CodePt) (Instruction, error) {
	if insn.Immediate == nil {
		return insn, nil
	}
	translated, err := translateValue(*insn.Immediate, table)
	if err != nil {
		return insn, err
	}
	insn.Immediate = &translated
	return insn, nil
}

func translateValue(v value.Value, table map[value.Label]value.CodePt) (value.Value, error) {
	switch v.Kind() {
	case value.KindLabel:
		l, _ := v.AsLabel()
		cp, ok := table[l]
		if !ok {
			return v, fmt.Errorf("unresolved label %s", l)
		}
		return value.CodePointValue(cp), nil
	case value.KindTuple:
		tup, _ := v.AsTuple()
		out := make([]value.Value, len(tup))
		for i, e := range tup {
			tv, err := translateValue(e, table)
			if err != nil {
				return v, err
			}
			out[i] = tv
		}
		return value.Tuple(out...), nil
	default:
		return v, nil
	}
}

func (insn Instruction) String() string {
	if insn.Immediate != nil {
		return fmt.Sprintf("%s %s", insn.Opcode, insn.Immediate.String())
	}
	return insn.Opcode.String()
}
