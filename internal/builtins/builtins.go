// Package builtins supplies the deterministic set of CompiledPrograms
// the Linker always appends to a link, standing in for link/mod.rs's
// add_auto_link_progs (which reads builtin/array.mao and builtin/kvs.mao
// — Mini source files compiled by the out-of-scope frontend).
//
// Since no Mini compiler exists here, each builtin routine below is a
// hand-assembled instruction sequence, grounded on the same calling
// convention the rest of this module infers from
// original_source/src/emulator.rs's Machine::get_stack_trace (aux-stack
// frames are code points, confirming the aux stack carries return
// addresses): a caller AuxPushes its return CodePt before Jump-ing to a
// callee's entry Label; a callee ends with AuxPop; Jump (bare, dynamic)
// to resume the caller with its result left on top of the stack.
//
// The array/kvs semantics here are deliberately reduced from a real
// resizable array or hash table: array is a fixed 8-slot tuple (no
// growth beyond TUPLE_SIZE), and the kvs is a single-level 8-bucket
// table addressed by key-mod-8 with last-write-wins on collision (no
// chaining or key storage). Mini codegen, which would emit calls into a
// richer array.mao/kvs.mao, is out of scope; these exist to give the
// Linker's BuiltinProvider hook a concrete, exercised implementation.
package builtins

import (
	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
)

const (
	arrayNewName = "builtin_arrayNew"
	arrayGetName = "builtin_arrayGet"
	arraySetName = "builtin_arraySet"
	kvsNewName   = "builtin_kvsNew"
	kvsGetName   = "builtin_kvsGet"
	kvsSetName   = "builtin_kvsSet"

	kvsBuckets = value.TupleSize
)

func insn(op instruction.Opcode) instruction.Instruction { return instruction.New(op) }

func insnImm(op instruction.Opcode, v value.Value) instruction.Instruction {
	return instruction.New(op).WithImmediate(v)
}

func label(l value.Label) instruction.Instruction {
	return insnImm(instruction.Label, value.LabelValue(l))
}

func intImm(n int) value.Value { return value.Int(uint256.FromUsize(n)) }

// epilogue is every builtin's return sequence: pop the caller's stashed
// return address and jump to it, leaving the computed result (pushed by
// the preceding instructions) on top of the stack for the caller.
func epilogue() []instruction.Instruction {
	return []instruction.Instruction{insn(instruction.AuxPop), insn(instruction.Jump)}
}

// arrayNewBody builds {len, [8]None} from a single len argument.
func arrayNewBody() []instruction.Instruction {
	return []instruction.Instruction{
		insnImm(instruction.Noop, value.Tuple(value.None(), value.None())),
		insnImm(instruction.Tset, intImm(0)),
		insnImm(instruction.Noop, value.BuildNestedTuple(1, value.None())),
		insn(instruction.Swap1),
		insnImm(instruction.Tset, intImm(1)),
	}
}

// arrayGetBody reads element idx of arr's data tuple (arr, idx on stack,
// idx on top).
func arrayGetBody() []instruction.Instruction {
	return []instruction.Instruction{
		insn(instruction.Swap1),
		insnImm(instruction.Tget, intImm(1)),
		insn(instruction.Swap1),
		insn(instruction.Tget),
	}
}

// arraySetBody writes val at index idx of arr's data tuple (arr, idx,
// val on stack, val on top), returning the rebuilt array.
func arraySetBody() []instruction.Instruction {
	return []instruction.Instruction{
		insn(instruction.AuxPush), // stash val
		insn(instruction.AuxPush), // stash idx
		insn(instruction.Dup0),
		insnImm(instruction.Tget, intImm(1)), // data = arr[1]
		insn(instruction.AuxPop),             // idx
		insn(instruction.AuxPop),             // val
		insn(instruction.Swap2),
		insn(instruction.Swap1), // top three: val,idx,data -> idx,data,val (bare Tset's order)
		insn(instruction.Tset),  // newData
		insn(instruction.Swap1), // [arr, newData]
		insnImm(instruction.Tset, intImm(1)),
	}
}

func kvsNewBody() []instruction.Instruction {
	return []instruction.Instruction{
		insnImm(instruction.Noop, value.BuildNestedTuple(1, value.None())),
	}
}

// kvsGetBody reads bucket key%kvsBuckets of kvs (kvs, key on stack, key
// on top). Mod pops its left operand first: with an Immediate it would
// compute kvsBuckets%key instead of key%kvsBuckets, so the bucket
// modulus is pushed as a plain value and Swap1 puts key on top before
// the bare Mod runs.
func kvsGetBody() []instruction.Instruction {
	return []instruction.Instruction{
		insnImm(instruction.Noop, intImm(kvsBuckets)),
		insn(instruction.Swap1),
		insn(instruction.Mod),
		insn(instruction.Tget),
	}
}

// kvsSetBody writes val into bucket key%kvsBuckets of kvs (kvs, key, val
// on stack, val on top). Same Mod-operand-order concern as kvsGetBody:
// key must be on top of the bare Mod, not the pushed modulus.
func kvsSetBody() []instruction.Instruction {
	return []instruction.Instruction{
		insn(instruction.AuxPush), // stash val
		insnImm(instruction.Noop, intImm(kvsBuckets)),
		insn(instruction.Swap1), // key on top of modulus
		insn(instruction.Mod),
		insn(instruction.AuxPop), // val
		insn(instruction.Swap2),
		insn(instruction.Swap1),
		insn(instruction.Tset),
	}
}

func routine(l value.Label, body []instruction.Instruction) []instruction.Instruction {
	out := make([]instruction.Instruction, 0, len(body)+3)
	out = append(out, label(l))
	out = append(out, body...)
	out = append(out, epilogue()...)
	return out
}

func argTypes(n int) []compile.Type {
	out := make([]compile.Type, n)
	for i := range out {
		out[i] = compile.Any()
	}
	return out
}

// Provider is the Linker's BuiltinProvider: the fixed, deterministic set
// of builtin routines appended to every link.
func Provider() []compile.CompiledProgram {
	lblArrayNew := value.FuncLabel(0)
	lblArrayGet := value.FuncLabel(1)
	lblArraySet := value.FuncLabel(2)
	lblKvsNew := value.FuncLabel(3)
	lblKvsGet := value.FuncLabel(4)
	lblKvsSet := value.FuncLabel(5)

	var code []instruction.Instruction
	code = append(code, routine(lblArrayNew, arrayNewBody())...)
	code = append(code, routine(lblArrayGet, arrayGetBody())...)
	code = append(code, routine(lblArraySet, arraySetBody())...)
	code = append(code, routine(lblKvsNew, kvsNewBody())...)
	code = append(code, routine(lblKvsGet, kvsGetBody())...)
	code = append(code, routine(lblKvsSet, kvsSetBody())...)

	exported := []compile.ExportedFunc{
		{Name: arrayNewName, Label: lblArrayNew, Tipe: compile.Func(false, argTypes(1), compile.Any())},
		{Name: arrayGetName, Label: lblArrayGet, Tipe: compile.Func(false, argTypes(2), compile.Any())},
		{Name: arraySetName, Label: lblArraySet, Tipe: compile.Func(false, argTypes(3), compile.Any())},
		{Name: kvsNewName, Label: lblKvsNew, Tipe: compile.Func(false, argTypes(0), compile.Any())},
		{Name: kvsGetName, Label: lblKvsGet, Tipe: compile.Func(false, argTypes(2), compile.Any())},
		{Name: kvsSetName, Label: lblKvsSet, Tipe: compile.Func(false, argTypes(3), compile.Any())},
	}

	prog := compile.New(code, exported, nil, 0, compile.NewSourceFileMap(len(code), "builtin/array_kvs.go"))
	return []compile.CompiledProgram{prog}
}
