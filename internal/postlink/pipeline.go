// Package postlink implements the Linker's four-pass post-link
// pipeline: fix_nonforward_labels, fix_tuple_size, peephole, and
// strip_labels, turning a merged CompiledProgram into a LinkedProgram's
// code, static value, and resolved exports. Ported from link/mod.rs's
// postlink_compile.
package postlink

import (
	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/value"
)

// Result is the post-link pipeline's output: everything a
// program.LinkedProgram needs besides the imported-functions table,
// which passes through the Linker untouched.
type Result struct {
	Code          []instruction.Instruction
	StaticVal     value.Value
	ExportedFuncs []compile.ExportedFuncPoint
}

// Compile runs the four-pass pipeline over prog's merged code.
func Compile(prog compile.CompiledProgram) (Result, error) {
	code1, jumpTable := FixNonForwardLabels(prog.Code)
	code2 := FixTupleSize(code1, prog.GlobalNumLimit)
	code3 := Peephole(code2)
	code4, staticVal, exports, err := StripLabels(code3, jumpTable, prog.ExportedFuncs)
	if err != nil {
		return Result{}, err
	}
	return Result{Code: code4, StaticVal: staticVal, ExportedFuncs: exports}, nil
}
