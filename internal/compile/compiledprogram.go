// Package compile holds the pre-link program representation the
// Linker consumes: CompiledProgram plus its ExportedFunc/ImportedFunc
// tables, source file map, and global-variable count. Ported from
// compile.rs's CompiledProgram and link/mod.rs's ExportedFunc /
// ImportedFunc / ExportedFuncPoint.
package compile

import (
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
)

// ImportedFunc is a pre-link reference to a function defined in another
// compilation unit, resolved by the Linker's cross-wiring step.
type ImportedFunc struct {
	NameID   int
	SlotNum  int
	Name     string
	ArgTypes []Type
	RetType  Type
	IsImpure bool
}

// Relocate shifts SlotNum by extOffset, the external-import-slot space
// every program after the first is appended into.
func (f ImportedFunc) Relocate(intOffset, extOffset int) ImportedFunc {
	f.SlotNum += extOffset
	return f
}

// ExportedFunc is a pre-link declaration that a program makes one of
// its internal labels available to importers under name.
type ExportedFunc struct {
	Name  string
	Label value.Label
	Tipe  Type
}

// Relocate shifts the exported label by funcOffset (if it is a Func
// label) and reports the running max func offset, mirroring
// value.Label.Relocate.
func (f ExportedFunc) Relocate(intOffset, extOffset, funcOffset int) (ExportedFunc, int) {
	newLabel, newFuncOffset := f.Label.Relocate(funcOffset)
	f.Label = newLabel
	return f, newFuncOffset
}

// ExportedFuncPoint is an ExportedFunc after label resolution: its
// Label has become a concrete CodePt.
type ExportedFuncPoint struct {
	Name   string
	CodePt value.CodePt
	Tipe   Type
}

// Resolve turns an ExportedFunc into an ExportedFuncPoint once its
// label has a known code point.
func (f ExportedFunc) Resolve(cp value.CodePt) ExportedFuncPoint {
	return ExportedFuncPoint{Name: f.Name, CodePt: cp, Tipe: f.Tipe}
}

// CompiledProgram is one compilation unit's output: relocatable code
// plus the export/import tables the Linker merges across units.
type CompiledProgram struct {
	Code           []instruction.Instruction
	ExportedFuncs  []ExportedFunc
	ImportedFuncs  []ImportedFunc
	GlobalNumLimit int // count of distinct global-variable slots this unit declares
	SourceFileMap  SourceFileMap
}

// New constructs a CompiledProgram.
func New(code []instruction.Instruction, exported []ExportedFunc, imported []ImportedFunc, globalNumLimit int, sfm SourceFileMap) CompiledProgram {
	return CompiledProgram{
		Code:           code,
		ExportedFuncs:  exported,
		ImportedFuncs:  imported,
		GlobalNumLimit: globalNumLimit,
		SourceFileMap:  sfm,
	}
}

// Relocate shifts every code point, label, and global-variable index in
// p by the given offsets, and shifts p's own global slots by
// globalOffset. It returns the relocated program and the running
// maximum func offset and global offset reached, for the Linker to
// thread into the next unit's relocation call.
func (p CompiledProgram) Relocate(intOffset, extOffset, funcOffset, globalOffset int) (CompiledProgram, int, int) {
	relocatedCode := make([]instruction.Instruction, len(p.Code))
	maxFuncOffset := funcOffset
	for i, insn := range p.Code {
		r := instruction.Relocate(insn, intOffset, extOffset, funcOffset)
		r = relocateGlobalVarImmediate(r, globalOffset)
		relocatedCode[i] = r
	}

	relocatedExports := make([]ExportedFunc, len(p.ExportedFuncs))
	for i, exp := range p.ExportedFuncs {
		r, newFuncOffset := exp.Relocate(intOffset, extOffset, funcOffset)
		relocatedExports[i] = r
		if newFuncOffset > maxFuncOffset {
			maxFuncOffset = newFuncOffset
		}
	}

	relocatedImports := make([]ImportedFunc, len(p.ImportedFuncs))
	for i, imp := range p.ImportedFuncs {
		relocatedImports[i] = imp.Relocate(intOffset, extOffset)
	}

	newGlobalLimit := globalOffset + p.GlobalNumLimit

	return CompiledProgram{
		Code:           relocatedCode,
		ExportedFuncs:  relocatedExports,
		ImportedFuncs:  relocatedImports,
		GlobalNumLimit: newGlobalLimit,
		SourceFileMap:  p.SourceFileMap,
	}, maxFuncOffset, newGlobalLimit
}

// relocateGlobalVarImmediate bumps a GetGlobalVar/SetGlobalVar
// instruction's integer immediate (the global slot index) by
// globalOffset. These two compile-time-only opcodes carry their slot
// number as a plain Int immediate rather than a CodePt or Label, so
// instruction.Relocate does not touch them.
func relocateGlobalVarImmediate(insn instruction.Instruction, globalOffset int) instruction.Instruction {
	if insn.Opcode != instruction.GetGlobalVar && insn.Opcode != instruction.SetGlobalVar {
		return insn
	}
	if insn.Immediate == nil {
		return insn
	}
	idx, ok := insn.Immediate.AsInt()
	if !ok {
		return insn
	}
	usizeIdx, ok := idx.ToUsize()
	if !ok {
		return insn
	}
	return insn.WithImmediate(value.Int(uint256.FromUsize(usizeIdx + globalOffset)))
}
