// Package link implements the Linker: merging an ordered sequence of
// CompiledPrograms plus a deterministic builtin set into a single
// relocated, cross-wired CompiledProgram ready for the post-link
// pipeline. Ported near line-for-line from link/mod.rs's link().
package link

import (
	"fmt"

	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/compileerr"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/value"
)

// BuiltinProvider supplies the deterministic builtin CompiledProgram
// set auto-appended to every link, standing in for link/mod.rs's
// add_auto_link_progs (which reads builtin/array.mao and
// builtin/kvs.mao from disk — a Mini-source frontend concern that is
// out of scope here).
type BuiltinProvider func() []compile.CompiledProgram

// Link merges progsIn with the builtins builtins() provides (in that
// order), relocates each unit into a single flat address space, and
// cross-wires imports to their matching exports by name.
//
// Warnings (type mismatches between an import and its resolved export)
// are non-fatal and are returned as informational strings alongside
// the merged program.
func Link(progsIn []compile.CompiledProgram, builtins BuiltinProvider) (compile.CompiledProgram, []string, error) {
	progs := append(append([]compile.CompiledProgram{}, progsIn...), builtins()...)

	insnsSoFar := 1 // reserve slot 0 for the global-init Rset the Linker prepends
	importsSoFar := 0
	intOffsets := make([]int, len(progs))
	extOffsets := make([]int, len(progs))
	mergedSourceFileMap := compile.NewEmptySourceFileMap()

	for i, prog := range progs {
		mergedSourceFileMap.Push(len(prog.Code), fileOf(prog))
		intOffsets[i] = insnsSoFar
		insnsSoFar += len(prog.Code)
		extOffsets[i] = importsSoFar
		importsSoFar += len(prog.ImportedFuncs)
	}

	relocatedProgs := make([]compile.CompiledProgram, len(progs))
	funcOffset := 0
	globalNumLimit := 0
	for i, prog := range progs {
		relocated, newFuncOffset, newGlobalLimit := prog.Relocate(intOffsets[i], extOffsets[i], funcOffset, globalNumLimit)
		globalNumLimit = newGlobalLimit
		relocatedProgs[i] = relocated
		funcOffset = newFuncOffset
	}

	linkedCode := []instruction.Instruction{
		instruction.New(instruction.Rset).WithImmediate(value.BuildNestedTuple(value.TreeDepth(globalNumLimit), value.None())),
	}
	var linkedExports []compile.ExportedFunc
	var linkedImports []compile.ImportedFunc
	for _, rp := range relocatedProgs {
		linkedCode = append(linkedCode, rp.Code...)
		linkedExports = append(linkedExports, rp.ExportedFuncs...)
		linkedImports = append(linkedImports, rp.ImportedFuncs...)
	}

	type exportEntry struct {
		label value.Label
		tipe  compile.Type
	}
	exportsMap := make(map[string]exportEntry, len(linkedExports))
	for _, exp := range linkedExports {
		exportsMap[exp.Name] = exportEntry{label: exp.Label, tipe: exp.Tipe}
	}

	var warnings []string
	labelXlateMap := make(map[value.Label]value.Label)
	for _, imp := range linkedImports {
		entry, ok := exportsMap[imp.Name]
		if !ok {
			continue
		}
		wantType := compile.Func(imp.IsImpure, imp.ArgTypes, imp.RetType)
		if !entry.tipe.Equal(wantType) {
			warnings = append(warnings, fmt.Sprintf(
				"imported type %q doesn't match exported type %q for %q",
				wantType, entry.tipe, imp.Name,
			))
		}
		labelXlateMap[value.ExternalLabel(imp.SlotNum)] = entry.label
	}

	linkedXlatedCode := make([]instruction.Instruction, len(linkedCode))
	for i, insn := range linkedCode {
		xlated, err := xlateLabels(insn, labelXlateMap)
		if err != nil {
			return compile.CompiledProgram{}, warnings, compileerr.New(err.Error())
		}
		linkedXlatedCode[i] = xlated
	}

	return compile.New(linkedXlatedCode, linkedExports, linkedImports, globalNumLimit, mergedSourceFileMap), warnings, nil
}

// xlateLabels rewrites any Label immediate (directly, or nested in a
// tuple immediate) that names an External import slot present in table
// to the label it was cross-wired to. Labels with no entry in table are
// left as-is: they are resolved later, by the post-link pipeline,
// against the program's own internal label space.
func xlateLabels(insn instruction.Instruction, table map[value.Label]value.Label) (instruction.Instruction, error) {
	if insn.Immediate == nil {
		return insn, nil
	}
	v, err := xlateValue(*insn.Immediate, table)
	if err != nil {
		return insn, err
	}
	insn.Immediate = &v
	return insn, nil
}

func xlateValue(v value.Value, table map[value.Label]value.Label) (value.Value, error) {
	switch v.Kind() {
	case value.KindLabel:
		l, _ := v.AsLabel()
		if repl, ok := table[l]; ok {
			return value.LabelValue(repl), nil
		}
		return v, nil
	case value.KindTuple:
		tup, _ := v.AsTuple()
		out := make([]value.Value, len(tup))
		for i, e := range tup {
			xv, err := xlateValue(e, table)
			if err != nil {
				return v, err
			}
			out[i] = xv
		}
		return value.Tuple(out...), nil
	default:
		return v, nil
	}
}

func fileOf(p compile.CompiledProgram) string {
	return p.SourceFileMap.FileAt(0)
}
