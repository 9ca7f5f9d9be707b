package postlink

import (
	"fmt"

	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/value"
)

// StripLabels performs the post-link pipeline's fourth and final pass:
// Label instructions become Noops (their position is recorded as the
// label's resolved pc), every remaining Label immediate is rewritten to
// a resolved CodePoint::Internal, the pass-1 jump table is resolved and
// folded into the static jump-table value, and exported functions are
// resolved into ExportedFuncPoints.
//
// Ported from link/mod.rs's postlink_compile (the strip_labels call and
// surrounding jump_table_to_value / exported_funcs_final handling).
func StripLabels(code []instruction.Instruction, jumpTable []value.Label, exports []compile.ExportedFunc) ([]instruction.Instruction, value.Value, []compile.ExportedFuncPoint, error) {
	labelPc := make(map[value.Label]int)
	out := make([]instruction.Instruction, len(code))
	for i, insn := range code {
		if insn.Opcode == instruction.Label {
			lbl, _ := insn.Immediate.AsLabel()
			labelPc[lbl] = i
			out[i] = instruction.New(instruction.Noop)
			continue
		}
		out[i] = insn
	}

	for i, insn := range out {
		resolved, err := resolveImmediate(insn, labelPc)
		if err != nil {
			return nil, value.Value{}, nil, err
		}
		out[i] = resolved
	}

	resolvedLeaves := make([]value.Value, len(jumpTable))
	for i, lbl := range jumpTable {
		pc, ok := labelPc[lbl]
		if !ok {
			return nil, value.Value{}, nil, fmt.Errorf("missing label %s in jump table", lbl)
		}
		resolvedLeaves[i] = value.CodePointValue(value.Internal(pc))
	}
	staticVal := value.BuildTreeFromLeaves(resolvedLeaves, value.TreeDepth(len(resolvedLeaves)), value.None())

	resolvedExports := make([]compile.ExportedFuncPoint, len(exports))
	for i, exp := range exports {
		pc, ok := labelPc[exp.Label]
		if !ok {
			return nil, value.Value{}, nil, fmt.Errorf("reference to non-existent function %q", exp.Name)
		}
		resolvedExports[i] = exp.Resolve(value.Internal(pc))
	}

	return out, staticVal, resolvedExports, nil
}

func resolveImmediate(insn instruction.Instruction, labelPc map[value.Label]int) (instruction.Instruction, error) {
	if insn.Immediate == nil {
		return insn, nil
	}
	resolved, err := resolveValue(*insn.Immediate, labelPc)
	if err != nil {
		return insn, err
	}
	insn.Immediate = &resolved
	return insn, nil
}

func resolveValue(v value.Value, labelPc map[value.Label]int) (value.Value, error) {
	switch v.Kind() {
	case value.KindLabel:
		lbl, _ := v.AsLabel()
		pc, ok := labelPc[lbl]
		if !ok {
			return v, fmt.Errorf("reference to non-existent label %s", lbl)
		}
		return value.CodePointValue(value.Internal(pc)), nil
	case value.KindTuple:
		tup, _ := v.AsTuple()
		out := make([]value.Value, len(tup))
		for i, e := range tup {
			rv, err := resolveValue(e, labelPc)
			if err != nil {
				return v, err
			}
			out[i] = rv
		}
		return value.Tuple(out...), nil
	default:
		return v, nil
	}
}
