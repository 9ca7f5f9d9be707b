package postlink

import (
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
)

type labelRefKind int

const (
	refOther labelRefKind = iota
	refDefinition
	refBackward
	refForward
)

// FixNonForwardLabels performs the post-link pipeline's first pass: a
// single forward scan over code that partitions every Label-valued
// immediate into two resolution strategies.
//
//   - A label already defined earlier in the scan (a backward
//     reference) is left as a Label immediate, to be resolved directly
//     against its final post-peephole position in StripLabels.
//   - A label not yet defined at this point (a forward reference) is
//     lowered to an indirect dispatch through the jump table: the
//     instruction carrying it (whatever its opcode) is expanded into
//     `PushStatic; Tget(d0); …; Tget(dk); <original opcode, now with no
//     immediate>`, navigating to jump-table slot `slot` by its
//     base-TUPLE_SIZE digits. Repeated forward references to the same
//     not-yet-defined label share one jump-table slot.
//
// Ported from the pipeline shape in link/mod.rs's postlink_compile;
// striplabels.rs itself was not available to port line-for-line, so
// this pass's exact lowering strategy is this package's own design
// (see DESIGN.md).
func FixNonForwardLabels(code []instruction.Instruction) ([]instruction.Instruction, []value.Label) {
	kinds := make([]labelRefKind, len(code))
	seenDef := make(map[value.Label]bool)
	forwardSlot := make(map[value.Label]int)
	var jumpTable []value.Label

	for i, insn := range code {
		if insn.Opcode == instruction.Label {
			lbl, _ := insn.Immediate.AsLabel()
			seenDef[lbl] = true
			kinds[i] = refDefinition
			continue
		}
		if insn.Immediate == nil || insn.Immediate.Kind() != value.KindLabel {
			kinds[i] = refOther
			continue
		}
		lbl, _ := insn.Immediate.AsLabel()
		if seenDef[lbl] {
			kinds[i] = refBackward
			continue
		}
		kinds[i] = refForward
		if _, ok := forwardSlot[lbl]; !ok {
			forwardSlot[lbl] = len(jumpTable)
			jumpTable = append(jumpTable, lbl)
		}
	}

	depth := value.TreeDepth(len(jumpTable))
	out := make([]instruction.Instruction, 0, len(code))
	for i, insn := range code {
		switch kinds[i] {
		case refForward:
			lbl, _ := insn.Immediate.AsLabel()
			digits := value.Digits(forwardSlot[lbl], depth)
			out = append(out, instruction.New(instruction.PushStatic))
			for _, d := range digits {
				out = append(out, instruction.New(instruction.Tget).WithImmediate(value.Int(uint256.FromUsize(d))))
			}
			out = append(out, instruction.New(insn.Opcode).WithDebug(insn.Debug))
		default:
			out = append(out, insn)
		}
	}
	return out, jumpTable
}
