package postlink

import "github.com/mini-avm/avm/internal/instruction"

// Peephole performs the post-link pipeline's third pass: local,
// stack-effect-preserving rewrites. Ported from spec §4.5's pass-3
// prose (optimize.rs's exact rule set was not available to port
// line-for-line; see DESIGN.md).
func Peephole(code []instruction.Instruction) []instruction.Instruction {
	var out []instruction.Instruction
	i := 0
	for i < len(code) {
		switch {
		case isBareNoop(code[i]):
			i++
		case i+1 < len(code) && isPush(code[i]) && isBarePop(code[i+1]):
			i += 2
		case i+2 < len(code) && isPush(code[i]) && isPush(code[i+1]) && isBareSwap1(code[i+2]):
			out = append(out, code[i+1], code[i])
			i += 3
		default:
			out = append(out, code[i])
			i++
		}
	}
	return out
}

func isBareNoop(insn instruction.Instruction) bool {
	return insn.Opcode == instruction.Noop && insn.Immediate == nil
}

// isPush identifies a Noop instruction carrying an immediate: the only
// effect of dispatching it is to push that immediate, since Noop's own
// opcode effect is nothing.
func isPush(insn instruction.Instruction) bool {
	return insn.Opcode == instruction.Noop && insn.Immediate != nil
}

func isBarePop(insn instruction.Instruction) bool {
	return insn.Opcode == instruction.Pop && insn.Immediate == nil
}

func isBareSwap1(insn instruction.Instruction) bool {
	return insn.Opcode == instruction.Swap1 && insn.Immediate == nil
}
