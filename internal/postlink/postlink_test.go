package postlink

import (
	"testing"

	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixNonForwardLabelsBackwardResolvesDirectly(t *testing.T) {
	lbl := value.AnonLabel(1)
	code := []instruction.Instruction{
		instruction.New(instruction.Label).WithImmediate(value.LabelValue(lbl)),
		instruction.New(instruction.Jump).WithImmediate(value.LabelValue(lbl)),
	}
	out, jumpTable := FixNonForwardLabels(code)
	assert.Empty(t, jumpTable)
	require.Len(t, out, 2)
	gotLbl, ok := out[1].Immediate.AsLabel()
	require.True(t, ok)
	assert.Equal(t, lbl, gotLbl)
}

func TestFixNonForwardLabelsForwardLowersToIndirectDispatch(t *testing.T) {
	lbl := value.AnonLabel(1)
	code := []instruction.Instruction{
		instruction.New(instruction.Jump).WithImmediate(value.LabelValue(lbl)),
		instruction.New(instruction.Label).WithImmediate(value.LabelValue(lbl)),
	}
	out, jumpTable := FixNonForwardLabels(code)
	require.Len(t, jumpTable, 1)
	assert.Equal(t, lbl, jumpTable[0])
	// PushStatic; Tget(0); Jump (depth 1 for a single-entry table); Label.
	require.Len(t, out, 4)
	assert.Equal(t, instruction.PushStatic, out[0].Opcode)
	assert.Equal(t, instruction.Tget, out[1].Opcode)
	assert.Equal(t, instruction.Jump, out[2].Opcode)
	assert.Nil(t, out[2].Immediate)
}

func TestFixTupleSizeGlobalVarExpansionDepth(t *testing.T) {
	// 65 globals: our corrected (not the spec illustration's) depth
	// formula requires 3 levels since 8^2 = 64 < 65. See DESIGN.md.
	code := []instruction.Instruction{
		instruction.New(instruction.SetGlobalVar).WithImmediate(value.Int(uint256.FromUsize(64))),
	}
	out := FixTupleSize(code, 65)
	tgetCount, tsetCount := 0, 0
	for _, insn := range out {
		if insn.Opcode == instruction.Tget {
			tgetCount++
		}
		if insn.Opcode == instruction.Tset {
			tsetCount++
		}
	}
	assert.Equal(t, 2, tgetCount) // depth-1 descents
	assert.Equal(t, 3, tsetCount) // leaf + depth-1 ascents
	assert.Equal(t, instruction.Rget, out[0].Opcode)
	assert.Equal(t, instruction.Rset, out[len(out)-1].Opcode)
}

func TestFixTupleSizeGlobalVarSmallDepth(t *testing.T) {
	code := []instruction.Instruction{
		instruction.New(instruction.GetGlobalVar).WithImmediate(value.Int(uint256.FromUsize(3))),
	}
	out := FixTupleSize(code, 5)
	require.Len(t, out, 2) // Rget; Tget(3)
	assert.Equal(t, instruction.Rget, out[0].Opcode)
	assert.Equal(t, instruction.Tget, out[1].Opcode)
}

func TestPeepholeDeletesBareNoop(t *testing.T) {
	out := Peephole([]instruction.Instruction{
		instruction.New(instruction.Noop),
		instruction.New(instruction.Plus),
	})
	require.Len(t, out, 1)
	assert.Equal(t, instruction.Plus, out[0].Opcode)
}

func TestPeepholeDeletesPushPop(t *testing.T) {
	out := Peephole([]instruction.Instruction{
		instruction.New(instruction.Noop).WithImmediate(value.Int(uint256.FromUint64(7))),
		instruction.New(instruction.Pop),
		instruction.New(instruction.Plus),
	})
	require.Len(t, out, 1)
	assert.Equal(t, instruction.Plus, out[0].Opcode)
}

func TestPeepholeReordersPushPushSwap(t *testing.T) {
	a := value.Int(uint256.FromUint64(1))
	b := value.Int(uint256.FromUint64(2))
	out := Peephole([]instruction.Instruction{
		instruction.New(instruction.Noop).WithImmediate(a),
		instruction.New(instruction.Noop).WithImmediate(b),
		instruction.New(instruction.Swap1),
	})
	require.Len(t, out, 2)
	assert.True(t, out[0].Immediate.Equal(b))
	assert.True(t, out[1].Immediate.Equal(a))
}

func TestStripLabelsResolvesAndBuildsStaticValue(t *testing.T) {
	lbl := value.AnonLabel(1)
	code := []instruction.Instruction{
		instruction.New(instruction.PushStatic),
		instruction.New(instruction.Tget).WithImmediate(value.Int(uint256.Zero())),
		instruction.New(instruction.Jump),
		instruction.New(instruction.Label).WithImmediate(value.LabelValue(lbl)),
		instruction.New(instruction.Plus),
	}
	exports := []compile.ExportedFunc{{Name: "f", Label: lbl, Tipe: compile.Any()}}

	out, staticVal, points, err := StripLabels(code, []value.Label{lbl}, exports)
	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.Equal(t, instruction.Noop, out[3].Opcode) // Label became Noop

	tup, ok := staticVal.AsTuple()
	require.True(t, ok)
	cp, ok := tup[0].AsCodePoint()
	require.True(t, ok)
	assert.Equal(t, value.Internal(3), cp)

	require.Len(t, points, 1)
	assert.Equal(t, value.Internal(3), points[0].CodePt)
}

func TestStripLabelsErrorsOnMissingLabel(t *testing.T) {
	code := []instruction.Instruction{
		instruction.New(instruction.Jump).WithImmediate(value.LabelValue(value.AnonLabel(99))),
	}
	_, _, _, err := StripLabels(code, nil, nil)
	assert.Error(t, err)
}

func TestPipelineEndToEndGlobalVar(t *testing.T) {
	code := []instruction.Instruction{
		instruction.New(instruction.SetGlobalVar).WithImmediate(value.Int(uint256.FromUsize(64))),
		instruction.New(instruction.GetGlobalVar).WithImmediate(value.Int(uint256.FromUsize(64))),
	}
	prog := compile.New(code, nil, nil, 65, compile.NewEmptySourceFileMap())
	result, err := Compile(prog)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Code)
	for _, insn := range result.Code {
		assert.NotEqual(t, instruction.GetGlobalVar, insn.Opcode)
		assert.NotEqual(t, instruction.SetGlobalVar, insn.Opcode)
	}
}
