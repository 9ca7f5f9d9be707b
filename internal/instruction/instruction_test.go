package instruction

import (
	"testing"

	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodeClassification(t *testing.T) {
	assert.False(t, Jump.IsCompileTimeOnly())
	assert.True(t, Jump.IsControlTransfer())
	assert.False(t, Plus.IsControlTransfer())
	assert.True(t, GetGlobalVar.IsCompileTimeOnly())
	assert.True(t, Return.IsCompileTimeOnly())
}

func TestRelocateCodePointImmediate(t *testing.T) {
	insn := New(Jump).WithImmediate(value.CodePointValue(value.Internal(5)))
	out := Relocate(insn, 10, 100, 1000)
	cp, ok := out.Immediate.AsCodePoint()
	require.True(t, ok)
	assert.Equal(t, value.Internal(15), cp)
}

func TestRelocateNestedInTuple(t *testing.T) {
	inner := value.Tuple(value.CodePointValue(value.External(2)), value.LabelValue(value.FuncLabel(3)))
	insn := New(PushStatic).WithImmediate(inner)
	out := Relocate(insn, 10, 100, 7)
	tup, ok := out.Immediate.AsTuple()
	require.True(t, ok)
	cp, ok := tup[0].AsCodePoint()
	require.True(t, ok)
	assert.Equal(t, value.External(102), cp)
	l, ok := tup[1].AsLabel()
	require.True(t, ok)
	assert.Equal(t, value.FuncLabel(10), l)
}

func TestRelocateNoImmediate(t *testing.T) {
	insn := New(Noop)
	out := Relocate(insn, 1, 1, 1)
	assert.Nil(t, out.Immediate)
}

func TestTranslateLabelsResolves(t *testing.T) {
	lbl := value.FuncLabel(1)
	insn := New(Jump).WithImmediate(value.LabelValue(lbl))
	table := map[value.Label]value.CodePt{lbl: value.Internal(42)}
	out, err := TranslateLabels(insn, table)
	require.NoError(t, err)
	cp, ok := out.Immediate.AsCodePoint()
	require.True(t, ok)
	assert.Equal(t, value.Internal(42), cp)
}

func TestTranslateLabelsUnresolved(t *testing.T) {
	insn := New(Jump).WithImmediate(value.LabelValue(value.FuncLabel(99)))
	_, err := TranslateLabels(insn, map[value.Label]value.CodePt{})
	assert.Error(t, err)
}

func TestInstructionString(t *testing.T) {
	insn := New(Plus)
	assert.Equal(t, "plus", insn.String())

	withImm := New(Rset).WithImmediate(value.Int(uint256.Zero()))
	assert.Contains(t, withImm.String(), "rset")
}
