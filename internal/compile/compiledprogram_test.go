package compile

import (
	"testing"

	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeEqual(t *testing.T) {
	a := Func(false, []Type{Any()}, Any())
	b := Func(false, []Type{Any()}, Any())
	c := Func(true, []Type{Any()}, Any())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(Any()))
}

func TestSourceFileMapFileAt(t *testing.T) {
	m := NewEmptySourceFileMap()
	m.Push(3, "a.mini")
	m.Push(2, "b.mini")
	assert.Equal(t, "a.mini", m.FileAt(0))
	assert.Equal(t, "a.mini", m.FileAt(2))
	assert.Equal(t, "b.mini", m.FileAt(3))
	assert.Equal(t, "", m.FileAt(5))
	assert.Equal(t, 5, m.Len())
}

func TestCompiledProgramRelocate(t *testing.T) {
	code := []instruction.Instruction{
		instruction.New(instruction.Jump).WithImmediate(value.CodePointValue(value.Internal(2))),
		instruction.New(instruction.GetGlobalVar).WithImmediate(value.Int(uint256.FromUint64(1))),
	}
	exported := []ExportedFunc{{Name: "f", Label: value.FuncLabel(0), Tipe: Any()}}
	imported := []ImportedFunc{{Name: "g", SlotNum: 0}}
	p := New(code, exported, imported, 3, NewEmptySourceFileMap())

	relocated, funcOffset, globalLimit := p.Relocate(10, 100, 5, 20)

	cp, ok := relocated.Code[0].Immediate.AsCodePoint()
	require.True(t, ok)
	assert.Equal(t, value.Internal(12), cp)

	gv, ok := relocated.Code[1].Immediate.AsInt()
	require.True(t, ok)
	gvIdx, _ := gv.ToUsize()
	assert.Equal(t, 21, gvIdx)

	assert.Equal(t, value.FuncLabel(5), relocated.ExportedFuncs[0].Label)
	assert.Equal(t, 100, relocated.ImportedFuncs[0].SlotNum)
	assert.Equal(t, 6, funcOffset)
	assert.Equal(t, 23, globalLimit)
	assert.Equal(t, 23, relocated.GlobalNumLimit)
}
