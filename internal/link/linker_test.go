package link

import (
	"testing"

	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noBuiltins() []compile.CompiledProgram { return nil }

func TestLinkCrossWiresImportToExport(t *testing.T) {
	exporter := compile.New(
		[]instruction.Instruction{instruction.New(instruction.Noop)},
		[]compile.ExportedFunc{{Name: "f", Label: value.FuncLabel(0), Tipe: compile.Func(false, nil, compile.Any())}},
		nil, 0, compile.NewEmptySourceFileMap(),
	)
	importer := compile.New(
		[]instruction.Instruction{
			instruction.New(instruction.Jump).WithImmediate(value.LabelValue(value.ExternalLabel(0))),
		},
		nil,
		[]compile.ImportedFunc{{Name: "f", SlotNum: 0, RetType: compile.Any()}},
		0, compile.NewEmptySourceFileMap(),
	)

	merged, warnings, err := Link([]compile.CompiledProgram{exporter, importer}, noBuiltins)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// slot 0: prepended Rset; slot 1: exporter's Noop; slot 2: importer's Jump.
	require.Len(t, merged.Code, 3)
	jumpInsn := merged.Code[2]
	assert.Equal(t, instruction.Jump, jumpInsn.Opcode)
	lbl, ok := jumpInsn.Immediate.AsLabel()
	require.True(t, ok)
	// The exporter's FuncLabel(0) is relocated by func_offset 0 (it's
	// first in program order) then cross-wired in place of External(0).
	assert.Equal(t, value.FuncLabel(0), lbl)
}

func TestLinkWarnsOnTypeMismatch(t *testing.T) {
	exporter := compile.New(
		nil,
		[]compile.ExportedFunc{{Name: "f", Label: value.FuncLabel(0), Tipe: compile.Func(false, nil, compile.Any())}},
		nil, 0, compile.NewEmptySourceFileMap(),
	)
	importer := compile.New(
		nil, nil,
		[]compile.ImportedFunc{{Name: "f", SlotNum: 0, IsImpure: true, RetType: compile.Any()}},
		0, compile.NewEmptySourceFileMap(),
	)

	_, warnings, err := Link([]compile.CompiledProgram{exporter, importer}, noBuiltins)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

func TestLinkUnresolvedImportLeftUntouched(t *testing.T) {
	lonely := compile.New(
		[]instruction.Instruction{
			instruction.New(instruction.Jump).WithImmediate(value.LabelValue(value.ExternalLabel(0))),
		},
		nil,
		[]compile.ImportedFunc{{Name: "missing", SlotNum: 0}},
		0, compile.NewEmptySourceFileMap(),
	)

	merged, _, err := Link([]compile.CompiledProgram{lonely}, noBuiltins)
	require.NoError(t, err)
	lbl, ok := merged.Code[1].Immediate.AsLabel()
	require.True(t, ok)
	assert.Equal(t, value.ExternalLabel(0), lbl)
}

func TestLinkPrependsGlobalInitRset(t *testing.T) {
	prog := compile.New(nil, nil, nil, 3, compile.NewEmptySourceFileMap())
	merged, _, err := Link([]compile.CompiledProgram{prog}, noBuiltins)
	require.NoError(t, err)
	require.Len(t, merged.Code, 1)
	assert.Equal(t, instruction.Rset, merged.Code[0].Opcode)
	require.NotNil(t, merged.Code[0].Immediate)
	tup, ok := merged.Code[0].Immediate.AsTuple()
	require.True(t, ok)
	assert.Len(t, tup, value.TupleSize)
}

func TestLinkAppendsBuiltins(t *testing.T) {
	builtin := compile.New([]instruction.Instruction{instruction.New(instruction.Noop)}, nil, nil, 0, compile.NewEmptySourceFileMap())
	withBuiltins := func() []compile.CompiledProgram { return []compile.CompiledProgram{builtin} }

	main := compile.New([]instruction.Instruction{instruction.New(instruction.Pop)}, nil, nil, 0, compile.NewEmptySourceFileMap())
	merged, _, err := Link([]compile.CompiledProgram{main}, withBuiltins)
	require.NoError(t, err)
	require.Len(t, merged.Code, 3)
	assert.Equal(t, instruction.Pop, merged.Code[1].Opcode)
	assert.Equal(t, instruction.Noop, merged.Code[2].Opcode)
}
