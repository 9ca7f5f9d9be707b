package builtins

import (
	"testing"

	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/link"
	"github.com/mini-avm/avm/internal/postlink"
	"github.com/mini-avm/avm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderExportsAllSixRoutines(t *testing.T) {
	progs := Provider()
	require.Len(t, progs, 1)

	names := map[string]bool{}
	for _, ef := range progs[0].ExportedFuncs {
		names[ef.Name] = true
	}
	for _, want := range []string{arrayNewName, arrayGetName, arraySetName, kvsNewName, kvsGetName, kvsSetName} {
		assert.True(t, names[want], "missing export %s", want)
	}
}

func TestEveryRoutineStartsWithLabelAndEndsWithAuxPopJump(t *testing.T) {
	progs := Provider()
	code := progs[0].Code

	// Every Label instruction in the builtin code must be immediately
	// followed, somewhere before the next Label (or end of code), by the
	// AuxPop; Jump epilogue.
	var labelIdxs []int
	for i, insn := range code {
		if insn.Opcode == instruction.Label {
			labelIdxs = append(labelIdxs, i)
		}
	}
	require.Len(t, labelIdxs, 6)

	for i, start := range labelIdxs {
		end := len(code)
		if i+1 < len(labelIdxs) {
			end = labelIdxs[i+1]
		}
		require.GreaterOrEqual(t, end-start, 3, "routine at %d too short for epilogue", start)
		assert.Equal(t, instruction.AuxPop, code[end-2].Opcode)
		assert.Equal(t, instruction.Jump, code[end-1].Opcode)
	}
}

func TestArrayNewBodyShape(t *testing.T) {
	body := arrayNewBody()
	require.Len(t, body, 5)
	assert.Equal(t, instruction.Noop, body[0].Opcode)
	assert.Equal(t, instruction.Tset, body[1].Opcode)
	assert.Equal(t, instruction.Noop, body[2].Opcode)
	assert.Equal(t, instruction.Swap1, body[3].Opcode)
	assert.Equal(t, instruction.Tset, body[4].Opcode)

	tup, ok := body[2].Immediate.AsTuple()
	require.True(t, ok)
	assert.Len(t, tup, value.TupleSize)
}

func TestArrayGetBodyShape(t *testing.T) {
	body := arrayGetBody()
	require.Len(t, body, 4)
	assert.Equal(t, instruction.Swap1, body[0].Opcode)
	assert.Equal(t, instruction.Tget, body[1].Opcode)
	assert.Equal(t, instruction.Swap1, body[2].Opcode)
	assert.Equal(t, instruction.Tget, body[3].Opcode)
	assert.Nil(t, body[3].Immediate, "trailing Tget must be the bare/dynamic form")
}

func TestArraySetBodyShape(t *testing.T) {
	body := arraySetBody()
	require.Len(t, body, 11)
	wantOps := []instruction.Opcode{
		instruction.AuxPush, instruction.AuxPush, instruction.Dup0, instruction.Tget,
		instruction.AuxPop, instruction.AuxPop, instruction.Swap2, instruction.Swap1,
		instruction.Tset, instruction.Swap1, instruction.Tset,
	}
	for i, op := range wantOps {
		assert.Equal(t, op, body[i].Opcode, "instruction %d", i)
	}
	assert.Nil(t, body[8].Immediate, "inner Tset must be the bare/dynamic form")
}

func TestKvsNewBodyShape(t *testing.T) {
	body := kvsNewBody()
	require.Len(t, body, 1)
	assert.Equal(t, instruction.Noop, body[0].Opcode)
	tup, ok := body[0].Immediate.AsTuple()
	require.True(t, ok)
	assert.Len(t, tup, kvsBuckets)
}

func TestKvsGetBodyShape(t *testing.T) {
	body := kvsGetBody()
	require.Len(t, body, 4)
	assert.Equal(t, instruction.Noop, body[0].Opcode)
	assert.Equal(t, instruction.Swap1, body[1].Opcode)
	assert.Equal(t, instruction.Mod, body[2].Opcode)
	assert.Nil(t, body[2].Immediate, "bare Mod so key (not the pushed modulus) is the left operand")
	assert.Equal(t, instruction.Tget, body[3].Opcode)
	assert.Nil(t, body[3].Immediate)
}

func TestKvsSetBodyShape(t *testing.T) {
	body := kvsSetBody()
	require.Len(t, body, 8)
	wantOps := []instruction.Opcode{
		instruction.AuxPush, instruction.Noop, instruction.Swap1, instruction.Mod,
		instruction.AuxPop, instruction.Swap2, instruction.Swap1, instruction.Tset,
	}
	for i, op := range wantOps {
		assert.Equal(t, op, body[i].Opcode, "instruction %d", i)
	}
	assert.Nil(t, body[3].Immediate, "bare Mod so key is the left operand")
	assert.Nil(t, body[7].Immediate)
}

// TestProviderSurvivesLinkAndPostlink exercises builtins.Provider as a
// real Linker BuiltinProvider: a trivial main program imports
// builtin_arrayNew, and the merged, post-linked result must resolve the
// import to a concrete code point with no warnings or errors.
func TestProviderSurvivesLinkAndPostlink(t *testing.T) {
	main := compile.New(
		[]instruction.Instruction{
			instruction.New(instruction.Jump).WithImmediate(value.LabelValue(value.ExternalLabel(0))),
		},
		nil,
		[]compile.ImportedFunc{{Name: arrayNewName, SlotNum: 0, ArgTypes: argTypes(1), RetType: compile.Any()}},
		0, compile.NewEmptySourceFileMap(),
	)

	merged, warnings, err := link.Link([]compile.CompiledProgram{main}, Provider)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	result, err := postlink.Compile(merged)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Code)
}
