package program

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProgram() LinkedProgram {
	code := []instruction.Instruction{
		instruction.New(instruction.Noop).WithImmediate(value.Int(uint256.FromUint64(42))),
		instruction.New(instruction.Plus),
	}
	exported := []compile.ExportedFuncPoint{
		{Name: "main", CodePt: value.Internal(0), Tipe: compile.Any()},
	}
	imported := []compile.ImportedFunc{
		{NameID: 1, SlotNum: 0, Name: "helper", ArgTypes: nil, RetType: compile.Any(), IsImpure: false},
	}
	return New(code, value.Tuple(value.Int(uint256.FromUint64(7))), exported, imported)
}

func TestWriteToJSONRoundTrips(t *testing.T) {
	p := sampleProgram()
	var buf bytes.Buffer
	p.WriteTo(&buf, "json")

	got, err := ReadFromJSON(&buf)
	require.NoError(t, err)
	require.Len(t, got.Code, 2)
	assert.Equal(t, instruction.Noop, got.Code[0].Opcode)
	require.NotNil(t, got.Code[0].Immediate)
	i, ok := got.Code[0].Immediate.AsInt()
	require.True(t, ok)
	assert.Equal(t, uint64(42), func() uint64 { v, _ := i.ToUint64(); return v }())
	assert.True(t, got.StaticVal.Equal(p.StaticVal))
	require.Len(t, got.ExportedFuncs, 1)
	assert.Equal(t, "main", got.ExportedFuncs[0].Name)
}

func TestWriteToDefaultIsJSON(t *testing.T) {
	p := sampleProgram()
	var bufDefault, bufExplicit bytes.Buffer
	p.WriteTo(&bufDefault, "")
	p.WriteTo(&bufExplicit, "json")
	assert.Equal(t, bufExplicit.String(), bufDefault.String())
}

func TestWriteToPretty(t *testing.T) {
	p := sampleProgram()
	var buf bytes.Buffer
	p.WriteTo(&buf, "pretty")
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "exported:"))
	assert.Contains(t, out, "imported:")
	assert.Contains(t, out, "static:")
	assert.Contains(t, out, "0000:")
	assert.Contains(t, out, "0001:")
}

func TestWriteToBincodeRoundTrips(t *testing.T) {
	p := sampleProgram()
	var buf bytes.Buffer
	p.WriteTo(&buf, "bincode")

	got, err := ReadFromBincode(&buf)
	require.NoError(t, err)
	require.Len(t, got.Code, 2)
	assert.True(t, got.StaticVal.Equal(p.StaticVal))
	require.Len(t, got.ImportedFuncs, 1)
	assert.Equal(t, "helper", got.ImportedFuncs[0].Name)
}

func TestWriteToInvalidFormat(t *testing.T) {
	p := sampleProgram()
	var buf bytes.Buffer
	p.WriteTo(&buf, "xml")
	assert.Equal(t, "invalid format: xml\n", buf.String())
}
