// Package program implements LinkedProgram, the final on-disk artifact
// produced by the Linker and post-link pipeline, and its three output
// formats. Grounded on link/mod.rs's LinkedProgram and its to_output.
package program

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/instruction"
	"github.com/mini-avm/avm/internal/value"
)

// LinkedProgram is the fully linked, post-link-processed form of an AVM
// program: every Label has been resolved to a concrete CodePoint, the
// jump table has been folded into StaticVal (the global frame is not:
// the leading Rset builds it in the register at run time), and
// every wide tuple/global-variable access has been lowered to fixed-
// arity Tget/Tset chains.
type LinkedProgram struct {
	Code          []instruction.Instruction   `json:"code"`
	StaticVal     value.Value                 `json:"static_val"`
	ExportedFuncs []compile.ExportedFuncPoint `json:"exported_funcs"`
	ImportedFuncs []compile.ImportedFunc      `json:"imported_funcs"`
}

// New assembles a LinkedProgram from a postlink.Result and the
// untouched imported-functions table that passed through the Linker.
func New(code []instruction.Instruction, staticVal value.Value, exported []compile.ExportedFuncPoint, imported []compile.ImportedFunc) LinkedProgram {
	return LinkedProgram{
		Code:          code,
		StaticVal:     staticVal,
		ExportedFuncs: exported,
		ImportedFuncs: imported,
	}
}

// WriteTo renders p to output in the given format: "pretty", "json"
// (the default, matching an empty/unspecified format string), or
// "bincode" — a schema-stable Go binary encoding standing in for the
// original's bincode format of the same name (see bincode.go and
// DESIGN.md). An unrecognized format is a textual error, matching the
// original's "invalid format: %s" rather than a Go error return, since
// the original itself never fails this call with a propagated error
// either.
func (p LinkedProgram) WriteTo(output io.Writer, format string) {
	switch format {
	case "pretty":
		p.writePretty(output)
	case "", "json":
		p.writeJSON(output)
	case "bincode":
		p.writeBincode(output)
	default:
		fmt.Fprintf(output, "invalid format: %s\n", format)
	}
}

func (p LinkedProgram) writeJSON(output io.Writer) {
	b, err := json.Marshal(p)
	if err != nil {
		fmt.Fprintf(output, "json serialization error: %v\n", err)
		return
	}
	fmt.Fprintln(output, string(b))
}

// ReadFromJSON decodes a LinkedProgram previously written in "json"
// format — the default format for a linked program on disk (per
// run/mod.rs's run_from_file using serde_json).
func ReadFromJSON(r io.Reader) (LinkedProgram, error) {
	var p LinkedProgram
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return LinkedProgram{}, err
	}
	return p, nil
}
