package program

import (
	"fmt"
	"io"
)

// writePretty matches the original's column alignment: the instruction
// index is rendered zero-padded to 4 digits regardless of program
// length, a detail only visible in the original pretty-printer and not
// restated in the distilled spec.
func (p LinkedProgram) writePretty(output io.Writer) {
	fmt.Fprintf(output, "exported: %v\n", p.ExportedFuncs)
	fmt.Fprintf(output, "imported: %v\n", p.ImportedFuncs)
	fmt.Fprintf(output, "static: %s\n", p.StaticVal.String())
	for idx, insn := range p.Code {
		fmt.Fprintf(output, "%04d:  %s\n", idx, insn.String())
	}
}
