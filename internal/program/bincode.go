package program

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
)

// writeBincode/ReadFromBincode implement the "bincode" output format
// named in spec §6. The original serializes LinkedProgram with Rust's
// bincode crate, a schema keyed purely to Rust's own type layout; no
// pack library offers a compatible encoder, and nothing on the Go side
// of this module ever exchanges this format with the original binary,
// so the exact wire bytes are not a compatibility requirement — only a
// stable, schema-driven binary round trip is. encoding/gob is the
// standard library's own analogue (a self-describing binary codec for
// Go structs) and is used here for that reason; see DESIGN.md.
func (p LinkedProgram) writeBincode(output io.Writer) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		fmt.Fprintf(output, "bincode serialization error: %v\n", err)
		return
	}
	output.Write(buf.Bytes())
}

// ReadFromBincode decodes a LinkedProgram written in "bincode" format.
func ReadFromBincode(r io.Reader) (LinkedProgram, error) {
	var p LinkedProgram
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return LinkedProgram{}, err
	}
	return p, nil
}
