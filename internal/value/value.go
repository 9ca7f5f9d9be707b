// Package value implements the AVM's tagged Value universe: 256-bit
// integers, code points, nested tuples, opaque byte buffers, and
// pre-link symbolic labels.
package value

import (
	"fmt"
	"strings"

	"github.com/mini-avm/avm/internal/uint256"
	"golang.org/x/crypto/sha3"
)

// Kind discriminates the closed Value sum.
type Kind int

const (
	KindInt Kind = iota
	KindCodePoint
	KindTuple
	KindBuffer
	KindLabel
)

// TupleSize is the fixed tuple fan-out enforced on every tuple once a
// program has passed through internal/postlink's fixTupleSize pass.
const TupleSize = 8

// Value is a member of the closed AVM value sum. Exactly one of the
// fields below is meaningful, selected by Kind — mirroring the
// kind-tag-plus-switch shape the teacher's wazeroir.Operation hierarchy
// uses in place of Go's lack of sum types.
type Value struct {
	kind   Kind
	i      uint256.Uint256
	cp     CodePt
	tuple  []Value
	buffer []byte
	label  Label
}

// Int constructs an integer value.
func Int(i uint256.Uint256) Value { return Value{kind: KindInt, i: i} }

// CodePointValue constructs a code-point value.
func CodePointValue(cp CodePt) Value { return Value{kind: KindCodePoint, cp: cp} }

// Tuple constructs a tuple value from vs, which is copied defensively.
func Tuple(vs ...Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindTuple, tuple: cp}
}

// BufferValue constructs an opaque byte-buffer value.
func BufferValue(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBuffer, buffer: cp}
}

// LabelValue constructs a symbolic label value.
func LabelValue(l Label) Value { return Value{kind: KindLabel, label: l} }

// None is the conventional sentinel: the empty tuple.
func None() Value { return Tuple() }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindTuple && len(v.tuple) == 0 }

// AsInt returns the wrapped integer and true if v is a KindInt.
func (v Value) AsInt() (uint256.Uint256, bool) {
	if v.kind != KindInt {
		return uint256.Uint256{}, false
	}
	return v.i, true
}

// AsCodePoint returns the wrapped code point and true if v is a
// KindCodePoint.
func (v Value) AsCodePoint() (CodePt, bool) {
	if v.kind != KindCodePoint {
		return CodePt{}, false
	}
	return v.cp, true
}

// AsTuple returns the wrapped tuple slice and true if v is a KindTuple.
// The returned slice must not be mutated by the caller.
func (v Value) AsTuple() ([]Value, bool) {
	if v.kind != KindTuple {
		return nil, false
	}
	return v.tuple, true
}

// AsBuffer returns the wrapped byte slice and true if v is a KindBuffer.
// The returned slice must not be mutated by the caller.
func (v Value) AsBuffer() ([]byte, bool) {
	if v.kind != KindBuffer {
		return nil, false
	}
	return v.buffer, true
}

// AsLabel returns the wrapped label and true if v is a KindLabel.
func (v Value) AsLabel() (Label, bool) {
	if v.kind != KindLabel {
		return Label{}, false
	}
	return v.label, true
}

// ReadByte returns the byte at index i of a buffer value, or 0 past its
// end (the AVM convention for reading an under-sized buffer).
func (v Value) ReadByte(i int) byte {
	if v.kind != KindBuffer || i < 0 || i >= len(v.buffer) {
		return 0
	}
	return v.buffer[i]
}

// ReadWord returns the 32-byte big-endian word starting at byte offset i
// of a buffer value, zero-padded past the buffer's end.
func (v Value) ReadWord(i int) uint256.Uint256 {
	var b [32]byte
	for j := 0; j < 32; j++ {
		b[j] = v.ReadByte(i + j)
	}
	return uint256.FromBytes32(b)
}

// Equal is structural, position-sensitive equality. Values of different
// kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i.Equal(o.i)
	case KindCodePoint:
		return v.cp.Equal(o.cp)
	case KindTuple:
		if len(v.tuple) != len(o.tuple) {
			return false
		}
		for i := range v.tuple {
			if !v.tuple[i].Equal(o.tuple[i]) {
				return false
			}
		}
		return true
	case KindBuffer:
		return string(v.buffer) == string(o.buffer)
	default: // KindLabel
		return v.label.Equal(o.label)
	}
}

// domain-separation tags for AVMHash, one per non-Int, non-Tuple kind —
// Int and Tuple hash without a tag (Int hashes its raw 32-byte form, and
// Tuple hashing is defined as keccak256 of the concatenation of its
// elements' hashes, per spec §4.2).
const (
	hashTagCodePoint byte = 1
	hashTagBuffer    byte = 2
	hashTagLabel     byte = 3
)

// AVMHash returns keccak256 of v's canonical bytes, wrapped as a
// KindInt Value per spec §4.2.
func (v Value) AVMHash() Value {
	h := sha3.NewLegacyKeccak256()
	switch v.kind {
	case KindInt:
		b := v.i.Bytes32()
		h.Write(b[:])
	case KindTuple:
		for _, elt := range v.tuple {
			eh, _ := elt.AVMHash().AsInt()
			b := eh.Bytes32()
			h.Write(b[:])
		}
	case KindCodePoint:
		h.Write([]byte{hashTagCodePoint})
		h.Write([]byte(v.cp.String()))
	case KindBuffer:
		h.Write([]byte{hashTagBuffer})
		h.Write(v.buffer)
	case KindLabel:
		h.Write([]byte{hashTagLabel})
		h.Write([]byte(v.label.String()))
	}
	return Int(uint256.FromBytes(h.Sum(nil)))
}

// AVMHash2 returns keccak256(be32(AVMHash(a)) || be32(AVMHash(b))),
// wrapped as a KindInt Value.
func AVMHash2(a, b Value) Value {
	ah, _ := a.AVMHash().AsInt()
	bh, _ := b.AVMHash().AsInt()
	h := sha3.NewLegacyKeccak256()
	ab := ah.Bytes32()
	bb := bh.Bytes32()
	h.Write(ab[:])
	h.Write(bb[:])
	return Int(uint256.FromBytes(h.Sum(nil)))
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return v.i.String()
	case KindCodePoint:
		return v.cp.String()
	case KindTuple:
		parts := make([]string, len(v.tuple))
		for i, e := range v.tuple {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindBuffer:
		return fmt.Sprintf("Buffer(%d bytes)", len(v.buffer))
	default:
		return v.label.String()
	}
}
