package value

import "github.com/mini-avm/avm/internal/uint256"

// BytestackFromBytes encodes b as the AVM's canonical bytestack value: a
// 2-tuple of (length, cons-list of 32-byte-chunk cells), terminated by
// None. Ported from runtime_env.rs's bytestack_from_bytes /
// bytestack_from_bytes_2 / bytestack_build_uint.
func BytestackFromBytes(b []byte) Value {
	return Tuple(Int(uint256.FromUsize(len(b))), bytestackCells(b, None()))
}

func bytestackCells(b []byte, soFar Value) Value {
	if len(b) > 32 {
		return bytestackCells(b[32:], Tuple(buildChunkUint(b[:32]), soFar))
	}
	return Tuple(buildChunkUint(b), soFar)
}

// buildChunkUint packs up to 32 bytes into a Uint256 by repeated
// multiply-by-256-and-add, left-justifying b within the 32-byte word
// (missing trailing bytes contribute a multiply with no add, i.e. a
// zero low-order byte) rather than the usual big-endian right-alignment.
func buildChunkUint(b []byte) Value {
	u256 := uint256.FromUsize(256)
	acc := uint256.Zero()
	for j := 0; j < 32; j++ {
		acc = acc.Mul(u256)
		if j < len(b) {
			acc = acc.Add(uint256.FromUsize(int(b[j])))
		}
	}
	return Int(acc)
}

// HashBytestack walks a bytestack's chunk cells, folding them into a
// single Uint256 via AVMHash2, and reports false if bs is not
// well-formed bytestack shape. Ported from runtime_env.rs's
// hash_bytestack.
func HashBytestack(bs Value) (uint256.Uint256, bool) {
	tup, ok := bs.AsTuple()
	if !ok || len(tup) != 2 {
		return uint256.Uint256{}, false
	}
	acc, ok := tup[0].AsInt()
	if !ok {
		return uint256.Uint256{}, false
	}
	pair := tup[1]
	for !pair.IsNone() {
		tup2, ok := pair.AsTuple()
		if !ok || len(tup2) != 2 {
			return uint256.Uint256{}, false
		}
		ui2, ok := tup2[0].AsInt()
		if !ok {
			return uint256.Uint256{}, false
		}
		h, _ := AVMHash2(Int(acc), Int(ui2)).AsInt()
		acc = h
		pair = tup2[1]
	}
	return acc, true
}

// BytesFromBytestack reverses BytestackFromBytes, reporting false if bs
// is not well-formed bytestack shape. Ported from runtime_env.rs's
// _bytes_from_bytestack / _bytes_from_bytestack_2.
func BytesFromBytestack(bs Value) ([]byte, bool) {
	tup, ok := bs.AsTuple()
	if !ok || len(tup) != 2 {
		return nil, false
	}
	lenVal, ok := tup[0].AsInt()
	if !ok {
		return nil, false
	}
	n, ok := lenVal.ToUsize()
	if !ok {
		return nil, false
	}
	return bytesFromCells(tup[1], n)
}

func bytesFromCells(cell Value, nbytes int) ([]byte, bool) {
	if nbytes == 0 {
		return []byte{}, true
	}
	tup, ok := cell.AsTuple()
	if !ok || len(tup) != 2 {
		return nil, false
	}
	intVal, ok := tup[0].AsInt()
	if !ok {
		return nil, false
	}
	u256 := uint256.FromUsize(256)

	if nbytes%32 == 0 {
		subArr, ok := bytesFromCells(tup[1], nbytes-32)
		if !ok {
			return nil, false
		}
		thisArr := make([]byte, 32)
		for i := 0; i < 32; i++ {
			rem, _ := intVal.Modulo(u256)
			remUsize, _ := rem.ToUsize()
			thisArr[31-i] = byte(remUsize)
			intVal, _ = intVal.Div(u256)
		}
		return append(subArr, thisArr...), true
	}

	subArr, ok := bytesFromCells(tup[1], 32*(nbytes/32))
	if !ok {
		return nil, false
	}
	thisSize := nbytes % 32
	thisArr := make([]byte, thisSize)
	for i := 0; i < 32-thisSize; i++ {
		intVal, _ = intVal.Div(u256)
	}
	for i := 0; i < thisSize; i++ {
		rem, _ := intVal.Modulo(u256)
		remUsize, _ := rem.ToUsize()
		thisArr[thisSize-1-i] = byte(remUsize)
		intVal, _ = intVal.Div(u256)
	}
	return append(subArr, thisArr...), true
}
