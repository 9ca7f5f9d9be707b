// Package uint256 implements the fixed-width 256-bit unsigned integer that
// backs every Value::Int in the AVM value universe, with the exact
// wrapping/absent/signed semantics the emulator's arithmetic opcodes expect.
package uint256

import (
	"fmt"

	huint256 "github.com/holiman/uint256"
)

// Uint256 is an integer modulo 2**256. The zero value is zero.
//
// Arithmetic is delegated to holiman/uint256.Int for the limb-level work;
// this type adds the "absent on failure" contract spec'd for division,
// modulus, and unary negation, which the underlying library does not
// itself express (it follows the EVM convention of silently returning
// zero on a zero divisor).
type Uint256 struct {
	v huint256.Int
}

// Zero returns 0.
func Zero() Uint256 { return Uint256{} }

// One returns 1.
func One() Uint256 { return FromUint64(1) }

// FromUint64 converts a uint64 to a Uint256.
func FromUint64(x uint64) Uint256 {
	var u Uint256
	u.v.SetUint64(x)
	return u
}

// FromUsize converts a host-word-sized integer to a Uint256.
func FromUsize(x int) Uint256 { return FromUint64(uint64(x)) }

// FromBytes32 interprets a 32-byte big-endian array as a Uint256.
func FromBytes32(b [32]byte) Uint256 {
	var u Uint256
	u.v.SetBytes32(b[:])
	return u
}

// FromBytes interprets up to 32 bytes of big-endian input as a Uint256,
// left-padding with zero as needed. Panics if len(b) > 32.
func FromBytes(b []byte) Uint256 {
	if len(b) > 32 {
		panic(fmt.Sprintf("BUG: uint256.FromBytes: %d bytes exceeds 32", len(b)))
	}
	var padded [32]byte
	copy(padded[32-len(b):], b)
	return FromBytes32(padded)
}

// Bytes32 renders u as a 32-byte big-endian array.
func (u Uint256) Bytes32() [32]byte {
	return u.v.Bytes32()
}

// Bytes renders u as a minimal-length big-endian byte slice (no leading
// zero bytes; empty for zero).
func (u Uint256) Bytes() []byte {
	return u.v.Bytes()
}

// IsZero reports whether u == 0.
func (u Uint256) IsZero() bool { return u.v.IsZero() }

// Equal reports structural equality.
func (u Uint256) Equal(o Uint256) bool { return u.v.Eq(&o.v) }

// Cmp returns -1, 0, or 1 comparing u to o as unsigned integers.
func (u Uint256) Cmp(o Uint256) int { return u.v.Cmp(&o.v) }

// LessThan reports whether u < o, unsigned.
func (u Uint256) LessThan(o Uint256) bool { return u.v.Lt(&o.v) }

// GreaterThan reports whether u > o, unsigned.
func (u Uint256) GreaterThan(o Uint256) bool { return u.v.Gt(&o.v) }

// Add returns (u+o) mod 2**256.
func (u Uint256) Add(o Uint256) Uint256 {
	var r Uint256
	r.v.Add(&u.v, &o.v)
	return r
}

// Sub returns (u-o) mod 2**256.
func (u Uint256) Sub(o Uint256) Uint256 {
	var r Uint256
	r.v.Sub(&u.v, &o.v)
	return r
}

// Mul returns (u*o) mod 2**256.
func (u Uint256) Mul(o Uint256) Uint256 {
	var r Uint256
	r.v.Mul(&u.v, &o.v)
	return r
}

// Div returns floor(u/o), or (_, false) if o is zero.
func (u Uint256) Div(o Uint256) (Uint256, bool) {
	if o.IsZero() {
		return Uint256{}, false
	}
	var r Uint256
	r.v.Div(&u.v, &o.v)
	return r, true
}

// Modulo returns u mod o, or (_, false) if o is zero.
func (u Uint256) Modulo(o Uint256) (Uint256, bool) {
	if o.IsZero() {
		return Uint256{}, false
	}
	var r Uint256
	r.v.Mod(&u.v, &o.v)
	return r, true
}

// SDiv interprets u and o as two's-complement signed 256-bit integers and
// returns the truncated (toward zero) signed quotient, or (_, false) if o
// is zero.
func (u Uint256) SDiv(o Uint256) (Uint256, bool) {
	if o.IsZero() {
		return Uint256{}, false
	}
	var r Uint256
	r.v.SDiv(&u.v, &o.v)
	return r, true
}

// SMod interprets u and o as two's-complement signed 256-bit integers and
// returns the signed remainder, or (_, false) if o is zero.
func (u Uint256) SMod(o Uint256) (Uint256, bool) {
	if o.IsZero() {
		return Uint256{}, false
	}
	var r Uint256
	r.v.SMod(&u.v, &o.v)
	return r, true
}

// AddMod computes (u+o) mod m in full precision, or (_, false) if m is
// zero.
func (u Uint256) AddMod(o, m Uint256) (Uint256, bool) {
	if m.IsZero() {
		return Uint256{}, false
	}
	var r Uint256
	r.v.AddMod(&u.v, &o.v, &m.v)
	return r, true
}

// MulMod computes (u*o) mod m in full precision, or (_, false) if m is
// zero.
func (u Uint256) MulMod(o, m Uint256) (Uint256, bool) {
	if m.IsZero() {
		return Uint256{}, false
	}
	var r Uint256
	r.v.MulMod(&u.v, &o.v, &m.v)
	return r, true
}

// Exp returns u**o mod 2**256.
func (u Uint256) Exp(o Uint256) Uint256 {
	var r Uint256
	r.v.Exp(&u.v, &o.v)
	return r
}

// signedMin256 is 2**255, the two's-complement value with no positive
// counterpart representable in 256 bits.
var signedMin256 = func() Uint256 {
	var r Uint256
	r.v.SetOne()
	r.v.Lsh(&r.v, 255)
	return r
}()

// UnaryMinus returns the two's-complement negation of u, or (_, false) if
// u == 2**255 (negating it would overflow).
func (u Uint256) UnaryMinus() (Uint256, bool) {
	if u.Equal(signedMin256) {
		return Uint256{}, false
	}
	var r Uint256
	r.v.Neg(&u.v)
	return r, true
}

// BitwiseNeg returns ^u.
func (u Uint256) BitwiseNeg() Uint256 {
	var r Uint256
	r.v.Not(&u.v)
	return r
}

// BitwiseAnd returns u & o.
func (u Uint256) BitwiseAnd(o Uint256) Uint256 {
	var r Uint256
	r.v.And(&u.v, &o.v)
	return r
}

// BitwiseOr returns u | o.
func (u Uint256) BitwiseOr(o Uint256) Uint256 {
	var r Uint256
	r.v.Or(&u.v, &o.v)
	return r
}

// BitwiseXor returns u ^ o.
func (u Uint256) BitwiseXor(o Uint256) Uint256 {
	var r Uint256
	r.v.Xor(&u.v, &o.v)
	return r
}

// SLessThan reports whether u < o under two's-complement signed
// interpretation.
func (u Uint256) SLessThan(o Uint256) bool {
	return u.v.Slt(&o.v)
}

// ToUint64 returns (u, true) if u fits in a uint64, else (0, false).
func (u Uint256) ToUint64() (uint64, bool) {
	if !u.v.IsUint64() {
		return 0, false
	}
	return u.v.Uint64(), true
}

// ToUsize returns (u, true) if u fits in the host int type, else (0, false).
func (u Uint256) ToUsize() (int, bool) {
	x, ok := u.ToUint64()
	if !ok || x > uint64(^uint(0)>>1) {
		return 0, false
	}
	return int(x), true
}

// TrimToUint64 truncates u to its low 64 bits, ignoring overflow.
func (u Uint256) TrimToUint64() uint64 {
	var lo huint256.Int
	lo.Mod(&u.v, new(huint256.Int).Lsh(uint256One(), 64))
	return lo.Uint64()
}

func uint256One() *huint256.Int {
	one := new(huint256.Int)
	one.SetOne()
	return one
}

func (u Uint256) String() string {
	return u.v.Dec()
}

// FromDecimal parses a base-10 string into a Uint256.
func FromDecimal(s string) (Uint256, error) {
	var r Uint256
	v, err := huint256.FromDecimal(s)
	if err != nil {
		return Uint256{}, err
	}
	r.v = *v
	return r, nil
}

// FromHex parses a "0x"-prefixed base-16 string into a Uint256.
func FromHex(s string) (Uint256, error) {
	var r Uint256
	v, err := huint256.FromHex(s)
	if err != nil {
		return Uint256{}, err
	}
	r.v = *v
	return r, nil
}
