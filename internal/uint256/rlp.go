package uint256

// RLPEncode renders u as canonical minimal-length RLP, matching the
// Ethereum convention used throughout the L2-message wire formats: the
// value's big-endian byte string with no leading zero bytes, with the
// standard RLP byte-string framing. Since a Uint256 never exceeds 32
// bytes, only the short-string RLP forms (never the long-form
// length-of-length prefix, which only applies past 55 bytes) are needed.
func (u Uint256) RLPEncode() []byte {
	b := u.Bytes() // minimal-length big-endian, empty for zero
	switch {
	case len(b) == 0:
		return []byte{0x80}
	case len(b) == 1 && b[0] < 0x80:
		return b
	default:
		out := make([]byte, 0, len(b)+1)
		out = append(out, byte(0x80+len(b)))
		return append(out, b...)
	}
}
