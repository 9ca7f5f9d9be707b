package runtimeenv

import "github.com/mini-avm/avm/internal/uint256"

// TxCompressor assigns each address it sees a short index, kept for the
// compressor's lifetime (one per RuntimeEnvironment, shared across
// batches), so repeat senders/recipients can reference an index instead
// of repeating all 20 address bytes.
// Ported from compress_address/compress_token_amount.
type TxCompressor struct {
	addressIndex map[string][]byte
	nextIndex    uint64
}

func NewTxCompressor() TxCompressor {
	return TxCompressor{addressIndex: make(map[string][]byte), nextIndex: 1}
}

// CompressAddress returns addr's compressed encoding: its assigned
// index (RLP-encoded) if already seen this session, else a fresh
// 21-byte "full address" encoding (a 0x94 RLP string-length prefix
// followed by the low 20 bytes of addr) and assigns it the next index
// for future reuse.
func (c *TxCompressor) CompressAddress(addr uint256.Uint256) []byte {
	key := string(addr.Bytes32()[:])
	if enc, ok := c.addressIndex[key]; ok {
		return enc
	}
	full := addr.Bytes32()
	out := append([]byte{0x94}, full[12:32]...)

	c.addressIndex[key] = uint256.FromUint64(c.nextIndex).RLPEncode()
	c.nextIndex++
	return out
}

// CompressTokenAmount RLP-encodes amt with its trailing decimal zeroes
// factored into a single count byte, matching
// generic_compress_token_amount's "value, then how many zeros to
// append" scheme for the common round-number token amount.
func CompressTokenAmount(amt uint256.Uint256) []byte {
	if amt.IsZero() {
		return amt.RLPEncode()
	}
	ten := uint256.FromUint64(10)
	numZeroes := 0
	for {
		rem, _ := amt.Modulo(ten)
		if !rem.IsZero() {
			out := amt.RLPEncode()
			return append(out, byte(numZeroes))
		}
		amt, _ = amt.Div(ten)
		numZeroes++
	}
}
