package runtimeenv

import (
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
)

// L1 message type tags, ported verbatim from insert_l1_message's
// callers: the byte each message kind stamps as its first encoded
// field so arbos-side decoding (ArbosReceipt, in receipt.go) can
// recover which insert_* constructor produced it.
const (
	msgTypeInitializationParams = 4
	msgTypeL2                   = 3
	msgTypeL2BuddyDeploy        = 5
	msgTypeL2WithDeposit        = 7
)

// initializationParams is a trimmed stand-in for get_params_bytes: the
// chain-parameter blob a fresh environment deposits into its own inbox
// as message 0. The original's optional charging-policy and
// sequencer-info sections are dropped since nothing in this module's
// scope reads them back out; the grace-period/speed-limit/stake fields
// that ArbosReceipt-adjacent tooling might still expect are kept.
func initializationParams() []byte {
	var buf []byte
	buf = append(buf, uint256.FromUint64(3*60*60*1000).Bytes32()[:]...)   // grace period, ticks
	buf = append(buf, uint256.FromUint64(100_000_000/1000).Bytes32()[:]...) // arbgas speed limit/tick
	buf = append(buf, uint256.FromUint64(10_000_000_000).Bytes32()[:]...)   // max execution steps
	buf = append(buf, uint256.FromUint64(1000).Bytes32()[:]...)             // base stake, wei
	buf = append(buf, uint256.Zero().Bytes32()[:]...)                       // staking token (0 = ETH)
	buf = append(buf, uint256.Zero().Bytes32()[:]...)                       // owner address
	return buf
}

// InsertL1Message encodes and enqueues a raw L1 inbox message: type,
// current block/timestamp, sender, sequence number, payload length,
// then payload — the exact byte layout insert_l1_message builds, so
// ArbosReceipt.New can decode it symmetrically. Returns a message id
// derived the same way: avm_hash2(chain_id, seq_num).
func (env *RuntimeEnvironment) InsertL1Message(msgType uint8, sender uint256.Uint256, msg []byte) uint256.Uint256 {
	var buf []byte
	buf = append(buf, uint256.FromUsize(int(msgType)).Bytes32()[:]...)
	buf = append(buf, uint256.FromUint64(env.currentBlock).Bytes32()[:]...)
	buf = append(buf, uint256.FromUint64(env.currentTime).Bytes32()[:]...)
	buf = append(buf, sender.Bytes32()[:]...)
	buf = append(buf, uint256.FromUint64(env.nextInboxSeq).Bytes32()[:]...)
	buf = append(buf, uint256.FromUsize(len(msg)).Bytes32()[:]...)
	buf = append(buf, msg...)

	msgID := avmHash2Uint(uint256.FromUint64(env.chainID), uint256.FromUint64(env.nextInboxSeq))
	env.nextInboxSeq++

	bufVal := value.BufferValue(buf)
	env.inbox = append(env.inbox, bufVal)
	env.recorder.addMsg(buf)

	return msgID
}

func avmHash2Uint(a, b uint256.Uint256) uint256.Uint256 {
	h := value.AVMHash2(value.Int(a), value.Int(b))
	i, _ := h.AsInt()
	return i
}

// InsertL2Message wraps msg as an L2 message (sent by an L2 account
// directly, no L1 deposit attached) and enqueues it as an L1 inbox
// entry of type msgTypeL2 (or msgTypeL2BuddyDeploy). When msg's header
// byte is 0 (a signed tx), the default sequence-number-derived id is
// overridden with a deterministic id hashed from the message content
// itself, matching insert_l2_message.
func (env *RuntimeEnvironment) InsertL2Message(sender uint256.Uint256, msg []byte, isBuddyDeploy bool) uint256.Uint256 {
	msgType := uint8(msgTypeL2)
	if isBuddyDeploy {
		msgType = msgTypeL2BuddyDeploy
	}
	defaultID := env.InsertL1Message(msgType, sender, msg)
	return contentDerivedMsgID(env.chainID, sender, msg, defaultID)
}

// InsertL2MessageWithDeposit is InsertL2Message's counterpart for a
// message that arrives bundled with a deposit. msg[0] is not checked:
// the deposit helpers below pass sub-type bytes 0, 2 and 3. Same
// header-byte-0 id override as InsertL2Message, matching
// insert_l2_message_with_deposit.
func (env *RuntimeEnvironment) InsertL2MessageWithDeposit(sender uint256.Uint256, msg []byte) uint256.Uint256 {
	defaultID := env.InsertL1Message(msgTypeL2WithDeposit, sender, msg)
	return contentDerivedMsgID(env.chainID, sender, msg, defaultID)
}

// contentDerivedMsgID implements insert_l2_message's id override: for a
// signed tx (header byte 0) the message id is rederived from the
// message's own content, H2(sender, H2(chain_id, H(bytestack(msg)))),
// rather than the sequence-number-derived default, so the id is
// reproducible from the signed payload alone. Any other header byte (or
// an empty msg) keeps defaultID unchanged.
func contentDerivedMsgID(chainID uint64, sender uint256.Uint256, msg []byte, defaultID uint256.Uint256) uint256.Uint256 {
	if len(msg) == 0 || msg[0] != 0 {
		return defaultID
	}
	bodyHash, ok := value.HashBytestack(value.BytestackFromBytes(msg))
	if !ok {
		return defaultID
	}
	return avmHash2Uint(sender, avmHash2Uint(uint256.FromUint64(chainID), bodyHash))
}

// InsertTxMessage builds and enqueues a single signed-or-unsigned L2
// transaction message: a leading sub-type byte (0), followed by
// max_gas, gas_price_bid, the sender's sequence number, the
// destination, the value, then call data.
func (env *RuntimeEnvironment) InsertTxMessage(sender, maxGas, gasPriceBid, to, amount uint256.Uint256, data []byte, withDeposit bool) uint256.Uint256 {
	seqNum := env.getAndIncrSeqNum(sender)
	buf := []byte{0}
	buf = append(buf, maxGas.Bytes32()[:]...)
	buf = append(buf, gasPriceBid.Bytes32()[:]...)
	buf = append(buf, uint256.FromUint64(seqNum).Bytes32()[:]...)
	buf = append(buf, to.Bytes32()[:]...)
	buf = append(buf, amount.Bytes32()[:]...)
	buf = append(buf, data...)

	if withDeposit {
		return env.InsertL2MessageWithDeposit(sender, buf)
	}
	return env.InsertL2Message(sender, buf, false)
}

// InsertBuddyDeployMessage builds and enqueues a contract-deployment
// message (sub-type byte 1, destination forced to the zero address).
func (env *RuntimeEnvironment) InsertBuddyDeployMessage(sender, maxGas, gasPriceBid, amount uint256.Uint256, data []byte) uint256.Uint256 {
	buf := []byte{1}
	buf = append(buf, maxGas.Bytes32()[:]...)
	buf = append(buf, gasPriceBid.Bytes32()[:]...)
	buf = append(buf, uint256.Zero().Bytes32()[:]...)
	buf = append(buf, amount.Bytes32()[:]...)
	buf = append(buf, data...)

	return env.InsertL2Message(sender, buf, true)
}

// depositMessage is the shared shape of the three deposit-only message
// kinds below: a sub-type byte identifying the asset, the depositor,
// and an amount (or token id), with no call data.
func depositMessage(subType byte, amount uint256.Uint256) []byte {
	buf := []byte{subType}
	buf = append(buf, amount.Bytes32()[:]...)
	return buf
}

// InsertEthDepositMessage credits amount wei of ETH to sender with no
// accompanying call.
func (env *RuntimeEnvironment) InsertEthDepositMessage(sender uint256.Uint256, amount uint256.Uint256) uint256.Uint256 {
	return env.InsertL2MessageWithDeposit(sender, depositMessage(0, amount))
}

// InsertERC20DepositMessage credits amount of an ERC-20 token (its
// address written into the payload as a full 32-byte word) to sender.
func (env *RuntimeEnvironment) InsertERC20DepositMessage(sender, tokenAddr, amount uint256.Uint256) uint256.Uint256 {
	buf := []byte{2}
	buf = append(buf, tokenAddr.Bytes32()[:]...)
	buf = append(buf, amount.Bytes32()[:]...)
	return env.InsertL2MessageWithDeposit(sender, buf)
}

// InsertERC721DepositMessage credits ownership of tokenID of an
// ERC-721 contract to sender.
func (env *RuntimeEnvironment) InsertERC721DepositMessage(sender, tokenAddr, tokenID uint256.Uint256) uint256.Uint256 {
	buf := []byte{3}
	buf = append(buf, tokenAddr.Bytes32()[:]...)
	buf = append(buf, tokenID.Bytes32()[:]...)
	return env.InsertL2MessageWithDeposit(sender, buf)
}

// InsertBatchMessage wraps a pre-built batch of compressed transactions
// (batch's own sub-type byte already present, per NewBatch) as a single
// L2 message from sender.
func (env *RuntimeEnvironment) InsertBatchMessage(sender uint256.Uint256, batch []byte) uint256.Uint256 {
	return env.InsertL2Message(sender, batch, false)
}

// NewBatch starts an empty transaction batch payload (sub-type byte 3,
// matching new_batch).
func NewBatch() []byte { return []byte{3} }

// AppendCompressedTxToBatch builds a single compressed-transaction
// batch entry (sub-type 0xff: sequence number, gas price, gas limit,
// a TxCompressor-compressed destination address and value, then call
// data) and appends it, length-prefixed, to batch. Ported from
// make_compressed_and_signed_l2_message/
// append_signed_tx_message_to_batch's framing, with the signature
// suffix dropped: no signing library is wired into this module (the
// original reaches for ethers_signers/Wallet, which has no counterpart
// among this module's dependencies), so a compressed entry built this
// way carries an unsigned payload rather than a sender-authenticated
// one.
func (env *RuntimeEnvironment) AppendCompressedTxToBatch(batch []byte, sender, gasPrice, gasLimit, to, amount uint256.Uint256, calldata []byte) []byte {
	seqNum := env.getAndIncrSeqNum(sender)
	entry := []byte{0xff}
	entry = append(entry, uint256.FromUint64(seqNum).RLPEncode()...)
	entry = append(entry, gasPrice.RLPEncode()...)
	entry = append(entry, gasLimit.RLPEncode()...)
	entry = append(entry, env.compressor.CompressAddress(to)...)
	entry = append(entry, CompressTokenAmount(amount)...)
	entry = append(entry, calldata...)

	batch = append(batch, uint256.FromUsize(len(entry)).RLPEncode()...)
	return append(batch, entry...)
}
