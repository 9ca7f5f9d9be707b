package runtimeenv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mini-avm/avm/internal/avmconfig"
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
)

func testConfig() avmconfig.EmulatorConfig {
	return avmconfig.NewEmulatorConfig().
		WithChainID(1337).
		WithStartingBlockNum(10).
		WithStartingTimestamp(1000)
}

func TestNewSeedsInitializationParamsMessage(t *testing.T) {
	env := New(testConfig())

	msg, ok := env.GetFromInbox()
	require.True(t, ok)
	buf, ok := msg.AsBuffer()
	require.True(t, ok)
	require.Greater(t, len(buf), 32*6)

	_, ok = env.GetFromInbox()
	require.False(t, ok, "only the bootstrap message should be pending")
}

func TestInsertMessagesAndConsumeInOrder(t *testing.T) {
	env := New(testConfig())
	_, _ = env.GetFromInbox() // drain bootstrap message

	env.InsertMessages([]value.Value{value.Int(uint256.FromUint64(1)), value.Int(uint256.FromUint64(2))})

	head, ok := env.PeekAtInboxHead()
	require.True(t, ok)
	i, _ := head.AsInt()
	n1, _ := i.ToUint64()
	require.Equal(t, uint64(1), n1)

	first, ok := env.GetFromInbox()
	require.True(t, ok)
	i, _ = first.AsInt()
	n, _ := i.ToUint64()
	require.Equal(t, uint64(1), n)

	second, ok := env.GetFromInbox()
	require.True(t, ok)
	i, _ = second.AsInt()
	n, _ = i.ToUint64()
	require.Equal(t, uint64(2), n)

	_, ok = env.GetFromInbox()
	require.False(t, ok)
}

func TestInsertL1MessageEncodesEnvelopeAndAdvancesSeq(t *testing.T) {
	env := New(testConfig())
	_, _ = env.GetFromInbox()

	sender := uint256.FromUint64(0xbeef)
	payload := []byte("hello")
	id1 := env.InsertL1Message(msgTypeL2, sender, payload)
	id2 := env.InsertL1Message(msgTypeL2, sender, payload)
	require.False(t, id1.Equal(id2), "sequence number must advance between messages")

	msg, ok := env.GetFromInbox()
	require.True(t, ok)
	buf, ok := msg.AsBuffer()
	require.True(t, ok)
	require.Equal(t, 32*6+len(payload), len(buf))
	require.Equal(t, byte(msgTypeL2), buf[31])
}

func TestInsertTxMessageIDIsContentDerivedNotSequenceDerived(t *testing.T) {
	env := New(testConfig())
	sender := uint256.FromUint64(0xbeef)

	id1 := env.InsertTxMessage(sender, uint256.FromUint64(21000), uint256.FromUint64(1),
		uint256.FromUint64(7), uint256.FromUint64(0), []byte("call data"), false)
	// A second environment whose inbox sequence number has advanced one
	// step further, while sender's own tx sequence number is still 0, so
	// the tx payload is byte-identical to the first.
	other := New(testConfig())
	other.InsertL1Message(msgTypeL2, uint256.FromUint64(1), []byte("advance the inbox sequence"))
	id2 := other.InsertTxMessage(sender, uint256.FromUint64(21000), uint256.FromUint64(1),
		uint256.FromUint64(7), uint256.FromUint64(0), []byte("call data"), false)

	require.True(t, id1.Equal(id2),
		"a signed tx's id is a hash of its own content, not the advancing sequence number, "+
			"so the same tx at different inbox sequence numbers must produce the same id")

	id3 := env.InsertTxMessage(sender, uint256.FromUint64(21000), uint256.FromUint64(1),
		uint256.FromUint64(7), uint256.FromUint64(0), []byte("different call data"), false)
	require.False(t, id1.Equal(id3), "a different payload must hash to a different id")
}

func TestInsertL2MessageWithoutHeaderByteZeroKeepsSequenceDerivedID(t *testing.T) {
	env := New(testConfig())
	sender := uint256.FromUint64(1)

	id1 := env.InsertL2Message(sender, []byte{1, 0xca, 0xfe}, false)
	id2 := env.InsertL2Message(sender, []byte{1, 0xca, 0xfe}, false)
	require.False(t, id1.Equal(id2),
		"msg[0] != 0 must keep insert_l1_message's sequence-derived id, which advances on every call")
}

func TestInsertEthDepositMessageUsesL2WithDepositType(t *testing.T) {
	env := New(testConfig())
	_, _ = env.GetFromInbox()

	sender := uint256.FromUint64(42)
	amount := uint256.FromUint64(1_000_000)
	env.InsertEthDepositMessage(sender, amount)

	msg, ok := env.GetFromInbox()
	require.True(t, ok)
	buf, _ := msg.AsBuffer()

	require.Equal(t, byte(msgTypeL2WithDeposit), buf[31])
}

func TestLogAndSendSinksAccumulateAndAreRecorded(t *testing.T) {
	env := New(testConfig())

	env.PushLog(value.Int(uint256.FromUint64(7)))
	env.PushLog(value.Int(uint256.FromUint64(8)))
	env.PushSend(value.BufferValue([]byte{1, 2, 3}))

	require.Len(t, env.GetAllLogs(), 2)
	require.Len(t, env.GetAllSends(), 1)
	require.Len(t, env.Recorder().Logs, 2)
	require.Len(t, env.Recorder().Sends, 1)
}

func TestTxCompressorCachesRepeatedAddress(t *testing.T) {
	c := NewTxCompressor()
	addr := uint256.FromUint64(0xabc123)

	first := c.CompressAddress(addr)
	require.Equal(t, byte(0x94), first[0])
	require.Len(t, first, 21)

	second := c.CompressAddress(addr)
	require.NotEqual(t, first, second, "a repeat address should compress to its assigned index, not the full form again")
}

func TestCompressTokenAmountFactorsTrailingZeroes(t *testing.T) {
	round := uint256.FromUint64(5_000)
	out := CompressTokenAmount(round)
	require.Equal(t, byte(3), out[len(out)-1], "5000 = 5 * 10^3")

	zero := uint256.Zero()
	outZero := CompressTokenAmount(zero)
	require.Equal(t, zero.RLPEncode(), outZero)
}

func TestInsertBuddyDeployMessageUsesZeroDestination(t *testing.T) {
	env := New(testConfig())
	_, _ = env.GetFromInbox()

	env.InsertBuddyDeployMessage(uint256.FromUint64(1), uint256.FromUint64(100), uint256.FromUint64(1), uint256.Zero(), []byte{0xde, 0xad})

	msg, ok := env.GetFromInbox()
	require.True(t, ok)
	buf, _ := msg.AsBuffer()
	require.Equal(t, byte(msgTypeL2BuddyDeploy), buf[31])
}

func TestAppendCompressedTxToBatchGrowsBatchWithLengthPrefix(t *testing.T) {
	env := New(testConfig())

	batch := NewBatch()
	sender := uint256.FromUint64(1)
	batch = env.AppendCompressedTxToBatch(batch, sender, uint256.FromUint64(1), uint256.FromUint64(21000), uint256.FromUint64(2), uint256.FromUint64(500), []byte{0xca, 0xfe})

	require.Greater(t, len(batch), 1, "batch should grow past its leading sub-type byte")
	require.Equal(t, byte(3), batch[0])
}

func TestNewArbosReceiptRejectsNonReceiptLogType(t *testing.T) {
	_, ok := NewArbosReceipt(uint256.FromUint64(1).Bytes32()[:])
	require.False(t, ok)
}

func TestNewArbosReceiptDecodesRoundTrip(t *testing.T) {
	var buf []byte
	word := func(n uint64) { w := uint256.FromUint64(n).Bytes32(); buf = append(buf, w[:]...) }

	word(0) // log type: tx receipt
	word(uint64(msgTypeL2))
	word(10)  // l1 block num
	word(1000) // l1 timestamp
	word(0xbeef) // sender
	word(1)      // request id
	payload := []byte("payload-data")
	word(uint64(len(payload)))
	buf = append(buf, payload...)

	word(0) // return code: success
	returnData := []byte("ok")
	word(uint64(len(returnData)))
	buf = append(buf, returnData...)

	word(0) // no EVM logs
	word(21000) // gas used
	word(1)      // gas price wei
	word(0)      // l1 sequence num
	word(0)      // parent request id (none)
	word(0)      // index in parent
	word(21000)  // gas so far
	word(0)      // index in block
	word(0)      // logs so far

	receipt, ok := NewArbosReceipt(buf)
	require.True(t, ok)
	require.True(t, receipt.Succeeded())
	require.Equal(t, returnData, receipt.GetReturnData())
	gasUsed, _ := receipt.GetGasUsed().ToUint64()
	require.Equal(t, uint64(21000), gasUsed)
	require.Nil(t, receipt.Provenance.ParentRequestID)
}

func TestReplayAndCompareDetectsDivergence(t *testing.T) {
	env := New(testConfig())
	env.PushLog(value.Int(uint256.FromUint64(1)))

	ok, err := env.Recorder().ReplayAndCompare(func(replay *RuntimeEnvironment) error {
		replay.PushLog(value.Int(uint256.FromUint64(1)))
		return nil
	})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = env.Recorder().ReplayAndCompare(func(replay *RuntimeEnvironment) error {
		replay.PushLog(value.Int(uint256.FromUint64(2)))
		return nil
	})
	require.NoError(t, err)
	require.False(t, ok)
}
