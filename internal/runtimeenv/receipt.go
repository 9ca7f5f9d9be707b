package runtimeenv

import (
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
)

// cursor is a minimal big-endian-word reader over a decoded arbos log,
// standing in for Rust's Cursor<Vec<u8>> + Uint256::read.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) readWord() (uint256.Uint256, bool) {
	if c.pos+32 > len(c.buf) {
		return uint256.Uint256{}, false
	}
	var word [32]byte
	copy(word[:], c.buf[c.pos:c.pos+32])
	c.pos += 32
	return uint256.FromBytes32(word), true
}

func (c *cursor) readBytes(n int) ([]byte, bool) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+n])
	c.pos += n
	return out, true
}

// EvmLog is a single EVM-style log entry embedded in an ArbosReceipt:
// an emitting address, opaque data, and zero or more indexed topics.
// Ported from the EvmLog struct/read method.
type EvmLog struct {
	Addr   uint256.Uint256
	Data   []byte
	Topics []uint256.Uint256
}

func readEvmLog(c *cursor) (EvmLog, bool) {
	addr, ok := c.readWord()
	if !ok {
		return EvmLog{}, false
	}
	dataLenW, ok := c.readWord()
	if !ok {
		return EvmLog{}, false
	}
	dataLen, ok := dataLenW.ToUsize()
	if !ok {
		return EvmLog{}, false
	}
	data, ok := c.readBytes(dataLen)
	if !ok {
		return EvmLog{}, false
	}
	numTopicsW, ok := c.readWord()
	if !ok {
		return EvmLog{}, false
	}
	numTopics, ok := numTopicsW.ToUsize()
	if !ok {
		return EvmLog{}, false
	}
	topics := make([]uint256.Uint256, numTopics)
	for i := range topics {
		t, ok := c.readWord()
		if !ok {
			return EvmLog{}, false
		}
		topics[i] = t
	}
	return EvmLog{Addr: addr, Data: data, Topics: topics}, true
}

// ArbosRequestProvenance records where a request came from: its
// position in the L1 inbox, and, for a request spawned by another
// request (e.g. a ticket redeem), the parent's id and its index within
// the parent's own sub-requests.
type ArbosRequestProvenance struct {
	L1SequenceNum   uint256.Uint256
	ParentRequestID *uint256.Uint256
	IndexInParent   *uint256.Uint256
}

// ArbosReceipt is the decoded form of a single log value PushLog
// receives from a completed L2 request: the original request, its
// outcome, any EVM logs it emitted, gas accounting, and its position
// among other requests processed in the same L1 block. Ported from
// ArbosReceipt::new's cursor-based field-by-field decode.
type ArbosReceipt struct {
	request      value.Value
	requestID    uint256.Uint256
	returnCode   uint256.Uint256
	returnData   []byte
	evmLogs      []EvmLog
	gasUsed      uint256.Uint256
	gasPriceWei  uint256.Uint256
	Provenance   ArbosRequestProvenance
	gasSoFar     uint256.Uint256
	indexInBlock uint256.Uint256
	logsSoFar    uint256.Uint256
}

// NewArbosReceipt decodes arbosLog (one PushLog'd value's raw bytes,
// per InsertL1Message's envelope layout) into an ArbosReceipt. Returns
// ok=false if the leading log-type word isn't 0 (a request receipt;
// other log types, like a block-summary log, decode to something
// else) or the buffer is short.
func NewArbosReceipt(arbosLog []byte) (ArbosReceipt, bool) {
	c := &cursor{buf: arbosLog}

	logType, ok := c.readWord()
	if !ok || !logType.IsZero() {
		return ArbosReceipt{}, false
	}

	l1Type, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	l1BlockNum, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	l1Timestamp, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	l1Sender, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	l1RequestID, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	l2MsgLenW, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	l2MsgLen, ok := l2MsgLenW.ToUsize()
	if !ok {
		return ArbosReceipt{}, false
	}
	l2Message, ok := c.readBytes(l2MsgLen)
	if !ok {
		return ArbosReceipt{}, false
	}
	l1Request := value.Tuple(
		value.Int(l1Type),
		value.Int(l1BlockNum),
		value.Int(l1Timestamp),
		value.Int(l1Sender),
		value.Int(l1RequestID),
		value.Int(l2MsgLenW),
		value.BufferValue(l2Message),
	)

	returnCode, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	returnDataSizeW, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	returnDataSize, ok := returnDataSizeW.ToUsize()
	if !ok {
		return ArbosReceipt{}, false
	}
	returnData, ok := c.readBytes(returnDataSize)
	if !ok {
		return ArbosReceipt{}, false
	}

	numEvmLogsW, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	numEvmLogs, ok := numEvmLogsW.ToUsize()
	if !ok {
		return ArbosReceipt{}, false
	}
	evmLogs := make([]EvmLog, numEvmLogs)
	for i := range evmLogs {
		log, ok := readEvmLog(c)
		if !ok {
			return ArbosReceipt{}, false
		}
		evmLogs[i] = log
	}

	gasUsed, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	gasPriceWei, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}

	l1SequenceNum, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	parentRequestID, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	indexInParent, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}

	gasSoFar, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	indexInBlock, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}
	logsSoFar, ok := c.readWord()
	if !ok {
		return ArbosReceipt{}, false
	}

	provenance := ArbosRequestProvenance{L1SequenceNum: l1SequenceNum}
	if !parentRequestID.IsZero() {
		parent := parentRequestID
		idx := indexInParent
		provenance.ParentRequestID = &parent
		provenance.IndexInParent = &idx
	}

	return ArbosReceipt{
		request:      l1Request,
		requestID:    l1RequestID,
		returnCode:   returnCode,
		returnData:   returnData,
		evmLogs:      evmLogs,
		gasUsed:      gasUsed,
		gasPriceWei:  gasPriceWei,
		Provenance:   provenance,
		gasSoFar:     gasSoFar,
		indexInBlock: indexInBlock,
		logsSoFar:    logsSoFar,
	}, true
}

func (r ArbosReceipt) GetRequest() value.Value          { return r.request }
func (r ArbosReceipt) GetRequestID() uint256.Uint256     { return r.requestID }
func (r ArbosReceipt) GetReturnCode() uint256.Uint256    { return r.returnCode }
func (r ArbosReceipt) Succeeded() bool                   { return r.returnCode.IsZero() }
func (r ArbosReceipt) GetReturnData() []byte             { return r.returnData }
func (r ArbosReceipt) GetEvmLogs() []EvmLog              { return r.evmLogs }
func (r ArbosReceipt) GetGasUsed() uint256.Uint256        { return r.gasUsed }
func (r ArbosReceipt) GetGasPriceWei() uint256.Uint256    { return r.gasPriceWei }
func (r ArbosReceipt) GetGasUsedSoFar() uint256.Uint256   { return r.gasSoFar }
func (r ArbosReceipt) GetIndexInBlock() uint256.Uint256   { return r.indexInBlock }
func (r ArbosReceipt) GetLogsSoFar() uint256.Uint256      { return r.logsSoFar }

// GetAllReceipts decodes every successfully-parseable log in logs into
// an ArbosReceipt, silently skipping entries of another log type (e.g.
// a block-summary log), matching get_all_receipt_logs's filter-map.
func GetAllReceipts(logs []value.Value) []ArbosReceipt {
	var out []ArbosReceipt
	for _, logVal := range logs {
		buf, ok := logVal.AsBuffer()
		if !ok {
			continue
		}
		receipt, ok := NewArbosReceipt(buf)
		if !ok {
			continue
		}
		out = append(out, receipt)
	}
	return out
}
