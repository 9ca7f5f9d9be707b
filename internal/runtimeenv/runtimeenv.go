// Package runtimeenv implements RuntimeEnvironment: the L1 inbox, log,
// and send sinks an Emulator talks to through the Inbox/Log opcodes,
// plus the message-construction and replay-debugging helpers a CLI or
// test harness uses to drive it. Ported from
// original_source/src/run/runtime_env.rs.
package runtimeenv

import (
	"github.com/mini-avm/avm/internal/avmconfig"
	"github.com/mini-avm/avm/internal/uint256"
	"github.com/mini-avm/avm/internal/value"
)

// RuntimeEnvironment is the emulator's view of the outside chain: a
// queue of pending L1 inbox messages, the running block/timestamp
// clock, the log sink a program's Log opcode writes to, and the send
// sink filled through PushSend.
type RuntimeEnvironment struct {
	chainID uint64

	inbox        []value.Value
	currentBlock uint64
	currentTime  uint64
	nextInboxSeq uint64

	logs  []value.Value
	sends []value.Value

	callerSeqNums map[string]uint64
	compressor    TxCompressor
	recorder      *RtEnvRecorder
}

// New constructs a RuntimeEnvironment from an EmulatorConfig, matching
// new_with_blocknum_timestamp's chain-id truncation (spec §3: only the
// low 48 bits of chain id are meaningful).
func New(cfg avmconfig.EmulatorConfig) *RuntimeEnvironment {
	env := &RuntimeEnvironment{
		chainID:       cfg.ChainID() & 0xffffffffffff,
		currentBlock:  cfg.StartingBlockNum(),
		currentTime:   cfg.StartingTimestamp(),
		callerSeqNums: make(map[string]uint64),
		compressor:    NewTxCompressor(),
		recorder:      newRecorder(),
	}
	env.InsertL1Message(msgTypeInitializationParams, uint256.FromUint64(cfg.ChainID()), initializationParams())
	return env
}

func (env *RuntimeEnvironment) ChainID() uint64 { return env.chainID }

// InsertMessages enqueues msgs directly as inbox values, the simple
// entry point run_with_msgs uses for test-harness runs that never
// construct a real L1 byte-message envelope.
func (env *RuntimeEnvironment) InsertMessages(msgs []value.Value) {
	env.inbox = append(env.inbox, msgs...)
}

// InsertFullInboxContents replaces the inbox outright, the entry point
// ReplayAndCompare uses to feed a recorded session's raw messages back
// through a fresh environment.
func (env *RuntimeEnvironment) InsertFullInboxContents(contents []value.Value) {
	env.inbox = contents
}

// GetFromInbox pops and returns the oldest pending message, or ok=false
// if the inbox is empty — the Inbox opcode's "block" case.
func (env *RuntimeEnvironment) GetFromInbox() (value.Value, bool) {
	if len(env.inbox) == 0 {
		return value.Value{}, false
	}
	msg := env.inbox[0]
	env.inbox = env.inbox[1:]
	return msg, true
}

// PeekAtInboxHead returns the oldest pending message without consuming
// it.
func (env *RuntimeEnvironment) PeekAtInboxHead() (value.Value, bool) {
	if len(env.inbox) == 0 {
		return value.Value{}, false
	}
	return env.inbox[0], true
}

// PushLog appends val to the log sink, recording it for later replay
// comparison.
func (env *RuntimeEnvironment) PushLog(val value.Value) {
	env.logs = append(env.logs, val)
	env.recorder.addLog(val)
}

// GetAllLogs returns every value pushed to the log sink, in order.
func (env *RuntimeEnvironment) GetAllLogs() []value.Value {
	out := make([]value.Value, len(env.logs))
	copy(out, env.logs)
	return out
}

// PushSend appends val to the send sink (an L2-to-L1 outbound message),
// recording it for later replay comparison.
func (env *RuntimeEnvironment) PushSend(val value.Value) {
	env.sends = append(env.sends, val)
	env.recorder.addSend(val)
}

// GetAllSends returns every value pushed to the send sink, in order.
func (env *RuntimeEnvironment) GetAllSends() []value.Value {
	out := make([]value.Value, len(env.sends))
	copy(out, env.sends)
	return out
}

func (env *RuntimeEnvironment) getAndIncrSeqNum(addr uint256.Uint256) uint64 {
	key := string(addr.Bytes32()[:])
	n := env.callerSeqNums[key]
	env.callerSeqNums[key] = n + 1
	return n
}

// Recorder returns the session recorder backing ReplayAndCompare/
// RtEnvRecorder.ToJSON.
func (env *RuntimeEnvironment) Recorder() *RtEnvRecorder { return env.recorder }
