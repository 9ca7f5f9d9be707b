package runtimeenv

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mini-avm/avm/internal/value"
)

// recorderFormatVersion tags the JSON shape below, so a future decoder
// can tell an old recording apart from a reshaped one.
const recorderFormatVersion = 1

// RtEnvRecorder accumulates every message an environment has inserted
// and every value it has logged or sent, so a session can be replayed
// against a fresh environment and diffed against what actually
// happened. Ported from RuntimeEnvironment's own bookkeeping fields in
// runtime_env.rs (recorder is folded into the environment there; it is
// split out here only so RuntimeEnvironment itself stays focused on
// inbox/log/send plumbing).
type RtEnvRecorder struct {
	FormatVersion int      `json:"format_version"`
	Inbox         [][]byte `json:"inbox"`
	Logs          []string `json:"logs"`
	Sends         []string `json:"sends"`
}

func newRecorder() *RtEnvRecorder {
	return &RtEnvRecorder{FormatVersion: recorderFormatVersion}
}

// addMsg records a raw L1-message envelope (the exact bytes
// InsertL1Message enqueued) in insertion order.
func (r *RtEnvRecorder) addMsg(msg []byte) {
	cp := make([]byte, len(msg))
	copy(cp, msg)
	r.Inbox = append(r.Inbox, cp)
}

// addLog records a value pushed to the log sink, using its String
// form — the recording is a debugging/replay-comparison artifact, not
// a re-parseable wire format.
func (r *RtEnvRecorder) addLog(val value.Value) {
	r.Logs = append(r.Logs, val.String())
}

// addSend records a value pushed to the send sink, mirroring addLog.
func (r *RtEnvRecorder) addSend(val value.Value) {
	r.Sends = append(r.Sends, val.String())
}

// ToJSON renders the recording, matching the module's established
// JSON-via-encoding/json convention for on-disk program/debug output.
func (r *RtEnvRecorder) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ToFile writes the recording to path.
func (r *RtEnvRecorder) ToFile(path string) error {
	buf, err := r.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// ReplayAndCompare installs this recording's inbox in a fresh
// RuntimeEnvironment (via InsertFullInboxContents), calls run on it,
// then compares the resulting logs/sends against what was originally
// recorded. run drives the program to completion; there is no fixed
// bootstrap executable in this module to
// replay against (unlike replayAndCompareRuntimeEnvironments' hardcoded
// arb_os/arbos.mexe), so the caller supplies whatever program it wants
// replayed.
func (r *RtEnvRecorder) ReplayAndCompare(run func(env *RuntimeEnvironment) error) (bool, error) {
	replay := &RuntimeEnvironment{
		callerSeqNums: make(map[string]uint64),
		compressor:    NewTxCompressor(),
		recorder:      newRecorder(),
	}
	contents := make([]value.Value, len(r.Inbox))
	for i, msg := range r.Inbox {
		contents[i] = value.BufferValue(msg)
	}
	replay.InsertFullInboxContents(contents)

	if err := run(replay); err != nil {
		return false, fmt.Errorf("replay run failed: %w", err)
	}

	got := replay.Recorder()
	if len(got.Logs) != len(r.Logs) || len(got.Sends) != len(r.Sends) {
		return false, nil
	}
	for i := range got.Logs {
		if got.Logs[i] != r.Logs[i] {
			return false, nil
		}
	}
	for i := range got.Sends {
		if got.Sends[i] != r.Sends[i] {
			return false, nil
		}
	}
	return true, nil
}
