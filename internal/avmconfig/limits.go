package avmconfig

// DefaultCallStackCeiling bounds the aux stack's call-frame depth before
// the emulator raises a stack-overflow ExecutionError, standing in for
// the teacher's buildoptions.CallStackCeiling constant (there applied to
// the wazeroir call stack; here to the AVM aux stack, which plays the
// analogous "call frame trail" role).
const DefaultCallStackCeiling = 250_000
