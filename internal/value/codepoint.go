package value

import "fmt"

// CodePtKind discriminates the three forms a code pointer can take before
// a linked program's static executable form is reached.
type CodePtKind int

const (
	// CodePtInternal addresses an instruction within the linked program's
	// own code array.
	CodePtInternal CodePtKind = iota
	// CodePtExternal addresses an imported-function slot, resolved away
	// by the Linker's cross-wiring before post-link.
	CodePtExternal
	// CodePtInSegment addresses an offset within a not-yet-merged
	// compilation segment.
	CodePtInSegment
)

// CodePt is an address within a program. After post-link, every CodePt
// reachable from code or the static value is CodePtInternal.
type CodePt struct {
	Kind      CodePtKind
	PC        int // valid when Kind == CodePtInternal
	Slot      int // valid when Kind == CodePtExternal
	SegmentID int // valid when Kind == CodePtInSegment
	Offset    int // valid when Kind == CodePtInSegment
}

// Internal constructs an internal code point addressing pc.
func Internal(pc int) CodePt { return CodePt{Kind: CodePtInternal, PC: pc} }

// External constructs an external code point addressing an import slot.
func External(slot int) CodePt { return CodePt{Kind: CodePtExternal, Slot: slot} }

// InSegment constructs a pre-merge segment-relative code point.
func InSegment(segmentID, offset int) CodePt {
	return CodePt{Kind: CodePtInSegment, SegmentID: segmentID, Offset: offset}
}

// Incr returns the code point one instruction past cp, which is only
// defined for internal code points; ok is false otherwise.
func (cp CodePt) Incr() (CodePt, bool) {
	if cp.Kind != CodePtInternal {
		return CodePt{}, false
	}
	return Internal(cp.PC + 1), true
}

// Relocate shifts cp by the given offsets, applied to whichever field its
// Kind makes meaningful.
func (cp CodePt) Relocate(intOffset, extOffset int) CodePt {
	switch cp.Kind {
	case CodePtInternal:
		return Internal(cp.PC + intOffset)
	case CodePtExternal:
		return External(cp.Slot + extOffset)
	default:
		return cp
	}
}

func (cp CodePt) Equal(o CodePt) bool {
	return cp == o
}

func (cp CodePt) String() string {
	switch cp.Kind {
	case CodePtInternal:
		return fmt.Sprintf("Internal(%d)", cp.PC)
	case CodePtExternal:
		return fmt.Sprintf("External(%d)", cp.Slot)
	default:
		return fmt.Sprintf("InSegment(%d,%d)", cp.SegmentID, cp.Offset)
	}
}
