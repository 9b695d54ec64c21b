package dyna

import (
	"errors"
	"fmt"
	"strings"
)

// Decode errors for a single payload. They never end a Session.
var (
	ErrInvalidPacket   = errors.New("invalid packet")
	ErrMalformedRegion = errors.New("malformed region packet")
	ErrMalformedChunk  = errors.New("malformed pixel chunk")
)

// ErrSessionClosed is returned by Session.Feed after Close.
var ErrSessionClosed = errors.New("session closed")

// Assembly errors; match the typed errors below with errors.Is.
var (
	ErrFrameIncomplete     = errors.New("frame incomplete")
	ErrIncompleteAnimation = errors.New("incomplete animation")
)

// FrameIncompleteError is returned by FrameAssembler.Finalize when the frame
// is not Complete.
type FrameIncompleteError struct {
	FrameIndex uint8
	State      State
	Missing    []uint8 // sequence indices not observed
	Have       int     // pixels observed
	Want       int     // width*height
	Reason     IssueKind
	Partial    []RGB // best-effort pixels in sequence order, truncated to Want
}

func (e *FrameIncompleteError) Error() string {
	msg := fmt.Sprintf("frame %d incomplete (%s): %d/%d pixels", e.FrameIndex, e.State, e.Have, e.Want)
	if len(e.Missing) > 0 {
		msg += ", missing sequence " + formatIndices(e.Missing)
	}
	if e.Reason != "" {
		msg += ", " + string(e.Reason)
	}
	return msg
}

func (e *FrameIncompleteError) Is(target error) bool { return target == ErrFrameIncomplete }

// IncompleteAnimationError is returned by AnimationAssembler.Finalize.
type IncompleteAnimationError struct {
	Declared   int
	Missing    []uint8 // frame indices without a complete buffer
	Mismatched []uint8 // frame indices whose geometry differs from the region
}

func (e *IncompleteAnimationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing frames "+formatIndices(e.Missing))
	}
	if len(e.Mismatched) > 0 {
		parts = append(parts, "geometry mismatch in frames "+formatIndices(e.Mismatched))
	}
	return fmt.Sprintf("animation of %d frames incomplete: %s", e.Declared, strings.Join(parts, "; "))
}

func (e *IncompleteAnimationError) Is(target error) bool { return target == ErrIncompleteAnimation }

func formatIndices(idx []uint8) string {
	s := make([]string, len(idx))
	for i, v := range idx {
		s[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(s, " ") + "]"
}
