package dyna

import (
	"fmt"
	"log/slog"
	"slices"
)

// State is the lifecycle state of a FrameAssembler.
type State int

const (
	StateEmpty State = iota
	StateAccumulating
	StateComplete
	StateInconsistent // terminal until Reset
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateComplete:
		return "complete"
	case StateInconsistent:
		return "inconsistent"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is the result of feeding or flushing a FrameAssembler. Issue is set
// when that call detected an anomaly.
type Status struct {
	State State
	Issue *Issue
}

// FrameAssembler reassembles the data packets of one frame of one region.
// Packets may arrive in any order; they are concatenated by sequence index.
// It is not safe for concurrent use.
type FrameAssembler struct {
	region Region
	frame  uint8
	state  State
	chunks map[uint8]PixelChunk
	total  int
	reason IssueKind // why the assembler became Inconsistent
	buf    PixelBuffer
}

// NewFrameAssembler returns an empty assembler for frameIndex of region.
func NewFrameAssembler(region Region, frameIndex uint8) *FrameAssembler {
	return &FrameAssembler{
		region: region,
		frame:  frameIndex,
		chunks: make(map[uint8]PixelChunk),
	}
}

// Region returns the region pixels are assembled for.
func (a *FrameAssembler) Region() Region { return a.region }

// FrameIndex returns the frame this assembler accepts.
func (a *FrameAssembler) FrameIndex() uint8 { return a.frame }

// State returns the current lifecycle state.
func (a *FrameAssembler) State() State { return a.state }

// Observed returns the sequence indices received so far, ascending.
func (a *FrameAssembler) Observed() []uint8 {
	idx := make([]uint8, 0, len(a.chunks))
	for seq := range a.chunks {
		idx = append(idx, seq)
	}
	slices.Sort(idx)
	return idx
}

// PixelsObserved returns the number of pixels received so far.
func (a *FrameAssembler) PixelsObserved() int { return a.total }

// Feed adds one data packet.
func (a *FrameAssembler) Feed(c PixelChunk) Status {
	if c.FrameIndex != a.frame {
		return Status{State: a.state, Issue: newIssue(IssueFrameIndexMismatch,
			"chunk seq %d of frame %d fed to assembler of frame %d", c.SequenceIndex, c.FrameIndex, a.frame)}
	}
	if a.state == StateInconsistent {
		return Status{State: a.state}
	}

	if prev, ok := a.chunks[c.SequenceIndex]; ok {
		if prev.sameContent(c) {
			return Status{State: a.state}
		}
		a.state = StateInconsistent
		a.reason = IssueDuplicateConflict
		return Status{State: a.state, Issue: newIssue(IssueDuplicateConflict,
			"frame %d: sequence %d received twice with different content", a.frame, c.SequenceIndex)}
	}

	c.Pixels = append([]RGB(nil), c.Pixels...)
	a.chunks[c.SequenceIndex] = c
	a.total += len(c.Pixels)
	if a.state == StateEmpty {
		a.state = StateAccumulating
	}

	want := a.region.PixelCount()
	if a.total > want {
		a.state = StateInconsistent
		a.reason = IssuePixelCountMismatch
		return Status{State: a.state, Issue: newIssue(IssuePixelCountMismatch,
			"frame %d: %d pixels exceed region %s (%d), truncating", a.frame, a.total, a.region, want)}
	}
	switch {
	case a.total == want && a.contiguous():
		if a.state != StateComplete {
			a.buf = PixelBuffer{region: a.region, frame: a.frame, pixels: a.concat()}
			a.state = StateComplete
			slog.Debug("frame complete", "frame", a.frame, "chunks", len(a.chunks), "pixels", a.total)
		}
	case a.state == StateComplete:
		// an empty chunk past the end opened a gap
		a.state = StateAccumulating
		a.buf = PixelBuffer{}
	}
	return Status{State: a.state}
}

// Flush signals that no more packets will arrive for this frame. A frame
// that is not Complete is reported, including one emptied by Reset.
func (a *FrameAssembler) Flush() Status {
	switch a.state {
	case StateEmpty:
		return Status{State: a.state, Issue: a.shortIssue()}
	case StateAccumulating:
		if missing := a.gaps(); len(missing) > 0 {
			a.state = StateInconsistent
			a.reason = IssueSequenceGap
			return Status{State: a.state, Issue: newIssue(IssueSequenceGap,
				"frame %d: missing sequence %s", a.frame, formatIndices(missing))}
		}
		return Status{State: a.state, Issue: a.shortIssue()}
	default:
		return Status{State: a.state}
	}
}

func (a *FrameAssembler) shortIssue() *Issue {
	want := a.region.PixelCount()
	is := newIssue(IssuePixelCountMismatch, "frame %d: %d of %d pixels received", a.frame, a.total, want)
	if w, h, ok := a.region.BoundingBox(); ok && w*h == a.total {
		is.Detail += fmt.Sprintf(" (matches %dx%d if bytes 10/11 are an end corner)", w, h)
	}
	return is
}

// Finalize returns the pixel buffer once the frame is Complete.
func (a *FrameAssembler) Finalize() (PixelBuffer, error) {
	if a.state == StateComplete {
		return a.buf, nil
	}
	want := a.region.PixelCount()
	partial := a.concat()
	if len(partial) > want {
		partial = partial[:want]
	}
	missing := a.gaps()
	if len(missing) == 0 && a.state != StateInconsistent && a.total < want {
		// contiguous but short: the next index is the one we are waiting for
		next := 0
		if len(a.chunks) > 0 {
			next = int(a.Observed()[len(a.chunks)-1]) + 1
		}
		if next <= 255 {
			missing = []uint8{uint8(next)}
		}
	}
	return PixelBuffer{}, &FrameIncompleteError{
		FrameIndex: a.frame,
		State:      a.state,
		Missing:    missing,
		Have:       a.total,
		Want:       want,
		Reason:     a.reason,
		Partial:    partial,
	}
}

// Reset discards all received packets.
func (a *FrameAssembler) Reset() {
	a.state = StateEmpty
	a.chunks = make(map[uint8]PixelChunk)
	a.total = 0
	a.reason = ""
	a.buf = PixelBuffer{}
}

// contiguous reports whether the observed indices are exactly 0..k.
func (a *FrameAssembler) contiguous() bool {
	for i := range len(a.chunks) {
		if _, ok := a.chunks[uint8(i)]; !ok {
			return false
		}
	}
	return true
}

// gaps returns the indices missing below the highest observed index.
func (a *FrameAssembler) gaps() []uint8 {
	if len(a.chunks) == 0 {
		return nil
	}
	obs := a.Observed()
	var missing []uint8
	for i := 0; i < int(obs[len(obs)-1]); i++ {
		if _, ok := a.chunks[uint8(i)]; !ok {
			missing = append(missing, uint8(i))
		}
	}
	return missing
}

func (a *FrameAssembler) concat() []RGB {
	out := make([]RGB, 0, a.total)
	for _, seq := range a.Observed() {
		out = append(out, a.chunks[seq].Pixels...)
	}
	return out
}
