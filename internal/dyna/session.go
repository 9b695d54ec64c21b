package dyna

import (
	"errors"
	"log/slog"
	"slices"
)

// Observer receives decode events, for example to export metrics.
type Observer interface {
	PacketDecoded(kind PacketKind)
	IssueRaised(issue Issue)
	FrameCompleted(region Region, frameIndex uint8)
}

// Stats counts what a Session has seen.
type Stats struct {
	Payloads       int `json:"payloads"`
	Regions        int `json:"regions"`
	Chunks         int `json:"chunks"`
	Unrecognized   int `json:"unrecognized"`
	Rejected       int `json:"rejected"`        // payloads that failed to decode
	DiscardedBytes int `json:"discarded_bytes"` // trailing bytes of data packets
	Polls          int `json:"polls"`           // GET_REPORT transfers noted by the feed
}

// Decoded is the output for one region of a session.
type Decoded struct {
	Region       Region
	Frames       []PixelBuffer // complete frames, ascending frame index
	Incomplete   []*FrameIncompleteError
	Animation    *Animation // set for animated regions that finalized
	AnimationErr error      // set for animated regions that did not
}

// Frame returns the complete frame with the given index.
func (d Decoded) Frame(frameIndex uint8) (PixelBuffer, bool) {
	for _, f := range d.Frames {
		if f.FrameIndex() == frameIndex {
			return f, true
		}
	}
	return PixelBuffer{}, false
}

// Option configures a Session.
type Option func(*Session)

// WithObserver registers an observer for decode events.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithRequirePolling makes Close report MissingPolling when no GET_REPORT
// traffic was noted.
func WithRequirePolling(v bool) Option {
	return func(s *Session) { s.requirePolling = v }
}

type regionState struct {
	region Region
	frames map[uint8]*FrameAssembler
	anim   *AnimationAssembler
	extra  map[uint8]bool // out-of-range frame indices already reported
}

// Session decodes one ordered stream of payloads. It holds exactly one
// active region at a time; a new init packet closes the previous one.
// A Session is owned by a single goroutine.
type Session struct {
	active         *regionState
	results        []Decoded
	report         Report
	stats          Stats
	observer       Observer
	requirePolling bool
	closed         bool
}

// NewSession returns an empty decode session.
func NewSession(opts ...Option) *Session {
	s := &Session{report: NewReport()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Region returns the active region.
func (s *Session) Region() (Region, bool) {
	if s.active == nil {
		return Region{}, false
	}
	return s.active.region, true
}

// Feed decodes one payload. A decode error is recorded in the report and
// returned; the session stays usable for the next payload. After Close, Feed
// returns ErrSessionClosed and records nothing.
func (s *Session) Feed(payload []byte, ref CaptureRef) (Packet, error) {
	if s.closed {
		return Packet{}, ErrSessionClosed
	}
	s.stats.Payloads++
	p, err := Classify(payload)
	if err != nil {
		s.stats.Rejected++
		kind := IssueInvalidPacket
		switch {
		case errors.Is(err, ErrMalformedRegion):
			kind = IssueMalformedRegion
		case errors.Is(err, ErrMalformedChunk):
			kind = IssueMalformedChunk
		}
		s.raise(newIssue(kind, "%v", err), ref)
		return p, err
	}
	if s.observer != nil {
		s.observer.PacketDecoded(p.Kind)
	}

	switch p.Kind {
	case KindRegion:
		s.stats.Regions++
		s.openRegion(p.Region, ref)
	case KindPixelChunk:
		s.stats.Chunks++
		s.stats.DiscardedBytes += p.Chunk.Discarded
		s.feedChunk(p.Chunk, ref)
	default:
		s.stats.Unrecognized++
		slog.Debug("unrecognized payload", "opcode", p.Opcode, "bytes", len(payload), "ref", ref)
	}
	return p, nil
}

func (s *Session) openRegion(r Region, ref CaptureRef) {
	s.closeRegion()
	slog.Info("region", "geometry", r.String(), "ref", ref)
	if err := r.Validate(); err != nil {
		s.raise(newIssue(IssueInvalidRegion, "%v", err), ref)
	}
	if r.Meta.Reserved1 != 0 {
		s.raise(newIssue(IssueReservedField, "init byte 1 is 0x%02X, observed 0x00", r.Meta.Reserved1), ref)
	}
	if r.Meta.Reserved3 != 0 {
		s.raise(newIssue(IssueReservedField, "init byte 3 is 0x%02X, observed 0x00", r.Meta.Reserved3), ref)
	}
	s.active = &regionState{
		region: r,
		frames: make(map[uint8]*FrameAssembler),
		anim:   NewAnimationAssembler(r),
		extra:  make(map[uint8]bool),
	}
}

func (s *Session) feedChunk(c PixelChunk, ref CaptureRef) {
	rs := s.active
	if rs == nil {
		s.raise(newIssue(IssueNoActiveRegion, "chunk frame %d seq %d before any init packet", c.FrameIndex, c.SequenceIndex), ref)
		return
	}
	if int(c.FrameIndex) >= rs.region.FrameCount() && !rs.extra[c.FrameIndex] {
		rs.extra[c.FrameIndex] = true
		s.raise(newIssue(IssueUnexpectedFrame, "frame %d outside the %d frame(s) declared by %s",
			c.FrameIndex, rs.region.FrameCount(), rs.region), ref)
	}
	fa, ok := rs.frames[c.FrameIndex]
	if !ok {
		fa = NewFrameAssembler(rs.region, c.FrameIndex)
		rs.frames[c.FrameIndex] = fa
	}
	before := fa.State()
	st := fa.Feed(c)
	if st.Issue != nil {
		s.raise(st.Issue, ref)
	}
	switch {
	case st.State == StateComplete && before != StateComplete:
		buf, _ := fa.Finalize()
		rs.anim.Add(buf)
		if s.observer != nil {
			s.observer.FrameCompleted(rs.region, c.FrameIndex)
		}
	case before == StateComplete && st.State != StateComplete:
		rs.anim.drop(c.FrameIndex)
	}
}

// Reset clears the accumulated packets of one frame of the active region,
// leaving other frames untouched. Use it to recover from a desynced capture.
func (s *Session) Reset(frameIndex uint8) {
	if s.active == nil {
		return
	}
	if fa, ok := s.active.frames[frameIndex]; ok {
		fa.Reset()
	}
	s.active.anim.drop(frameIndex)
}

// NotePolling records n GET_REPORT transfers seen by the ingestion side.
func (s *Session) NotePolling(n int) { s.stats.Polls += n }

// closeRegion flushes the active region into results.
func (s *Session) closeRegion() {
	rs := s.active
	if rs == nil {
		return
	}
	s.active = nil

	d := Decoded{Region: rs.region}
	idx := make([]uint8, 0, len(rs.frames))
	for i := range rs.frames {
		idx = append(idx, i)
	}
	slices.Sort(idx)
	for _, i := range idx {
		fa := rs.frames[i]
		if st := fa.Flush(); st.Issue != nil {
			s.raise(st.Issue, NoRef)
		}
		buf, err := fa.Finalize()
		if err != nil {
			var fe *FrameIncompleteError
			if errors.As(err, &fe) {
				d.Incomplete = append(d.Incomplete, fe)
			}
			continue
		}
		d.Frames = append(d.Frames, buf)
	}

	if rs.region.Animated() {
		anim, err := rs.anim.Finalize()
		if err != nil {
			d.AnimationErr = err
			kind := IssueIncompleteAnimation
			var ae *IncompleteAnimationError
			if errors.As(err, &ae) && len(ae.Missing) == 0 {
				kind = IssueGeometryMismatch
			}
			s.raise(newIssue(kind, "%s: %v", rs.region, err), NoRef)
		} else {
			d.Animation = &anim
		}
	} else if _, ok := rs.frames[0]; !ok && rs.region.PixelCount() > 0 {
		s.raise(newIssue(IssuePixelCountMismatch, "frame 0: 0 of %d pixels received", rs.region.PixelCount()), NoRef)
	}
	s.results = append(s.results, d)
}

// Close ends the session: pending frames are flushed and reported, and the
// decoded output of every region is returned in arrival order. Calling Close
// again returns the same results.
func (s *Session) Close() []Decoded {
	if !s.closed {
		s.closeRegion()
		if s.requirePolling && s.stats.Polls == 0 {
			s.raise(newIssue(IssueMissingPolling, "no GET_REPORT (0x%02X) polling observed", RequestGetReport), NoRef)
		}
		s.closed = true
	}
	return s.results
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed }

// Results returns the output of regions closed so far.
func (s *Session) Results() []Decoded { return s.results }

// Report returns a copy of the diagnostic report.
func (s *Session) Report() Report {
	r := s.report
	r.Issues = slices.Clone(s.report.Issues)
	return r
}

// Stats returns the packet counters.
func (s *Session) Stats() Stats { return s.stats }

func (s *Session) raise(is *Issue, ref CaptureRef) {
	if ref.Valid {
		n := ref.Frame
		is.Ref = &n
	}
	s.report.Add(*is)
	slog.Debug("protocol issue", "kind", is.Kind, "detail", is.Detail, "ref", ref)
	if s.observer != nil {
		s.observer.IssueRaised(*is)
	}
}
