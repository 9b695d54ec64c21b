package dyna

import "fmt"

// IssueKind names a class of protocol anomaly.
type IssueKind string

const (
	IssueInvalidPacket       IssueKind = "InvalidPacket"
	IssueMalformedRegion     IssueKind = "MalformedRegion"
	IssueMalformedChunk      IssueKind = "MalformedChunk"
	IssueSequenceGap         IssueKind = "SequenceGap"
	IssueDuplicateConflict   IssueKind = "DuplicateSequenceConflict"
	IssuePixelCountMismatch  IssueKind = "PixelCountMismatch"
	IssueIncompleteAnimation IssueKind = "IncompleteAnimation"
	IssueFrameIndexMismatch  IssueKind = "FrameIndexMismatch"
	IssueNoActiveRegion      IssueKind = "NoActiveRegion"
	IssueGeometryMismatch    IssueKind = "GeometryMismatch"
	IssueUnexpectedFrame     IssueKind = "UnexpectedFrame"
	IssueInvalidRegion       IssueKind = "InvalidRegion"
	IssueMissingPolling      IssueKind = "MissingPolling"
	IssueReservedField       IssueKind = "ReservedField"
)

// Severity separates protocol violations from recorded variance.
type Severity string

const (
	SeverityError  Severity = "error"
	SeverityNotice Severity = "notice"
)

// CaptureRef is an optional position in the source capture (for example a
// Wireshark frame number). It is used for diagnostics only.
type CaptureRef struct {
	Frame int64 `json:"frame"`
	Valid bool  `json:"-"`
}

// NoRef is the zero CaptureRef.
var NoRef = CaptureRef{}

// Ref returns a valid CaptureRef for capture frame n.
func Ref(n int64) CaptureRef { return CaptureRef{Frame: n, Valid: true} }

func (r CaptureRef) String() string {
	if !r.Valid {
		return "-"
	}
	return fmt.Sprintf("#%d", r.Frame)
}

// Issue is one entry of the diagnostic report.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Detail   string    `json:"detail"`
	Ref      *int64    `json:"ref,omitempty"`
}

func newIssue(kind IssueKind, format string, args ...any) *Issue {
	sev := SeverityError
	if kind == IssueReservedField {
		sev = SeverityNotice
	}
	return &Issue{Kind: kind, Severity: sev, Detail: fmt.Sprintf(format, args...)}
}

func (i Issue) String() string {
	if i.Ref != nil {
		return fmt.Sprintf("%s [%s] %s (capture #%d)", i.Kind, i.Severity, i.Detail, *i.Ref)
	}
	return fmt.Sprintf("%s [%s] %s", i.Kind, i.Severity, i.Detail)
}

// Report is the structured diagnostic output of a Session, in the order the
// anomalies were detected.
type Report struct {
	Compliant bool    `json:"compliant"`
	Issues    []Issue `json:"issues"`
}

// Add appends an issue and updates compliance.
func (r *Report) Add(issue Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.Compliant = false
	}
}

// Merge appends the issues of another report, for example the polling check
// of the ingestion collaborator.
func (r *Report) Merge(o Report) {
	for _, is := range o.Issues {
		r.Add(is)
	}
}

// Count returns the number of issues of the given kind.
func (r Report) Count(kind IssueKind) int {
	n := 0
	for _, is := range r.Issues {
		if is.Kind == kind {
			n++
		}
	}
	return n
}

// NewReport returns an empty, compliant report.
func NewReport() Report { return Report{Compliant: true} }
