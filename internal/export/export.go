// Package export builds a serializable summary of a decode session and
// encodes it as JSON or CBOR.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/mzyy94/dynatab/internal/dyna"
	"github.com/mzyy94/dynatab/internal/inspect"
)

// Format selects the summary encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat accepts "json" or "cbor" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCBOR:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or cbor)", s)
}

// Summary is the machine-readable result of a session.
type Summary struct {
	Compliant bool            `json:"compliant"`
	Stats     dyna.Stats      `json:"stats"`
	Regions   []RegionSummary `json:"regions"`
	Issues    []dyna.Issue    `json:"issues"`
}

// RegionSummary describes one decoded region.
type RegionSummary struct {
	Geometry       string              `json:"geometry"`
	OriginX        int                 `json:"originX"`
	OriginY        int                 `json:"originY"`
	Width          int                 `json:"width"`
	Height         int                 `json:"height"`
	DeclaredFrames int                 `json:"declaredFrames"`
	Unknown4       uint16              `json:"unknown4"`
	Unknown6       uint16              `json:"unknown6"`
	Frames         []FrameSummary      `json:"frames"`
	Incomplete     []IncompleteSummary `json:"incomplete,omitempty"`
	Tracks         []inspect.Track     `json:"tracks,omitempty"`
	AnimationError string              `json:"animationError,omitempty"`
}

// FrameSummary describes one complete frame.
type FrameSummary struct {
	Index   int              `json:"index"`
	Active  []inspect.Pixel  `json:"active"`
	Corners []inspect.Corner `json:"corners"`
	Pixels  string           `json:"pixels,omitempty"` // packed rrggbb, with Options.Pixels
}

// IncompleteSummary describes a frame that never completed.
type IncompleteSummary struct {
	Index   int    `json:"index"`
	State   string `json:"state"`
	Have    int    `json:"have"`
	Want    int    `json:"want"`
	Missing []int  `json:"missing,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Options tunes Build.
type Options struct {
	Pixels bool // include every pixel of complete frames
}

// Build summarizes the results, report and stats of a closed session.
func Build(results []dyna.Decoded, rep dyna.Report, st dyna.Stats, opts Options) Summary {
	s := Summary{Compliant: rep.Compliant, Stats: st, Issues: rep.Issues, Regions: make([]RegionSummary, 0, len(results))}
	if s.Issues == nil {
		s.Issues = []dyna.Issue{}
	}
	for _, d := range results {
		r := d.Region
		rs := RegionSummary{
			Geometry:       r.String(),
			OriginX:        int(r.OriginX),
			OriginY:        int(r.OriginY),
			Width:          int(r.Width),
			Height:         int(r.Height),
			DeclaredFrames: r.FrameCount(),
			Unknown4:       r.Meta.Unknown4,
			Unknown6:       r.Meta.Unknown6,
			Frames:         make([]FrameSummary, 0, len(d.Frames)),
		}
		for _, f := range d.Frames {
			fs := FrameSummary{Index: int(f.FrameIndex()), Active: inspect.Active(f), Corners: inspect.Corners(f)}
			if opts.Pixels {
				fs.Pixels = packPixels(f.Pixels())
			}
			rs.Frames = append(rs.Frames, fs)
		}
		for _, fe := range d.Incomplete {
			is := IncompleteSummary{
				Index:  int(fe.FrameIndex),
				State:  fe.State.String(),
				Have:   fe.Have,
				Want:   fe.Want,
				Reason: string(fe.Reason),
			}
			for _, m := range fe.Missing {
				is.Missing = append(is.Missing, int(m))
			}
			rs.Incomplete = append(rs.Incomplete, is)
		}
		if d.Animation != nil {
			rs.Tracks = inspect.Tracks(*d.Animation)
		}
		if d.AnimationErr != nil {
			rs.AnimationError = d.AnimationErr.Error()
		}
		s.Regions = append(s.Regions, rs)
	}
	return s
}

func packPixels(px []dyna.RGB) string {
	var b strings.Builder
	b.Grow(len(px) * 6)
	for _, c := range px {
		b.WriteString(c.Hex())
	}
	return b.String()
}

// Encode writes the summary in the given format.
func Encode(w io.Writer, s Summary, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatCBOR:
		data, err := cbor.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode CBOR summary: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unknown format %q", f)
}

// DecodeCBOR reads a summary written with FormatCBOR.
func DecodeCBOR(data []byte) (Summary, error) {
	var s Summary
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("decode CBOR summary: %w", err)
	}
	return s, nil
}
