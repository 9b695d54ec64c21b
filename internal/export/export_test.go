package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mzyy94/dynatab/internal/dyna"
)

func decodeSession(t *testing.T) *dyna.Session {
	t.Helper()
	s := dyna.NewSession()
	s.Feed(dyna.EncodeRegion(dyna.Region{Width: 2, Height: 2, Mode: 1, Meta: dyna.RegionMeta{Unknown6: 0x0102}}), dyna.Ref(1))
	s.Feed(dyna.EncodeChunk(dyna.PixelChunk{Pixels: []dyna.RGB{{R: 0xFF}, {}, {}, {B: 0xFF}}}), dyna.Ref(2))
	s.Feed(dyna.EncodeRegion(dyna.Region{Width: 4, Height: 1, Mode: 1}), dyna.Ref(3))
	s.Feed(dyna.EncodeChunk(dyna.PixelChunk{Pixels: []dyna.RGB{{}}}), dyna.Ref(4))
	s.Feed(dyna.EncodeChunk(dyna.PixelChunk{SequenceIndex: 2, Pixels: []dyna.RGB{{}}}), dyna.Ref(5))
	s.Close()
	return s
}

func TestBuild(t *testing.T) {
	s := decodeSession(t)
	sum := Build(s.Results(), s.Report(), s.Stats(), Options{Pixels: true})
	if sum.Compliant {
		t.Error("summary compliant despite a sequence gap")
	}
	if len(sum.Regions) != 2 {
		t.Fatalf("got %d regions", len(sum.Regions))
	}
	first := sum.Regions[0]
	if first.Unknown6 != 0x0102 || len(first.Frames) != 1 {
		t.Fatalf("first region = %+v", first)
	}
	if got := first.Frames[0].Pixels; got != "ff00000000000000000000ff" {
		t.Errorf("pixels = %q", got)
	}
	if len(first.Frames[0].Active) != 2 || len(first.Frames[0].Corners) != 4 {
		t.Errorf("frame = %+v", first.Frames[0])
	}
	second := sum.Regions[1]
	if len(second.Incomplete) != 1 {
		t.Fatalf("second region = %+v", second)
	}
	inc := second.Incomplete[0]
	if inc.State != "inconsistent" || len(inc.Missing) != 1 || inc.Missing[0] != 1 || inc.Have != 2 || inc.Want != 4 {
		t.Errorf("incomplete = %+v", inc)
	}
}

func TestEncodeJSON(t *testing.T) {
	s := decodeSession(t)
	var buf bytes.Buffer
	if err := Encode(&buf, Build(s.Results(), s.Report(), s.Stats(), Options{}), FormatJSON); err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	issues, ok := raw["issues"].([]any)
	if !ok || len(issues) == 0 {
		t.Fatalf("issues = %v", raw["issues"])
	}
	first := issues[0].(map[string]any)
	if first["kind"] != "SequenceGap" || first["severity"] != "error" {
		t.Errorf("first issue = %v", first)
	}
}

func TestEncodeCBOR(t *testing.T) {
	s := decodeSession(t)
	want := Build(s.Results(), s.Report(), s.Stats(), Options{})
	var buf bytes.Buffer
	if err := Encode(&buf, want, FormatCBOR); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeCBOR(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got.Compliant != want.Compliant || len(got.Regions) != 2 || len(got.Issues) != len(want.Issues) {
		t.Fatalf("decoded = %+v", got)
	}
	if got.Stats != want.Stats {
		t.Errorf("stats = %+v, want %+v", got.Stats, want.Stats)
	}
	if got.Regions[0].Frames[0].Active[0].Label != "Bright Red" {
		t.Errorf("active = %+v", got.Regions[0].Frames[0].Active)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "CBOR": FormatCBOR} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("yaml accepted")
	}
}
