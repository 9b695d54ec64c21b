package dyna

import "testing"

func TestEncoderRoundTrip(t *testing.T) {
	region := Region{OriginX: 0, OriginY: 0, Width: 60, Height: 9}
	frames := make([][]RGB, 4)
	for f := range frames {
		frames[f] = make([]RGB, region.PixelCount())
		frames[f][f*59] = RGB{R: 0xFF}
	}
	payloads, err := Encoder{ReportSize: ReportSize}.Encode(region, frames)
	if err != nil {
		t.Fatal(err)
	}
	if len(payloads) != 1+4*30 {
		t.Fatalf("got %d payloads, want %d", len(payloads), 1+4*30)
	}
	for i, p := range payloads {
		if len(p) != ReportSize {
			t.Fatalf("payload %d is %d bytes, want %d", i, len(p), ReportSize)
		}
	}

	s := NewSession()
	for _, p := range payloads {
		if _, err := s.Feed(p, NoRef); err != nil {
			t.Fatal(err)
		}
	}
	results := s.Close()
	if !s.Report().Compliant || results[0].Animation == nil {
		t.Fatalf("report = %+v", s.Report())
	}
	for f := range 4 {
		if !results[0].Animation.Frame(f).Equal(mustPixels(t, results[0].Region, uint8(f), frames[f])) {
			t.Errorf("frame %d differs after round trip", f)
		}
	}
}

func mustPixels(t *testing.T, r Region, f uint8, px []RGB) PixelBuffer {
	t.Helper()
	buf, err := NewPixelBuffer(r, f, px)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestEncoderSkipsUnsafePadding(t *testing.T) {
	region := Region{Width: 2, Height: 1}
	payloads, err := Encoder{ReportSize: ReportSize}.Encode(region, [][]RGB{{{1, 2, 3}, {4, 5, 6}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(payloads[0]) != ReportSize {
		t.Errorf("init packet is %d bytes, want padded %d", len(payloads[0]), ReportSize)
	}
	if len(payloads[1]) != ChunkHeaderSize+6 {
		t.Errorf("short data packet padded to %d bytes", len(payloads[1]))
	}
}

func TestEncoderErrors(t *testing.T) {
	region := Region{Width: 2, Height: 1}
	tests := []struct {
		name   string
		region Region
		frames [][]RGB
	}{
		{"no frames", region, nil},
		{"wrong size", region, [][]RGB{make([]RGB, 3)}},
		{"empty region", Region{}, [][]RGB{{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (Encoder{}).Encode(tt.region, tt.frames); err == nil {
				t.Error("expected error")
			}
		})
	}
}
