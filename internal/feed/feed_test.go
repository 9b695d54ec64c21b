package feed

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mzyy94/dynatab/internal/dyna"
)

func TestParseLine(t *testing.T) {
	want := []byte{0xa9, 0x00, 0x01, 0x00}
	tests := []struct {
		name    string
		line    string
		ok      bool
		payload []byte
		req     byte
		ref     dyna.CaptureRef
	}{
		{"colon", "a9:00:01:00", true, want, 0x09, dyna.NoRef},
		{"spaced", "a9 00 01 00", true, want, 0x09, dyna.NoRef},
		{"packed", "A9000100", true, want, 0x09, dyna.NoRef},
		{"ref and req", "ref=42 req=09 a9:00:01:00", true, want, 0x09, dyna.Ref(42)},
		{"get report", "ref=7 req=01", true, []byte{}, 0x01, dyna.Ref(7)},
		{"comment", "a9:00:01:00 # init", true, want, 0x09, dyna.NoRef},
		{"blank", "   ", false, nil, 0, dyna.NoRef},
		{"only comment", "# capture 2026-01-17", false, nil, 0, dyna.NoRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok, err := ParseLine(tt.line)
			if err != nil {
				t.Fatalf("ParseLine(%q): %v", tt.line, err)
			}
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !bytes.Equal(rec.Payload, tt.payload) {
				t.Errorf("payload = %x, want %x", rec.Payload, tt.payload)
			}
			if rec.Request != tt.req || rec.Ref != tt.ref {
				t.Errorf("req %02x ref %v, want %02x %v", rec.Request, rec.Ref, tt.req, tt.ref)
			}
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{"a9:0", "zz", "ref=x a9", "req=1ff a9"} {
		if _, _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) succeeded, want error", line)
		}
	}
}

func TestHexReaderRoundTrip(t *testing.T) {
	recs := []Record{
		{Payload: []byte{0xa9, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0x3c, 0x09}, Request: dyna.RequestSetReport, Ref: dyna.Ref(1)},
		{Payload: []byte{}, Request: dyna.RequestGetReport, Ref: dyna.Ref(2)},
		{Payload: []byte{0x29, 0, 0, 0, 0, 0, 0, 0, 0xff, 0, 0}, Request: dyna.RequestSetReport},
	}
	var buf bytes.Buffer
	buf.WriteString("# header comment\n\n")
	for _, r := range recs {
		if err := WriteHex(&buf, r); err != nil {
			t.Fatal(err)
		}
	}
	r := NewHexReader(&buf)
	for i, want := range recs {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !bytes.Equal(got.Payload, want.Payload) || got.Request != want.Request || got.Ref != want.Ref {
			t.Errorf("record %d = %+v, want %+v", i, got, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("final error = %v, want io.EOF", err)
	}
}

func TestHexReaderReportsLine(t *testing.T) {
	r := NewHexReader(strings.NewReader("a9:00:01:00\nnot-hex\n"))
	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	_, err := r.Next()
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error = %v, want line 2", err)
	}
}

func TestFormatHex(t *testing.T) {
	if got := FormatHex([]byte{0xa9, 0x00, 0x3c}); got != "a9:00:3c" {
		t.Errorf("FormatHex = %q", got)
	}
}

func TestRawLogRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewRawLogWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	ts := time.Unix(1768608000, 123)
	payloads := [][]byte{{0xa9, 0, 1, 0}, {0x29, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3}, {}}
	for _, p := range payloads {
		if err := w.RecordAt(ts, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Record([]byte{1}); !errors.Is(err, errRawLogClosed) {
		t.Errorf("Record after Close = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte(RawLogMagic)) {
		t.Fatalf("missing magic: %q", buf.Bytes()[:8])
	}

	r, err := NewRawLogReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range payloads {
		rec, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !bytes.Equal(rec.Payload, want) {
			t.Errorf("record %d payload = %x, want %x", i, rec.Payload, want)
		}
		if !rec.Time.Equal(ts) || rec.Ref != dyna.Ref(int64(i+1)) || rec.Request != dyna.RequestSetReport {
			t.Errorf("record %d = %+v", i, rec)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("final error = %v, want io.EOF", err)
	}
}

func TestRawLogBadInput(t *testing.T) {
	if _, err := NewRawLogReader(strings.NewReader("STXMRAW1")); err == nil {
		t.Error("accepted foreign magic")
	}
	truncated := RawLogMagic + "\x00\x00\x00"
	r, err := NewRawLogReader(strings.NewReader(truncated))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(); err == nil || err == io.EOF {
		t.Errorf("truncated header error = %v", err)
	}
}

type sliceSource struct {
	recs []Record
	err  error
}

func (s *sliceSource) Next() (Record, error) {
	if len(s.recs) == 0 {
		if s.err != nil {
			return Record{}, s.err
		}
		return Record{}, io.EOF
	}
	r := s.recs[0]
	s.recs = s.recs[1:]
	return r, nil
}

func TestDecode(t *testing.T) {
	region := dyna.Region{Width: 2, Height: 1, Mode: 1}
	chunk := dyna.EncodeChunk(dyna.PixelChunk{Pixels: []dyna.RGB{{R: 0xff, G: 0, B: 0}, {R: 0, G: 0xff, B: 0}}})
	src := &sliceSource{recs: []Record{
		{Payload: dyna.EncodeRegion(region), Request: dyna.RequestSetReport},
		{Request: dyna.RequestGetReport},
		{Payload: chunk, Request: dyna.RequestSetReport},
		{Request: dyna.RequestGetReport},
		{Payload: []byte{0x01}, Request: 0x0a}, // SET_IDLE, skipped
	}}
	s := dyna.NewSession(dyna.WithRequirePolling(true))
	if err := Decode(context.Background(), src, s); err != nil {
		t.Fatal(err)
	}
	results := s.Close()
	if len(results) != 1 || len(results[0].Frames) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if st := s.Stats(); st.Polls != 2 || st.Payloads != 2 {
		t.Errorf("stats = %+v", st)
	}
	if !s.Report().Compliant {
		t.Errorf("report = %+v", s.Report())
	}
}

func TestDecodeSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := &sliceSource{err: boom}
	if err := Decode(context.Background(), src, dyna.NewSession()); !errors.Is(err, boom) {
		t.Errorf("Decode = %v, want %v", err, boom)
	}
}

func TestDecodeClosedSession(t *testing.T) {
	s := dyna.NewSession()
	s.Close()
	src := &sliceSource{recs: []Record{{Payload: dyna.EncodeRegion(dyna.Region{Width: 1, Height: 1}), Request: dyna.RequestSetReport}}}
	if err := Decode(context.Background(), src, s); !errors.Is(err, dyna.ErrSessionClosed) {
		t.Errorf("Decode = %v, want ErrSessionClosed", err)
	}
	if s.Stats().Payloads != 0 {
		t.Errorf("stats = %+v, want nothing fed", s.Stats())
	}
}

func TestStreamCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recs := make([]Record, 1000)
	records, errc := Stream(ctx, &sliceSource{recs: recs})
	n := 0
	for range records {
		n++
	}
	if err := <-errc; err != nil {
		t.Errorf("error = %v", err)
	}
	if n == len(recs) {
		t.Error("cancelled stream delivered every record")
	}
}
