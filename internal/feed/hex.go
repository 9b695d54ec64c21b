// Package feed reads and writes captured HID report payloads and drives a
// decode session from them.
package feed

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mzyy94/dynatab/internal/dyna"
)

// Record is one captured transfer.
type Record struct {
	Payload []byte
	Request byte // HID class request, dyna.RequestSetReport unless noted
	Ref     dyna.CaptureRef
	Time    time.Time // zero for hex input
}

// Source yields records in capture order. Next returns io.EOF after the
// last record.
type Source interface {
	Next() (Record, error)
}

// ParseLine parses one hex line. Blank lines and comments yield ok=false.
//
// Accepted forms are Wireshark-style "a9:00:01", spaced "a9 00 01" and
// packed "a90001", optionally mixed with "ref=<n>" (capture frame number)
// and "req=<hex>" (HID request, 09 for SET_REPORT, 01 for GET_REPORT)
// tokens. Text after '#' is ignored.
func ParseLine(line string) (rec Record, ok bool, err error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	rec.Request = dyna.RequestSetReport
	var digits strings.Builder
	for _, tok := range strings.Fields(line) {
		switch {
		case strings.HasPrefix(tok, "ref="):
			n, err := strconv.ParseInt(tok[len("ref="):], 10, 64)
			if err != nil {
				return Record{}, false, fmt.Errorf("bad ref %q: %w", tok, err)
			}
			rec.Ref = dyna.Ref(n)
		case strings.HasPrefix(tok, "req="):
			b, err := strconv.ParseUint(strings.TrimPrefix(tok[len("req="):], "0x"), 16, 8)
			if err != nil {
				return Record{}, false, fmt.Errorf("bad req %q: %w", tok, err)
			}
			rec.Request = byte(b)
		default:
			digits.WriteString(strings.ReplaceAll(tok, ":", ""))
		}
	}
	if digits.Len() == 0 && !rec.Ref.Valid && rec.Request == dyna.RequestSetReport {
		return Record{}, false, nil
	}
	payload, err := hex.DecodeString(digits.String())
	if err != nil {
		return Record{}, false, fmt.Errorf("bad hex payload: %w", err)
	}
	rec.Payload = payload
	return rec, true, nil
}

// HexReader reads hex lines.
type HexReader struct {
	sc   *bufio.Scanner
	line int
}

// NewHexReader returns a Source over hex lines read from r.
func NewHexReader(r io.Reader) *HexReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &HexReader{sc: sc}
}

// Next returns the next payload line.
func (h *HexReader) Next() (Record, error) {
	for h.sc.Scan() {
		h.line++
		rec, ok, err := ParseLine(h.sc.Text())
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", h.line, err)
		}
		if ok {
			return rec, nil
		}
	}
	if err := h.sc.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

// FormatHex renders a payload as colon-separated hex, as Wireshark shows
// usb.data_fragment.
func FormatHex(payload []byte) string {
	var b strings.Builder
	for i, v := range payload {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%02x", v)
	}
	return b.String()
}

// WriteHex writes one record as a hex line.
func WriteHex(w io.Writer, rec Record) error {
	var prefix string
	if rec.Ref.Valid {
		prefix += fmt.Sprintf("ref=%d ", rec.Ref.Frame)
	}
	if rec.Request != 0 && rec.Request != dyna.RequestSetReport {
		prefix += fmt.Sprintf("req=%02x ", rec.Request)
	}
	_, err := fmt.Fprintf(w, "%s%s\n", prefix, FormatHex(rec.Payload))
	return err
}
