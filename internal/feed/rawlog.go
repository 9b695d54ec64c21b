package feed

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mzyy94/dynatab/internal/dyna"
)

// RawLogMagic starts every raw log.
const RawLogMagic = "DYNARAW1"

const rawRecordHeader = 12

// maxRawPayload bounds a record so a corrupt length cannot allocate
// unbounded memory.
const maxRawPayload = 1 << 20

var errRawLogClosed = errors.New("raw log writer is closed")

// RawLogWriter appends payload records to a binary log: the magic, then per
// record an 8 byte little-endian unix-nano timestamp, a 4 byte little-endian
// length and the payload.
type RawLogWriter struct {
	mu  sync.Mutex
	w   *bufio.Writer
	now func() time.Time
}

// NewRawLogWriter writes the magic to w and returns a writer.
func NewRawLogWriter(w io.Writer) (*RawLogWriter, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	if _, err := bw.WriteString(RawLogMagic); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	return &RawLogWriter{w: bw, now: time.Now}, nil
}

// Record appends one payload stamped with the current time.
func (r *RawLogWriter) Record(payload []byte) error {
	return r.RecordAt(r.now(), payload)
}

// RecordAt appends one payload with an explicit timestamp.
func (r *RawLogWriter) RecordAt(ts time.Time, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return errRawLogClosed
	}
	var header [rawRecordHeader]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(ts.UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := r.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := r.w.Write(payload); err != nil {
		return err
	}
	return r.w.Flush()
}

// Close flushes buffered records. The underlying writer is not closed.
func (r *RawLogWriter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	err := r.w.Flush()
	r.w = nil
	return err
}

// RawLogReader reads a raw log written by RawLogWriter. Every record is a
// SET_REPORT payload; Ref counts records from 1.
type RawLogReader struct {
	r     *bufio.Reader
	count int64
}

// NewRawLogReader checks the magic and returns a Source.
func NewRawLogReader(r io.Reader) (*RawLogReader, error) {
	br := bufio.NewReader(r)
	header := make([]byte, len(RawLogMagic))
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(header) != RawLogMagic {
		return nil, fmt.Errorf("unexpected raw log magic %q", string(header))
	}
	return &RawLogReader{r: br}, nil
}

// Next returns the next record, or io.EOF at a clean end of log.
func (l *RawLogReader) Next() (Record, error) {
	var meta [rawRecordHeader]byte
	if _, err := io.ReadFull(l.r, meta[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Record{}, fmt.Errorf("record %d: truncated header", l.count+1)
		}
		return Record{}, err
	}
	ts := int64(binary.LittleEndian.Uint64(meta[:8]))
	size := binary.LittleEndian.Uint32(meta[8:12])
	if size > maxRawPayload {
		return Record{}, fmt.Errorf("record %d: payload length %d exceeds %d", l.count+1, size, maxRawPayload)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(l.r, payload); err != nil {
		return Record{}, fmt.Errorf("record %d: read payload: %w", l.count+1, err)
	}
	l.count++
	return Record{
		Payload: payload,
		Request: dyna.RequestSetReport,
		Ref:     dyna.Ref(l.count),
		Time:    time.Unix(0, ts),
	}, nil
}
