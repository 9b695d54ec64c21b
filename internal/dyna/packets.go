package dyna

import (
	"fmt"
)

// PacketKind tags the result of Classify.
type PacketKind int

const (
	KindUnrecognized PacketKind = iota
	KindRegion
	KindPixelChunk
)

func (k PacketKind) String() string {
	switch k {
	case KindRegion:
		return "region"
	case KindPixelChunk:
		return "pixel_chunk"
	default:
		return "unrecognized"
	}
}

// Packet is a classified payload. Exactly one of Region / Chunk is set,
// according to Kind; for unrecognized traffic only Opcode is meaningful.
type Packet struct {
	Kind   PacketKind
	Opcode byte
	Region Region
	Chunk  PixelChunk
}

// Classify inspects byte 0 of a payload and decodes it. Unknown opcodes
// (acknowledgements and other control traffic) are not an error.
func Classify(payload []byte) (Packet, error) {
	if len(payload) < MinPayloadSize {
		return Packet{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidPacket, len(payload), MinPayloadSize)
	}
	p := Packet{Opcode: payload[0]}
	switch payload[0] {
	case OpcodeRegion:
		r, err := DecodeRegion(payload)
		if err != nil {
			return p, err
		}
		p.Kind = KindRegion
		p.Region = r
	case OpcodePixelChunk:
		c, err := DecodePixelChunk(payload)
		if err != nil {
			return p, err
		}
		p.Kind = KindPixelChunk
		p.Chunk = c
	default:
		p.Kind = KindUnrecognized
	}
	return p, nil
}

// --------------------------------------------------------------------------
// Region (init) packets
// --------------------------------------------------------------------------

// DecodeRegion parses an init packet. Reserved and unknown bytes are kept in
// Meta and never validated.
func DecodeRegion(payload []byte) (Region, error) {
	if len(payload) < RegionSize {
		return Region{}, fmt.Errorf("%w: %d bytes, need %d", ErrMalformedRegion, len(payload), RegionSize)
	}
	w := regionWire(payload)
	if w.opcode() != OpcodeRegion {
		return Region{}, fmt.Errorf("%w: opcode 0x%02X", ErrMalformedRegion, w.opcode())
	}
	return Region{
		OriginX: w.originX(),
		OriginY: w.originY(),
		Width:   w.width(),
		Height:  w.height(),
		Mode:    w.mode(),
		Meta: RegionMeta{
			Reserved1: w.reserved1(),
			Reserved3: w.reserved3(),
			Unknown4:  w.unknown4(),
			Unknown6:  w.unknown6(),
		},
	}, nil
}

// EncodeRegion builds a 12-byte init packet.
func EncodeRegion(r Region) []byte {
	buf := make([]byte, RegionSize)
	w := regionWire(buf)
	w.setOpcode()
	w.setReserved1(r.Meta.Reserved1)
	w.setMode(r.Mode)
	w.setReserved3(r.Meta.Reserved3)
	w.setUnknown4(r.Meta.Unknown4)
	w.setUnknown6(r.Meta.Unknown6)
	w.setOrigin(r.OriginX, r.OriginY)
	w.setSize(r.Width, r.Height)
	return buf
}

// --------------------------------------------------------------------------
// PixelChunk (data) packets
// --------------------------------------------------------------------------

// DecodePixelChunk parses a data packet. A trailing partial triplet is
// dropped and counted in Discarded.
func DecodePixelChunk(payload []byte) (PixelChunk, error) {
	if len(payload) < ChunkHeaderSize {
		return PixelChunk{}, fmt.Errorf("%w: %d bytes, need %d", ErrMalformedChunk, len(payload), ChunkHeaderSize)
	}
	w := chunkWire(payload)
	if w.opcode() != OpcodePixelChunk {
		return PixelChunk{}, fmt.Errorf("%w: opcode 0x%02X", ErrMalformedChunk, w.opcode())
	}
	data := w.pixelData()
	n := w.pixelCount()
	pixels := make([]RGB, n)
	for i := range n {
		o := i * BytesPerPixel
		pixels[i] = RGB{R: data[o], G: data[o+1], B: data[o+2]}
	}
	return PixelChunk{
		FrameIndex:    w.frame(),
		SequenceIndex: w.sequence(),
		Reserved2:     w.reserved2(),
		Reserved3:     w.reserved3(),
		Reserved5:     w.reserved5(),
		Unknown6:      w.unknown6(),
		Pixels:        pixels,
		Discarded:     len(data) - n*BytesPerPixel,
	}, nil
}

// EncodeChunk builds one data packet carrying all of c.Pixels with c's
// header fields as given.
func EncodeChunk(c PixelChunk) []byte {
	buf := make([]byte, ChunkHeaderSize+len(c.Pixels)*BytesPerPixel)
	chunkWire(buf).setHeader(&c)
	o := ChunkOffsetPixels
	for _, px := range c.Pixels {
		buf[o], buf[o+1], buf[o+2] = px.R, px.G, px.B
		o += BytesPerPixel
	}
	return buf
}

// EncodePixelChunk splits c.Pixels into data packets of at most maxPixels
// pixels each, numbering them from sequence index 0 in emission order. The
// other header fields of c are copied into every packet. An empty pixel run
// yields a single header-only packet.
func EncodePixelChunk(c PixelChunk, maxPixels int) ([][]byte, error) {
	if maxPixels < 1 {
		return nil, fmt.Errorf("encode pixel chunk: maxPixels must be positive, got %d", maxPixels)
	}
	count := (len(c.Pixels) + maxPixels - 1) / maxPixels
	if count == 0 {
		count = 1
	}
	if count > 256 {
		return nil, fmt.Errorf("encode pixel chunk: %d pixels need %d packets, sequence index allows 256", len(c.Pixels), count)
	}
	out := make([][]byte, 0, count)
	for seq := range count {
		lo := seq * maxPixels
		hi := min(lo+maxPixels, len(c.Pixels))
		part := c
		part.SequenceIndex = uint8(seq)
		part.Pixels = c.Pixels[lo:hi]
		out = append(out, EncodeChunk(part))
	}
	return out, nil
}

// PadReport zero-pads a payload to the fixed report size. Payloads already
// that long are returned unchanged. Padding of three or more bytes decodes as
// black pixels, so data packets are only padded when fewer than
// BytesPerPixel bytes are added.
func PadReport(payload []byte, size int) []byte {
	if len(payload) >= size {
		return payload
	}
	buf := make([]byte, size)
	copy(buf, payload)
	return buf
}
