package dyna

import "fmt"

// Encoder builds the SET_REPORT payload sequence that uploads a picture or
// animation: one init packet, then every frame's data packets in order.
type Encoder struct {
	ChunkPixels int // pixels per data packet, DefaultChunkPixels when 0
	ReportSize  int // pad payloads toward this size, 0 disables padding
}

// Encode returns the payloads for frames drawn into region. region.Mode is
// set to the number of frames.
func (e Encoder) Encode(region Region, frames [][]RGB) ([][]byte, error) {
	if len(frames) == 0 || len(frames) > 255 {
		return nil, fmt.Errorf("encode: %d frames, want 1..255", len(frames))
	}
	if err := region.Validate(); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	region.Mode = uint8(len(frames))
	chunk := e.ChunkPixels
	if chunk == 0 {
		chunk = DefaultChunkPixels
	}

	out := [][]byte{e.pad(EncodeRegion(region))}
	for i, px := range frames {
		if len(px) != region.PixelCount() {
			return nil, fmt.Errorf("encode: frame %d has %d pixels, region %s needs %d", i, len(px), region, region.PixelCount())
		}
		packets, err := EncodePixelChunk(PixelChunk{FrameIndex: uint8(i), Pixels: px}, chunk)
		if err != nil {
			return nil, fmt.Errorf("encode frame %d: %w", i, err)
		}
		for _, p := range packets {
			out = append(out, e.pad(p))
		}
	}
	return out, nil
}

// pad fills short payloads to ReportSize only when the filler cannot be read
// back as a pixel.
func (e Encoder) pad(p []byte) []byte {
	if e.ReportSize == 0 || len(p) >= e.ReportSize {
		return p
	}
	if p[0] == OpcodePixelChunk && e.ReportSize-len(p) >= BytesPerPixel {
		return p
	}
	return PadReport(p, e.ReportSize)
}
