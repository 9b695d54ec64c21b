package dyna

import "encoding/binary"

// regionWire gives named access to the fields of an init packet.
// Callers must check len >= RegionSize first.
type regionWire []byte

func (w regionWire) opcode() byte    { return w[RegionOffsetOpcode] }
func (w regionWire) reserved1() byte { return w[RegionOffsetReserved1] }
func (w regionWire) mode() byte      { return w[RegionOffsetMode] }
func (w regionWire) reserved3() byte { return w[RegionOffsetReserved3] }
func (w regionWire) unknown4() uint16 {
	return binary.LittleEndian.Uint16(w[RegionOffsetUnknown4 : RegionOffsetUnknown4+2])
}
func (w regionWire) unknown6() uint16 {
	return binary.LittleEndian.Uint16(w[RegionOffsetUnknown6 : RegionOffsetUnknown6+2])
}
func (w regionWire) originX() byte { return w[RegionOffsetOriginX] }
func (w regionWire) originY() byte { return w[RegionOffsetOriginY] }
func (w regionWire) width() byte   { return w[RegionOffsetWidth] }
func (w regionWire) height() byte  { return w[RegionOffsetHeight] }

func (w regionWire) setOpcode()          { w[RegionOffsetOpcode] = OpcodeRegion }
func (w regionWire) setReserved1(v byte) { w[RegionOffsetReserved1] = v }
func (w regionWire) setMode(v byte)      { w[RegionOffsetMode] = v }
func (w regionWire) setReserved3(v byte) { w[RegionOffsetReserved3] = v }
func (w regionWire) setUnknown4(v uint16) {
	binary.LittleEndian.PutUint16(w[RegionOffsetUnknown4:RegionOffsetUnknown4+2], v)
}
func (w regionWire) setUnknown6(v uint16) {
	binary.LittleEndian.PutUint16(w[RegionOffsetUnknown6:RegionOffsetUnknown6+2], v)
}
func (w regionWire) setOrigin(x, y byte) {
	w[RegionOffsetOriginX] = x
	w[RegionOffsetOriginY] = y
}
func (w regionWire) setSize(width, height byte) {
	w[RegionOffsetWidth] = width
	w[RegionOffsetHeight] = height
}

// chunkWire gives named access to the fields of a data packet.
// Callers must check len >= ChunkHeaderSize first.
type chunkWire []byte

func (w chunkWire) opcode() byte    { return w[ChunkOffsetOpcode] }
func (w chunkWire) frame() byte     { return w[ChunkOffsetFrame] }
func (w chunkWire) reserved2() byte { return w[ChunkOffsetReserved2] }
func (w chunkWire) reserved3() byte { return w[ChunkOffsetReserved3] }
func (w chunkWire) sequence() byte  { return w[ChunkOffsetSequence] }
func (w chunkWire) reserved5() byte { return w[ChunkOffsetReserved5] }
func (w chunkWire) unknown6() uint16 {
	return binary.LittleEndian.Uint16(w[ChunkOffsetUnknown6 : ChunkOffsetUnknown6+2])
}

// pixelData returns the bytes after the header, including any trailing
// partial triplet.
func (w chunkWire) pixelData() []byte { return w[ChunkOffsetPixels:] }

// pixelCount is the number of complete triplets in the packet.
func (w chunkWire) pixelCount() int { return len(w.pixelData()) / BytesPerPixel }

func (w chunkWire) setHeader(c *PixelChunk) {
	w[ChunkOffsetOpcode] = OpcodePixelChunk
	w[ChunkOffsetFrame] = c.FrameIndex
	w[ChunkOffsetReserved2] = c.Reserved2
	w[ChunkOffsetReserved3] = c.Reserved3
	w[ChunkOffsetSequence] = c.SequenceIndex
	w[ChunkOffsetReserved5] = c.Reserved5
	binary.LittleEndian.PutUint16(w[ChunkOffsetUnknown6:ChunkOffsetUnknown6+2], c.Unknown6)
}
