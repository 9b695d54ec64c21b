package dyna

// Packet opcodes (payload byte 0).
const (
	OpcodeRegion     byte = 0xA9 // init packet: origin, size, frame count
	OpcodePixelChunk byte = 0x29 // data packet: RGB triplets for one frame
)

// HID class requests seen on the control endpoint.
const (
	RequestGetReport byte = 0x01 // device polling, not decoded
	RequestSetReport byte = 0x09 // carries Region / PixelChunk payloads
)

// Payload sizes.
const (
	MinPayloadSize  = 4  // enough to read the opcode and classify
	RegionSize      = 12 // fixed init packet length
	ChunkHeaderSize = 8  // data packet header before pixel data
	BytesPerPixel   = 3
	ReportSize      = 64 // observed HID report length

	// DefaultChunkPixels is the number of triplets that fit in one report.
	DefaultChunkPixels = (ReportSize - ChunkHeaderSize) / BytesPerPixel
)

// Device grid.
const (
	DisplayWidth  = 60
	DisplayHeight = 9
)

// Region packet field offsets.
const (
	RegionOffsetOpcode    = 0
	RegionOffsetReserved1 = 1
	RegionOffsetMode      = 2
	RegionOffsetReserved3 = 3
	RegionOffsetUnknown4  = 4 // uint16 LE at [4:6]
	RegionOffsetUnknown6  = 6 // uint16 LE at [6:8]
	RegionOffsetOriginX   = 8
	RegionOffsetOriginY   = 9
	RegionOffsetWidth     = 10
	RegionOffsetHeight    = 11
)

// PixelChunk packet field offsets.
const (
	ChunkOffsetOpcode    = 0
	ChunkOffsetFrame     = 1
	ChunkOffsetReserved2 = 2
	ChunkOffsetReserved3 = 3
	ChunkOffsetSequence  = 4
	ChunkOffsetReserved5 = 5
	ChunkOffsetUnknown6  = 6 // uint16 LE at [6:8]
	ChunkOffsetPixels    = 8
)

// ModeStatic is the mode/frame-count value of a single-frame picture.
const ModeStatic byte = 0x01
