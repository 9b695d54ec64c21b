package dyna

import "fmt"

// RGB is one pixel as sent on the wire.
type RGB struct {
	R, G, B uint8
}

// Black reports whether the pixel is off.
func (c RGB) Black() bool { return c.R == 0 && c.G == 0 && c.B == 0 }

// Hex returns the pixel as "rrggbb".
func (c RGB) Hex() string { return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B) }

// RegionMeta holds the init packet bytes whose meaning is unresolved.
// They are carried through unmodified.
type RegionMeta struct {
	Reserved1 byte   // byte 1, observed 0x00
	Reserved3 byte   // byte 3, observed 0x00
	Unknown4  uint16 // bytes 4-5 LE
	Unknown6  uint16 // bytes 6-7 LE
}

// Region is the rectangular area addressed by an init packet.
type Region struct {
	OriginX uint8
	OriginY uint8
	Width   uint8
	Height  uint8
	Mode    uint8 // frame count; 0x01 for a static picture
	Meta    RegionMeta
}

// PixelCount returns width*height.
func (r Region) PixelCount() int { return int(r.Width) * int(r.Height) }

// FrameCount returns the number of animation frames declared by Mode.
// A zero mode byte is treated as a static picture.
func (r Region) FrameCount() int {
	if r.Mode == 0 {
		return 1
	}
	return int(r.Mode)
}

// Animated reports whether the region declares more than one frame.
func (r Region) Animated() bool { return r.FrameCount() > 1 }

// Coord maps a linear pixel index to absolute device coordinates (row-major).
func (r Region) Coord(i int) (x, y int) {
	w := int(r.Width)
	if w == 0 {
		return int(r.OriginX), int(r.OriginY)
	}
	return int(r.OriginX) + i%w, int(r.OriginY) + i/w
}

// Index maps absolute device coordinates to a linear pixel index, or -1 when
// the point lies outside the region.
func (r Region) Index(x, y int) int {
	if !r.Contains(x, y) {
		return -1
	}
	return (y-int(r.OriginY))*int(r.Width) + (x - int(r.OriginX))
}

// Contains reports whether (x, y) lies inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= int(r.OriginX) && x < int(r.OriginX)+int(r.Width) &&
		y >= int(r.OriginY) && y < int(r.OriginY)+int(r.Height)
}

// BoundingBox reads bytes 10/11 as an inclusive end corner instead of a size
// and returns the geometry that interpretation implies. ok is false when the
// end corner lies before the origin.
func (r Region) BoundingBox() (width, height int, ok bool) {
	width = int(r.Width) - int(r.OriginX) + 1
	height = int(r.Height) - int(r.OriginY) + 1
	if width < 1 || height < 1 {
		return 0, 0, false
	}
	return width, height, true
}

// Validate checks the region can address at least one pixel.
func (r Region) Validate() error {
	if r.Width == 0 || r.Height == 0 {
		return fmt.Errorf("region %dx%d at (%d,%d): empty geometry", r.Width, r.Height, r.OriginX, r.OriginY)
	}
	return nil
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d) frames=%d", r.Width, r.Height, r.OriginX, r.OriginY, r.FrameCount())
}

// PixelChunk is one decoded data packet.
type PixelChunk struct {
	FrameIndex    uint8
	SequenceIndex uint8
	Reserved2     byte
	Reserved3     byte
	Reserved5     byte
	Unknown6      uint16 // bytes 6-7 LE
	Pixels        []RGB
	Discarded     int // trailing payload bytes that did not form a triplet
}

// sameContent reports whether two chunks carry identical header and pixels.
func (c PixelChunk) sameContent(o PixelChunk) bool {
	if c.FrameIndex != o.FrameIndex || c.SequenceIndex != o.SequenceIndex ||
		c.Reserved2 != o.Reserved2 || c.Reserved3 != o.Reserved3 ||
		c.Reserved5 != o.Reserved5 || c.Unknown6 != o.Unknown6 ||
		len(c.Pixels) != len(o.Pixels) {
		return false
	}
	for i := range c.Pixels {
		if c.Pixels[i] != o.Pixels[i] {
			return false
		}
	}
	return true
}

// PixelBuffer is the reassembled pixel data of one frame. It is immutable.
type PixelBuffer struct {
	region Region
	frame  uint8
	pixels []RGB
}

// NewPixelBuffer builds a buffer from exactly region.PixelCount() pixels.
// The slice is copied.
func NewPixelBuffer(region Region, frameIndex uint8, pixels []RGB) (PixelBuffer, error) {
	if len(pixels) != region.PixelCount() {
		return PixelBuffer{}, fmt.Errorf("pixel buffer: got %d pixels, region %s needs %d", len(pixels), region, region.PixelCount())
	}
	return PixelBuffer{region: region, frame: frameIndex, pixels: append([]RGB(nil), pixels...)}, nil
}

// Region returns the region the buffer was assembled for.
func (b PixelBuffer) Region() Region { return b.region }

// FrameIndex returns the animation frame index (0 for static pictures).
func (b PixelBuffer) FrameIndex() uint8 { return b.frame }

// Len returns the number of pixels.
func (b PixelBuffer) Len() int { return len(b.pixels) }

// Pixel returns the pixel at linear index i.
func (b PixelBuffer) Pixel(i int) RGB { return b.pixels[i] }

// Pixels returns a copy of the pixel data in row-major order.
func (b PixelBuffer) Pixels() []RGB { return append([]RGB(nil), b.pixels...) }

// At returns the pixel at absolute device coordinates.
func (b PixelBuffer) At(x, y int) (RGB, bool) {
	i := b.region.Index(x, y)
	if i < 0 || i >= len(b.pixels) {
		return RGB{}, false
	}
	return b.pixels[i], true
}

// Equal reports whether two buffers hold the same region, frame and pixels.
func (b PixelBuffer) Equal(o PixelBuffer) bool {
	if b.region != o.region || b.frame != o.frame || len(b.pixels) != len(o.pixels) {
		return false
	}
	for i := range b.pixels {
		if b.pixels[i] != o.pixels[i] {
			return false
		}
	}
	return true
}

// Animation is an ordered set of frames sharing one region. Playback loops in
// index order; the protocol carries no timing.
type Animation struct {
	region Region
	frames []PixelBuffer
}

// Region returns the shared region.
func (a Animation) Region() Region { return a.region }

// Len returns the number of frames.
func (a Animation) Len() int { return len(a.frames) }

// Frame returns frame i.
func (a Animation) Frame(i int) PixelBuffer { return a.frames[i] }

// At returns the frame shown at the given tick of an endless loop.
func (a Animation) At(tick int) PixelBuffer {
	n := len(a.frames)
	i := tick % n
	if i < 0 {
		i += n
	}
	return a.frames[i]
}
