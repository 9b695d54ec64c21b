package dyna

import "slices"

// AnimationAssembler collects completed frames of one region and checks that
// every declared frame index is present with the region's geometry.
type AnimationAssembler struct {
	region Region
	frames map[uint8]PixelBuffer
}

// NewAnimationAssembler returns an assembler expecting region.FrameCount()
// frames.
func NewAnimationAssembler(region Region) *AnimationAssembler {
	return &AnimationAssembler{region: region, frames: make(map[uint8]PixelBuffer)}
}

// Region returns the shared region.
func (a *AnimationAssembler) Region() Region { return a.region }

// Add stores a completed frame under its frame index, replacing any earlier
// buffer for the same index.
func (a *AnimationAssembler) Add(buf PixelBuffer) {
	a.frames[buf.FrameIndex()] = buf
}

func (a *AnimationAssembler) drop(frameIndex uint8) {
	delete(a.frames, frameIndex)
}

// Len returns the number of distinct frames added.
func (a *AnimationAssembler) Len() int { return len(a.frames) }

// Extra returns frame indices at or above the declared count, ascending.
func (a *AnimationAssembler) Extra() []uint8 {
	var extra []uint8
	for idx := range a.frames {
		if int(idx) >= a.region.FrameCount() {
			extra = append(extra, idx)
		}
	}
	slices.Sort(extra)
	return extra
}

// Finalize returns the animation in frame index order when every index
// 0..FrameCount-1 is present and shares the region's width and height.
func (a *AnimationAssembler) Finalize() (Animation, error) {
	count := a.region.FrameCount()
	var missing, mismatched []uint8
	frames := make([]PixelBuffer, 0, count)
	for i := range count {
		buf, ok := a.frames[uint8(i)]
		if !ok {
			missing = append(missing, uint8(i))
			continue
		}
		r := buf.Region()
		if r.Width != a.region.Width || r.Height != a.region.Height || buf.Len() != a.region.PixelCount() {
			mismatched = append(mismatched, uint8(i))
			continue
		}
		frames = append(frames, buf)
	}
	if len(missing) > 0 || len(mismatched) > 0 {
		return Animation{}, &IncompleteAnimationError{Declared: count, Missing: missing, Mismatched: mismatched}
	}
	return Animation{region: a.region, frames: frames}, nil
}
