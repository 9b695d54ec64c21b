// Package render turns decoded frames into PNG, GIF and PDF previews.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/mzyy94/dynatab/internal/dyna"
)

// MaxScale bounds the upscaling factor of previews.
const MaxScale = 64

// Image returns the frame as an image the size of its region, with the
// region's first pixel at (0, 0).
func Image(buf dyna.PixelBuffer) *image.RGBA {
	r := buf.Region()
	w, h := int(r.Width), int(r.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range buf.Len() {
		if w == 0 {
			break
		}
		c := buf.Pixel(i)
		img.SetRGBA(i%w, i/w, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
	}
	return img
}

// Scale enlarges src by an integer factor with nearest-neighbour sampling
// so every LED stays a sharp square.
func Scale(src image.Image, factor int) (*image.RGBA, error) {
	if factor < 1 || factor > MaxScale {
		return nil, fmt.Errorf("scale %d out of range 1..%d", factor, MaxScale)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst, nil
}

// WritePNG encodes one frame as PNG.
func WritePNG(w io.Writer, buf dyna.PixelBuffer, scale int) error {
	img, err := Scale(Image(buf), scale)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// WriteGIF encodes an animation as an endlessly looping GIF with the given
// per-frame delay.
func WriteGIF(w io.Writer, anim dyna.Animation, scale int, delay time.Duration) error {
	if anim.Len() == 0 {
		return fmt.Errorf("animation has no frames")
	}
	pal := framePalette(anim)
	out := &gif.GIF{LoopCount: 0}
	centis := int(delay / (10 * time.Millisecond))
	for i := range anim.Len() {
		img, err := Scale(Image(anim.Frame(i)), scale)
		if err != nil {
			return err
		}
		p := image.NewPaletted(img.Bounds(), pal)
		xdraw.Draw(p, p.Bounds(), img, image.Point{}, xdraw.Src)
		out.Image = append(out.Image, p)
		out.Delay = append(out.Delay, centis)
	}
	return gif.EncodeAll(w, out)
}

// framePalette collects the distinct colors of an animation. More than 256
// colors fall back to the web-safe palette.
func framePalette(anim dyna.Animation) color.Palette {
	seen := make(map[dyna.RGB]bool)
	pal := color.Palette{color.RGBA{A: 0xFF}}
	seen[dyna.RGB{}] = true
	for f := range anim.Len() {
		buf := anim.Frame(f)
		for i := range buf.Len() {
			c := buf.Pixel(i)
			if seen[c] {
				continue
			}
			seen[c] = true
			pal = append(pal, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
			if len(pal) > 256 {
				return palette.WebSafe
			}
		}
	}
	return pal
}
