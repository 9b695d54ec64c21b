package render

import (
	"fmt"
	"image"
	"io"

	"github.com/mzyy94/dynatab/internal/dyna"
)

// Pixels reads img row-major into device colors. Translucent pixels come out
// blended over black.
func Pixels(img image.Image) []dyna.RGB {
	b := img.Bounds()
	out := make([]dyna.RGB, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, dyna.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8)})
		}
	}
	return out
}

// Load decodes a PNG or GIF picture and checks it fits the device grid.
func Load(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 || b.Dx() > 255 || b.Dy() > 255 {
		return nil, fmt.Errorf("%s image %dx%d does not fit a region", format, b.Dx(), b.Dy())
	}
	return img, nil
}
