// Package inspect derives diagnostic views of decoded frames: color labels,
// active pixels, corner states and per-position color sequences across an
// animation.
package inspect

import (
	"fmt"

	"github.com/mzyy94/dynatab/internal/dyna"
)

var labels = map[dyna.RGB]string{
	{R: 0xFF}: "Bright Red",
	{R: 0x7F}: "Dark Red",
	{G: 0xFF}: "Green",
	{B: 0xFF}: "Blue",
	{G: 0x7F}: "Green (127)",
	{}:        "Black",
}

// Label names well-known test colors and falls back to RGB(rr,gg,bb).
func Label(c dyna.RGB) string {
	if s, ok := labels[c]; ok {
		return s
	}
	return fmt.Sprintf("RGB(%02x,%02x,%02x)", c.R, c.G, c.B)
}

// Pixel is one lit pixel of a frame in device coordinates.
type Pixel struct {
	Index int      `json:"index"`
	X     int      `json:"x"`
	Y     int      `json:"y"`
	Color dyna.RGB `json:"color"`
	Label string   `json:"label"`
}

// Active returns the non-black pixels of buf in index order.
func Active(buf dyna.PixelBuffer) []Pixel {
	var out []Pixel
	r := buf.Region()
	for i := range buf.Len() {
		c := buf.Pixel(i)
		if c.Black() {
			continue
		}
		x, y := r.Coord(i)
		out = append(out, Pixel{Index: i, X: x, Y: y, Color: c, Label: Label(c)})
	}
	return out
}

// Corner is the state of one corner of a region.
type Corner struct {
	Name  string   `json:"name"`
	X     int      `json:"x"`
	Y     int      `json:"y"`
	Color dyna.RGB `json:"color"`
	Lit   bool     `json:"lit"`
}

// Corners returns the top-left, top-right, bottom-left and bottom-right
// pixels of the frame's region.
func Corners(buf dyna.PixelBuffer) []Corner {
	r := buf.Region()
	if r.Width == 0 || r.Height == 0 {
		return nil
	}
	x0, y0 := int(r.OriginX), int(r.OriginY)
	x1, y1 := x0+int(r.Width)-1, y0+int(r.Height)-1
	pos := []struct {
		name string
		x, y int
	}{
		{"Top-Left", x0, y0},
		{"Top-Right", x1, y0},
		{"Bottom-Left", x0, y1},
		{"Bottom-Right", x1, y1},
	}
	out := make([]Corner, 0, len(pos))
	for _, p := range pos {
		c, _ := buf.At(p.x, p.y)
		out = append(out, Corner{Name: p.name, X: p.x, Y: p.y, Color: c, Lit: !c.Black()})
	}
	return out
}

// Track is the color sequence shown at one position over an animation.
type Track struct {
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Colors []dyna.RGB `json:"colors"`
}

// Tracks returns, for every position lit in at least one frame, its color in
// each frame. Positions are ordered by first appearance in index order.
func Tracks(anim dyna.Animation) []Track {
	if anim.Len() == 0 {
		return nil
	}
	r := anim.Region()
	lit := make(map[int]bool)
	var order []int
	for f := range anim.Len() {
		for _, p := range Active(anim.Frame(f)) {
			if !lit[p.Index] {
				lit[p.Index] = true
				order = append(order, p.Index)
			}
		}
	}
	out := make([]Track, 0, len(order))
	for _, i := range order {
		x, y := r.Coord(i)
		t := Track{X: x, Y: y, Colors: make([]dyna.RGB, anim.Len())}
		for f := range anim.Len() {
			t.Colors[f] = anim.Frame(f).Pixel(i)
		}
		out = append(out, t)
	}
	return out
}
