package inspect

import (
	"testing"

	"github.com/mzyy94/dynatab/internal/dyna"
)

var (
	red     = dyna.RGB{R: 0xFF}
	darkRed = dyna.RGB{R: 0x7F}
	green   = dyna.RGB{G: 0xFF}
	blue    = dyna.RGB{B: 0xFF}
)

func TestLabel(t *testing.T) {
	tests := []struct {
		c    dyna.RGB
		want string
	}{
		{red, "Bright Red"},
		{darkRed, "Dark Red"},
		{green, "Green"},
		{blue, "Blue"},
		{dyna.RGB{G: 0x7F}, "Green (127)"},
		{dyna.RGB{}, "Black"},
		{dyna.RGB{R: 0x12, G: 0x34, B: 0x56}, "RGB(12,34,56)"},
	}
	for _, tt := range tests {
		if got := Label(tt.c); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.c, got, tt.want)
		}
	}
}

// cornerFrame lights the four corners of the 60x9 grid.
func cornerFrame(t *testing.T, frame uint8, tl, tr, bl, br dyna.RGB) dyna.PixelBuffer {
	t.Helper()
	r := dyna.Region{Width: 60, Height: 9, Mode: 4}
	px := make([]dyna.RGB, r.PixelCount())
	px[0], px[59], px[480], px[539] = tl, tr, bl, br
	buf, err := dyna.NewPixelBuffer(r, frame, px)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestActive(t *testing.T) {
	buf := cornerFrame(t, 0, red, green, blue, darkRed)
	got := Active(buf)
	want := []Pixel{
		{Index: 0, X: 0, Y: 0, Color: red, Label: "Bright Red"},
		{Index: 59, X: 59, Y: 0, Color: green, Label: "Green"},
		{Index: 480, X: 0, Y: 8, Color: blue, Label: "Blue"},
		{Index: 539, X: 59, Y: 8, Color: darkRed, Label: "Dark Red"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d active pixels, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestActiveWithOrigin(t *testing.T) {
	r := dyna.Region{OriginX: 10, OriginY: 2, Width: 3, Height: 2, Mode: 1}
	px := make([]dyna.RGB, 6)
	px[4] = blue
	buf, _ := dyna.NewPixelBuffer(r, 0, px)
	got := Active(buf)
	if len(got) != 1 || got[0].X != 11 || got[0].Y != 3 {
		t.Errorf("Active = %+v, want one pixel at (11,3)", got)
	}
}

func TestCorners(t *testing.T) {
	buf := cornerFrame(t, 0, red, dyna.RGB{}, blue, darkRed)
	got := Corners(buf)
	if len(got) != 4 {
		t.Fatalf("got %d corners", len(got))
	}
	if got[1].Name != "Top-Right" || got[1].X != 59 || got[1].Y != 0 || got[1].Lit {
		t.Errorf("top-right = %+v", got[1])
	}
	if got[3].Name != "Bottom-Right" || got[3].Color != darkRed || !got[3].Lit {
		t.Errorf("bottom-right = %+v", got[3])
	}
}

func TestTracks(t *testing.T) {
	r := dyna.Region{Width: 60, Height: 9, Mode: 4}
	b := dyna.NewAnimationAssembler(r)
	b.Add(cornerFrame(t, 0, red, green, blue, darkRed))
	b.Add(cornerFrame(t, 1, darkRed, red, green, blue))
	b.Add(cornerFrame(t, 2, blue, darkRed, red, green))
	b.Add(cornerFrame(t, 3, green, blue, darkRed, red))
	anim, err := b.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	tracks := Tracks(anim)
	if len(tracks) != 4 {
		t.Fatalf("got %d tracks, want 4", len(tracks))
	}
	tl := tracks[0]
	if tl.X != 0 || tl.Y != 0 {
		t.Fatalf("first track at (%d,%d)", tl.X, tl.Y)
	}
	want := []dyna.RGB{red, darkRed, blue, green}
	for i, c := range want {
		if tl.Colors[i] != c {
			t.Errorf("top-left frame %d = %v, want %v", i, tl.Colors[i], c)
		}
	}
}
