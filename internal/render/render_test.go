package render

import (
	"bytes"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
	"time"

	"github.com/mzyy94/dynatab/internal/dyna"
)

func testFrame(t *testing.T, frame uint8, lit int) dyna.PixelBuffer {
	t.Helper()
	r := dyna.Region{Width: 60, Height: 9, Mode: 2}
	px := make([]dyna.RGB, r.PixelCount())
	px[lit] = dyna.RGB{R: 0xFF}
	buf, err := dyna.NewPixelBuffer(r, frame, px)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestImage(t *testing.T) {
	img := Image(testFrame(t, 0, 61))
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 9 {
		t.Fatalf("bounds = %v", b)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{R: 0xFF, A: 0xFF}) {
		t.Errorf("(1,1) = %v, want red", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 0xFF}) {
		t.Errorf("(0,0) = %v, want opaque black", got)
	}
}

func TestScale(t *testing.T) {
	img, err := Scale(Image(testFrame(t, 0, 0)), 4)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 240 || b.Dy() != 36 {
		t.Fatalf("bounds = %v", b)
	}
	if img.RGBAAt(3, 3).R != 0xFF || img.RGBAAt(4, 0).R != 0 {
		t.Error("nearest-neighbour block not preserved")
	}
	for _, f := range []int{0, MaxScale + 1} {
		if _, err := Scale(Image(testFrame(t, 0, 0)), f); err == nil {
			t.Errorf("Scale(%d) succeeded", f)
		}
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, testFrame(t, 0, 0), 2); err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 120 || cfg.Height != 18 {
		t.Errorf("size = %dx%d, want 120x18", cfg.Width, cfg.Height)
	}
}

func TestWriteGIF(t *testing.T) {
	r := dyna.Region{Width: 60, Height: 9, Mode: 2}
	a := dyna.NewAnimationAssembler(r)
	a.Add(testFrame(t, 0, 0))
	a.Add(testFrame(t, 1, 59))
	anim, err := a.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteGIF(&buf, anim, 1, 250*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Image) != 2 || g.Delay[0] != 25 {
		t.Fatalf("frames %d delay %v", len(g.Image), g.Delay)
	}
	if r, _, _, alpha := g.Image[1].At(59, 0).RGBA(); r>>8 != 0xFF || alpha == 0 {
		t.Error("frame 1 lit pixel lost")
	}
}

func TestWriteGIFEmpty(t *testing.T) {
	if err := WriteGIF(&bytes.Buffer{}, dyna.Animation{}, 1, time.Second); err == nil {
		t.Error("empty animation encoded")
	}
}

func TestGeneratePDF(t *testing.T) {
	data, err := GeneratePDF([]dyna.PixelBuffer{testFrame(t, 0, 0), testFrame(t, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", data[:8])
	}
	if _, err := GeneratePDF(nil); err == nil {
		t.Error("no frames accepted")
	}
}

func TestPixelsRoundTrip(t *testing.T) {
	buf := testFrame(t, 0, 65)
	var out bytes.Buffer
	if err := WritePNG(&out, buf, 1); err != nil {
		t.Fatal(err)
	}
	img, err := Load(&out)
	if err != nil {
		t.Fatal(err)
	}
	px := Pixels(img)
	if len(px) != 540 || px[65] != (dyna.RGB{R: 0xFF}) || !px[0].Black() {
		t.Errorf("pixels after PNG round trip: len %d, [65]=%v", len(px), px[65])
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("garbage accepted")
	}
}
