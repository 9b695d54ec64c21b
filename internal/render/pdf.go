package render

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/go-pdf/fpdf"

	"github.com/mzyy94/dynatab/internal/dyna"
	"github.com/mzyy94/dynatab/internal/inspect"
)

const (
	ledMM     = 4.0  // printed size of one LED
	marginMM  = 10.0 // page margin
	captionMM = 12.0 // space under the frame for its caption
	pdfScale  = 8    // embedded image pixels per LED
)

// WritePDF writes a storyboard of frames, one page per frame.
func WritePDF(frames []dyna.PixelBuffer, outputPath string) error {
	data, err := GeneratePDF(frames)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}

// GeneratePDF renders frames into a PDF in memory. Each page shows the frame
// at a fixed LED pitch with its index, geometry and active pixel count.
func GeneratePDF(frames []dyna.PixelBuffer) ([]byte, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to write")
	}

	pdf := fpdf.New("P", "mm", "", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("dynatab", false)
	pdf.SetTitle("pixel storyboard", false)

	for i, f := range frames {
		r := f.Region()
		widthMM := float64(r.Width) * ledMM
		heightMM := float64(r.Height) * ledMM
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: widthMM + 2*marginMM, Ht: heightMM + 2*marginMM + captionMM})

		img, err := Scale(Image(f), pdfScale)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode frame %d PNG: %w", i, err)
		}
		name := fmt.Sprintf("frame%d", i)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
		pdf.ImageOptions(name, marginMM, marginMM, widthMM, heightMM, false, fpdf.ImageOptions{}, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		caption := fmt.Sprintf("frame %d  %s  %d active", f.FrameIndex(), r, len(inspect.Active(f)))
		pdf.Text(marginMM, marginMM+heightMM+7, caption)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	return out.Bytes(), nil
}
