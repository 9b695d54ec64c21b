package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mzyy94/dynatab/internal/dyna"
	"github.com/mzyy94/dynatab/internal/feed"
	"github.com/mzyy94/dynatab/internal/render"
)

type encodeOptions struct {
	color   string
	images  []string
	originX int
	originY int
	width   int
	height  int
	raw     bool
	out     string
}

func encodeCmd(g *globalFlags) *cobra.Command {
	var opts encodeOptions

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build the payloads that upload a picture or animation",
		Long: `Build the SET_REPORT payload sequence for a solid color or for one or
more PNG/GIF pictures. Several --frame images make an animation.

The payloads are decoded back before they are written; any incomplete
frame or animation aborts the command.

Examples:
  dynatab encode --color ff0000
  dynatab encode --frame logo.png --x 10 --y 2
  dynatab encode --frame a.png --frame b.png --raw --out anim.bin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, settings, err := loadSettings(g)
			if err != nil {
				return err
			}
			if opts.width == 0 {
				opts.width = settings.GridWidth
			}
			if opts.height == 0 {
				opts.height = settings.GridHeight
			}
			region, frames, err := buildFrames(opts)
			if err != nil {
				return err
			}
			enc := dyna.Encoder{ChunkPixels: settings.ChunkPixels, ReportSize: settings.ReportSize}
			payloads, err := enc.Encode(region, frames)
			if err != nil {
				return err
			}
			if err := verifyPayloads(payloads); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.out != "" && opts.out != "-" {
				f, err := os.Create(opts.out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := writePayloads(w, payloads, opts.raw); err != nil {
				return err
			}
			slog.Info("encoded", "region", region.String(), "frames", len(frames), "payloads", len(payloads))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.color, "color", "ff0000", "Solid fill color as rrggbb when no --frame is given")
	cmd.Flags().StringArrayVar(&opts.images, "frame", nil, "PNG or GIF picture for one frame (repeat for animations)")
	cmd.Flags().IntVar(&opts.originX, "x", 0, "Region origin column")
	cmd.Flags().IntVar(&opts.originY, "y", 0, "Region origin row")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Region width for --color (default grid width)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Region height for --color (default grid height)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Write a binary raw log instead of hex lines")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default stdout)")

	return cmd
}

// buildFrames returns the region and frame pixels described by opts. Images
// set the region size; every image must share it.
func buildFrames(opts encodeOptions) (dyna.Region, [][]dyna.RGB, error) {
	if opts.originX < 0 || opts.originX > 255 || opts.originY < 0 || opts.originY > 255 {
		return dyna.Region{}, nil, fmt.Errorf("origin (%d,%d) out of range", opts.originX, opts.originY)
	}
	region := dyna.Region{OriginX: uint8(opts.originX), OriginY: uint8(opts.originY)}

	if len(opts.images) == 0 {
		c, err := parseColor(opts.color)
		if err != nil {
			return dyna.Region{}, nil, err
		}
		if opts.width < 1 || opts.width > 255 || opts.height < 1 || opts.height > 255 {
			return dyna.Region{}, nil, fmt.Errorf("size %dx%d out of range", opts.width, opts.height)
		}
		region.Width, region.Height = uint8(opts.width), uint8(opts.height)
		px := make([]dyna.RGB, region.PixelCount())
		for i := range px {
			px[i] = c
		}
		return region, [][]dyna.RGB{px}, nil
	}

	var frames [][]dyna.RGB
	for i, name := range opts.images {
		f, err := os.Open(name)
		if err != nil {
			return dyna.Region{}, nil, err
		}
		img, err := render.Load(f)
		f.Close()
		if err != nil {
			return dyna.Region{}, nil, fmt.Errorf("%s: %w", name, err)
		}
		b := img.Bounds()
		if i == 0 {
			region.Width, region.Height = uint8(b.Dx()), uint8(b.Dy())
		} else if b.Dx() != int(region.Width) || b.Dy() != int(region.Height) {
			return dyna.Region{}, nil, fmt.Errorf("%s: %dx%d differs from first frame %dx%d",
				name, b.Dx(), b.Dy(), region.Width, region.Height)
		}
		frames = append(frames, render.Pixels(img))
	}
	return region, frames, nil
}

func parseColor(s string) (dyna.RGB, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || len(b) != 3 {
		return dyna.RGB{}, fmt.Errorf("color %q is not rrggbb", s)
	}
	return dyna.RGB{R: b[0], G: b[1], B: b[2]}, nil
}

// verifyPayloads decodes payloads back and fails on any incomplete frame,
// incomplete animation or error-severity issue.
func verifyPayloads(payloads [][]byte) error {
	s := dyna.NewSession()
	for _, p := range payloads {
		if _, err := s.Feed(p, dyna.NoRef); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
	}
	var errs []error
	for _, d := range s.Close() {
		for _, fe := range d.Incomplete {
			errs = append(errs, fe)
		}
		if d.AnimationErr != nil {
			errs = append(errs, d.AnimationErr)
		}
	}
	for _, is := range s.Report().Issues {
		if is.Severity == dyna.SeverityError {
			errs = append(errs, errors.New(is.String()))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("verify: %w", errors.Join(errs...))
	}
	return nil
}

func writePayloads(w io.Writer, payloads [][]byte, raw bool) error {
	if !raw {
		for _, p := range payloads {
			if err := feed.WriteHex(w, feed.Record{Payload: p, Request: dyna.RequestSetReport}); err != nil {
				return err
			}
		}
		return nil
	}
	lw, err := feed.NewRawLogWriter(w)
	if err != nil {
		return err
	}
	for _, p := range payloads {
		if err := lw.Record(p); err != nil {
			return err
		}
	}
	return lw.Close()
}
