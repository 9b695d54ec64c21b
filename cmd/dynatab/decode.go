package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzyy94/dynatab/internal/dyna"
	"github.com/mzyy94/dynatab/internal/export"
	"github.com/mzyy94/dynatab/internal/render"
)

var errNotCompliant = errors.New("capture is not protocol compliant")

func decodeCmd(g *globalFlags) *cobra.Command {
	var (
		in     inputFlags
		format string
		out    string
		strict bool
		pixels bool
		scale  int
	)

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a capture and print a summary",
		Long: `Decode a capture of SET_REPORT payloads and print a summary of every
region, frame and protocol issue.

With --out, every complete frame is written as PNG, every complete
animation as GIF, and all frames as a PDF storyboard.

Examples:
  dynatab decode capture.txt
  dynatab decode --format cbor capture.txt > summary.cbor
  dynatab decode --raw --out frames/ upload.bin
  tshark ... | dynatab decode --strict -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, settings, err := loadSettings(g)
			if err != nil {
				return err
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("scale") {
				scale = settings.Scale
			}
			in.requirePolling = in.requirePolling || settings.RequirePolling

			var path string
			if len(args) > 0 {
				path = args[0]
			}
			s, err := decodeInput(cmd.Context(), path, in)
			if err != nil {
				return err
			}
			sum := export.Build(s.Results(), s.Report(), s.Stats(), export.Options{Pixels: pixels})
			if err := export.Encode(cmd.OutOrStdout(), sum, f); err != nil {
				return err
			}
			if out != "" {
				if err := writeArtifacts(out, s.Results(), scale, settings.FrameDelay()); err != nil {
					return err
				}
			}
			if strict && !sum.Compliant {
				return errNotCompliant
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&in.raw, "raw", false, "Input is a binary raw log instead of hex lines")
	cmd.Flags().BoolVar(&in.requirePolling, "require-polling", false, "Report MissingPolling when no GET_REPORT lines are present")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Summary format (json, cbor)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Directory for PNG, GIF and PDF output")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the report is not compliant")
	cmd.Flags().BoolVar(&pixels, "pixels", false, "Include every pixel of complete frames in the summary")
	cmd.Flags().IntVar(&scale, "scale", 0, "Upscaling factor of image output (default from settings)")

	return cmd
}

// writeArtifacts renders decoded regions into dir.
func writeArtifacts(dir string, results []dyna.Decoded, scale int, delay time.Duration) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var all []dyna.PixelBuffer
	for i, d := range results {
		for _, f := range d.Frames {
			name := filepath.Join(dir, fmt.Sprintf("region%d_frame%d.png", i, f.FrameIndex()))
			if err := writeFile(name, func(w io.Writer) error { return render.WritePNG(w, f, scale) }); err != nil {
				return err
			}
			all = append(all, f)
		}
		if d.Animation != nil {
			name := filepath.Join(dir, fmt.Sprintf("region%d.gif", i))
			if err := writeFile(name, func(w io.Writer) error { return render.WriteGIF(w, *d.Animation, scale, delay) }); err != nil {
				return err
			}
		}
	}
	if len(all) == 0 {
		slog.Warn("no complete frames to write", "dir", dir)
		return nil
	}
	name := filepath.Join(dir, "storyboard.pdf")
	if err := render.WritePDF(all, name); err != nil {
		return err
	}
	slog.Info("wrote artifacts", "dir", dir, "frames", len(all))
	return nil
}

func writeFile(name string, write func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return f.Close()
}
