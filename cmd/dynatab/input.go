package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mzyy94/dynatab/internal/dyna"
	"github.com/mzyy94/dynatab/internal/feed"
)

type inputFlags struct {
	raw            bool
	requirePolling bool
}

// openInput opens path, or stdin for "" and "-", as a payload source.
func openInput(path string, raw bool) (feed.Source, io.Closer, error) {
	var rc io.ReadCloser = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		rc = f
	}
	if !raw {
		return feed.NewHexReader(rc), rc, nil
	}
	src, err := feed.NewRawLogReader(rc)
	if err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("%s: %w", inputName(path), err)
	}
	return src, rc, nil
}

func inputName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

// decodeInput runs a full decode session over one input.
func decodeInput(ctx context.Context, path string, in inputFlags, opts ...dyna.Option) (*dyna.Session, error) {
	src, closer, err := openInput(path, in.raw)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	opts = append(opts, dyna.WithRequirePolling(in.requirePolling))
	s := dyna.NewSession(opts...)
	if err := feed.Decode(ctx, src, s); err != nil {
		return nil, fmt.Errorf("%s: %w", inputName(path), err)
	}
	s.Close()
	st := s.Stats()
	slog.Info("decoded", "input", inputName(path), "payloads", st.Payloads, "regions", st.Regions,
		"chunks", st.Chunks, "issues", len(s.Report().Issues), "compliant", s.Report().Compliant)
	return s, nil
}
