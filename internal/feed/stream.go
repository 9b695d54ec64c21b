package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mzyy94/dynatab/internal/dyna"
)

// Stream reads src on its own goroutine and delivers records on the returned
// channel. The error channel receives the terminal read error (nil at end of
// input or on cancellation) once both channels are done.
func Stream(ctx context.Context, src Source) (<-chan Record, <-chan error) {
	out := make(chan Record, 128)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				errc <- nil
				return
			default:
			}
			rec, err := src.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				errc <- err
				return
			}
			select {
			case <-ctx.Done():
				errc <- nil
				return
			case out <- rec:
			}
		}
	}()
	return out, errc
}

// Decode streams src into s. SET_REPORT payloads are fed to the session,
// GET_REPORT transfers are counted as polling and other requests are skipped.
// Decode errors are recorded by the session and do not stop the feed. A
// closed session is refused with dyna.ErrSessionClosed.
func Decode(ctx context.Context, src Source, s *dyna.Session) error {
	if s.Closed() {
		return dyna.ErrSessionClosed
	}
	records, errc := Stream(ctx, src)
	polls := 0
	for rec := range records {
		switch rec.Request {
		case dyna.RequestSetReport:
			if _, err := s.Feed(rec.Payload, rec.Ref); err != nil {
				slog.Debug("payload rejected", "ref", rec.Ref, "err", err)
			}
		case dyna.RequestGetReport:
			polls++
		default:
			slog.Debug("skipping request", "req", rec.Request, "ref", rec.Ref)
		}
	}
	s.NotePolling(polls)
	if err := <-errc; err != nil {
		return err
	}
	return ctx.Err()
}
