package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mzyy94/dynatab/internal/config"
	"github.com/mzyy94/dynatab/internal/dyna"
	"github.com/mzyy94/dynatab/internal/export"
	"github.com/mzyy94/dynatab/internal/metrics"
	"github.com/mzyy94/dynatab/internal/webui"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		in     inputFlags
		port   int
		noMDNS bool
	)

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Decode a capture and serve a browser preview",
		Long: `Decode a capture, then serve the decoded frames, animations, storyboard
and report over HTTP together with Prometheus metrics at /metrics.
The preview is advertised over mDNS as an _http._tcp service.

Examples:
  dynatab serve capture.txt
  dynatab serve --port 9000 --no-mdns --raw upload.bin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, settings, err := loadSettings(g)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = settings.ListenPort
			}
			in.requirePolling = in.requirePolling || settings.RequirePolling
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return runServe(cmd.Context(), path, in, port, settings.MDNSName, !noMDNS, store)
		},
	}

	cmd.Flags().BoolVar(&in.raw, "raw", false, "Input is a binary raw log instead of hex lines")
	cmd.Flags().BoolVar(&in.requirePolling, "require-polling", false, "Report MissingPolling when no GET_REPORT lines are present")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default from settings)")
	cmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "Do not advertise the preview over mDNS")

	return cmd
}

func runServe(parent context.Context, path string, in inputFlags, port int, name string, mdns bool, store *config.Store) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(metrics.WithRegistry(reg))

	s, err := decodeInput(ctx, path, in, dyna.WithObserver(collector))
	if err != nil {
		return err
	}
	res := webui.Result{
		Source:    inputName(path),
		Decoded:   s.Results(),
		Summary:   export.Build(s.Results(), s.Report(), s.Stats(), export.Options{}),
		DecodedAt: time.Now(),
	}

	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: logMiddleware(webui.NewHandler(res, port, store, reg)),
	}

	if mdns {
		mdnsServer, err := zeroconf.Register(
			name,
			"_http._tcp",
			"local.",
			port,
			[]string{
				"txtvers=1",
				"path=/",
				"compliant=" + strconv.FormatBool(res.Summary.Compliant),
			},
			nil,
		)
		if err != nil {
			return fmt.Errorf("mDNS registration failed: %w", err)
		}
		defer mdnsServer.Shutdown()
		slog.Info("mDNS registered", "name", name, "service", "_http._tcp")
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("preview server starting", "addr", addr, "url", webui.PreviewURL(port))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "err", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// responseRecorder captures the status code for logging.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(rec, r)
		slog.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
