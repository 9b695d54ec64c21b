package webui

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mzyy94/dynatab/internal/config"
	"github.com/mzyy94/dynatab/internal/dyna"
	"github.com/mzyy94/dynatab/internal/export"
	"github.com/mzyy94/dynatab/internal/metrics"
	"github.com/mzyy94/dynatab/internal/render"
)

//go:embed static
var staticFS embed.FS

// Result is the immutable output of a decode run served by the preview.
type Result struct {
	Source    string
	Decoded   []dyna.Decoded
	Summary   export.Summary
	DecodedAt time.Time
}

type handler struct {
	res        Result
	settings   *config.Store
	listenPort int
}

// NewHandler creates an HTTP handler for the preview UI. gatherer may be nil
// to disable /metrics.
func NewHandler(res Result, listenPort int, settings *config.Store, gatherer prometheus.Gatherer) http.Handler {
	if settings == nil {
		settings = config.NewMemoryStore()
	}
	h := &handler{res: res, settings: settings, listenPort: listenPort}
	mux := http.NewServeMux()
	staticContent, _ := fs.Sub(staticFS, "static")
	mux.HandleFunc("GET /api/status", h.handleStatus)
	mux.HandleFunc("GET /api/report", h.handleReport)
	mux.HandleFunc("GET /api/regions/{region}/frames/{frame}", h.handleFrame)
	mux.HandleFunc("GET /api/regions/{region}/animation", h.handleAnimation)
	mux.HandleFunc("GET /api/storyboard", h.handleStoryboard)
	mux.HandleFunc("GET /api/settings", h.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", h.handlePutSettings)
	if gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(gatherer))
	}
	mux.Handle("GET /", http.FileServer(http.FS(staticContent)))
	return mux
}

type statusResponse struct {
	Source     string         `json:"source"`
	Compliant  bool           `json:"compliant"`
	Issues     int            `json:"issues"`
	Stats      dyna.Stats     `json:"stats"`
	Regions    []regionStatus `json:"regions"`
	DecodedAt  string         `json:"decodedAt"`
	UpdatedAt  string         `json:"updatedAt"`
	FrameDelay int            `json:"frameDelayMs"`
	PreviewURL string         `json:"previewUrl"`
}

type regionStatus struct {
	Geometry  string `json:"geometry"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Frames    []int  `json:"frames"`
	Animated  bool   `json:"animated"`
	Animation bool   `json:"animation"` // a GIF is available
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Source:     h.res.Source,
		Compliant:  h.res.Summary.Compliant,
		Issues:     len(h.res.Summary.Issues),
		Stats:      h.res.Summary.Stats,
		Regions:    make([]regionStatus, 0, len(h.res.Decoded)),
		DecodedAt:  h.res.DecodedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
		FrameDelay: h.settings.Get().FrameDelayMS,
		PreviewURL: PreviewURL(h.listenPort),
	}
	for _, d := range h.res.Decoded {
		rs := regionStatus{
			Geometry:  d.Region.String(),
			Width:     int(d.Region.Width),
			Height:    int(d.Region.Height),
			Frames:    []int{},
			Animated:  d.Region.Animated(),
			Animation: d.Animation != nil,
		}
		for _, f := range d.Frames {
			rs.Frames = append(rs.Frames, int(f.FrameIndex()))
		}
		resp.Regions = append(resp.Regions, rs)
	}
	writeJSON(w, resp)
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.res.Summary)
}

func (h *handler) region(w http.ResponseWriter, r *http.Request) (dyna.Decoded, bool) {
	i, err := strconv.Atoi(r.PathValue("region"))
	if err != nil || i < 0 || i >= len(h.res.Decoded) {
		http.Error(w, "region not found", http.StatusNotFound)
		return dyna.Decoded{}, false
	}
	return h.res.Decoded[i], true
}

func (h *handler) handleFrame(w http.ResponseWriter, r *http.Request) {
	d, ok := h.region(w, r)
	if !ok {
		return
	}
	idx, err := strconv.ParseUint(r.PathValue("frame"), 10, 8)
	if err != nil {
		http.Error(w, "invalid frame index", http.StatusBadRequest)
		return
	}
	buf, ok := d.Frame(uint8(idx))
	if !ok {
		http.Error(w, "frame not decoded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := render.WritePNG(w, buf, h.settings.Get().Scale); err != nil {
		slog.Warn("frame render failed", "frame", idx, "err", err)
	}
}

func (h *handler) handleAnimation(w http.ResponseWriter, r *http.Request) {
	d, ok := h.region(w, r)
	if !ok {
		return
	}
	if d.Animation == nil {
		http.Error(w, "no complete animation", http.StatusNotFound)
		return
	}
	s := h.settings.Get()
	w.Header().Set("Content-Type", "image/gif")
	if err := render.WriteGIF(w, *d.Animation, s.Scale, s.FrameDelay()); err != nil {
		slog.Warn("animation render failed", "err", err)
	}
}

func (h *handler) handleStoryboard(w http.ResponseWriter, r *http.Request) {
	var frames []dyna.PixelBuffer
	for _, d := range h.res.Decoded {
		frames = append(frames, d.Frames...)
	}
	if len(frames) == 0 {
		http.Error(w, "no decoded frames", http.StatusNotFound)
		return
	}
	data, err := render.GeneratePDF(frames)
	if err != nil {
		slog.Warn("storyboard render failed", "err", err)
		http.Error(w, "failed to render storyboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(data)
}

// --- Settings API ---

func (h *handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.settings.Get())
}

func (h *handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	s := h.settings.Get()
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.settings.Update(s); err != nil {
		slog.Warn("settings save failed", "err", err)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
