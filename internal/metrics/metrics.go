// Package metrics exports decode session events as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mzyy94/dynatab/internal/dyna"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "dynatab").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = registry }
}

// Collector implements dyna.Observer.
type Collector struct {
	packets  *prometheus.CounterVec
	issues   *prometheus.CounterVec
	frames   prometheus.Counter
	regionPx prometheus.Gauge
}

var _ dyna.Observer = (*Collector)(nil)

// New registers the decode metrics and returns the collector.
func New(opts ...Option) *Collector {
	cfg := Config{Namespace: "dynatab", Registry: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Collector{
		packets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "packets_total",
			Help:      "Payloads decoded, by packet kind",
		}, []string{"kind"}),

		issues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "issues_total",
			Help:      "Protocol issues raised, by kind and severity",
		}, []string{"kind", "severity"}),

		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "frames_completed_total",
			Help:      "Frames that reached the complete state",
		}),

		regionPx: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "region_pixels",
			Help:      "Pixel count of the most recently completed frame's region",
		}),
	}
}

func (c *Collector) PacketDecoded(kind dyna.PacketKind) {
	c.packets.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) IssueRaised(issue dyna.Issue) {
	c.issues.WithLabelValues(string(issue.Kind), string(issue.Severity)).Inc()
}

func (c *Collector) FrameCompleted(region dyna.Region, _ uint8) {
	c.frames.Inc()
	c.regionPx.Set(float64(region.PixelCount()))
}

// Handler serves the metrics gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
