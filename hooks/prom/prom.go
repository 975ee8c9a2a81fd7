// Package prom exports load lifecycle events as Prometheus metrics.
//
// Metrics (namespace defaults to "resload"):
//   - resload_loads_started_total: loads handed to a loader
//   - resload_loads_total{result}: terminal outcomes (loaded, not_found, load_failed)
//   - resload_load_duration_seconds: time spent in the loader for successful loads
//   - resload_load_bytes: payload size of successful loads
//   - resload_loads_inflight: loads started but not yet terminal
//   - resload_unknown_keys_total: Get calls for keys never issued
//   - resload_terminal_overwrites_total: refused writes to terminal entries
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/resload"
)

type Config struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	// Buckets for load duration. Default: prometheus.DefBuckets
	Buckets []float64
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

type Option func(*Config)

func WithNamespace(ns string) Option { return func(c *Config) { c.Namespace = ns } }

func WithSubsystem(s string) Option { return func(c *Config) { c.Subsystem = s } }

func WithConstLabels(l prometheus.Labels) Option { return func(c *Config) { c.ConstLabels = l } }

func WithBuckets(b []float64) Option { return func(c *Config) { c.Buckets = b } }

func WithRegistry(r prometheus.Registerer) Option { return func(c *Config) { c.Registry = r } }

func defaultConfig() Config {
	return Config{
		Namespace: "resload",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Result label values.
const (
	ResultLoaded     = "loaded"
	ResultNotFound   = "not_found"
	ResultLoadFailed = "load_failed"
)

type Hooks struct {
	started    prometheus.Counter
	results    *prometheus.CounterVec
	duration   prometheus.Histogram
	size       prometheus.Histogram
	inflight   prometheus.Gauge
	unknown    prometheus.Counter
	overwrites prometheus.Counter
}

var _ resload.Hooks = (*Hooks)(nil)

// New registers the metrics and returns hooks that update them.
// It panics if a metric with the same name is already registered, like
// promauto.
func New(opts ...Option) *Hooks {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	f := promauto.With(cfg.Registry)
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: name, Help: help, ConstLabels: cfg.ConstLabels,
		})
	}

	return &Hooks{
		started: counter("loads_started_total", "Total number of loads handed to a loader"),
		results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "loads_total",
			Help:        "Total number of finished loads by result",
			ConstLabels: cfg.ConstLabels,
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "load_duration_seconds",
			Help:        "Loader time for successful loads in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),
		size: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "load_bytes",
			Help:        "Payload size of successful loads in bytes",
			ConstLabels: cfg.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1024, 4, 8), // 1KB to 16MB
		}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "loads_inflight",
			Help:        "Loads started but not yet terminal",
			ConstLabels: cfg.ConstLabels,
		}),
		unknown:    counter("unknown_keys_total", "Total Get calls for keys that were never issued"),
		overwrites: counter("terminal_overwrites_total", "Total refused writes to terminal entries"),
	}
}

func (h *Hooks) LoadStarted(resload.Key, string) {
	h.started.Inc()
	h.inflight.Inc()
}

func (h *Hooks) LoadFinished(_ resload.Key, _ string, size int, took time.Duration) {
	h.inflight.Dec()
	h.results.WithLabelValues(ResultLoaded).Inc()
	h.duration.Observe(took.Seconds())
	h.size.Observe(float64(size))
}

func (h *Hooks) LoadFailed(_ resload.Key, _ string, kind resload.ErrorKind, _ error) {
	h.inflight.Dec()
	result := ResultLoadFailed
	if kind == resload.NotFound {
		result = ResultNotFound
	}
	h.results.WithLabelValues(result).Inc()
}

func (h *Hooks) UnknownKey(resload.Key) { h.unknown.Inc() }

func (h *Hooks) TerminalOverwrite(resload.Key) { h.overwrites.Inc() }
