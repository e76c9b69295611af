// Package metrics exposes Prometheus counters for crawl and scrape runs.
//
// All Record methods are safe on a nil *Metrics, so components can be built without
// instrumentation in tests.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foolcalls/pkg/logger"
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Metrics holds all crawler Prometheus metrics
type Metrics struct {
	ListingPages    prometheus.Counter
	Downloads       *prometheus.CounterVec
	Scrapes         *prometheus.CounterVec
	ExtractDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the metrics with a fresh registry that also carries the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWith(reg, reg)
}

// NewWith registers the metrics with reg and serves them from gatherer.
func NewWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ListingPages: f.NewCounter(prometheus.CounterOpts{
			Name: "foolcalls_listing_pages_total",
			Help: "Listing pages visited while looking for new transcripts",
		}),
		Downloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foolcalls_downloads_total",
			Help: "Transcript downloads by result",
		}, []string{"result"}),
		Scrapes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foolcalls_scrapes_total",
			Help: "Transcript extractions by result and failing stage",
		}, []string{"result", "stage"}),
		ExtractDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "foolcalls_extract_duration_seconds",
			Help:    "Time to extract one transcript",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		gatherer: gatherer,
	}
}

// RecordListingPage counts one visited listing page.
func (m *Metrics) RecordListingPage() {
	if m == nil {
		return
	}
	m.ListingPages.Inc()
}

// RecordDownload counts one download attempt.
func (m *Metrics) RecordDownload(result string) {
	if m == nil {
		return
	}
	m.Downloads.WithLabelValues(result).Inc()
}

// RecordScrape counts one extraction. stage is empty on success.
func (m *Metrics) RecordScrape(result, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.Scrapes.WithLabelValues(result, stage).Inc()
	m.ExtractDuration.Observe(d.Seconds())
}

// Handler returns the Prometheus HTTP handler for /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
