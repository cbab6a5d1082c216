package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry *Registry
)

// Update results recorded per source and pass.
const (
	ResultApplied   = "applied"
	ResultUnchanged = "unchanged"
	ResultEmpty     = "empty"
	ResultFailed    = "failed"
)

// Fetch results.
const (
	FetchSuccess     = "success"
	FetchNotModified = "not_modified"
	FetchError       = "error"
)

// Registry holds all set synchronization metrics.
type Registry struct {
	reg *prometheus.Registry

	SetEntries     *prometheus.GaugeVec
	SetLastUpdate  *prometheus.GaugeVec
	SourceUpdates  *prometheus.CounterVec
	SourceErrors   *prometheus.CounterVec
	Truncations    *prometheus.CounterVec
	FetchTotal     *prometheus.CounterVec
	ExcludedCount  prometheus.Gauge
	PassDuration   prometheus.Histogram
	LastPassFailed prometheus.Gauge
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = New()
	})
	return registry
}

// New creates a registry backed by its own prometheus.Registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	r := &Registry{reg: reg}

	r.SetEntries = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "setsync_set_entries",
		Help: "Number of elements applied to each set in its last update",
	}, []string{"set"})

	r.SetLastUpdate = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "setsync_set_last_update_timestamp",
		Help: "Unix timestamp of the last successful set update",
	}, []string{"set"})

	r.SourceUpdates = f.NewCounterVec(prometheus.CounterOpts{
		Name: "setsync_source_updates_total",
		Help: "Source updates by result",
	}, []string{"set", "result"})

	r.SourceErrors = f.NewCounterVec(prometheus.CounterOpts{
		Name: "setsync_source_errors_total",
		Help: "Source update errors by stage",
	}, []string{"set", "error_type"})

	r.Truncations = f.NewCounterVec(prometheus.CounterOpts{
		Name: "setsync_truncations_total",
		Help: "Number of times a source hit its entries limit",
	}, []string{"set"})

	r.FetchTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "setsync_fetch_total",
		Help: "List fetches by result",
	}, []string{"result"})

	r.ExcludedCount = f.NewGauge(prometheus.GaugeOpts{
		Name: "setsync_excluded_entries",
		Help: "Number of entries in the excluded set of the last pass",
	})

	r.PassDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "setsync_pass_duration_seconds",
		Help:    "Duration of a full synchronization pass",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	r.LastPassFailed = f.NewGauge(prometheus.GaugeOpts{
		Name: "setsync_last_pass_failed",
		Help: "1 if any source failed in the last pass",
	})

	return r
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// RecordSourceUpdate records the outcome of one source update.
func (r *Registry) RecordSourceUpdate(set, result string, entries int) {
	r.SourceUpdates.WithLabelValues(set, result).Inc()
	if result == ResultApplied {
		r.SetEntries.WithLabelValues(set).Set(float64(entries))
		r.SetLastUpdate.WithLabelValues(set).SetToCurrentTime()
	}
}

// RecordSourceError records a failed stage of a source update.
func (r *Registry) RecordSourceError(set, stage string) {
	r.SourceUpdates.WithLabelValues(set, ResultFailed).Inc()
	r.SourceErrors.WithLabelValues(set, stage).Inc()
}

// RecordTruncation records a source that hit its entries limit.
func (r *Registry) RecordTruncation(set string) {
	r.Truncations.WithLabelValues(set).Inc()
}

// SetExcluded records the size of the excluded set.
func (r *Registry) SetExcluded(n int) {
	r.ExcludedCount.Set(float64(n))
}

// RecordFetch records a single URL fetch result.
func (r *Registry) RecordFetch(result string) {
	r.FetchTotal.WithLabelValues(result).Inc()
}

// RecordPass records a completed pass.
func (r *Registry) RecordPass(d time.Duration, failed bool) {
	r.PassDuration.Observe(d.Seconds())
	if failed {
		r.LastPassFailed.Set(1)
	} else {
		r.LastPassFailed.Set(0)
	}
}

// Handler returns the HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
