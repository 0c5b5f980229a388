package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"editpdf/internal/logging"
)

// Recorder collects drain outcomes on its own registry.
type Recorder struct {
	registry      *prometheus.Registry
	drainsTotal   *prometheus.CounterVec
	drainDuration prometheus.Histogram
	entriesTotal  *prometheus.CounterVec
	usersTotal    *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
}

// New builds a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		drainsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editpdf_drains_total",
				Help: "Count of conversion drain runs",
			},
			[]string{"result"},
		),
		drainDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "editpdf_drain_duration_seconds",
				Help:    "Wall time of conversion drain runs",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		entriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editpdf_queue_entries_total",
				Help: "Queue entries processed by outcome",
			},
			[]string{"outcome"},
		),
		usersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editpdf_user_conversions_total",
				Help: "Per-user conversion checks by outcome",
			},
			[]string{"outcome"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "editpdf_conversion_failures_total",
				Help: "Per-user conversion failures by converter error code",
			},
			[]string{"error_code"},
		),
	}
	r.registry.MustRegister(r.drainsTotal)
	r.registry.MustRegister(r.drainDuration)
	r.registry.MustRegister(r.entriesTotal)
	r.registry.MustRegister(r.usersTotal)
	r.registry.MustRegister(r.failuresTotal)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveEntry counts one processed queue entry.
func (r *Recorder) ObserveEntry(outcome string) {
	r.entriesTotal.WithLabelValues(outcome).Inc()
}

// ObserveUser counts one per-user conversion check.
func (r *Recorder) ObserveUser(outcome, errorCode string) {
	r.usersTotal.WithLabelValues(outcome).Inc()
	if errorCode != "" {
		r.failuresTotal.WithLabelValues(errorCode).Inc()
	}
}

// ObserveDrain counts one drain run.
func (r *Recorder) ObserveDrain(duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.drainsTotal.WithLabelValues(result).Inc()
	r.drainDuration.Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on bind until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, bind string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	server := &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", logging.String("bind", bind))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
