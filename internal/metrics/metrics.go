// Package metrics exposes Prometheus counters for parsing activity.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dotstrings/internal/parser"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Result labels for FilesParsed.
const (
	ResultOK            = "ok"
	ResultUnchanged     = "unchanged"
	ResultParseError    = "parse_error"
	ResultEncodingError = "encoding_error"
	ResultIOError       = "io_error"
)

var (
	registry = prometheus.NewRegistry()

	// FilesParsed counts parse attempts by outcome.
	FilesParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dotstrings_files_parsed_total",
			Help: "Total number of .strings files processed, by result",
		},
		[]string{"result"},
	)

	// EntriesParsed counts entries produced by successful parses.
	EntriesParsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dotstrings_entries_parsed_total",
			Help: "Total number of entries produced by successful parses",
		},
	)

	// ParseDurationSeconds measures the time to read and parse one file.
	ParseDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dotstrings_parse_duration_seconds",
			Help:    "Duration of reading and parsing a single file in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)

	// TrackedFiles is the number of files currently held by the watcher.
	TrackedFiles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dotstrings_tracked_files",
			Help: "Number of .strings files currently tracked by watch mode",
		},
	)
)

func init() {
	registry.MustRegister(FilesParsed, EntriesParsed, ParseDurationSeconds, TrackedFiles)
}

// ResultLabel maps a parse error to its FilesParsed label.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, parser.ErrParse):
		return ResultParseError
	case errors.Is(err, parser.ErrEncoding):
		return ResultEncodingError
	default:
		return ResultIOError
	}
}

// ObserveParse records the outcome of one file.
func ObserveParse(err error, entries int, elapsed time.Duration) {
	FilesParsed.WithLabelValues(ResultLabel(err)).Inc()
	ParseDurationSeconds.Observe(elapsed.Seconds())
	if err == nil {
		EntriesParsed.Add(float64(entries))
	}
}

// Handler returns the HTTP handler for the metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
