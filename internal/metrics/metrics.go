// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus instruments for the retrieval pipeline.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueriesTotal counts search requests by final state ("done", "failed").
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_harvest_queries_total",
			Help: "Total number of search queries executed",
		},
		[]string{"status"},
	)

	// OutcomesTotal counts per-entry outcomes ("ok", "no_content", "failed").
	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_harvest_outcomes_total",
			Help: "Total number of entry outcomes produced",
		},
		[]string{"status"},
	)

	// FetchDuration observes document download plus extraction time.
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paper_harvest_fetch_duration_seconds",
			Help:    "Duration of document fetch and text extraction in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// InFlight tracks units of work currently holding a worker slot.
	InFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "paper_harvest_units_in_flight",
			Help: "Units of work currently running on the worker pool",
		},
	)
)

// Outcome statuses.
const (
	StatusOK        = "ok"
	StatusNoContent = "no_content"
	StatusFailed    = "failed"
)

// RecordFetch observes one document fetch.
func RecordFetch(d time.Duration) {
	FetchDuration.Observe(d.Seconds())
}

// Server serves /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// Start begins listening on addr (e.g. ":9090") and exposes /metrics.
func Start(addr string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
