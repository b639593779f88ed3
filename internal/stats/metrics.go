package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Search metrics. Registered on the default registry; exposed by Serve.
var (
	Expansions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warehouse_ct_expansions_total",
		Help: "High-level constraint-tree nodes expanded.",
	})
	Generated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warehouse_ct_generated_total",
		Help: "High-level constraint-tree nodes generated.",
	})
	Frontier = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "warehouse_ct_frontier_size",
		Help: "Current high-level open set size.",
	})
	SolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "warehouse_solve_duration_seconds",
		Help:    "Wall-clock duration of complete solves.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})
)

// Serve exposes /metrics on addr in the background. Intended for the bench
// and server commands; a failure to listen is logged, not fatal.
func Serve(addr string, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Warn("metrics listener stopped")
		}
	}()
}
