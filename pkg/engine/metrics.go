package engine

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lintang-b-s/osm-routing/pkg/routing"
)

const (
	outcomeFound       = "found"
	outcomeNoRoute     = "no_route"
	outcomeUnreachable = "unreachable"
	outcomeTimeout     = "timeout"
	outcomeError       = "error"
)

type metrics struct {
	queries   *prometheus.CounterVec
	cacheHits prometheus.Counter
	latency   prometheus.Histogram
	settled   prometheus.Histogram
}

// newMetrics registers on reg. A nil reg keeps the collectors unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routing",
			Name:      "queries_total",
			Help:      "Route queries by outcome.",
		}, []string{"outcome"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "routing",
			Name:      "cache_hits_total",
			Help:      "Route queries answered from the result cache.",
		}),
		latency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routing",
			Name:      "query_duration_seconds",
			Help:      "Route query latency, cache hits excluded.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		settled: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routing",
			Name:      "query_settled_nodes",
			Help:      "Nodes settled per search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
	}
}

func outcomeOf(res *routing.Result, err error) string {
	var unreachable *routing.UnreachableLocationError
	var timeout *routing.TimeoutError
	switch {
	case err == nil && res.Found():
		return outcomeFound
	case err == nil:
		return outcomeNoRoute
	case errors.As(err, &unreachable):
		return outcomeUnreachable
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout
	default:
		return outcomeError
	}
}
