package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodeql",
		Name:      "queries_total",
		Help:      "The total number of queries executed, by backend and outcome.",
	}, []string{"backend", "outcome"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nodeql",
		Name:      "query_duration_seconds",
		Help:      "Latency of query execution on a backend, including dependent resolution.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"backend"})

	resolutionRoundTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodeql",
		Name:      "resolution_round_trips_total",
		Help:      "The total number of nested reference path queries, by backend.",
	}, []string{"backend"})

	reindexedNodes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nodeql",
		Name:      "reindexed_nodes_total",
		Help:      "The total number of node documents written to or removed from the index.",
	})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
