// Package metrics registers the portal's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TickerValidations counts ticker validation outcomes
	// (valid, invalid, stale, error).
	TickerValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleardesk",
		Subsystem: "marketdata",
		Name:      "ticker_validations_total",
		Help:      "Ticker validation results by outcome",
	}, []string{"outcome"})

	// CacheHits counts validation cache hits by cache kind (ticker, bond).
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleardesk",
		Subsystem: "marketdata",
		Name:      "cache_hits_total",
		Help:      "Validation cache hits by cache",
	}, []string{"cache"})

	// CacheMisses counts validation cache misses by cache kind.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleardesk",
		Subsystem: "marketdata",
		Name:      "cache_misses_total",
		Help:      "Validation cache misses by cache",
	}, []string{"cache"})

	// RequestsCreated counts trading requests by initial disposition.
	RequestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleardesk",
		Subsystem: "requests",
		Name:      "created_total",
		Help:      "Trading requests created by initial status",
	}, []string{"status"})

	// Escalations counts employee escalations.
	Escalations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cleardesk",
		Subsystem: "requests",
		Name:      "escalations_total",
		Help:      "Trading request escalations",
	})
)
