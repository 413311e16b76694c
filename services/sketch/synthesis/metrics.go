// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package synthesis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded in requestsTotal.
const (
	outcomeOK             = "ok"
	outcomeEmpty          = "empty"
	outcomeInvalidRequest = "invalid_request"
	outcomeInvalidSketch  = "invalid_sketch"
	outcomeEngineError    = "engine_error"
)

var (
	// requestsTotal counts synthesis requests by outcome.
	// Labels: outcome (ok, empty, invalid_request, invalid_sketch, engine_error)
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sketch",
		Subsystem: "synthesis",
		Name:      "requests_total",
		Help:      "Total synthesis requests by outcome",
	}, []string{"outcome"})

	// candidatesDroppedTotal counts engine candidates that failed validation.
	candidatesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sketch",
		Subsystem: "synthesis",
		Name:      "candidates_dropped_total",
		Help:      "Total engine candidates dropped by validation",
	})

	// requestDurationSeconds observes end-to-end synthesis latency.
	requestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sketch",
		Subsystem: "synthesis",
		Name:      "request_duration_seconds",
		Help:      "Synthesis request duration by outcome",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"outcome"})

	// typeCacheTotal counts type context lookups.
	// Labels: result (hit, miss)
	typeCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sketch",
		Subsystem: "synthesis",
		Name:      "type_cache_lookups_total",
		Help:      "Type context cache lookups by result",
	}, []string{"result"})
)

func recordRequest(outcome string, seconds float64) {
	requestsTotal.WithLabelValues(outcome).Inc()
	requestDurationSeconds.WithLabelValues(outcome).Observe(seconds)
}

func recordDropped(n int) {
	if n > 0 {
		candidatesDroppedTotal.Add(float64(n))
	}
}

func recordTypeCache(hit bool) {
	if hit {
		typeCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	typeCacheTotal.WithLabelValues("miss").Inc()
}
