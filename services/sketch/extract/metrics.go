// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Extraction
// =============================================================================

// Drop reasons recorded in irsDroppedTotal.
const (
	dropBoundCount  = "bound_count"
	dropBoundLength = "bound_length"
	dropDegenerate  = "degenerate"
	dropDuplicate   = "duplicate"
	dropFiltered    = "filtered"
)

var (
	// filesTotal counts processed files by outcome.
	// Labels: status (ok, unchanged, parse_error, read_error)
	filesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sketch",
		Subsystem: "extract",
		Name:      "files_total",
		Help:      "Total source files processed by outcome",
	}, []string{"status"})

	// documentsTotal counts emitted documents.
	documentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sketch",
		Subsystem: "extract",
		Name:      "documents_total",
		Help:      "Total documents emitted",
	})

	// irsDroppedTotal counts IRs that produced no document.
	// Labels: reason (bound_count, bound_length, degenerate, duplicate, filtered)
	irsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sketch",
		Subsystem: "extract",
		Name:      "irs_dropped_total",
		Help:      "Total IRs dropped by reason",
	}, []string{"reason"})

	// sequencesPerIR observes the deduplicated sequence count of emitted IRs.
	sequencesPerIR = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sketch",
		Subsystem: "extract",
		Name:      "sequences_per_ir",
		Help:      "Deduplicated sequences per emitted IR",
		Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
	})

	// fileDurationSeconds measures per-file extraction latency.
	fileDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sketch",
		Subsystem: "extract",
		Name:      "file_duration_seconds",
		Help:      "Per-file extraction latency",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

func recordFile(status string, seconds float64) {
	filesTotal.WithLabelValues(status).Inc()
	fileDurationSeconds.Observe(seconds)
}

func recordDropped(reason string, n int) {
	if n > 0 {
		irsDroppedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

func recordDocument(sequences int) {
	documentsTotal.Inc()
	sequencesPerIR.Observe(float64(sequences))
}
