// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package learn

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	iterationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "followup_iterations_total",
		Help: "Total active-learning iterations completed, by strategy",
	}, []string{"strategy"})

	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "followup_queries_total",
		Help: "Total candidates queried for spectroscopic follow-up, by strategy",
	}, []string{"strategy"})

	runFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "followup_run_failures_total",
		Help: "Total runs ended by a fatal error, by strategy",
	}, []string{"strategy"})

	fitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "followup_fit_duration_seconds",
		Help:    "Classifier fit duration per iteration",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	poolSizeGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "followup_pool_size",
		Help: "Remaining unlabeled pool size of the most recent iteration",
	}, []string{"strategy"})
)
