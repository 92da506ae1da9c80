// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability exposes Prometheus metrics for the battle service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// battlesStarted counts battles created, labeled by how the first
	// round was kicked off (with_verses or complete).
	battlesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rageraps_battles_started_total",
		Help: "Total battles created, by creation mode",
	}, []string{"mode"})

	battlesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rageraps_battles_completed_total",
		Help: "Total battles that reached a final winner",
	})

	versesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rageraps_verses_generated_total",
		Help: "Total verses produced, by source (llm or fallback)",
	}, []string{"source"})

	verseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rageraps_verse_generation_duration_seconds",
		Help:    "Verse generation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
	})

	roundsJudged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rageraps_rounds_judged_total",
		Help: "Total rounds judged, by judge (ai or user) and outcome (llm, fallback, user)",
	}, []string{"judge", "outcome"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rageraps_rapper_cache_lookups_total",
		Help: "Total rapper profile cache lookups, by result (hit or miss)",
	}, []string{"result"})
)

// RecordBattleStarted increments the battle creation counter.
func RecordBattleStarted(mode string) {
	battlesStarted.WithLabelValues(mode).Inc()
}

// RecordBattleCompleted increments the completed battle counter.
func RecordBattleCompleted() {
	battlesCompleted.Inc()
}

// RecordVerse records one generated verse and its latency.
func RecordVerse(source string, seconds float64) {
	versesGenerated.WithLabelValues(source).Inc()
	verseDuration.Observe(seconds)
}

// RecordRoundJudged increments the judged round counter.
func RecordRoundJudged(judge, outcome string) {
	roundsJudged.WithLabelValues(judge, outcome).Inc()
}

// RecordCacheLookup increments the rapper cache lookup counter.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}
