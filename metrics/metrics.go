// Package metrics exposes Prometheus collectors for the content factory.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationCalls counts generation service calls by content type and
	// outcome (success, overloaded, timeout, rate_limited, other, fatal).
	GenerationCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contentfactory",
		Subsystem: "generation",
		Name:      "calls_total",
		Help:      "Generation service calls by content type and outcome.",
	}, []string{"content_type", "outcome"})

	// GenerationRetries counts retries by failure class.
	GenerationRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contentfactory",
		Subsystem: "generation",
		Name:      "retries_total",
		Help:      "Generation retries by failure class.",
	}, []string{"class"})

	// GenerationDuration observes successful call latency in seconds.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contentfactory",
		Subsystem: "generation",
		Name:      "duration_seconds",
		Help:      "Successful generation call latency.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"content_type"})

	// PhaseTransitions counts workflow phase entries.
	PhaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contentfactory",
		Subsystem: "workflow",
		Name:      "phase_transitions_total",
		Help:      "Workflow phase entries by phase.",
	}, []string{"phase"})

	// JobOutcomes counts settled jobs by terminal state.
	JobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contentfactory",
		Subsystem: "workflow",
		Name:      "job_outcomes_total",
		Help:      "Settled jobs by outcome (finalized, aborted, human_review).",
	}, []string{"outcome"})
)
