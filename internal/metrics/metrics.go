// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SubmissionsTotal counts intake attempts by outcome
	// (success, invalid, duplicate, permission, partial, internal).
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_submissions_total",
			Help: "Cumulative number of lead submissions, labelled by outcome.",
		}, []string{"outcome"})

	FanoutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lead_fanout_duration_seconds",
			Help:    "Time spent writing a lead and its index documents.",
			Buckets: prometheus.DefBuckets,
		})

	LocaleResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locale_resolutions_total",
			Help: "Language resolutions, labelled by the step that matched.",
		}, []string{"step"})

	LocaleLookupErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locale_lookup_errors_total",
			Help: "Cumulative number of failed external country lookups.",
		})

	LiveSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lead_live_subscribers",
			Help: "Number of dashboard clients currently streaming new leads.",
		})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		FanoutDuration,
		LocaleResolutions,
		LocaleLookupErrorsTotal,
		LiveSubscribers,
	)
}
