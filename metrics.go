package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	mixesCreatedCounter     prometheus.Counter
	reportsGeneratedCounter *prometheus.CounterVec
	reportGenerationSeconds prometheus.Histogram
	reportsSavedCounter     prometheus.Counter
	reportsExportedCounter  prometheus.Counter
)

func init() {
	mixesCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_mixes_created_total",
			Help: "Total number of feed mixes created.",
		},
	)
	reportsGeneratedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_reports_generated_total",
			Help: "Report generation requests by outcome (ok, not_found, upstream_error).",
		},
		[]string{"outcome"},
	)
	reportGenerationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_report_generation_seconds",
			Help:    "Duration of report generation including the completion API call.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		},
	)
	reportsSavedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_reports_saved_total",
			Help: "Total number of reports saved.",
		},
	)
	reportsExportedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_reports_exported_total",
			Help: "Total number of reports uploaded to object storage.",
		},
	)
	prometheus.MustRegister(
		mixesCreatedCounter,
		reportsGeneratedCounter,
		reportGenerationSeconds,
		reportsSavedCounter,
		reportsExportedCounter,
	)
}
