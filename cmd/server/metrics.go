package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/toricodesthings/officetools/internal/extract"
)

type serverMetrics struct {
	requests   *prometheus.CounterVec
	inFlight   prometheus.Gauge
	wordCounts *prometheus.HistogramVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	f := promauto.With(reg)
	return &serverMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "officetools_requests_total",
			Help: "Requests handled per page and outcome.",
		}, []string{"page", "outcome"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "officetools_requests_in_flight",
			Help: "Requests currently holding a concurrency slot.",
		}),
		wordCounts: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "officetools_document_words",
			Help:    "Words counted per uploaded document.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}, []string{"label"}),
	}
}

func (m *serverMetrics) observeCount(res extract.Result) {
	if !res.Success {
		return
	}
	m.wordCounts.WithLabelValues(res.Label).Observe(float64(res.WordCount))
}
