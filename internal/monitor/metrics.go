package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeIngested   = "ingested"
	outcomeMiss       = "miss"
	outcomeFetchError = "fetch_error"
	outcomeStoreError = "store_error"
	outcomeUntracked  = "untracked"
)

var (
	scrapeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_monitor_scrape_results_total",
		Help: "Resultados de scraping por site e desfecho.",
	}, []string{"site", "outcome"})

	passDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "price_monitor_pass_duration_seconds",
		Help:    "Duração das passadas do monitor.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
	}, []string{"kind"})
)
