// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchesTotal           *prometheus.CounterVec
	fetchDurationSeconds   *prometheus.HistogramVec
	oracleCallsTotal       *prometheus.CounterVec
	candidateLinksObserved prometheus.Histogram
	recordsPersistedTotal  prometheus.Counter
	crawlRunsTotal         *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compscout_fetches_total",
				Help: "Total page fetches, labeled by strategy, site and outcome.",
			},
			[]string{"strategy", "site", "outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "compscout_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by strategy.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 25},
			},
			[]string{"strategy"},
		)

		oracleCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compscout_oracle_calls_total",
				Help: "Total oracle invocations, labeled by operation and outcome.",
			},
			[]string{"op", "outcome"},
		)

		candidateLinksObserved = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "compscout_candidate_links",
				Help:    "Candidate link count per discovery pass, after filtering and dedup.",
				Buckets: []float64{0, 5, 10, 20, 40, 60},
			},
		)

		recordsPersistedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "compscout_records_persisted_total",
				Help: "Total compensation records handed to the persistence layer.",
			},
		)

		crawlRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compscout_crawl_runs_total",
				Help: "Total orchestrator runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(strategy, rawURL, outcome string, duration time.Duration) {
	if fetchesTotal == nil {
		return
	}
	fetchesTotal.WithLabelValues(strategy, siteLabel(rawURL), outcome).Inc()
	fetchDurationSeconds.WithLabelValues(strategy).Observe(duration.Seconds())
}

// ObserveOracleCall records one oracle invocation.
func ObserveOracleCall(op, outcome string) {
	if oracleCallsTotal == nil {
		return
	}
	oracleCallsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveCandidates records the candidate set size of a discovery pass.
func ObserveCandidates(n int) {
	if candidateLinksObserved == nil {
		return
	}
	candidateLinksObserved.Observe(float64(n))
}

// RecordPersisted counts one persisted compensation record.
func RecordPersisted() {
	if recordsPersistedTotal == nil {
		return
	}
	recordsPersistedTotal.Inc()
}

// ObserveRun records the outcome of one orchestrator run.
func ObserveRun(outcome string) {
	if crawlRunsTotal == nil {
		return
	}
	crawlRunsTotal.WithLabelValues(outcome).Inc()
}

func siteLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
