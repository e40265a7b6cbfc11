package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsFound = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobradar_jobs_found_total",
		Help: "Postings returned by source adapters",
	}, []string{"source"})
	JobsStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobradar_jobs_stored_total",
		Help: "Postings newly published to the pending set",
	}, []string{"source"})
	SourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobradar_source_failures_total",
		Help: "Sources that failed a poll, by failure kind",
	}, []string{"source", "kind"})
	NotificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobradar_notifications_sent_total",
		Help: "Messages delivered to subscribers",
	})
	DeliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobradar_delivery_failures_total",
		Help: "Messages the messaging endpoint rejected or never acknowledged",
	})
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "jobradar_cycle_duration_seconds",
		Help:    "Wall time of one poll cycle",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

// Register adds the collectors to the default registry. Safe to call repeatedly.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			JobsFound,
			JobsStored,
			SourceFailures,
			NotificationsSent,
			DeliveryFailures,
			CycleDuration,
		)
	})
}

// Handler exposes /metrics with the collectors registered.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
