package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookie",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the icon service",
		},
		[]string{"route", "method", "code"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookie",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests handled by the icon service",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookie",
			Name:      "icon_cache_lookups_total",
			Help:      "Icon cache lookups by result (hit, miss, stale, corrupt, error)",
		},
		[]string{"result"},
	)

	stageOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookie",
			Name:      "resolve_stage_total",
			Help:      "Resolver stage outcomes by stage and outcome (found, empty, or an error kind)",
		},
		[]string{"stage", "outcome"},
	)

	resolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookie",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of full icon resolutions",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"found"},
	)

	inflightDeduped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookie",
			Name:      "resolve_deduplicated_total",
			Help:      "Resolutions that joined an in-flight resolution for the same URL",
		},
	)

	registerOnce sync.Once
)

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestTotal, requestDuration, cacheLookups, stageOutcomes, resolveDuration, inflightDeduped)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveRequest(route, method, code string, d time.Duration) {
	requestTotal.WithLabelValues(route, method, code).Inc()
	requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func IncCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

func IncStageOutcome(stage, outcome string) {
	stageOutcomes.WithLabelValues(stage, outcome).Inc()
}

func ObserveResolve(found bool, d time.Duration) {
	label := "false"
	if found {
		label = "true"
	}
	resolveDuration.WithLabelValues(label).Observe(d.Seconds())
}

func IncDeduplicated() {
	inflightDeduped.Inc()
}
