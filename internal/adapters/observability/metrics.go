package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentmatch", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentmatch", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentmatch", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentmatch", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentmatch", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	FilterApplications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentmatch", Name: "filter_applications_total", Help: "Filter runs by outcome."},
		[]string{"outcome"}, // outcome: matched|empty|degraded
	)
	SessionDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentmatch", Name: "session_decisions_total", Help: "Decision session swipes."},
		[]string{"direction"}, // direction: like|pass|more_info
	)
	NegotiationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentmatch", Name: "negotiation_events_total", Help: "Negotiation lifecycle events."},
		[]string{"event"},
	)
	NegotiationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rentmatch", Name: "negotiation_transitions_total", Help: "Status transitions."},
		[]string{"from", "to"},
	)
)

// Serve starts a standalone metrics listener when METRICS_ADDR is set.
func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency,
		ExternalRequests, ExternalLatency,
		CacheEvents,
		FilterApplications, SessionDecisions,
		NegotiationEvents, NegotiationTransitions,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveFilter(outcome string) {
	FilterApplications.WithLabelValues(outcome).Inc()
}

func ObserveDecision(direction string) {
	SessionDecisions.WithLabelValues(direction).Inc()
}

func ObserveNegotiation(event string) {
	NegotiationEvents.WithLabelValues(event).Inc()
}

func ObserveTransition(from, to string) {
	NegotiationTransitions.WithLabelValues(from, to).Inc()
}
