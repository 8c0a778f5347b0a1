package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"surgepark/internal/breaker"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	admissions        *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	surgeMultiplier   prometheus.Histogram
	weatherDegraded   prometheus.Counter
	cbState           *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reservation_admissions_total",
			Help: "Admission checks by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reservation_transitions_total",
			Help: "Reservation state changes by target status.",
		}, []string{"status"}),
		surgeMultiplier: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "surge_multiplier",
			Help:    "Surge multipliers applied to booked reservations.",
			Buckets: prometheus.LinearBuckets(1, 0.1, 11),
		}),
		weatherDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weather_degraded_total",
			Help: "Prices computed without a weather term because the provider failed.",
		}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.admissions,
		m.transitions,
		m.surgeMultiplier,
		m.weatherDegraded,
		m.cbState,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Middleware labels requests with the mux route template so ids in paths
// do not explode the label space.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m == nil {
			return
		}
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Admission(outcome string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) SurgeApplied(multiplier float64) {
	if m == nil {
		return
	}
	m.surgeMultiplier.Observe(multiplier)
}

func (m *Metrics) WeatherDegraded() {
	if m == nil {
		return
	}
	m.weatherDegraded.Inc()
}

// BreakerStateChanged matches breaker.Breaker.OnStateChange.
func (m *Metrics) BreakerStateChanged(target string, state breaker.State) {
	if m == nil {
		return
	}
	m.cbState.WithLabelValues(target).Set(float64(state))
}
