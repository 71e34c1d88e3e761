package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the exploration server.
//
//   - webworld_http_request_duration_seconds{path,status}: histogram
//   - webworld_http_requests_inflight: gauge
//   - webworld_http_request_errors_total{path,status}: counter (4xx/5xx)
//   - webworld_maps_generated_total{backend}: counter
type Metrics struct {
	reqDuration   *prometheus.HistogramVec
	reqInflight   prometheus.Gauge
	reqErrors     *prometheus.CounterVec
	mapsGenerated *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "webworld",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"path", "status"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "webworld",
			Name:      "http_requests_inflight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webworld",
			Name:      "http_request_errors_total",
			Help:      "Number of HTTP requests answered with a 4xx or 5xx status.",
		}, []string{"path", "status"}),
		mapsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webworld",
			Name:      "maps_generated_total",
			Help:      "Number of noise maps computed (cache misses).",
		}, []string{"backend"}),
	}

	for _, c := range []prometheus.Collector{m.reqDuration, m.reqInflight, m.reqErrors, m.mapsGenerated} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps next and records duration, in-flight count and errors under path.
func (m *Metrics) Instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.reqInflight.Inc()
		defer m.reqInflight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		m.reqDuration.WithLabelValues(path, status).Observe(time.Since(start).Seconds())
		if rec.status >= 400 {
			m.reqErrors.WithLabelValues(path, status).Inc()
		}
	})
}
