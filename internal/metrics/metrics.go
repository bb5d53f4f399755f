package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skygrid_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skygrid_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	plansGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skygrid_plans_generated_total",
			Help: "Total number of plan computations by result.",
		},
		[]string{"result"},
	)

	planWaypoints = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skygrid_plan_waypoints",
			Help:    "Number of waypoints per generated plan.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(plansGeneratedTotal)
	prometheus.MustRegister(planWaypoints)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePlan records the outcome of one plan computation.
func ObservePlan(waypoints int, err error) {
	if err != nil {
		plansGeneratedTotal.WithLabelValues("error").Inc()
		return
	}
	plansGeneratedTotal.WithLabelValues("ok").Inc()
	planWaypoints.Observe(float64(waypoints))
}

// exactRoutes are labelled as-is.
var exactRoutes = map[string]bool{
	"/":              true,
	"/config":        true,
	"/plans":         true,
	"/status/stream": true,
	"/metrics":       true,
}

// normalizeRoute maps a request path to a bounded set of labels so that
// plan IDs do not create one series each.
func normalizeRoute(path string) string {
	if exactRoutes[path] {
		return path
	}
	rest, ok := strings.CutPrefix(path, "/plans/")
	if !ok || rest == "" {
		return "other"
	}
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		return "other"
	}
	switch sub {
	case "":
		return "/plans/{id}"
	case "export", "plot.png", "chart":
		return "/plans/{id}/" + sub
	default:
		return "other"
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
