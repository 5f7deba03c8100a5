// metrics.go — HTTP middleware для сбора Prometheus-метрик easybuy-api.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal — счётчик HTTP-запросов по методу, пути и статусу.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eb_http_requests_total",
			Help: "Общее количество HTTP-запросов",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eb_http_request_duration_seconds",
			Help:    "Длительность обработки HTTP-запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware собирает Prometheus-метрики для каждого запроса.
// Пути нормализуются, чтобы избежать взрыва кардинальности по ID.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		mw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(mw, r)

		path := normalizePath(r.URL.Path)
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(mw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// metricsResponseWriter — обёртка для захвата статус-кода ответа.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (mw *metricsResponseWriter) WriteHeader(code int) {
	if !mw.written {
		mw.statusCode = code
		mw.written = true
	}
	mw.ResponseWriter.WriteHeader(code)
}

func (mw *metricsResponseWriter) Write(b []byte) (int, error) {
	mw.written = true
	return mw.ResponseWriter.Write(b)
}

// Unwrap — поддержка http.ResponseController.
func (mw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

// normalizePath заменяет идентификаторы в пути на {id},
// чтобы ограничить кардинальность метрик.
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := uuid.Parse(seg); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
