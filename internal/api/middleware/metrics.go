// metrics.go — Prometheus HTTP метрики Labyrinth.
// Регистрирует метрики: labyrinth_http_requests_total, labyrinth_http_request_duration_seconds.
// Бизнес-метрики (labyrinth_records, labyrinth_chat_*) объявлены здесь же
// и обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labyrinth_http_requests_total",
			Help: "Общее количество HTTP-запросов к Labyrinth",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labyrinth_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Labyrinth в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// RecordsTotal — текущее количество записей в коллекции (gauge).
	RecordsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "labyrinth_records",
			Help: "Текущее количество записей в коллекции",
		},
		[]string{"collection"},
	)

	// ChatRequestsTotal — количество запросов к чат-ретранслятору по исходу.
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labyrinth_chat_requests_total",
			Help: "Общее количество запросов к чат-ретранслятору",
		},
		[]string{"provider", "result"},
	)

	// ChatStreamBytesTotal — объём байт, переданных клиенту из потока провайдера.
	ChatStreamBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labyrinth_chat_stream_bytes_total",
			Help: "Объём байт, ретранслированных из потока провайдера",
		},
		[]string{"provider"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath сводит путь к шаблону маршрута, чтобы id записей
// и произвольные пути статики не раздували кардинальность метрик.
// /api/tasks/5f0c... → /api/{collection}/{id}
func normalizePath(path string) string {
	switch path {
	case "/metrics", "/api/health", "/api/settings", "/api/ai/chat", "/api/ai/models":
		return path
	}

	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return "/static"
	}

	rest = strings.Trim(rest, "/")
	switch strings.Count(rest, "/") {
	case 0:
		return "/api/{collection}"
	case 1:
		return "/api/{collection}/{id}"
	default:
		return "/api/other"
	}
}
