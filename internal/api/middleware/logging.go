// logging.go — access-лог easybuy-api поверх slog.
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder запоминает статус-код и объём отданного тела,
// чтобы после обработки запроса записать их в access-лог.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func recordStatus(w http.ResponseWriter) *statusRecorder {
	// Если handler ни разу не вызвал WriteHeader, net/http отдаёт 200.
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// Unwrap нужен http.ResponseController для доступа к исходному ResponseWriter.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// RequestLogger логирует каждый обработанный запрос одной записью.
// Клиентские ошибки (4xx) идут на уровне WARN, серверные (5xx) — ERROR,
// остальное — INFO: так в логе магазина сразу видны проблемные вызовы.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := recordStatus(w)

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "Запрос обработан",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rec.bytes),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
