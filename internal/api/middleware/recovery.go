// recovery.go — перехват паник в обработчиках.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/bigkaa/labyrinth/internal/api/errors"
)

// Recovery возвращает middleware, превращающий панику обработчика в ответ 500
// в стандартном формате ошибки. http.ErrAbortHandler пробрасывается дальше.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // сравнение значения паники
					panic(rec)
				}

				logger.Error("Паника в обработчике",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
					slog.String("request_id", chimw.GetReqID(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)
				apierrors.InternalError(w, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Base — базовая цепочка сервера. RequestID стоит первым, чтобы
// Recovery и RequestLogger видели идентификатор запроса.
func Base(logger *slog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimw.RequestID,
		Recovery(logger),
		RequestLogger(logger),
		MetricsMiddleware(),
	}
}
