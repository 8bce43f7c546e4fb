package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/labyrinth/internal/config"
)

// pingRoutes — минимальный набор маршрутов для проверки сборки роутера.
type pingRoutes struct{}

func (pingRoutes) Routes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func TestNew_AppliesMiddlewaresInOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	cfg := &config.Config{Port: 3001, HTTPReadTimeout: time.Second, ShutdownTimeout: time.Second}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(cfg, logger, pingRoutes{}, mw("first"), mw("second"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Body.String() != "pong" {
		t.Fatalf("ответ: %d %q", rec.Code, rec.Body.String())
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("порядок middleware: %v", order)
	}
	if srv.httpServer.Addr != ":3001" || srv.httpServer.ReadTimeout != time.Second {
		t.Errorf("параметры http.Server: %s %v", srv.httpServer.Addr, srv.httpServer.ReadTimeout)
	}
}
