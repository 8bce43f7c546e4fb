// health.go — GET /api/health: liveness и диагностика хранилища.
// Клиент использует этот endpoint для выбора backend-а, поэтому ответ
// всегда 200, пока процесс жив; состояние проверок отдаётся в теле.
package handlers

import (
	"net/http"
	"time"

	"github.com/bigkaa/labyrinth/internal/config"
	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/storage/datadir"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// DependencyHealth — источник состояния внешних зависимостей (topologymetrics).
type DependencyHealth interface {
	Health() map[string]bool
}

// HealthHandler реализует GET /api/health.
type HealthHandler struct {
	version string
	dataDir string
	deps    DependencyHealth
}

// NewHealthHandler создаёт обработчик. deps может быть nil.
func NewHealthHandler(dataDir string, deps DependencyHealth) *HealthHandler {
	return &HealthHandler{
		version: config.Version,
		dataDir: dataDir,
		deps:    deps,
	}
}

// Health отвечает статусом сервиса и результатами проверок.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	checks := map[string]any{
		"dataDir": h.checkDataDir(),
	}
	if h.deps != nil {
		checks["dependencies"] = h.deps.Health()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"dataDir":     h.dataDir,
		"collections": model.CollectionNames(),
		"version":     h.version,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"checks":      checks,
	})
}

// checkDataDir проверяет запись в директорию данных.
func (h *HealthHandler) checkDataDir() map[string]string {
	if err := datadir.Writable(h.dataDir); err != nil {
		return map[string]string{"status": statusFail, "message": err.Error()}
	}
	return map[string]string{"status": "ok"}
}
