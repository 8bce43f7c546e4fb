// settings.go — GET/PUT /api/settings.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/labyrinth/internal/service"
)

// SettingsHandler — обработчики объекта настроек.
type SettingsHandler struct {
	svc    *service.SettingsService
	logger *slog.Logger
}

// NewSettingsHandler создаёт обработчик настроек.
func NewSettingsHandler(svc *service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		svc:    svc,
		logger: logger.With(slog.String("component", "settings_handler")),
	}
}

// Get обрабатывает GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Get(r.Context()))
}

// Merge обрабатывает PUT /api/settings: поверхностное слияние с телом.
func (h *SettingsHandler) Merge(w http.ResponseWriter, r *http.Request) {
	patch, ok := decodeObject(w, r)
	if !ok {
		return
	}

	merged, err := h.svc.Merge(r.Context(), patch)
	if err != nil {
		internalError(w, h.logger, "Ошибка сохранения настроек", err)
		return
	}
	writeJSON(w, http.StatusOK, merged)
}
