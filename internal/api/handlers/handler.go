// handler.go — сборка маршрутов API и общие помощники обработчиков.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/bigkaa/labyrinth/internal/api/errors"
)

// APIHandler собирает доменные обработчики в один набор маршрутов.
type APIHandler struct {
	health      *HealthHandler
	collections *CollectionsHandler
	settings    *SettingsHandler
	chat        *ChatHandler
	static      *StaticHandler
}

// NewAPIHandler создаёт единый handler для всех endpoints.
// static может быть nil, если сборка SPA отсутствует.
func NewAPIHandler(
	health *HealthHandler,
	collections *CollectionsHandler,
	settings *SettingsHandler,
	chat *ChatHandler,
	static *StaticHandler,
) *APIHandler {
	return &APIHandler{
		health:      health,
		collections: collections,
		settings:    settings,
		chat:        chat,
		static:      static,
	}
}

// Routes регистрирует маршруты. settings и ai объявлены раньше /{collection},
// поэтому эти имена никогда не трактуются как коллекции.
func (h *APIHandler) Routes(r chi.Router) {
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health.Health)

		r.Get("/settings", h.settings.Get)
		r.Put("/settings", h.settings.Merge)

		r.Post("/ai/chat", h.chat.Chat)
		r.Get("/ai/models", h.chat.Models)

		r.Get("/{collection}", h.collections.List)
		r.Post("/{collection}", h.collections.Create)
		r.Put("/{collection}", h.collections.ReplaceAll)
		r.Put("/{collection}/{id}", h.collections.Update)
		r.Delete("/{collection}/{id}", h.collections.Delete)

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			apierrors.NotFound(w, "Not found")
		})
	})

	if h.static != nil {
		r.NotFound(h.static.ServeHTTP)
	}
}

// errEmptyBody — тело запроса отсутствует.
var errEmptyBody = errors.New("empty body")

// decodeJSON читает тело запроса в v. Пустое тело даёт errEmptyBody.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

// decodeObject читает тело как JSON-объект. Пустое тело трактуется как {}.
// При ошибке ответ уже записан и возвращается false.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body any
	err := decodeJSON(r, &body)
	if errors.Is(err, errEmptyBody) {
		return map[string]any{}, true
	}
	if err != nil {
		writeDecodeError(w, err)
		return nil, false
	}
	obj, ok := body.(map[string]any)
	if !ok {
		apierrors.ValidationError(w, "Request body must be a JSON object")
		return nil, false
	}
	return obj, true
}

// writeDecodeError различает превышение лимита тела и некорректный JSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		apierrors.PayloadTooLarge(w, "Request body too large")
		return
	}
	apierrors.ValidationError(w, "Invalid JSON body")
}

// writeJSON записывает ответ в формате JSON.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// internalError логирует ошибку и отвечает 500.
func internalError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.String("error", err.Error()))
	apierrors.InternalError(w, err.Error())
}
