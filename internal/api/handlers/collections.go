// collections.go — REST-обработчики коллекций /api/{collection}.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/labyrinth/internal/api/errors"
	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/service"
)

// CollectionsHandler — обработчики CRUD коллекций.
type CollectionsHandler struct {
	svc    *service.CollectionService
	logger *slog.Logger
}

// NewCollectionsHandler создаёт обработчик коллекций.
func NewCollectionsHandler(svc *service.CollectionService, logger *slog.Logger) *CollectionsHandler {
	return &CollectionsHandler{
		svc:    svc,
		logger: logger.With(slog.String("component", "collections_handler")),
	}
}

// collection разбирает имя коллекции из пути. Недопустимое имя — 400
// со списком допустимых, до любого обращения к файлам.
func (h *CollectionsHandler) collection(w http.ResponseWriter, r *http.Request) (model.Collection, bool) {
	c, err := model.ParseCollection(chi.URLParam(r, "collection"))
	if err != nil {
		apierrors.ValidationError(w, model.InvalidCollectionMessage())
		return "", false
	}
	return c, true
}

// List обрабатывает GET /api/{collection}.
func (h *CollectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.List(r.Context(), c))
}

// Create обрабатывает POST /api/{collection}.
func (h *CollectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	body, ok := decodeObject(w, r)
	if !ok {
		return
	}

	rec, err := h.svc.Create(r.Context(), c, body)
	if err != nil {
		internalError(w, h.logger, "Ошибка создания записи", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Update обрабатывает PUT /api/{collection}/{id}.
func (h *CollectionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	body, ok := decodeObject(w, r)
	if !ok {
		return
	}

	rec, err := h.svc.Update(r.Context(), c, chi.URLParam(r, "id"), body)
	if errors.Is(err, model.ErrNotFound) {
		apierrors.NotFound(w, "Not found")
		return
	}
	if err != nil {
		internalError(w, h.logger, "Ошибка обновления записи", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete обрабатывает DELETE /api/{collection}/{id}.
func (h *CollectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	err := h.svc.Delete(r.Context(), c, chi.URLParam(r, "id"))
	if errors.Is(err, model.ErrNotFound) {
		apierrors.NotFound(w, "Not found")
		return
	}
	if err != nil {
		internalError(w, h.logger, "Ошибка удаления записи", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ReplaceAll обрабатывает PUT /api/{collection}: замена коллекции массивом из тела.
func (h *CollectionsHandler) ReplaceAll(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	// Тело читается как any: null и прочие не-массивы отклоняются,
	// иначе null превратился бы в пустой срез и очистил коллекцию.
	var body any
	if err := decodeJSON(r, &body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDecodeError(w, err)
			return
		}
		apierrors.ValidationError(w, "Request body must be a JSON array of objects")
		return
	}

	items, ok := body.([]any)
	if !ok {
		apierrors.ValidationError(w, "Request body must be a JSON array of objects")
		return
	}
	records := make([]model.Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			apierrors.ValidationError(w, "Request body must be a JSON array of objects")
			return
		}
		records = append(records, obj)
	}

	out, err := h.svc.ReplaceAll(r.Context(), c, records)
	if err != nil {
		internalError(w, h.logger, "Ошибка замены коллекции", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
