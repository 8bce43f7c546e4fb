// chat.go — POST /api/ai/chat (потоковая ретрансляция) и GET /api/ai/models.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/labyrinth/internal/api/errors"
	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/service"
)

// ChatHandler — обработчики AI-ретранслятора.
type ChatHandler struct {
	relay  *service.ChatRelay
	models *service.ModelLister
	logger *slog.Logger
}

// NewChatHandler создаёт обработчик чата.
func NewChatHandler(relay *service.ChatRelay, models *service.ModelLister, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		relay:  relay,
		models: models,
		logger: logger.With(slog.String("component", "chat_handler")),
	}
}

// Chat обрабатывает POST /api/ai/chat.
// До начала стрима ошибки отдаются JSON-ом; после отправки заголовков
// обрыв потока только логируется.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	stream, err := h.relay.Open(r.Context(), req)
	if err != nil {
		h.writeOpenError(w, req, err)
		return
	}
	defer stream.Close()

	header := w.Header()
	header.Set("Content-Type", stream.ContentType())
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	flush := func() error {
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	}
	n, err := stream.Pipe(w, flush)
	if err != nil {
		h.logger.Info("Поток чата прерван",
			slog.String("provider", string(stream.Provider)),
			slog.Int64("bytes", n),
			slog.String("error", err.Error()),
		)
		return
	}
	h.logger.Debug("Поток чата завершён",
		slog.String("provider", string(stream.Provider)),
		slog.String("model", stream.Model),
		slog.Int64("bytes", n),
	)
}

// writeOpenError переводит ошибку открытия потока в HTTP-ответ.
func (h *ChatHandler) writeOpenError(w http.ResponseWriter, req model.ChatRequest, err error) {
	var upErr *service.UpstreamError
	var trErr *service.TransportError

	switch {
	case errors.Is(err, model.ErrInvalidMessages):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrUnknownProvider):
		apierrors.ValidationError(w, fmt.Sprintf("Unknown provider: %s", req.Provider))
	case errors.Is(err, service.ErrNoAPIKey):
		apierrors.ValidationError(w, fmt.Sprintf("No API key configured for provider %s", req.Provider))
	case errors.As(err, &upErr):
		msg := upErr.Body
		if msg == "" {
			msg = http.StatusText(upErr.StatusCode)
		}
		apierrors.Upstream(w, upErr.StatusCode, msg)
	case errors.As(err, &trErr):
		apierrors.BadGateway(w, trErr.Error())
	default:
		internalError(w, h.logger, "Ошибка ретрансляции чата", err)
	}
}

// Models обрабатывает GET /api/ai/models?provider=...
// Ключ и адрес Ollama можно передать заголовками X-Api-Key и X-Ollama-Url,
// иначе используются настройки и окружение.
func (h *ChatHandler) Models(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("provider")
	provider, err := service.ParseProvider(name)
	if err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Unknown provider: %s", name))
		return
	}

	list := h.models.List(r.Context(), provider, r.Header.Get("X-Api-Key"), r.Header.Get("X-Ollama-Url"))
	writeJSON(w, http.StatusOK, list)
}
