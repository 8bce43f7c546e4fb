// chat.go — ретрансляция потоковых ответов AI-провайдеров.
// Запрос к провайдеру привязан к контексту входящего запроса:
// отключение клиента отменяет чтение upstream.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/labyrinth/internal/api/middleware"
	"github.com/bigkaa/labyrinth/internal/config"
	"github.com/bigkaa/labyrinth/internal/domain/model"
)

// Provider — внешний провайдер языковой модели.
type Provider string

// Поддерживаемые провайдеры.
const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// Ошибки ретранслятора.
var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrNoAPIKey        = errors.New("no API key configured")
)

// ParseProvider проверяет имя провайдера.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(name); p {
	case ProviderOpenAI, ProviderGemini, ProviderOllama:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// settingsKey — ключ настроек с API-ключом провайдера.
func (p Provider) settingsKey() string {
	switch p {
	case ProviderOpenAI:
		return model.SettingOpenAIKey
	case ProviderGemini:
		return model.SettingGeminiKey
	default:
		return ""
	}
}

// needsKey сообщает, требует ли провайдер API-ключ.
func (p Provider) needsKey() bool {
	return p != ProviderOllama
}

// DefaultModel — модель, используемая, если клиент её не указал.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderGemini:
		return "gemini-2.0-flash"
	default:
		return "llama3"
	}
}

// ContentType — тип содержимого потока, отдаваемого клиенту.
// Ollama стримит NDJSON, OpenAI-совместимые API — SSE.
func (p Provider) ContentType() string {
	if p == ProviderOllama {
		return "application/x-ndjson"
	}
	return "text/event-stream"
}

// UpstreamError — провайдер ответил ошибкой до начала стриминга.
// Статус и текст ответа передаются клиенту.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// TransportError — провайдер недоступен (сеть, DNS, отказ соединения).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// maxUpstreamErrorBody — сколько байт тела ошибки провайдера читается для ответа клиенту.
const maxUpstreamErrorBody = 64 << 10

// ChatRelay — ретранслятор чата.
type ChatRelay struct {
	settings   *SettingsService
	client     *http.Client
	openaiBase string
	geminiBase string
	logger     *slog.Logger
}

// NewChatRelay создаёт ретранслятор. client не должен иметь общего Timeout:
// длительность стрима ограничивается контекстом входящего запроса.
func NewChatRelay(settings *SettingsService, client *http.Client, cfg *config.Config, logger *slog.Logger) *ChatRelay {
	return &ChatRelay{
		settings:   settings,
		client:     client,
		openaiBase: normalizeURL(cfg.OpenAIBaseURL),
		geminiBase: normalizeURL(cfg.GeminiBaseURL),
		logger:     logger.With(slog.String("component", "chat_relay")),
	}
}

// ChatStream — открытый поток ответа провайдера.
type ChatStream struct {
	Provider Provider
	Model    string
	body     io.ReadCloser
}

// ContentType — тип содержимого для ответа клиенту.
func (s *ChatStream) ContentType() string {
	return s.Provider.ContentType()
}

// Close закрывает поток провайдера.
func (s *ChatStream) Close() error {
	return s.body.Close()
}

// Pipe копирует поток провайдера в dst кусками по мере поступления,
// вызывая flush после каждой записи. Медленный клиент замедляет чтение upstream.
// Возвращает число переданных байт.
func (s *ChatStream) Pipe(dst io.Writer, flush func() error) (int64, error) {
	buf := make([]byte, 32<<10)
	var total int64
	for {
		n, rerr := s.body.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			total += int64(w)
			middleware.ChatStreamBytesTotal.WithLabelValues(string(s.Provider)).Add(float64(w))
			if werr != nil {
				return total, werr
			}
			if ferr := flush(); ferr != nil {
				return total, ferr
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// Open проверяет запрос, разрешает ключ и открывает поток у провайдера.
// Ошибки: model.ErrInvalidMessages, ErrUnknownProvider, ErrNoAPIKey (до обращения к провайдеру),
// *UpstreamError (провайдер ответил не 2xx), *TransportError (провайдер недоступен).
func (r *ChatRelay) Open(ctx context.Context, req model.ChatRequest) (*ChatStream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	provider, err := ParseProvider(req.Provider)
	if err != nil {
		return nil, err
	}
	if err := r.checkKey(provider, req.APIKey); err != nil {
		return nil, err
	}

	httpReq, modelName, err := r.buildRequest(ctx, provider, req)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		middleware.ChatRequestsTotal.WithLabelValues(string(provider), "transport_error").Inc()
		r.logger.Warn("Провайдер недоступен",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()),
		)
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamErrorBody))
		middleware.ChatRequestsTotal.WithLabelValues(string(provider), "upstream_error").Inc()
		r.logger.Warn("Провайдер вернул ошибку",
			slog.String("provider", string(provider)),
			slog.Int("status", resp.StatusCode),
		)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	middleware.ChatRequestsTotal.WithLabelValues(string(provider), "ok").Inc()
	r.logger.Debug("Поток провайдера открыт",
		slog.String("provider", string(provider)),
		slog.String("model", modelName),
	)
	return &ChatStream{Provider: provider, Model: modelName, body: resp.Body}, nil
}

// checkKey отклоняет запрос без ключа для провайдеров, которым он нужен.
func (r *ChatRelay) checkKey(provider Provider, requestKey string) error {
	if !provider.needsKey() {
		return nil
	}
	if r.settings.ProviderKey(provider, requestKey) == "" {
		middleware.ChatRequestsTotal.WithLabelValues(string(provider), "no_key").Inc()
		return fmt.Errorf("%w for provider %s", ErrNoAPIKey, provider)
	}
	return nil
}

// buildRequest собирает запрос к провайдеру.
func (r *ChatRelay) buildRequest(ctx context.Context, provider Provider, req model.ChatRequest) (*http.Request, string, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = provider.DefaultModel()
	}

	payload, err := json.Marshal(map[string]any{
		"model":    modelName,
		"messages": req.Messages,
		"stream":   true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("сериализация запроса к провайдеру: %w", err)
	}

	var endpoint, key string
	switch provider {
	case ProviderOpenAI:
		endpoint = r.openaiBase + "/v1/chat/completions"
		key = r.settings.ProviderKey(provider, req.APIKey)
	case ProviderGemini:
		endpoint = r.geminiBase + "/v1beta/openai/chat/completions"
		key = r.settings.ProviderKey(provider, req.APIKey)
	case ProviderOllama:
		endpoint = normalizeURL(r.settings.OllamaURL(req.OllamaURL)) + "/api/chat"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, "", &TransportError{Err: fmt.Errorf("создание запроса к %s: %w", provider, err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}
	return httpReq, modelName, nil
}

// normalizeURL убирает trailing slash из базового URL.
func normalizeURL(u string) string {
	return strings.TrimRight(u, "/")
}
