// models.go — списки доступных моделей провайдеров.
// Успешные ответы провайдеров кэшируются в LRU с TTL
// (hashicorp/golang-lru/v2/expirable); при ошибке отдаётся встроенный список.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/labyrinth/internal/config"
)

// Prometheus-метрики кэша моделей.
var (
	modelsCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labyrinth_models_cache_hits_total",
		Help: "Общее количество попаданий в кэш списков моделей.",
	})
	modelsCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labyrinth_models_cache_misses_total",
		Help: "Общее количество промахов кэша списков моделей.",
	})
)

// Источник списка моделей.
const (
	SourceUpstream = "upstream"
	SourceFallback = "fallback"
)

// Таймауты запросов списка моделей: локальный сервер отвечает быстро или не отвечает вовсе.
const (
	ollamaTagsTimeout   = 3 * time.Second
	remoteModelsTimeout = 5 * time.Second
)

// modelsCacheSize — максимум записей в кэше (провайдер × базовый URL).
const modelsCacheSize = 32

// fallbackModels — встроенные списки на случай недоступности провайдера.
var fallbackModels = map[Provider][]string{
	ProviderOpenAI: {"gpt-4o-mini", "gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"},
	ProviderGemini: {"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-2.5-pro-preview-06-05"},
	ProviderOllama: {"llama3", "mistral", "codellama"},
}

// ModelList — ответ GET /api/ai/models.
type ModelList struct {
	Provider Provider `json:"provider"`
	Models   []string `json:"models"`
	Source   string   `json:"source"`
	Error    string   `json:"error,omitempty"`
}

// ModelLister — получение списков моделей у провайдеров.
type ModelLister struct {
	settings   *SettingsService
	client     *http.Client
	openaiBase string
	geminiBase string
	cache      *expirable.LRU[string, []string]
	logger     *slog.Logger
}

// NewModelLister создаёт сервис списков моделей с кэшем на ttl.
func NewModelLister(settings *SettingsService, client *http.Client, cfg *config.Config, logger *slog.Logger) *ModelLister {
	return &ModelLister{
		settings:   settings,
		client:     client,
		openaiBase: normalizeURL(cfg.OpenAIBaseURL),
		geminiBase: normalizeURL(cfg.GeminiBaseURL),
		cache:      expirable.NewLRU[string, []string](modelsCacheSize, nil, cfg.ModelsCacheTTL),
		logger:     logger.With(slog.String("component", "models")),
	}
}

// List возвращает список моделей провайдера. Ошибки провайдера не возвращаются
// наружу: вместо них отдаётся встроенный список с source=fallback и текстом ошибки.
func (l *ModelLister) List(ctx context.Context, provider Provider, apiKey, ollamaURL string) ModelList {
	fallback := func(msg string) ModelList {
		return ModelList{
			Provider: provider,
			Models:   slices.Clone(fallbackModels[provider]),
			Source:   SourceFallback,
			Error:    msg,
		}
	}

	var base, key string
	switch provider {
	case ProviderOpenAI:
		base, key = l.openaiBase, l.settings.ProviderKey(provider, apiKey)
	case ProviderGemini:
		base, key = l.geminiBase, l.settings.ProviderKey(provider, apiKey)
	case ProviderOllama:
		base = normalizeURL(l.settings.OllamaURL(ollamaURL))
	}
	if provider.needsKey() && key == "" {
		return fallback("")
	}

	cacheKey := string(provider) + "|" + base
	if models, ok := l.cache.Get(cacheKey); ok {
		modelsCacheHitsTotal.Inc()
		return ModelList{Provider: provider, Models: slices.Clone(models), Source: SourceUpstream}
	}
	modelsCacheMissesTotal.Inc()

	models, err := l.fetch(ctx, provider, base, key)
	if err != nil {
		l.logger.Warn("Не удалось получить список моделей",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()),
		)
		return fallback(err.Error())
	}
	if len(models) == 0 {
		return fallback("")
	}

	l.cache.Add(cacheKey, models)
	return ModelList{Provider: provider, Models: slices.Clone(models), Source: SourceUpstream}
}

// fetch запрашивает список у провайдера и приводит его к списку имён.
func (l *ModelLister) fetch(ctx context.Context, provider Provider, base, key string) ([]string, error) {
	timeout := remoteModelsTimeout
	if provider == ProviderOllama {
		timeout = ollamaTagsTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var endpoint string
	switch provider {
	case ProviderOpenAI:
		endpoint = base + "/v1/models"
	case ProviderGemini:
		endpoint = base + "/v1beta/models?key=" + url.QueryEscape(key)
	default:
		endpoint = base + "/api/tags"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}
	if provider == ProviderOpenAI {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := l.client.Do(req) //nolint:gosec // URL провайдера задаётся конфигурацией или пользователем
	if err != nil {
		return nil, fmt.Errorf("запрос к %s: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s models: status %d", provider, resp.StatusCode)
	}

	switch provider {
	case ProviderOpenAI:
		var body struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("декодирование ответа: %w", err)
		}
		var ids []string
		for _, m := range body.Data {
			if strings.HasPrefix(m.ID, "gpt-") {
				ids = append(ids, m.ID)
			}
		}
		slices.Sort(ids)
		return ids, nil

	case ProviderGemini:
		var body struct {
			Models []struct {
				Name string `json:"name"`
			} `json:"models"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("декодирование ответа: %w", err)
		}
		var ids []string
		for _, m := range body.Models {
			id := strings.TrimPrefix(m.Name, "models/")
			if strings.HasPrefix(id, "gemini-") {
				ids = append(ids, id)
			}
		}
		slices.Sort(ids)
		return ids, nil

	default:
		var body struct {
			Models []struct {
				Name string `json:"name"`
			} `json:"models"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("декодирование ответа: %w", err)
		}
		names := make([]string, 0, len(body.Models))
		for _, m := range body.Models {
			names = append(names, m.Name)
		}
		return names, nil
	}
}
