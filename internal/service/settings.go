// settings.go — объект настроек и разрешение ключей провайдеров.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/labyrinth/internal/config"
	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/repository"
)

// SettingsService — чтение и поверхностное слияние настроек.
type SettingsService struct {
	repo *repository.SettingsRepository
	// Значения из окружения — последний уровень приоритета.
	envKeys   map[Provider]string
	envOllama string
	logger    *slog.Logger
}

// NewSettingsService создаёт сервис настроек.
func NewSettingsService(repo *repository.SettingsRepository, cfg *config.Config, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo: repo,
		envKeys: map[Provider]string{
			ProviderOpenAI: cfg.OpenAIAPIKey,
			ProviderGemini: cfg.GeminiAPIKey,
		},
		envOllama: cfg.OllamaURL,
		logger:    logger.With(slog.String("component", "settings")),
	}
}

// Get возвращает текущий объект настроек (пустой, если файла нет).
func (s *SettingsService) Get(_ context.Context) model.Settings {
	return s.repo.Get()
}

// Merge накладывает patch поверх настроек на один уровень вглубь
// и возвращает итоговый объект.
func (s *SettingsService) Merge(_ context.Context, patch model.Settings) (model.Settings, error) {
	merged := s.repo.Get()
	for k, v := range patch {
		merged[k] = v
	}
	if err := s.repo.Save(merged); err != nil {
		return nil, err
	}
	s.logger.Info("Настройки обновлены", slog.Int("keys", len(patch)))
	return merged, nil
}

// ProviderKey разрешает API-ключ провайдера: ключ из запроса,
// затем сохранённый в настройках, затем переменная окружения.
func (s *SettingsService) ProviderKey(provider Provider, requestKey string) string {
	if requestKey != "" {
		return requestKey
	}
	if name := provider.settingsKey(); name != "" {
		if v := s.repo.Get().String(name); v != "" {
			return v
		}
	}
	return s.envKeys[provider]
}

// OllamaURL разрешает базовый URL Ollama: запрос, настройки, окружение, значение по умолчанию.
func (s *SettingsService) OllamaURL(requestURL string) string {
	if requestURL != "" {
		return requestURL
	}
	if v := s.repo.Get().String(model.SettingOllamaURL); v != "" {
		return v
	}
	if s.envOllama != "" {
		return s.envOllama
	}
	return config.DefaultOllamaURL
}
