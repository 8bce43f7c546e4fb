// Пакет config — загрузка и валидация конфигурации Labyrinth
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Значения по умолчанию для upstream-провайдеров.
const (
	DefaultOpenAIBaseURL = "https://api.openai.com"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultOllamaURL     = "http://localhost:11434"
)

// Config содержит все параметры конфигурации Labyrinth.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (по умолчанию 3001)
	Port int
	// Абсолютный путь к директории данных
	DataDir string
	// Директория со статикой SPA (опционально, отсутствие не ошибка)
	StaticDir string
	// Максимальный размер тела запроса в байтах
	MaxBodyBytes int64
	// Разрешённые CORS origins через запятую
	CORSOrigins string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 0 — без ограничения, стриминг чата)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration
	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- AI-провайдеры ---

	// Ключ OpenAI из окружения (последний в порядке приоритета)
	OpenAIAPIKey string
	// Ключ Gemini из окружения (последний в порядке приоритета)
	GeminiAPIKey string
	// Базовый URL локального сервера моделей из окружения
	OllamaURL string
	// Базовый URL OpenAI API
	OpenAIBaseURL string
	// Базовый URL Gemini API
	GeminiBaseURL string
	// TTL кэша списков моделей
	ModelsCacheTTL time.Duration

	// --- Аутентификация (опционально) ---

	// URL JWKS endpoint. Пустое значение отключает JWT-аутентификацию
	JWKSUrl string
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- Мониторинг зависимостей ---

	// Интервал проверки локального сервера моделей
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// PORT — порт HTTP-сервера (по умолчанию 3001)
	cfg.Port, err = getEnvInt("PORT", 3001)
	if err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// LABYRINTH_DATA_DIR — директория данных (по умолчанию ./data)
	cfg.DataDir, err = filepath.Abs(getEnvDefault("LABYRINTH_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_DATA_DIR: %w", err)
	}

	// LABYRINTH_STATIC_DIR — статика SPA (по умолчанию ./dist)
	cfg.StaticDir = getEnvDefault("LABYRINTH_STATIC_DIR", "./dist")

	// LABYRINTH_MAX_BODY_BYTES — лимит тела запроса (по умолчанию 10 MB)
	cfg.MaxBodyBytes, err = getEnvInt64("LABYRINTH_MAX_BODY_BYTES", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_MAX_BODY_BYTES: %w", err)
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("LABYRINTH_MAX_BODY_BYTES: значение должно быть положительным")
	}

	// LABYRINTH_CORS_ORIGINS — разрешённые origins (по умолчанию *)
	cfg.CORSOrigins = getEnvDefault("LABYRINTH_CORS_ORIGINS", "*")

	// LABYRINTH_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("LABYRINTH_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_LOG_LEVEL: %w", err)
	}

	// LABYRINTH_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("LABYRINTH_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LABYRINTH_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("LABYRINTH_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_HTTP_READ_TIMEOUT: %w", err)
	}

	// Стриминг ответа чата может длиться дольше любого разумного WriteTimeout
	cfg.HTTPWriteTimeout, err = getEnvDuration("LABYRINTH_HTTP_WRITE_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("LABYRINTH_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_HTTP_IDLE_TIMEOUT: %w", err)
	}

	cfg.ShutdownTimeout, err = getEnvDuration("LABYRINTH_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- AI-провайдеры ---

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OllamaURL = getEnvDefault("OLLAMA_URL", DefaultOllamaURL)
	cfg.OpenAIBaseURL = strings.TrimRight(getEnvDefault("LABYRINTH_OPENAI_BASE_URL", DefaultOpenAIBaseURL), "/")
	cfg.GeminiBaseURL = strings.TrimRight(getEnvDefault("LABYRINTH_GEMINI_BASE_URL", DefaultGeminiBaseURL), "/")

	cfg.ModelsCacheTTL, err = getEnvDuration("LABYRINTH_MODELS_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_MODELS_CACHE_TTL: %w", err)
	}

	// --- Аутентификация ---

	cfg.JWKSUrl = getEnvDefault("LABYRINTH_JWKS_URL", "")

	cfg.JWTLeeway, err = getEnvDuration("LABYRINTH_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_JWT_LEEWAY: %w", err)
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthCheckInterval, err = getEnvDuration("LABYRINTH_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LABYRINTH_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 6h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
