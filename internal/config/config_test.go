package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

// envKeys — все переменные окружения, читаемые Load.
var envKeys = []string{
	"PORT", "LABYRINTH_DATA_DIR", "LABYRINTH_STATIC_DIR", "LABYRINTH_MAX_BODY_BYTES",
	"LABYRINTH_CORS_ORIGINS", "LABYRINTH_LOG_LEVEL", "LABYRINTH_LOG_FORMAT",
	"LABYRINTH_HTTP_READ_TIMEOUT", "LABYRINTH_HTTP_WRITE_TIMEOUT", "LABYRINTH_HTTP_IDLE_TIMEOUT",
	"LABYRINTH_SHUTDOWN_TIMEOUT", "OPENAI_API_KEY", "GEMINI_API_KEY", "OLLAMA_URL",
	"LABYRINTH_OPENAI_BASE_URL", "LABYRINTH_GEMINI_BASE_URL", "LABYRINTH_MODELS_CACHE_TTL",
	"LABYRINTH_JWKS_URL", "LABYRINTH_JWT_LEEWAY", "LABYRINTH_DEPHEALTH_CHECK_INTERVAL",
}

// clearEnv сбрасывает все переменные конфигурации для чистого теста.
// t.Setenv восстанавливает исходные значения после теста.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 3001 {
		t.Errorf("Port: ожидалось 3001, получено %d", cfg.Port)
	}
	wantDir, _ := filepath.Abs("./data")
	if cfg.DataDir != wantDir {
		t.Errorf("DataDir: ожидалось %q, получено %q", wantDir, cfg.DataDir)
	}
	if cfg.MaxBodyBytes != 10<<20 {
		t.Errorf("MaxBodyBytes: ожидалось 10 MB, получено %d", cfg.MaxBodyBytes)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось info, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось json, получено %q", cfg.LogFormat)
	}
	if cfg.HTTPWriteTimeout != 0 {
		t.Errorf("HTTPWriteTimeout: ожидалось 0, получено %v", cfg.HTTPWriteTimeout)
	}
	if cfg.OllamaURL != DefaultOllamaURL {
		t.Errorf("OllamaURL: ожидалось %q, получено %q", DefaultOllamaURL, cfg.OllamaURL)
	}
	if cfg.OpenAIBaseURL != DefaultOpenAIBaseURL {
		t.Errorf("OpenAIBaseURL: получено %q", cfg.OpenAIBaseURL)
	}
	if cfg.ModelsCacheTTL != 10*time.Minute {
		t.Errorf("ModelsCacheTTL: ожидалось 10m, получено %v", cfg.ModelsCacheTTL)
	}
	if cfg.JWKSUrl != "" {
		t.Errorf("JWKSUrl: ожидалась пустая строка, получено %q", cfg.JWKSUrl)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("PORT", "8080")
	t.Setenv("LABYRINTH_DATA_DIR", dir)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("GEMINI_API_KEY", "g-env")
	t.Setenv("OLLAMA_URL", "http://gpu:11434")
	t.Setenv("LABYRINTH_OPENAI_BASE_URL", "http://mock/")
	t.Setenv("LABYRINTH_LOG_LEVEL", "debug")
	t.Setenv("LABYRINTH_LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: ожидалось 8080, получено %d", cfg.Port)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir: ожидалось %q, получено %q", dir, cfg.DataDir)
	}
	if cfg.OpenAIAPIKey != "sk-env" || cfg.GeminiAPIKey != "g-env" {
		t.Errorf("ключи провайдеров не прочитаны: %q %q", cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	}
	if cfg.OllamaURL != "http://gpu:11434" {
		t.Errorf("OllamaURL: получено %q", cfg.OllamaURL)
	}
	if cfg.OpenAIBaseURL != "http://mock" {
		t.Errorf("OpenAIBaseURL: trailing slash не убран: %q", cfg.OpenAIBaseURL)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "text" {
		t.Errorf("логирование: %v %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"порт не число", "PORT", "abc"},
		{"порт вне диапазона", "PORT", "70000"},
		{"неверный уровень логов", "LABYRINTH_LOG_LEVEL", "verbose"},
		{"неверный формат логов", "LABYRINTH_LOG_FORMAT", "xml"},
		{"неверная длительность", "LABYRINTH_HTTP_READ_TIMEOUT", "soon"},
		{"отрицательный лимит тела", "LABYRINTH_MAX_BODY_BYTES", "-1"},
		{"неверный TTL кэша", "LABYRINTH_MODELS_CACHE_TTL", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("%s=%q: ожидалась ошибка", tt.key, tt.value)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if err != nil {
			t.Fatalf("%q: неожиданная ошибка: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("%q: ожидалось %v, получено %v", tt.input, tt.want, got)
		}
	}
}
