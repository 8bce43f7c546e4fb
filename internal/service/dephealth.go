// dephealth.go — мониторинг локального сервера моделей через topologymetrics SDK.
//
// Labyrinth мониторит:
//   - Ollama (HTTP GET /api/tags, non-critical: без него работают хранилище и облачные провайдеры)
//
// Метрики app_dependency_* публикуются на /metrics вместе с остальными.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/prometheus/client_golang/prometheus"
)

// Имена вершин графа зависимостей.
const (
	dephealthServiceID = "labyrinth"
	dephealthGroup     = "labyrinth"
	dephealthOllama    = "ollama"
	ollamaHealthPath   = "/api/tags"
)

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт монитор Ollama по адресу ollamaURL.
// Метрики регистрируются в глобальном Prometheus registry.
func NewDephealthService(ollamaURL string, checkInterval time.Duration, logger *slog.Logger) (*DephealthService, error) {
	return newDephealthService(ollamaURL, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	ollamaURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(ollamaURL, checkInterval, logger, dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	ollamaURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	opts := make([]dephealth.Option, 0, 2+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.HTTP(dephealthOllama,
			dephealth.FromURL(ollamaURL),
			dephealth.WithHTTPHealthPath(ollamaHealthPath),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(false),
		),
	)
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(dephealthServiceID, dephealthGroup, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
