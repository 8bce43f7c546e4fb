// main.go — точка входа Labyrinth: сервер хранения коллекций и ретранслятор AI-чата.
// Инициализирует компоненты: config, logger, data dir, services,
// topologymetrics, JWT (опционально), HTTP-сервер.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bigkaa/labyrinth/internal/api/handlers"
	"github.com/bigkaa/labyrinth/internal/api/middleware"
	"github.com/bigkaa/labyrinth/internal/config"
	"github.com/bigkaa/labyrinth/internal/repository"
	"github.com/bigkaa/labyrinth/internal/server"
	"github.com/bigkaa/labyrinth/internal/service"
	"github.com/bigkaa/labyrinth/internal/storage/datadir"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Labyrinth запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
	)

	// 3. Директория данных: без доступа на запись сервер не стартует
	if err := datadir.Prepare(cfg.DataDir); err != nil {
		logger.Error("Нет доступа к директории данных", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Директория данных готова", slog.String("data_dir", cfg.DataDir))

	// 4. Сервисы
	collectionSvc := service.NewCollectionService(repository.NewCollectionRepository(cfg.DataDir), logger)
	collectionSvc.RefreshMetrics()
	settingsSvc := service.NewSettingsService(repository.NewSettingsRepository(cfg.DataDir), cfg, logger)

	// Без общего Timeout: стрим чата живёт, пока жив входящий запрос
	upstreamClient := &http.Client{}
	chatRelay := service.NewChatRelay(settingsSvc, upstreamClient, cfg, logger)
	modelLister := service.NewModelLister(settingsSvc, upstreamClient, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. topologymetrics — мониторинг локального сервера моделей
	var deps handlers.DependencyHealth
	dephealthSvc, dephealthErr := service.NewDephealthService(cfg.OllamaURL, cfg.DephealthCheckInterval, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		deps = dephealthSvc
		logger.Info("topologymetrics запущен",
			slog.String("ollama_url", cfg.OllamaURL),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 6. Handlers
	apiHandler := handlers.NewAPIHandler(
		handlers.NewHealthHandler(cfg.DataDir, deps),
		handlers.NewCollectionsHandler(collectionSvc, logger),
		handlers.NewSettingsHandler(settingsSvc, logger),
		handlers.NewChatHandler(chatRelay, modelLister, logger),
		handlers.NewStaticHandler(cfg.StaticDir),
	)

	// 7. Middleware
	middlewares := append(middleware.Base(logger),
		middleware.CORS(cfg.CORSOrigins),
		chimw.RequestSize(cfg.MaxBodyBytes),
	)

	// 8. JWT middleware (опционально)
	if cfg.JWKSUrl != "" {
		jwtAuth, err := middleware.NewJWTAuth(ctx, cfg.JWKSUrl, cfg.JWTLeeway, logger)
		if err != nil {
			logger.Error("Ошибка настройки JWT аутентификации", slog.String("error", err.Error()))
			os.Exit(1)
		}
		middlewares = append(middlewares,
			middleware.OnlyPrefix(middleware.WithExclusions(jwtAuth.Middleware(), "/api/health"), "/api/"),
		)
		logger.Info("JWT аутентификация настроена", slog.String("jwks_url", cfg.JWKSUrl))
	} else {
		logger.Info("JWT аутентификация отключена (LABYRINTH_JWKS_URL не задан)")
	}

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, middlewares...)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Остановка фоновых процессов ---
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Labyrinth остановлен")
}
