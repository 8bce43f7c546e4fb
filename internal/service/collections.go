// Пакет service — бизнес-логика Labyrinth.
// collections.go — CRUD записей коллекций и каскадное удаление проекта.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/labyrinth/internal/api/middleware"
	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/repository"
)

// CollectionService — операции над записями коллекций.
// Каждая мутация — цикл «прочитать весь файл → изменить → записать весь файл».
// Параллельные мутации одной коллекции не сериализуются: последняя запись побеждает.
type CollectionService struct {
	repo   *repository.CollectionRepository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewCollectionService создаёт сервис коллекций.
func NewCollectionService(repo *repository.CollectionRepository, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		repo:   repo,
		logger: logger.With(slog.String("component", "collections")),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// List возвращает все записи коллекции в порядке хранения.
func (s *CollectionService) List(_ context.Context, c model.Collection) []model.Record {
	return s.repo.List(c)
}

// Create добавляет запись. id, createdAt и updatedAt назначаются сервером
// и перекрывают значения из тела; у media нет updatedAt.
func (s *CollectionService) Create(_ context.Context, c model.Collection, body model.Record) (model.Record, error) {
	records := s.repo.List(c)

	rec := model.Stamp(c, body, s.newID(), model.Timestamp(s.now()))
	records = append(records, rec)
	if err := s.repo.Save(c, records); err != nil {
		return nil, err
	}
	s.observe(c, records)

	s.logger.Debug("Запись создана",
		slog.String("collection", string(c)),
		slog.String("id", rec.ID()),
	)
	return rec, nil
}

// Update сливает patch с записью id. Возвращает model.ErrNotFound,
// если записи нет; файл в этом случае не перезаписывается.
func (s *CollectionService) Update(_ context.Context, c model.Collection, id string, patch model.Patch) (model.Record, error) {
	records := s.repo.List(c)

	idx := model.IndexOf(records, id)
	if idx < 0 {
		return nil, model.ErrNotFound
	}

	updated := model.Apply(c, records[idx], patch, model.Timestamp(s.now()))
	records[idx] = updated

	if err := s.repo.Save(c, records); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete удаляет запись id. Возвращает model.ErrNotFound, если ничего не удалено.
// Удаление проекта каскадно отвязывает от него документы, сниппеты и медиа
// (projectId = null) и удаляет его задачи.
func (s *CollectionService) Delete(_ context.Context, c model.Collection, id string) error {
	records := s.repo.List(c)

	idx := model.IndexOf(records, id)
	if idx < 0 {
		return model.ErrNotFound
	}

	records = append(records[:idx], records[idx+1:]...)
	if err := s.repo.Save(c, records); err != nil {
		return err
	}
	s.observe(c, records)

	if c == model.CollectionProjects {
		return s.cascadeProject(id)
	}
	return nil
}

// cascadeProject обрабатывает связанные с удалённым проектом записи.
// Шаги выполняются последовательно, без транзакции: при сбое записи
// часть коллекций может остаться необработанной.
func (s *CollectionService) cascadeProject(projectID string) error {
	unlinked := 0
	for _, c := range model.Unlinked() {
		records := s.repo.List(c)
		n := model.UnlinkProject(records, projectID)
		if n == 0 {
			continue
		}
		if err := s.repo.Save(c, records); err != nil {
			return err
		}
		unlinked += n
	}

	tasks, removed := model.WithoutProject(s.repo.List(model.CollectionTasks), projectID)
	if removed > 0 {
		if err := s.repo.Save(model.CollectionTasks, tasks); err != nil {
			return err
		}
		s.observe(model.CollectionTasks, tasks)
	}

	s.logger.Info("Проект удалён каскадно",
		slog.String("project_id", projectID),
		slog.Int("unlinked", unlinked),
		slog.Int("tasks_removed", removed),
	)
	return nil
}

// ReplaceAll заменяет коллекцию целиком (импорт резервной копии, очистка).
// Записям без id назначается новый id, недостающие метки времени заполняются.
func (s *CollectionService) ReplaceAll(_ context.Context, c model.Collection, records []model.Record) ([]model.Record, error) {
	ts := model.Timestamp(s.now())
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		out = append(out, model.Normalize(c, r, s.newID, ts))
	}

	if err := s.repo.Save(c, out); err != nil {
		return nil, err
	}
	s.observe(c, out)

	s.logger.Info("Коллекция заменена",
		slog.String("collection", string(c)),
		slog.Int("records", len(out)),
	)
	return out, nil
}

// RefreshMetrics выставляет gauge labyrinth_records по текущему содержимому файлов.
// Вызывается при старте.
func (s *CollectionService) RefreshMetrics() {
	for _, c := range model.Collections() {
		s.observe(c, s.repo.List(c))
	}
}

func (s *CollectionService) observe(c model.Collection, records []model.Record) {
	middleware.RecordsTotal.WithLabelValues(string(c)).Set(float64(len(records)))
}
