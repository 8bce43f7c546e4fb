// store.go — выбор backend-а и типизированные коллекции.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bigkaa/labyrinth/internal/domain/model"
)

// Options — параметры Open.
type Options struct {
	// BaseURL — адрес сервера Labyrinth. Пустой — сразу локальный режим.
	BaseURL string
	// Client — HTTP-клиент для проверки и remote backend-а.
	Client *http.Client
	// KV — хранилище устройства для локального режима. nil — MemoryKV.
	KV     KV
	Logger *slog.Logger
}

// Store — хранилище коллекций с зафиксированным backend-ом.
type Store struct {
	backend      Backend
	availability Availability
	logger       *slog.Logger
	now          func() time.Time
}

// Open проверяет сервер один раз и фиксирует backend на всё время жизни Store.
// Повторная проверка — новый вызов Open.
func Open(ctx context.Context, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	avail := Probe(ctx, opts.Client, opts.BaseURL)

	var backend Backend
	if avail.Available {
		backend = NewRemoteBackend(avail.BaseURL, opts.Client)
		logger.Info("Сервер доступен, используется удалённое хранилище",
			slog.String("base_url", avail.BaseURL),
		)
	} else {
		kv := opts.KV
		if kv == nil {
			kv = NewMemoryKV()
		}
		backend = NewLocalBackend(kv, logger)
		logger.Info("Сервер недоступен, используется локальное хранилище",
			slog.String("base_url", avail.BaseURL),
		)
	}

	s := New(backend, logger)
	s.availability = avail
	return s
}

// New создаёт Store поверх заданного backend-а без проверки сервера.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:      backend,
		availability: Availability{Available: backend.Mode() == ModeRemote},
		logger:       logger.With(slog.String("component", "store")),
		now:          time.Now,
	}
}

// Mode возвращает ModeRemote или ModeLocal.
func (s *Store) Mode() string { return s.backend.Mode() }

// Backend возвращает выбранный backend.
func (s *Store) Backend() Backend { return s.backend }

// Availability возвращает результат проверки сервера.
func (s *Store) Availability() Availability { return s.availability }

func (s *Store) Projects() *Collection[model.Project] {
	return newCollection[model.Project](s, model.CollectionProjects, nil)
}

func (s *Store) Documents() *Collection[model.Document] {
	return newCollection[model.Document](s, model.CollectionDocuments, nil)
}

func (s *Store) Snippets() *Collection[model.Snippet] {
	return newCollection[model.Snippet](s, model.CollectionSnippets, prepareSnippet)
}

func (s *Store) Media() *Collection[model.MediaItem] {
	return newCollection[model.MediaItem](s, model.CollectionMedia, nil)
}

func (s *Store) Tasks() *Collection[model.Task] {
	return newCollection[model.Task](s, model.CollectionTasks, prepareTask)
}

// Export собирает полный снимок всех коллекций.
// В отличие от GetAll ошибки чтения не скрываются.
func (s *Store) Export(ctx context.Context) (model.Backup, error) {
	snapshot := make(map[string]any, len(model.Collections())+1)
	for _, c := range model.Collections() {
		records, err := s.backend.List(ctx, c)
		if err != nil {
			return model.Backup{}, fmt.Errorf("экспорт коллекции %s: %w", c, err)
		}
		snapshot[string(c)] = records
	}
	snapshot["exportedAt"] = model.Timestamp(s.now())

	var backup model.Backup
	if err := convert(snapshot, &backup); err != nil {
		return model.Backup{}, fmt.Errorf("сборка резервной копии: %w", err)
	}
	return backup, nil
}

// Import заменяет все коллекции содержимым резервной копии.
// Коллекции обрабатываются по очереди, без транзакции.
func (s *Store) Import(ctx context.Context, backup model.Backup) error {
	parts := map[model.Collection]any{
		model.CollectionProjects:  backup.Projects,
		model.CollectionDocuments: backup.Documents,
		model.CollectionSnippets:  backup.Snippets,
		model.CollectionMedia:     backup.Media,
		model.CollectionTasks:     backup.Tasks,
	}
	for _, c := range model.Collections() {
		records := []model.Record{}
		if err := convert(parts[c], &records); err != nil {
			return fmt.Errorf("импорт коллекции %s: %w", c, err)
		}
		if records == nil {
			records = []model.Record{}
		}
		if _, err := s.backend.ReplaceAll(ctx, c, records); err != nil {
			return fmt.Errorf("импорт коллекции %s: %w", c, err)
		}
	}
	s.logger.Info("Резервная копия импортирована",
		slog.Int("projects", len(backup.Projects)),
		slog.Int("documents", len(backup.Documents)),
		slog.Int("snippets", len(backup.Snippets)),
		slog.Int("media", len(backup.Media)),
		slog.Int("tasks", len(backup.Tasks)),
	)
	return nil
}

// Clear очищает все коллекции.
func (s *Store) Clear(ctx context.Context) error {
	for _, c := range model.Collections() {
		if _, err := s.backend.ReplaceAll(ctx, c, []model.Record{}); err != nil {
			return fmt.Errorf("очистка коллекции %s: %w", c, err)
		}
	}
	s.logger.Info("Все коллекции очищены")
	return nil
}

// CycleTaskStatus переводит задачу в следующий статус: TODO → IN_PROGRESS → DONE → TODO.
func (s *Store) CycleTaskStatus(ctx context.Context, id string) (model.Task, error) {
	tasks := s.Tasks()
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	return tasks.Update(ctx, id, model.Patch{"status": string(task.Status.Next())})
}

// Collection — типизированное представление коллекции.
type Collection[T model.Entity] struct {
	store *Store
	name  model.Collection
	// prepare проверяет и дополняет тело перед записью; creating — признак создания.
	prepare func(body map[string]any, creating bool) error
}

func newCollection[T model.Entity](s *Store, c model.Collection, prepare func(map[string]any, bool) error) *Collection[T] {
	return &Collection[T]{store: s, name: c, prepare: prepare}
}

// Name возвращает имя коллекции.
func (c *Collection[T]) Name() model.Collection { return c.name }

// GetAll возвращает все записи. Ошибки backend-а логируются,
// вызывающий получает пустой список.
func (c *Collection[T]) GetAll(ctx context.Context) []T {
	records, err := c.store.backend.List(ctx, c.name)
	if err != nil {
		c.store.logger.Warn("Ошибка чтения коллекции",
			slog.String("collection", string(c.name)),
			slog.String("error", err.Error()),
		)
		return []T{}
	}
	return c.decodeAll(records)
}

// GetByID возвращает запись id или model.ErrNotFound.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	records, err := c.store.backend.List(ctx, c.name)
	if err != nil {
		return zero, err
	}
	idx := model.IndexOf(records, id)
	if idx < 0 {
		return zero, model.ErrNotFound
	}
	return decodeRecord[T](records[idx])
}

// GetByProject возвращает записи, привязанные к проекту. Fail-soft, как GetAll.
func (c *Collection[T]) GetByProject(ctx context.Context, projectID string) []T {
	records, err := c.store.backend.List(ctx, c.name)
	if err != nil {
		c.store.logger.Warn("Ошибка чтения коллекции",
			slog.String("collection", string(c.name)),
			slog.String("error", err.Error()),
		)
		return []T{}
	}
	matched := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if pid, ok := rec.ProjectID(); ok && pid == projectID {
			matched = append(matched, rec)
		}
	}
	return c.decodeAll(matched)
}

// Create создаёт запись. id и метки времени назначает backend.
func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	body := model.Record{}
	if err := convert(item, &body); err != nil {
		return zero, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	delete(body, model.FieldID)
	delete(body, model.FieldCreatedAt)
	delete(body, model.FieldUpdatedAt)

	if c.prepare != nil {
		if err := c.prepare(body, true); err != nil {
			return zero, err
		}
	}

	rec, err := c.store.backend.Create(ctx, c.name, body)
	if err != nil {
		return zero, err
	}
	return decodeRecord[T](rec)
}

// Update применяет частичное обновление. Неизвестный id — model.ErrNotFound.
func (c *Collection[T]) Update(ctx context.Context, id string, patch model.Patch) (T, error) {
	var zero T
	if c.prepare != nil {
		if err := c.prepare(patch, false); err != nil {
			return zero, err
		}
	}
	rec, err := c.store.backend.Update(ctx, c.name, id, patch)
	if err != nil {
		return zero, err
	}
	return decodeRecord[T](rec)
}

// Delete удаляет запись. Неизвестный id — model.ErrNotFound.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.store.backend.Delete(ctx, c.name, id)
}

// decodeAll приводит записи к T, пропуская неразбираемые.
func (c *Collection[T]) decodeAll(records []model.Record) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		item, err := decodeRecord[T](rec)
		if err != nil {
			c.store.logger.Warn("Пропущена запись неверного формата",
				slog.String("collection", string(c.name)),
				slog.String("id", rec.ID()),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, item)
	}
	return out
}

func decodeRecord[T any](rec model.Record) (T, error) {
	var out T
	if err := convert(rec, &out); err != nil {
		return out, fmt.Errorf("разбор записи %s: %w", rec.ID(), err)
	}
	return out, nil
}

// convert перекладывает значение через JSON: типизированные структуры
// и обобщённые записи имеют одинаковое JSON-представление.
func convert(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// prepareTask: задача всегда принадлежит проекту; статус и приоритет
// по умолчанию TODO и MEDIUM.
func prepareTask(body map[string]any, creating bool) error {
	if v, present := body[model.FieldProjectID]; creating || present {
		if pid, _ := v.(string); pid == "" {
			return fmt.Errorf("%w: task requires projectId", model.ErrValidation)
		}
	}

	status, _ := body["status"].(string)
	switch {
	case status != "":
		if !model.TaskStatus(status).Valid() {
			return fmt.Errorf("%w: invalid task status %q", model.ErrValidation, status)
		}
	case creating:
		body["status"] = string(model.TaskTodo)
	}

	priority, _ := body["priority"].(string)
	switch {
	case priority != "":
		if !model.TaskPriority(priority).Valid() {
			return fmt.Errorf("%w: invalid task priority %q", model.ErrValidation, priority)
		}
	case creating:
		body["priority"] = string(model.PriorityMedium)
	}
	return nil
}

// prepareSnippet проверяет язык, если он задан.
func prepareSnippet(body map[string]any, _ bool) error {
	lang, _ := body["language"].(string)
	if lang != "" && !model.SnippetLanguage(lang).Valid() {
		return fmt.Errorf("%w: invalid snippet language %q", model.ErrValidation, lang)
	}
	return nil
}

// IsNotFound сообщает, что ошибка означает отсутствие записи.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
