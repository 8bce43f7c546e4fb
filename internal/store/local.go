// local.go — backend поверх хранилища устройства: один ключ на коллекцию,
// значение — полный JSON-массив записей.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/labyrinth/internal/domain/model"
)

// LocalBackend — CRUD коллекций в KV с теми же правилами мутаций, что у сервера.
type LocalBackend struct {
	kv     KV
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewLocalBackend создаёт локальный backend поверх kv.
func NewLocalBackend(kv KV, logger *slog.Logger) *LocalBackend {
	return &LocalBackend{
		kv:     kv,
		logger: logger.With(slog.String("component", "local_store")),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Mode возвращает ModeLocal.
func (b *LocalBackend) Mode() string { return ModeLocal }

func (b *LocalBackend) List(ctx context.Context, c model.Collection) ([]model.Record, error) {
	return b.read(ctx, c), nil
}

func (b *LocalBackend) Create(ctx context.Context, c model.Collection, body model.Record) (model.Record, error) {
	records := b.read(ctx, c)
	rec := model.Stamp(c, body, b.newID(), model.Timestamp(b.now()))
	if err := b.write(ctx, c, append(records, rec)); err != nil {
		return nil, err
	}
	return rec, nil
}

func (b *LocalBackend) Update(ctx context.Context, c model.Collection, id string, patch model.Patch) (model.Record, error) {
	records := b.read(ctx, c)
	idx := model.IndexOf(records, id)
	if idx < 0 {
		return nil, model.ErrNotFound
	}

	records[idx] = model.Apply(c, records[idx], patch, model.Timestamp(b.now()))
	if err := b.write(ctx, c, records); err != nil {
		return nil, err
	}
	return records[idx], nil
}

// Delete удаляет запись; удаление проекта отвязывает документы, сниппеты
// и медиа и удаляет задачи проекта.
func (b *LocalBackend) Delete(ctx context.Context, c model.Collection, id string) error {
	records := b.read(ctx, c)
	idx := model.IndexOf(records, id)
	if idx < 0 {
		return model.ErrNotFound
	}

	if err := b.write(ctx, c, append(records[:idx], records[idx+1:]...)); err != nil {
		return err
	}
	if c != model.CollectionProjects {
		return nil
	}

	for _, linked := range model.Unlinked() {
		recs := b.read(ctx, linked)
		if model.UnlinkProject(recs, id) == 0 {
			continue
		}
		if err := b.write(ctx, linked, recs); err != nil {
			return err
		}
	}
	tasks, removed := model.WithoutProject(b.read(ctx, model.CollectionTasks), id)
	if removed > 0 {
		return b.write(ctx, model.CollectionTasks, tasks)
	}
	return nil
}

func (b *LocalBackend) ReplaceAll(ctx context.Context, c model.Collection, records []model.Record) ([]model.Record, error) {
	ts := model.Timestamp(b.now())
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		out = append(out, model.Normalize(c, r, b.newID, ts))
	}
	if err := b.write(ctx, c, out); err != nil {
		return nil, err
	}
	return out, nil
}

// read возвращает массив коллекции. Отсутствующий ключ, ошибка чтения
// или невалидный JSON дают пустой массив.
func (b *LocalBackend) read(ctx context.Context, c model.Collection) []model.Record {
	raw, ok, err := b.kv.Get(ctx, c.StorageKey())
	if err != nil {
		b.logger.Warn("Ошибка чтения коллекции",
			slog.String("collection", string(c)),
			slog.String("error", err.Error()),
		)
		return []model.Record{}
	}
	if !ok || raw == "" {
		return []model.Record{}
	}

	var records []model.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		b.logger.Warn("Повреждённые данные коллекции, используется пустой массив",
			slog.String("collection", string(c)),
			slog.String("error", err.Error()),
		)
		return []model.Record{}
	}
	if records == nil {
		records = []model.Record{}
	}
	return records
}

// write сериализует и сохраняет весь массив коллекции.
func (b *LocalBackend) write(ctx context.Context, c model.Collection, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("сериализация коллекции %s: %w", c, err)
	}
	if err := b.kv.Set(ctx, c.StorageKey(), string(data)); err != nil {
		return fmt.Errorf("сохранение коллекции %s: %w", c, err)
	}
	return nil
}
