// Пакет repository — доступ к файлам коллекций и настроек в директории данных.
// Каждая операция Save перезаписывает файл целиком. Блокировки не берутся:
// при конкурентной записи одной коллекции побеждает последний снимок.
package repository

import (
	"fmt"

	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/storage/datadir"
	"github.com/bigkaa/labyrinth/internal/storage/jsonfile"
)

// CollectionRepository — хранилище коллекций «один файл на коллекцию».
type CollectionRepository struct {
	dir string
}

// NewCollectionRepository создаёт репозиторий поверх подготовленной директории данных.
func NewCollectionRepository(dir string) *CollectionRepository {
	return &CollectionRepository{dir: dir}
}

// List читает все записи коллекции.
// Нечитаемый или повреждённый файл даёт пустую коллекцию.
func (r *CollectionRepository) List(c model.Collection) []model.Record {
	return jsonfile.ReadArray(datadir.CollectionPath(r.dir, c))
}

// Save перезаписывает файл коллекции полным массивом записей.
func (r *CollectionRepository) Save(c model.Collection, records []model.Record) error {
	if err := jsonfile.WriteArray(datadir.CollectionPath(r.dir, c), records); err != nil {
		return fmt.Errorf("сохранение коллекции %s: %w", c, err)
	}
	return nil
}

// Dir возвращает путь к директории данных.
func (r *CollectionRepository) Dir() string {
	return r.dir
}

// SettingsRepository — хранилище объекта настроек.
type SettingsRepository struct {
	path string
}

// NewSettingsRepository создаёт репозиторий настроек в директории данных.
func NewSettingsRepository(dir string) *SettingsRepository {
	return &SettingsRepository{path: datadir.SettingsPath(dir)}
}

// Get читает объект настроек. Отсутствующий файл даёт пустой объект.
func (r *SettingsRepository) Get() model.Settings {
	return jsonfile.ReadObject(r.path)
}

// Save перезаписывает файл настроек.
func (r *SettingsRepository) Save(s model.Settings) error {
	if err := jsonfile.WriteObject(r.path, s); err != nil {
		return fmt.Errorf("сохранение настроек: %w", err)
	}
	return nil
}
