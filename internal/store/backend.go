// Пакет store — клиентский слой доступа к коллекциям Labyrinth.
// Единый CRUD-контракт поверх одного из двух backend-ов: удалённого
// REST-сервера или локального хранилища устройства. Backend выбирается
// один раз при Open по результату health-проверки и дальше не меняется.
package store

import (
	"context"

	"github.com/bigkaa/labyrinth/internal/domain/model"
)

// Режимы работы хранилища.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Backend — операции над записями коллекций.
// Update и Delete возвращают ошибку, совместимую с model.ErrNotFound,
// если записи с указанным id нет.
type Backend interface {
	// Mode возвращает ModeRemote или ModeLocal.
	Mode() string
	List(ctx context.Context, c model.Collection) ([]model.Record, error)
	Create(ctx context.Context, c model.Collection, body model.Record) (model.Record, error)
	Update(ctx context.Context, c model.Collection, id string, patch model.Patch) (model.Record, error)
	Delete(ctx context.Context, c model.Collection, id string) error
	// ReplaceAll заменяет коллекцию целиком (импорт, очистка).
	ReplaceAll(ctx context.Context, c model.Collection, records []model.Record) ([]model.Record, error)
}
