// Пакет model — доменные модели Labyrinth.
// Collection — имя коллекции записей, единица хранения и сегмент REST-пути.
// Record/Patch/Settings — обобщённые JSON-объекты, с которыми работает сервер.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Collection — имя коллекции записей.
type Collection string

const (
	// CollectionProjects — проекты (корневая группировка)
	CollectionProjects Collection = "projects"
	// CollectionDocuments — документы
	CollectionDocuments Collection = "documents"
	// CollectionSnippets — фрагменты кода
	CollectionSnippets Collection = "snippets"
	// CollectionMedia — медиа-элементы (без updatedAt)
	CollectionMedia Collection = "media"
	// CollectionTasks — задачи (жёсткая привязка к проекту)
	CollectionTasks Collection = "tasks"
)

// Имена служебных полей записи.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldProjectID = "projectId"
)

// allCollections — фиксированный allow-list коллекций в каноническом порядке.
var allCollections = []Collection{
	CollectionProjects,
	CollectionDocuments,
	CollectionSnippets,
	CollectionMedia,
	CollectionTasks,
}

// Collections возвращает копию allow-list коллекций.
func Collections() []Collection {
	out := make([]Collection, len(allCollections))
	copy(out, allCollections)
	return out
}

// CollectionNames возвращает имена коллекций строками (для health и ошибок).
func CollectionNames() []string {
	names := make([]string, 0, len(allCollections))
	for _, c := range allCollections {
		names = append(names, string(c))
	}
	return names
}

// ParseCollection проверяет имя коллекции по allow-list.
func ParseCollection(name string) (Collection, error) {
	for _, c := range allCollections {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidCollection, InvalidCollectionMessage())
}

// InvalidCollectionMessage — текст ошибки с перечнем допустимых коллекций.
func InvalidCollectionMessage() string {
	return "Invalid collection. Valid: " + strings.Join(CollectionNames(), ", ")
}

// HasUpdatedAt сообщает, ведёт ли коллекция поле updatedAt.
// Медиа-элементы неизменяемы после создания, поэтому updatedAt у них нет.
func (c Collection) HasUpdatedAt() bool {
	return c != CollectionMedia
}

// LinksProject сообщает, содержат ли записи коллекции ссылку projectId.
func (c Collection) LinksProject() bool {
	return c != CollectionProjects
}

// StorageKey — ключ коллекции в локальном хранилище устройства.
func (c Collection) StorageKey() string {
	return "labyrinth_" + string(c)
}

// Timestamp форматирует момент времени в ISO-8601 (UTC, миллисекунды).
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
