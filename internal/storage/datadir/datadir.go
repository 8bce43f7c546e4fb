// Пакет datadir — подготовка директории данных Labyrinth.
// Директория должна существовать и быть доступна на чтение и запись,
// иначе сервер не может работать и завершает запуск с диагностикой.
// Для каждой коллекции создаётся файл <collection>.json с пустым массивом.
package datadir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/storage/jsonfile"
)

// settingsFile — имя файла настроек в директории данных.
const settingsFile = "settings.json"

// probePattern — шаблон имени временного файла проверки доступа.
// Имя уникально для каждой проверки, параллельные вызовы не мешают друг другу.
const probePattern = ".health_check-*"

// Prepare создаёт директорию данных, проверяет доступ и инициализирует
// отсутствующие файлы коллекций пустыми массивами.
func Prepare(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return accessError(dir, err)
	}

	if err := Writable(dir); err != nil {
		return accessError(dir, err)
	}

	for _, c := range model.Collections() {
		path := CollectionPath(dir, c)
		_, err := os.Stat(path)
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return accessError(dir, err)
		}
		if err := jsonfile.WriteArray(path, nil); err != nil {
			return fmt.Errorf("не удалось инициализировать %s: %w", filepath.Base(path), err)
		}
	}

	return nil
}

// Writable проверяет доступность директории на чтение и запись:
// создаёт, читает и удаляет пробный файл.
func Writable(dir string) error {
	f, err := os.CreateTemp(dir, probePattern)
	if err != nil {
		return fmt.Errorf("директория недоступна для записи: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	_, err = f.WriteString("ok")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("директория недоступна для записи: %w", err)
	}

	if _, err := os.ReadFile(path); err != nil {
		return fmt.Errorf("директория недоступна для чтения: %w", err)
	}
	return nil
}

// CollectionPath возвращает путь к файлу коллекции.
func CollectionPath(dir string, c model.Collection) string {
	return filepath.Join(dir, string(c)+".json")
}

// SettingsPath возвращает путь к файлу настроек.
func SettingsPath(dir string) string {
	return filepath.Join(dir, settingsFile)
}

// accessError формирует диагностическое сообщение с подсказкой по исправлению.
func accessError(dir string, err error) error {
	return fmt.Errorf("нет доступа к директории данных %s: %w (исправление: mkdir -p %s && chown $(whoami) %s)",
		dir, err, dir, dir)
}
