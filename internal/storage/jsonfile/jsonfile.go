// Пакет jsonfile — чтение и запись JSON-файлов коллекций и настроек.
// Каждая коллекция хранится одним файлом с JSON-массивом, настройки —
// одним файлом с JSON-объектом. Запись всегда перезаписывает файл целиком:
// JSON → temp файл → fsync → atomic rename.
// Чтение терпимо к ошибкам: отсутствующий или повреждённый файл
// читается как пустая коллекция (пустой объект).
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bigkaa/labyrinth/internal/domain/model"
)

// ReadArray читает JSON-массив записей из файла.
// Любая ошибка чтения или разбора даёт пустой срез.
func ReadArray(path string) []model.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return []model.Record{}
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil || records == nil {
		return []model.Record{}
	}
	return records
}

// ReadObject читает JSON-объект из файла.
// Любая ошибка чтения или разбора даёт пустой объект.
func ReadObject(path string) model.Settings {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Settings{}
	}

	var obj model.Settings
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return model.Settings{}
	}
	return obj
}

// WriteArray атомарно перезаписывает файл JSON-массивом записей.
// nil сохраняется как пустой массив.
func WriteArray(path string, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	return write(path, records)
}

// WriteObject атомарно перезаписывает файл JSON-объектом.
func WriteObject(path string, obj model.Settings) error {
	if obj == nil {
		obj = model.Settings{}
	}
	return write(path, obj)
}

// write сериализует значение с отступами и записывает его атомарно.
func write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации %s: %w", filepath.Base(path), err)
	}

	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}
