package jsonfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bigkaa/labyrinth/internal/domain/model"
)

// TestWriteAndReadArray проверяет запись и чтение массива записей.
func TestWriteAndReadArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	records := []model.Record{
		{"id": "p1", "name": "Lab", "color": "#fff"},
		{"id": "p2", "name": "Home", "projectId": nil},
	}

	if err := WriteArray(path, records); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	got := ReadArray(path)
	if len(got) != 2 {
		t.Fatalf("ожидалось 2 записи, получено %d", len(got))
	}
	if got[0].ID() != "p1" || got[1].ID() != "p2" {
		t.Errorf("порядок записей нарушен: %v", got)
	}
	if v, ok := got[1]["projectId"]; !ok || v != nil {
		t.Errorf("projectId: ожидался null, получено %v (ok=%v)", v, ok)
	}
}

// TestWriteArray_PrettyPrinted проверяет человекочитаемый формат файла.
func TestWriteArray_PrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := WriteArray(path, []model.Record{{"id": "t1"}}); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if !strings.Contains(string(data), "\n  {\n    \"id\": \"t1\"") {
		t.Errorf("файл не отформатирован с отступами:\n%s", data)
	}
}

// TestWriteArray_NilIsEmptyArray проверяет, что nil сохраняется как [].
func TestWriteArray_NilIsEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "media.json")
	if err := WriteArray(path, nil); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("ожидалось [], получено %q", data)
	}
}

// TestWrite_NoTmpFileLeft проверяет, что temp файл не остаётся после записи.
func TestWrite_NoTmpFileLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "documents.json")

	if err := WriteArray(path, []model.Record{{"id": "d1"}}); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("временный файл остался после записи")
	}
}

// TestReadArray_Tolerant проверяет, что ошибки чтения дают пустую коллекцию.
func TestReadArray_Tolerant(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		create  bool
	}{
		{name: "файл отсутствует", create: false},
		{name: "битый JSON", content: "{not json", create: true},
		{name: "объект вместо массива", content: `{"id":"x"}`, create: true},
		{name: "null", content: "null", create: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "c"+string(rune('a'+i))+".json")
			if tt.create {
				if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
					t.Fatalf("подготовка: %v", err)
				}
			}

			got := ReadArray(path)
			if got == nil || len(got) != 0 {
				t.Errorf("ожидался пустой срез (не nil), получено %#v", got)
			}
		})
	}
}

// TestObject_RoundTrip проверяет запись и чтение объекта настроек.
func TestObject_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	if got := ReadObject(path); len(got) != 0 {
		t.Fatalf("ожидался пустой объект, получено %v", got)
	}

	if err := WriteObject(path, model.Settings{"ollamaUrl": "http://gpu:11434"}); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}
	if got := ReadObject(path); got.String("ollamaUrl") != "http://gpu:11434" {
		t.Errorf("ollamaUrl: получено %v", got)
	}
}
