package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/bigkaa/labyrinth/internal/config"
	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/repository"
	"github.com/bigkaa/labyrinth/internal/storage/datadir"
)

// testLogger — логгер, подавляющий вывод в тестах.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCollectionService создаёт сервис над временной директорией данных
// с детерминированными часами и генератором id.
func newTestCollectionService(t *testing.T) (*CollectionService, string) {
	t.Helper()
	dir := t.TempDir()
	if err := datadir.Prepare(dir); err != nil {
		t.Fatalf("подготовка директории данных: %v", err)
	}

	svc := NewCollectionService(repository.NewCollectionRepository(dir), testLogger())
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	n := 0
	svc.newID = func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
	return svc, dir
}

func TestCollectionService_CreateAssignsServerFields(t *testing.T) {
	svc, _ := newTestCollectionService(t)
	ctx := context.Background()

	body := model.Record{"name": "Lab", model.FieldID: "client-supplied", model.FieldUpdatedAt: "yesterday"}
	rec, err := svc.Create(ctx, model.CollectionProjects, body)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if rec.ID() != "id-1" {
		t.Errorf("id: ожидался id-1, получен %q", rec.ID())
	}
	if rec[model.FieldCreatedAt] != rec[model.FieldUpdatedAt] {
		t.Errorf("createdAt и updatedAt должны совпадать при создании: %v", rec)
	}
	if rec["name"] != "Lab" {
		t.Errorf("поле name потеряно: %v", rec)
	}

	all := svc.List(ctx, model.CollectionProjects)
	if len(all) != 1 || all[0].ID() != "id-1" {
		t.Fatalf("запись не сохранена: %v", all)
	}
}

func TestCollectionService_CreateMediaHasNoUpdatedAt(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	rec, err := svc.Create(context.Background(), model.CollectionMedia, model.Record{"title": "img", "url": "http://x/y.png"})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, ok := rec[model.FieldUpdatedAt]; ok {
		t.Errorf("у media не должно быть updatedAt: %v", rec)
	}

	updated, err := svc.Update(context.Background(), model.CollectionMedia, rec.ID(), model.Patch{"title": "img2"})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, ok := updated[model.FieldUpdatedAt]; ok {
		t.Errorf("обновление media не должно добавлять updatedAt: %v", updated)
	}
}

func TestCollectionService_Update(t *testing.T) {
	svc, _ := newTestCollectionService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, model.CollectionDocuments, model.Record{"title": "a", "content": "x"})

	updated, err := svc.Update(ctx, model.CollectionDocuments, created.ID(), model.Patch{
		"title":              "b",
		model.FieldID:        "hijack",
		model.FieldCreatedAt: "1970-01-01T00:00:00.000Z",
	})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if updated.ID() != created.ID() {
		t.Errorf("id изменился: %q", updated.ID())
	}
	if updated[model.FieldCreatedAt] != created[model.FieldCreatedAt] {
		t.Errorf("createdAt изменился: %v", updated[model.FieldCreatedAt])
	}
	if updated["title"] != "b" || updated["content"] != "x" {
		t.Errorf("слияние полей: %v", updated)
	}
	if updated[model.FieldUpdatedAt] == created[model.FieldUpdatedAt] {
		t.Error("updatedAt не обновлён")
	}
}

func TestCollectionService_UpdateUnknownID(t *testing.T) {
	svc, dir := newTestCollectionService(t)

	before, _ := os.ReadFile(datadir.CollectionPath(dir, model.CollectionTasks))

	_, err := svc.Update(context.Background(), model.CollectionTasks, "missing", model.Patch{"title": "x"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено %v", err)
	}

	after, _ := os.ReadFile(datadir.CollectionPath(dir, model.CollectionTasks))
	if string(before) != string(after) {
		t.Error("файл изменён при обновлении несуществующей записи")
	}
}

func TestCollectionService_DeleteUnknownID(t *testing.T) {
	svc, _ := newTestCollectionService(t)

	err := svc.Delete(context.Background(), model.CollectionSnippets, "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено %v", err)
	}
}

func TestCollectionService_DeleteProjectCascades(t *testing.T) {
	svc, _ := newTestCollectionService(t)
	ctx := context.Background()

	p1, _ := svc.Create(ctx, model.CollectionProjects, model.Record{"name": "P1"})
	p2, _ := svc.Create(ctx, model.CollectionProjects, model.Record{"name": "P2"})

	doc, _ := svc.Create(ctx, model.CollectionDocuments, model.Record{"title": "d", model.FieldProjectID: p1.ID()})
	otherDoc, _ := svc.Create(ctx, model.CollectionDocuments, model.Record{"title": "d2", model.FieldProjectID: p2.ID()})
	snip, _ := svc.Create(ctx, model.CollectionSnippets, model.Record{"title": "s", model.FieldProjectID: p1.ID()})
	media, _ := svc.Create(ctx, model.CollectionMedia, model.Record{"title": "m", model.FieldProjectID: p1.ID()})
	_, _ = svc.Create(ctx, model.CollectionTasks, model.Record{"title": "t1", model.FieldProjectID: p1.ID()})
	keptTask, _ := svc.Create(ctx, model.CollectionTasks, model.Record{"title": "t2", model.FieldProjectID: p2.ID()})

	if err := svc.Delete(ctx, model.CollectionProjects, p1.ID()); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	projects := svc.List(ctx, model.CollectionProjects)
	if len(projects) != 1 || projects[0].ID() != p2.ID() {
		t.Errorf("проекты после удаления: %v", projects)
	}

	for _, tc := range []struct {
		c  model.Collection
		id string
	}{
		{model.CollectionDocuments, doc.ID()},
		{model.CollectionSnippets, snip.ID()},
		{model.CollectionMedia, media.ID()},
	} {
		records := svc.List(ctx, tc.c)
		idx := model.IndexOf(records, tc.id)
		if idx < 0 {
			t.Fatalf("%s: запись %s удалена вместо отвязки", tc.c, tc.id)
		}
		v, ok := records[idx][model.FieldProjectID]
		if !ok || v != nil {
			t.Errorf("%s: ожидался projectId=null, получено %v", tc.c, records[idx])
		}
	}

	docs := svc.List(ctx, model.CollectionDocuments)
	if pid, _ := docs[model.IndexOf(docs, otherDoc.ID())].ProjectID(); pid != p2.ID() {
		t.Errorf("документ другого проекта отвязан: %v", docs)
	}

	tasks := svc.List(ctx, model.CollectionTasks)
	if len(tasks) != 1 || tasks[0].ID() != keptTask.ID() {
		t.Errorf("задачи после каскада: %v", tasks)
	}
}

func TestCollectionService_ReplaceAll(t *testing.T) {
	svc, _ := newTestCollectionService(t)
	ctx := context.Background()

	_, _ = svc.Create(ctx, model.CollectionProjects, model.Record{"name": "old"})

	out, err := svc.ReplaceAll(ctx, model.CollectionProjects, []model.Record{
		{model.FieldID: "keep", model.FieldCreatedAt: "2020-01-01T00:00:00.000Z", "name": "A"},
		{"name": "B"},
	})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(out) != 2 || out[0].ID() != "keep" || out[1].ID() == "" {
		t.Fatalf("результат замены: %v", out)
	}
	if out[0][model.FieldCreatedAt] != "2020-01-01T00:00:00.000Z" {
		t.Errorf("createdAt импортированной записи перезаписан: %v", out[0])
	}

	all := svc.List(ctx, model.CollectionProjects)
	if len(all) != 2 {
		t.Errorf("ожидалось 2 записи после замены, получено %d", len(all))
	}

	cleared, err := svc.ReplaceAll(ctx, model.CollectionProjects, nil)
	if err != nil || len(cleared) != 0 {
		t.Fatalf("очистка: %v %v", cleared, err)
	}
	if got := svc.List(ctx, model.CollectionProjects); len(got) != 0 {
		t.Errorf("коллекция не очищена: %v", got)
	}
}

func TestSettingsService(t *testing.T) {
	dir := t.TempDir()
	if err := datadir.Prepare(dir); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{OpenAIAPIKey: "env-openai", OllamaURL: "http://env:11434"}
	svc := NewSettingsService(repository.NewSettingsRepository(dir), cfg, testLogger())
	ctx := context.Background()

	if got := svc.Get(ctx); len(got) != 0 {
		t.Fatalf("ожидались пустые настройки, получено %v", got)
	}

	if _, err := svc.Merge(ctx, model.Settings{"theme": "dark", "nested": map[string]any{"a": 1.0}}); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	merged, err := svc.Merge(ctx, model.Settings{"nested": map[string]any{"b": 2.0}, model.SettingOpenAIKey: "stored"})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if merged["theme"] != "dark" {
		t.Errorf("поверхностное слияние потеряло ключ: %v", merged)
	}
	nested, _ := merged["nested"].(map[string]any)
	if _, ok := nested["a"]; ok {
		t.Errorf("вложенный объект должен заменяться целиком: %v", nested)
	}

	tests := []struct {
		name     string
		provider Provider
		request  string
		want     string
	}{
		{"ключ из запроса важнее всего", ProviderOpenAI, "req", "req"},
		{"затем из настроек", ProviderOpenAI, "", "stored"},
		{"затем из окружения", ProviderGemini, "", ""},
	}
	for _, tt := range tests {
		if got := svc.ProviderKey(tt.provider, tt.request); got != tt.want {
			t.Errorf("%s: ожидалось %q, получено %q", tt.name, tt.want, got)
		}
	}

	_, _ = svc.Merge(ctx, model.Settings{model.SettingOpenAIKey: ""})
	if got := svc.ProviderKey(ProviderOpenAI, ""); got != "env-openai" {
		t.Errorf("пустой ключ в настройках должен уступать окружению, получено %q", got)
	}

	if got := svc.OllamaURL(""); got != "http://env:11434" {
		t.Errorf("OllamaURL из окружения: %q", got)
	}
	_, _ = svc.Merge(ctx, model.Settings{model.SettingOllamaURL: "http://settings:11434"})
	if got := svc.OllamaURL(""); got != "http://settings:11434" {
		t.Errorf("OllamaURL из настроек: %q", got)
	}
	if got := svc.OllamaURL("http://req:11434"); got != "http://req:11434" {
		t.Errorf("OllamaURL из запроса: %q", got)
	}

	bare := NewSettingsService(repository.NewSettingsRepository(t.TempDir()), &config.Config{}, testLogger())
	if got := bare.OllamaURL(""); got != config.DefaultOllamaURL {
		t.Errorf("OllamaURL по умолчанию: %q", got)
	}
}
