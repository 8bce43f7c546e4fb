package model

import "testing"

func TestStamp(t *testing.T) {
	body := Record{"title": "t", FieldID: "client-id", FieldCreatedAt: "old", FieldUpdatedAt: "old"}

	rec := Stamp(CollectionDocuments, body, "new-id", "ts")
	if rec.ID() != "new-id" || rec[FieldCreatedAt] != "ts" || rec[FieldUpdatedAt] != "ts" {
		t.Errorf("назначенные поля не перекрыли тело: %v", rec)
	}
	if body.ID() != "client-id" {
		t.Error("исходное тело изменено")
	}

	media := Stamp(CollectionMedia, body, "m", "ts")
	if _, ok := media[FieldUpdatedAt]; ok {
		t.Errorf("у media не должно быть updatedAt: %v", media)
	}
}

func TestApply(t *testing.T) {
	rec := Record{FieldID: "a", FieldCreatedAt: "c", FieldUpdatedAt: "u", "title": "old"}

	out := Apply(CollectionDocuments, rec, Patch{FieldID: "b", "title": "new"}, "now")
	if out.ID() != "a" || out["title"] != "new" || out[FieldUpdatedAt] != "now" || out[FieldCreatedAt] != "c" {
		t.Errorf("неожиданный результат: %v", out)
	}

	for _, patch := range []Patch{{"title": "x"}, {FieldUpdatedAt: "x"}} {
		media := Apply(CollectionMedia, Record{FieldID: "m", FieldCreatedAt: "c"}, patch, "now")
		if _, ok := media[FieldUpdatedAt]; ok {
			t.Errorf("patch %v: у media не должно появиться updatedAt: %v", patch, media)
		}
	}
}

func TestCascadeHelpers(t *testing.T) {
	docs := []Record{
		{FieldID: "d1", FieldProjectID: "p1"},
		{FieldID: "d2", FieldProjectID: "p2"},
		{FieldID: "d3", FieldProjectID: nil},
	}
	if n := UnlinkProject(docs, "p1"); n != 1 {
		t.Fatalf("ожидалась 1 отвязанная запись, получено %d", n)
	}
	if v, ok := docs[0][FieldProjectID]; !ok || v != nil {
		t.Errorf("projectId должен стать null: %v", docs[0])
	}
	if pid, _ := docs[1].ProjectID(); pid != "p2" {
		t.Errorf("чужая запись изменена: %v", docs[1])
	}

	tasks := []Record{
		{FieldID: "t1", FieldProjectID: "p1"},
		{FieldID: "t2", FieldProjectID: "p2"},
		{FieldID: "t3", FieldProjectID: "p1"},
	}
	kept, removed := WithoutProject(tasks, "p1")
	if removed != 2 || len(kept) != 1 || kept[0].ID() != "t2" {
		t.Errorf("kept=%v removed=%d", kept, removed)
	}
}

func TestNormalize(t *testing.T) {
	n := 0
	gen := func() string { n++; return "gen" }

	rec := Normalize(CollectionTasks, Record{"title": "x"}, gen, "ts")
	if rec.ID() != "gen" || rec[FieldCreatedAt] != "ts" || rec[FieldUpdatedAt] != "ts" {
		t.Errorf("неожиданный результат: %v", rec)
	}

	kept := Normalize(CollectionMedia, Record{FieldID: "m", FieldCreatedAt: "c0"}, gen, "ts")
	if kept.ID() != "m" || kept[FieldCreatedAt] != "c0" {
		t.Errorf("существующие поля перезаписаны: %v", kept)
	}
	if _, ok := kept[FieldUpdatedAt]; ok {
		t.Errorf("у media не должно быть updatedAt: %v", kept)
	}
	if n != 1 {
		t.Errorf("генератор id вызван %d раз", n)
	}

	blank := Normalize(CollectionProjects, Record{FieldID: "p", FieldCreatedAt: "", FieldUpdatedAt: ""}, gen, "ts")
	if blank[FieldCreatedAt] != "ts" || blank[FieldUpdatedAt] != "ts" {
		t.Errorf("пустые метки времени должны заполняться: %v", blank)
	}

	media := Normalize(CollectionMedia, Record{FieldID: "m", FieldUpdatedAt: "u"}, gen, "ts")
	if _, ok := media[FieldUpdatedAt]; ok {
		t.Errorf("updatedAt у media должен отбрасываться: %v", media)
	}
}

func TestIndexOf(t *testing.T) {
	records := []Record{{FieldID: "a"}, {FieldID: "b"}}
	if IndexOf(records, "b") != 1 || IndexOf(records, "z") != -1 {
		t.Error("IndexOf вернул неверную позицию")
	}
}
