package model

// Правила мутаций, общие для файлового сервера и локального хранилища клиента.

// Stamp готовит новую запись: копия body с назначенными id и метками времени.
// Значения id/createdAt/updatedAt из body перекрываются; у media нет updatedAt.
func Stamp(c Collection, body Record, id, ts string) Record {
	rec := body.Clone()
	rec[FieldID] = id
	rec[FieldCreatedAt] = ts
	if c.HasUpdatedAt() {
		rec[FieldUpdatedAt] = ts
	} else {
		delete(rec, FieldUpdatedAt)
	}
	return rec
}

// Apply сливает patch с записью: id принудительно сохраняется,
// updatedAt обновляется для коллекций, где он есть, и не появляется у остальных.
func Apply(c Collection, rec Record, patch Patch, ts string) Record {
	id := rec.ID()
	out := rec.Merge(patch)
	out[FieldID] = id
	if c.HasUpdatedAt() {
		out[FieldUpdatedAt] = ts
	} else {
		delete(out, FieldUpdatedAt)
	}
	return out
}

// IndexOf возвращает позицию записи с указанным id или -1.
func IndexOf(records []Record, id string) int {
	for i, rec := range records {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

// UnlinkProject выставляет projectId = null у записей проекта.
// Возвращает число изменённых записей.
func UnlinkProject(records []Record, projectID string) int {
	n := 0
	for _, rec := range records {
		if pid, ok := rec.ProjectID(); ok && pid == projectID {
			rec[FieldProjectID] = nil
			n++
		}
	}
	return n
}

// WithoutProject возвращает записи, не принадлежащие проекту, и число отброшенных.
func WithoutProject(records []Record, projectID string) ([]Record, int) {
	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		if pid, ok := rec.ProjectID(); ok && pid == projectID {
			continue
		}
		kept = append(kept, rec)
	}
	return kept, len(records) - len(kept)
}

// Unlinked — коллекции, записи которых при удалении проекта отвязываются.
// Задачи без проекта не существуют и удаляются вместе с ним.
func Unlinked() []Collection {
	return []Collection{CollectionDocuments, CollectionSnippets, CollectionMedia}
}

// Normalize дополняет импортируемую запись: id, если его нет, и недостающие
// метки времени. Пустая строка считается отсутствующим значением.
func Normalize(c Collection, r Record, newID func() string, ts string) Record {
	rec := r.Clone()
	if rec.ID() == "" {
		rec[FieldID] = newID()
	}
	if s, _ := rec[FieldCreatedAt].(string); s == "" {
		rec[FieldCreatedAt] = ts
	}
	if c.HasUpdatedAt() {
		if s, _ := rec[FieldUpdatedAt].(string); s == "" {
			rec[FieldUpdatedAt] = ts
		}
	} else {
		delete(rec, FieldUpdatedAt)
	}
	return rec
}
