package model

import "maps"

// Record — обобщённая запись коллекции (JSON-объект).
// Сервер не сужает тело запроса до типизированных структур:
// неизвестные поля сохраняются как есть.
type Record map[string]any

// Patch — частичное обновление записи. Поля id и createdAt игнорируются.
type Patch map[string]any

// Settings — произвольный объект настроек (ключи провайдеров, URL Ollama).
type Settings map[string]any

// Известные ключи настроек.
const (
	SettingOpenAIKey = "openaiApiKey"
	SettingGeminiKey = "geminiApiKey"
	SettingOllamaURL = "ollamaUrl"
)

// ID возвращает идентификатор записи или пустую строку.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// ProjectID возвращает projectId записи.
// ok=false, если ссылка отсутствует или равна null.
func (r Record) ProjectID() (id string, ok bool) {
	id, ok = r[FieldProjectID].(string)
	return id, ok
}

// Clone возвращает поверхностную копию записи.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

// Merge накладывает patch поверх копии записи.
// id и createdAt исходной записи неизменяемы.
func (r Record) Merge(patch Patch) Record {
	out := r.Clone()
	for k, v := range patch {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		out[k] = v
	}
	return out
}

// String возвращает строковое значение настройки или пустую строку.
func (s Settings) String(key string) string {
	v, _ := s[key].(string)
	return v
}
