package model

// SnippetLanguage — язык фрагмента кода.
type SnippetLanguage string

const (
	LanguageYAML   SnippetLanguage = "YAML"
	LanguageBash   SnippetLanguage = "BASH"
	LanguagePython SnippetLanguage = "PYTHON"
)

// Valid проверяет, что язык входит в допустимый набор.
func (l SnippetLanguage) Valid() bool {
	switch l {
	case LanguageYAML, LanguageBash, LanguagePython:
		return true
	}
	return false
}

// TaskStatus — статус задачи.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

// Valid проверяет, что статус входит в допустимый набор.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// Next возвращает следующий статус по кругу: TODO → IN_PROGRESS → DONE → TODO.
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case TaskTodo:
		return TaskInProgress
	case TaskInProgress:
		return TaskDone
	default:
		return TaskTodo
	}
}

// TaskPriority — приоритет задачи.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// Valid проверяет, что приоритет входит в допустимый набор.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Project — проект, корневая сущность группировки.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Document — текстовый документ, мягкая ссылка на проект.
type Document struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	ProjectID *string `json:"projectId"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// Snippet — фрагмент кода, мягкая ссылка на проект.
type Snippet struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Language  SnippetLanguage `json:"language"`
	Code      string          `json:"code"`
	ProjectID *string         `json:"projectId"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// MediaItem — медиа-элемент (data URI или ссылка).
// Неизменяем после создания: поля updatedAt нет.
type MediaItem struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Type      string  `json:"type"`
	ProjectID *string `json:"projectId"`
	CreatedAt string  `json:"createdAt"`
}

// Task — задача, обязательная привязка к проекту.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	ProjectID   string       `json:"projectId"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

// Entity — ограничение для типизированных коллекций клиентского хранилища.
type Entity interface {
	Project | Document | Snippet | MediaItem | Task
}

// Backup — полный снимок данных для экспорта и импорта.
type Backup struct {
	Projects   []Project   `json:"projects"`
	Documents  []Document  `json:"documents"`
	Snippets   []Snippet   `json:"snippets"`
	Media      []MediaItem `json:"media"`
	Tasks      []Task      `json:"tasks"`
	ExportedAt string      `json:"exportedAt"`
}
