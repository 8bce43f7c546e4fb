// Пакет errors — конструкторы стандартных ошибок HTTP API Labyrinth.
// Единый формат: {"error": "...", "code": "..."}.
// Поле error остаётся строкой: клиент показывает его пользователю как есть.
package errors //nolint:revive // конфликт имени со stdlib, импортируется как apierrors

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeBadGateway      = "BAD_GATEWAY"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Body — тело ответа ошибки.
type Body struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Body{Error: message, Code: code})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// PayloadTooLarge — 413 тело запроса превышает лимит.
func PayloadTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message)
}

// Upstream — ошибка внешнего провайдера с его статус-кодом.
func Upstream(w http.ResponseWriter, statusCode int, message string) {
	WriteError(w, statusCode, CodeUpstreamError, message)
}

// BadGateway — 502 провайдер недоступен.
func BadGateway(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, CodeBadGateway, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
