// remote_api.go — операции сервера вне коллекций: настройки и чат.
// Доступны только в удалённом режиме.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bigkaa/labyrinth/internal/domain/model"
)

// ErrRemoteOnly — операция требует доступного сервера.
var ErrRemoteOnly = errors.New("operation requires a reachable server")

// Remote возвращает remote backend или ErrRemoteOnly в локальном режиме.
func (s *Store) Remote() (*RemoteBackend, error) {
	rb, ok := s.backend.(*RemoteBackend)
	if !ok {
		return nil, ErrRemoteOnly
	}
	return rb, nil
}

// Settings читает настройки сервера.
func (b *RemoteBackend) Settings(ctx context.Context) (model.Settings, error) {
	out := model.Settings{}
	if err := b.do(ctx, http.MethodGet, "/api/settings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MergeSettings сливает patch с настройками сервера и возвращает результат.
func (b *RemoteBackend) MergeSettings(ctx context.Context, patch model.Settings) (model.Settings, error) {
	if patch == nil {
		patch = model.Settings{}
	}
	out := model.Settings{}
	if err := b.do(ctx, http.MethodPut, "/api/settings", patch, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ModelList — ответ GET /api/ai/models.
type ModelList struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
	Source   string   `json:"source"`
	Error    string   `json:"error,omitempty"`
}

// Models запрашивает список моделей провайдера.
func (b *RemoteBackend) Models(ctx context.Context, provider string) (ModelList, error) {
	var out ModelList
	path := "/api/ai/models?provider=" + url.QueryEscape(provider)
	if err := b.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return ModelList{}, err
	}
	return out, nil
}

// Chat отправляет запрос чата и копирует поток ответа в dst по мере поступления.
// Отмена ctx обрывает соединение, сервер отменяет запрос к провайдеру.
func (b *RemoteBackend) Chat(ctx context.Context, req model.ChatRequest, dst io.Writer) (int64, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("сериализация запроса чата: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/ai/chat", bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("создание запроса чата: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("запрос чата: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, readAPIError(resp)
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("чтение потока чата: %w", err)
	}
	return n, nil
}
