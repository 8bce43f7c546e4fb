// remote.go — backend поверх REST API сервера Labyrinth.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apierrors "github.com/bigkaa/labyrinth/internal/api/errors"
	"github.com/bigkaa/labyrinth/internal/domain/model"
)

// maxErrorBody — сколько байт тела ошибки читать для сообщения.
const maxErrorBody = 4096

// APIError — ответ сервера со статусом вне 2xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API вернул %d: %s", e.StatusCode, e.Message)
}

// Unwrap сопоставляет статус доменной ошибке: 404 — model.ErrNotFound,
// 400 — model.ErrValidation.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusBadRequest:
		return model.ErrValidation
	}
	return nil
}

// RemoteBackend — HTTP-клиент коллекций /api/{collection}.
type RemoteBackend struct {
	baseURL string
	client  *http.Client
}

// NewRemoteBackend создаёт backend для сервера baseURL.
func NewRemoteBackend(baseURL string, client *http.Client) *RemoteBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Mode возвращает ModeRemote.
func (b *RemoteBackend) Mode() string { return ModeRemote }

// BaseURL возвращает адрес сервера.
func (b *RemoteBackend) BaseURL() string { return b.baseURL }

func (b *RemoteBackend) List(ctx context.Context, c model.Collection) ([]model.Record, error) {
	var out []model.Record
	if err := b.do(ctx, http.MethodGet, collectionPath(c), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Record{}
	}
	return out, nil
}

func (b *RemoteBackend) Create(ctx context.Context, c model.Collection, body model.Record) (model.Record, error) {
	var out model.Record
	if err := b.do(ctx, http.MethodPost, collectionPath(c), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *RemoteBackend) Update(ctx context.Context, c model.Collection, id string, patch model.Patch) (model.Record, error) {
	var out model.Record
	if err := b.do(ctx, http.MethodPut, recordPath(c, id), patch, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *RemoteBackend) Delete(ctx context.Context, c model.Collection, id string) error {
	return b.do(ctx, http.MethodDelete, recordPath(c, id), nil, nil)
}

func (b *RemoteBackend) ReplaceAll(ctx context.Context, c model.Collection, records []model.Record) ([]model.Record, error) {
	if records == nil {
		records = []model.Record{}
	}
	var out []model.Record
	if err := b.do(ctx, http.MethodPut, collectionPath(c), records, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do выполняет запрос с JSON-телом in и декодирует ответ в out (если out != nil).
func (b *RemoteBackend) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("сериализация тела запроса: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа %s %s: %w", method, path, err)
	}
	return nil
}

// readAPIError собирает APIError из конверта {"error": "..."}; если тело
// не JSON, сообщением становится сырой текст.
func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))

	var envelope apierrors.Body
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		msg = envelope.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func collectionPath(c model.Collection) string {
	return "/api/" + url.PathEscape(string(c))
}

func recordPath(c model.Collection, id string) string {
	return collectionPath(c) + "/" + url.PathEscape(id)
}
