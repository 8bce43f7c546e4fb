package model

import (
	"errors"
	"fmt"
)

// ErrInvalidMessages — список сообщений чата пуст или некорректен.
var ErrInvalidMessages = errors.New("invalid messages")

// ChatRequest — тело POST /api/ai/chat. Общее для сервера и клиента.
// Сообщения пересылаются провайдеру как есть, без сужения до известных полей.
type ChatRequest struct {
	Messages  []map[string]any `json:"messages"`
	Provider  string           `json:"provider"`
	Model     string           `json:"model,omitempty"`
	APIKey    string           `json:"apiKey,omitempty"`
	OllamaURL string           `json:"ollamaUrl,omitempty"`
}

// Validate проверяет сообщения: непустой список, role и content — строки.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: messages must be a non-empty array", ErrInvalidMessages)
	}
	for i, m := range r.Messages {
		if _, ok := m["role"].(string); !ok {
			return fmt.Errorf("%w: messages[%d].role must be a string", ErrInvalidMessages, i)
		}
		if _, ok := m["content"].(string); !ok {
			return fmt.Errorf("%w: messages[%d].content must be a string", ErrInvalidMessages, i)
		}
	}
	return nil
}
