package model

import (
	"errors"
	"testing"
)

func TestChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		messages []map[string]any
		wantErr  bool
	}{
		{"корректные сообщения", []map[string]any{{"role": "user", "content": "hi"}}, false},
		{"нет сообщений", nil, true},
		{"пустой список", []map[string]any{}, true},
		{"role не строка", []map[string]any{{"role": 1, "content": "x"}}, true},
		{"нет content", []map[string]any{{"role": "user"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ChatRequest{Messages: tt.messages, Provider: "openai"}
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ошибка: %v, ожидалась: %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMessages) {
				t.Errorf("ожидалась ErrInvalidMessages, получено %v", err)
			}
		})
	}
}
