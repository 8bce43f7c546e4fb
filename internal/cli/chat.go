package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Настройки сервера (ключи провайдеров, URL Ollama)",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Показать настройки",
	Args:  cobra.NoArgs,
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Изменить настройки (остальные ключи сохраняются)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSettingsSet,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Показать модели провайдера",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Отправить сообщение в AI-чат и вывести потоковый ответ как есть",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	modelsCmd.Flags().String("provider", "openai", "Провайдер: openai, gemini, ollama")

	chatCmd.Flags().String("provider", "openai", "Провайдер: openai, gemini, ollama")
	chatCmd.Flags().String("model", "", "Модель (по умолчанию — модель провайдера)")
	chatCmd.Flags().String("api-key", "", "Ключ API для этого запроса")
	chatCmd.Flags().String("ollama-url", "", "URL Ollama для этого запроса")
	chatCmd.Flags().String("system", "", "Системное сообщение")
}

// remoteOnly выполняет fn только при доступном сервере.
func remoteOnly(cmd *cobra.Command, fn func(ctx context.Context, rb *store.RemoteBackend) error) error {
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		rb, err := s.Remote()
		if err != nil {
			return fmt.Errorf("сервер %s недоступен: %w", serverURL, err)
		}
		return fn(ctx, rb)
	})
}

func runSettingsGet(cmd *cobra.Command, _ []string) error {
	return remoteOnly(cmd, func(ctx context.Context, rb *store.RemoteBackend) error {
		settings, err := rb.Settings(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), settings)
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	patch, err := parseAssignments(args)
	if err != nil {
		return err
	}
	return remoteOnly(cmd, func(ctx context.Context, rb *store.RemoteBackend) error {
		merged, err := rb.MergeSettings(ctx, patch)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), merged)
	})
}

// parseAssignments разбирает аргументы вида key=value.
func parseAssignments(args []string) (model.Settings, error) {
	out := make(model.Settings, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("ожидалось key=value, получено %q", arg)
		}
		out[key] = value
	}
	return out, nil
}

func runModels(cmd *cobra.Command, _ []string) error {
	provider, _ := cmd.Flags().GetString("provider")
	return remoteOnly(cmd, func(ctx context.Context, rb *store.RemoteBackend) error {
		list, err := rb.Models(ctx, provider)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), list)
	})
}

func runChat(cmd *cobra.Command, args []string) error {
	req := model.ChatRequest{}
	req.Provider, _ = cmd.Flags().GetString("provider")
	req.Model, _ = cmd.Flags().GetString("model")
	req.APIKey, _ = cmd.Flags().GetString("api-key")
	req.OllamaURL, _ = cmd.Flags().GetString("ollama-url")

	if system, _ := cmd.Flags().GetString("system"); system != "" {
		req.Messages = append(req.Messages, map[string]any{"role": "system", "content": system})
	}
	req.Messages = append(req.Messages, map[string]any{"role": "user", "content": strings.Join(args, " ")})
	if err := req.Validate(); err != nil {
		return err
	}

	return remoteOnly(cmd, func(ctx context.Context, rb *store.RemoteBackend) error {
		// Ctrl+C обрывает соединение, сервер отменяет запрос к провайдеру
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err := rb.Chat(ctx, req, cmd.OutOrStdout())
		if ctx.Err() != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "\nПрервано")
			return nil
		}
		return err
	})
}
