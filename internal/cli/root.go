// Пакет cli — команды labyrinthctl: клиент хранилища Labyrinth
// для терминала. Сервер проверяется при каждом запуске; если он недоступен,
// данные читаются и пишутся в локальную базу устройства (SQLite).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/bigkaa/labyrinth/internal/store"
)

const defaultServer = "http://localhost:3001"

var (
	serverURL string
	dbPath    string
	verbose   bool
	rootCmd   *cobra.Command

	registerOnce sync.Once
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "labyrinthctl",
		Short: "Labyrinth — проекты, документы, сниппеты, медиа и задачи из терминала",
		Long: `labyrinthctl работает с коллекциями Labyrinth.

При запуске проверяется сервер (GET /api/health, таймаут 2s). Если он доступен,
все операции идут через REST API; иначе — в локальную базу на устройстве.
Выбор не меняется до конца запуска команды.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envDefault("LABYRINTH_SERVER", defaultServer),
		"Адрес сервера Labyrinth (пустой — только локальное хранилище)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envDefault("LABYRINTH_DB", defaultDBPath()),
		"Путь к локальной базе устройства")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод в stderr")
}

// registerCommands подключает подкоманды к rootCmd (однократно).
func registerCommands() {
	registerOnce.Do(addCommands)
}

func addCommands() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(chatCmd)
}

// Execute запускает корневую команду.
func Execute(version string) error {
	registerCommands()

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		return err
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Показать выбранное хранилище и состояние сервера",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		avail := s.Availability()
		out := map[string]any{
			"mode":      s.Mode(),
			"server":    avail.BaseURL,
			"available": avail.Available,
		}
		if avail.Health != nil {
			out["health"] = avail.Health
		}
		if s.Mode() == store.ModeLocal {
			out["db"] = dbPath
		}
		return printJSON(cmd.OutOrStdout(), out)
	})
}

// withStore открывает хранилище на время выполнения fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, s *store.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := newLogger(cmd.ErrOrStderr())

	kv, err := store.OpenSQLiteKV(dbPath)
	if err != nil {
		return fmt.Errorf("локальная база: %w", err)
	}
	defer kv.Close()

	// Без общего таймаута клиента: ответ чата длится, пока идёт генерация
	s := store.Open(ctx, store.Options{
		BaseURL: serverURL,
		Client:  &http.Client{},
		KV:      kv,
		Logger:  logger,
	})
	return fn(ctx, s)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// defaultDBPath — база в XDG_DATA_HOME (или ~/.local/share)/labyrinth.
func defaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "labyrinth.db"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "labyrinth", "labyrinth.db")
}
