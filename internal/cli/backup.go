package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Выгрузить все коллекции в JSON",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Заменить все коллекции содержимым резервной копии",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Удалить все записи во всех коллекциях",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Операции с задачами",
}

var taskCycleCmd = &cobra.Command{
	Use:   "cycle <id>",
	Short: "Перевести задачу в следующий статус (TODO → IN_PROGRESS → DONE → TODO)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCycle,
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "Файл для записи (по умолчанию stdout)")
	clearCmd.Flags().Bool("yes", false, "Подтвердить удаление всех данных")
	taskCmd.AddCommand(taskCycleCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString("out")
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		backup, err := s.Export(ctx)
		if err != nil {
			return err
		}
		if out == "" {
			return printJSON(cmd.OutOrStdout(), backup)
		}

		data, err := json.MarshalIndent(backup, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("запись %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Экспортировано в %s\n", out)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("чтение %s: %w", args[0], err)
	}
	var backup model.Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return fmt.Errorf("разбор резервной копии %s: %w", args[0], err)
	}

	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		if err := s.Import(ctx, backup); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Импортировано: %d проектов, %d документов, %d сниппетов, %d медиа, %d задач\n",
			len(backup.Projects), len(backup.Documents), len(backup.Snippets), len(backup.Media), len(backup.Tasks))
		return nil
	})
}

func runClear(cmd *cobra.Command, _ []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("очистка необратима: повторите с --yes")
	}
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		if err := s.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Все коллекции очищены")
		return nil
	})
}

func runTaskCycle(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		task, err := s.CycleTaskStatus(ctx, args[0])
		if err != nil {
			return describe(err, string(model.CollectionTasks), args[0])
		}
		return printJSON(cmd.OutOrStdout(), task)
	})
}
