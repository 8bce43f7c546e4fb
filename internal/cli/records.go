package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bigkaa/labyrinth/internal/domain/model"
	"github.com/bigkaa/labyrinth/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "Показать записи коллекции",
	Long:  "Коллекции: " + strings.Join(model.CollectionNames(), ", "),
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var getCmd = &cobra.Command{
	Use:   "get <collection> <id>",
	Short: "Показать запись по id",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

var createCmd = &cobra.Command{
	Use:   "create <collection>",
	Short: "Создать запись из JSON (--data или stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

var updateCmd = &cobra.Command{
	Use:   "update <collection> <id>",
	Short: "Частично обновить запись полями из JSON (--data или stdin)",
	Args:  cobra.ExactArgs(2),
	RunE:  runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <id>",
	Short: "Удалить запись (удаление проекта отвязывает его записи и удаляет задачи)",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

func init() {
	listCmd.Flags().String("project", "", "Только записи указанного проекта")
	createCmd.Flags().String("data", "", "JSON-объект записи (по умолчанию читается stdin)")
	updateCmd.Flags().String("data", "", "JSON-объект с изменяемыми полями (по умолчанию читается stdin)")
}

// collectionOps — операции коллекции без знания её типа записи.
type collectionOps interface {
	list(ctx context.Context, projectID string) any
	get(ctx context.Context, id string) (any, error)
	create(ctx context.Context, data []byte) (any, error)
	update(ctx context.Context, id string, patch model.Patch) (any, error)
	remove(ctx context.Context, id string) error
}

type typedOps[T model.Entity] struct {
	coll *store.Collection[T]
}

func (o typedOps[T]) list(ctx context.Context, projectID string) any {
	if projectID != "" {
		return o.coll.GetByProject(ctx, projectID)
	}
	return o.coll.GetAll(ctx)
}

func (o typedOps[T]) get(ctx context.Context, id string) (any, error) {
	return o.coll.GetByID(ctx, id)
}

func (o typedOps[T]) create(ctx context.Context, data []byte) (any, error) {
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	return o.coll.Create(ctx, item)
}

func (o typedOps[T]) update(ctx context.Context, id string, patch model.Patch) (any, error) {
	return o.coll.Update(ctx, id, patch)
}

func (o typedOps[T]) remove(ctx context.Context, id string) error {
	return o.coll.Delete(ctx, id)
}

// opsFor выбирает типизированную коллекцию по имени.
func opsFor(s *store.Store, name string) (collectionOps, error) {
	c, err := model.ParseCollection(name)
	if err != nil {
		return nil, err
	}
	switch c {
	case model.CollectionProjects:
		return typedOps[model.Project]{s.Projects()}, nil
	case model.CollectionDocuments:
		return typedOps[model.Document]{s.Documents()}, nil
	case model.CollectionSnippets:
		return typedOps[model.Snippet]{s.Snippets()}, nil
	case model.CollectionMedia:
		return typedOps[model.MediaItem]{s.Media()}, nil
	default:
		return typedOps[model.Task]{s.Tasks()}, nil
	}
}

func runList(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		ops, err := opsFor(s, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), ops.list(ctx, projectID))
	})
}

func runGet(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		ops, err := opsFor(s, args[0])
		if err != nil {
			return err
		}
		item, err := ops.get(ctx, args[1])
		if err != nil {
			return describe(err, args[0], args[1])
		}
		return printJSON(cmd.OutOrStdout(), item)
	})
}

func runCreate(cmd *cobra.Command, args []string) error {
	data, err := readData(cmd)
	if err != nil {
		return err
	}
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		ops, err := opsFor(s, args[0])
		if err != nil {
			return err
		}
		item, err := ops.create(ctx, data)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), item)
	})
}

func runUpdate(cmd *cobra.Command, args []string) error {
	data, err := readData(cmd)
	if err != nil {
		return err
	}
	var patch model.Patch
	if err := json.Unmarshal(data, &patch); err != nil {
		return fmt.Errorf("ожидался JSON-объект: %w", err)
	}
	if patch == nil {
		return fmt.Errorf("ожидался JSON-объект, получено %s", strings.TrimSpace(string(data)))
	}
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		ops, err := opsFor(s, args[0])
		if err != nil {
			return err
		}
		item, err := ops.update(ctx, args[1], patch)
		if err != nil {
			return describe(err, args[0], args[1])
		}
		return printJSON(cmd.OutOrStdout(), item)
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		ops, err := opsFor(s, args[0])
		if err != nil {
			return err
		}
		if err := ops.remove(ctx, args[1]); err != nil {
			return describe(err, args[0], args[1])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Удалено: %s/%s\n", args[0], args[1])
		return nil
	})
}

// readData берёт JSON из --data, иначе из stdin команды.
func readData(cmd *cobra.Command) ([]byte, error) {
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		return []byte(data), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return nil, fmt.Errorf("нет данных: укажите --data или передайте JSON в stdin")
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("чтение stdin: %w", err)
	}
	return data, nil
}

// describe заменяет ErrNotFound понятным сообщением.
func describe(err error, collection, id string) error {
	if store.IsNotFound(err) {
		return fmt.Errorf("%s/%s не найдена", collection, id)
	}
	return err
}
