package main

import (
	"fmt"

	"github.com/aretw0/synclist/internal/platform"
	"github.com/aretw0/synclist/pkg/adapters/fs"
	"github.com/aretw0/synclist/pkg/core"
	"github.com/spf13/cobra"
)

var (
	appendKind   string
	appendIndex  int
	appendFrom   int
	appendTo     int
	appendCount  int
	appendFormat string
)

// appendCmd represents the append command
var appendCmd = &cobra.Command{
	Use:   "append [items...]",
	Short: "Append a change event to the journal",
	Long: `Write one change event as the next journal entry.

  reset   items...                      replace the whole list
  add     items... [--index N]          append, or insert at N
  remove  items...                      remove by value
  remove  --index N [--count C]         remove C elements at N
  replace old new [old new ...]         replace by value
  replace items... --index N            overwrite elements starting at N
  move    --from N --to M               move one element`,
	Run: func(cmd *cobra.Command, args []string) {
		ev, err := buildEvent(appendKind, appendIndex, appendFrom, appendTo, appendCount, args)
		if err != nil {
			fatal("Invalid change", err)
		}

		journal := fs.NewJournal[string](platform.ResolveJournal(journalDir), appendFormat)
		if err := journal.Initialize(); err != nil {
			fatal("Failed to initialize journal", err)
		}

		seq, err := journal.Append(ev)
		if err != nil {
			fatal("Failed to append change", err)
		}
		fmt.Printf("Appended #%d: %s\n", seq, ev)
	},
}

// buildEvent turns command-line arguments into a change event.
func buildEvent(kindText string, index, from, to, count int, args []string) (core.ChangeEvent[string], error) {
	var kind core.Kind
	if err := kind.UnmarshalText([]byte(kindText)); err != nil {
		return core.ChangeEvent[string]{}, err
	}

	switch kind {
	case core.KindReset:
		return core.Reset(args...), nil

	case core.KindAdd:
		if len(args) == 0 {
			return core.ChangeEvent[string]{}, fmt.Errorf("add needs at least one item: %w", core.ErrInvalidArgument)
		}
		return core.Insert(index, args...), nil

	case core.KindRemove:
		if index != core.Unspecified {
			return core.RemoveRange[string](index, count)
		}
		if len(args) == 0 {
			return core.ChangeEvent[string]{}, fmt.Errorf("remove needs items or --index: %w", core.ErrInvalidArgument)
		}
		return core.Remove(args...), nil

	case core.KindReplace:
		if index != core.Unspecified {
			return core.ReplaceAt(index, args...), nil
		}
		if len(args) == 0 || len(args)%2 != 0 {
			return core.ChangeEvent[string]{}, fmt.Errorf("replace needs old/new pairs: %w", core.ErrInvalidArgument)
		}
		var oldItems, newItems []string
		for i := 0; i < len(args); i += 2 {
			oldItems = append(oldItems, args[i])
			newItems = append(newItems, args[i+1])
		}
		return core.ReplaceValues(oldItems, newItems)

	case core.KindMove:
		if from < 0 || to < 0 {
			return core.ChangeEvent[string]{}, fmt.Errorf("move needs --from and --to: %w", core.ErrInvalidArgument)
		}
		return core.Move[string](from, to), nil
	}
	return core.ChangeEvent[string]{}, fmt.Errorf("unsupported kind %q: %w", kindText, core.ErrInvalidArgument)
}

func init() {
	rootCmd.AddCommand(appendCmd)
	appendCmd.Flags().StringVarP(&appendKind, "kind", "k", "add", "Change kind (reset, add, remove, replace, move)")
	appendCmd.Flags().IntVarP(&appendIndex, "index", "i", core.Unspecified, "Position for add, remove and replace")
	appendCmd.Flags().IntVar(&appendFrom, "from", core.Unspecified, "Source index for move")
	appendCmd.Flags().IntVar(&appendTo, "to", core.Unspecified, "Destination index for move")
	appendCmd.Flags().IntVarP(&appendCount, "count", "c", 1, "Number of elements for a positional remove")
	appendCmd.Flags().StringVarP(&appendFormat, "format", "f", ".json", "Entry format (json, yaml)")
}
