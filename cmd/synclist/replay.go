package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/synclist/internal/platform"
	"github.com/aretw0/synclist/pkg/adapters/fs"
	"github.com/aretw0/synclist/pkg/collection"
	"github.com/aretw0/synclist/pkg/dispatch"
	"github.com/spf13/cobra"
)

var replayJSON bool

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Apply the whole journal to an empty list and print the result",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		dir := platform.ResolveJournal(journalDir)

		// Single-goroutine run: this goroutine drains and owns the collection.
		d := dispatch.NewManual(slog.Default())
		report := func(err error) {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		list := collection.New[string](d, nil,
			collection.WithLogger(slog.Default()),
			collection.WithErrorHandler(report),
		)

		journal := fs.NewJournal[string](dir, "")
		source := fs.NewSource[string](journal, list, fs.SourceConfig{
			Logger:       slog.Default(),
			ErrorHandler: report,
		})
		if err := source.CatchUp(ctx); err != nil {
			fatal("Failed to replay journal", err)
		}
		d.Drain(ctx)

		if replayJSON {
			out := struct {
				Entries uint64                     `json:"entries"`
				Items   []string                   `json:"items"`
				State   collection.CollectionState `json:"state"`
			}{
				Entries: source.Cursor(),
				Items:   list.Items(),
				State:   list.State().(collection.CollectionState),
			}
			if out.Items == nil {
				out.Items = []string{}
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				fatal("Failed to encode result", err)
			}
			fmt.Println(string(data))
			return
		}

		fmt.Printf("Replayed %d entries from %s\n", source.Cursor(), dir)
		i := 0
		for item := range list.All() {
			fmt.Printf("%3d  %s\n", i, item)
			i++
		}
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Output in JSON format")
}
