package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/spf13/cobra"

	"github.com/aretw0/synclist"
	"github.com/aretw0/synclist/internal/platform"
	"github.com/aretw0/synclist/pkg/adapters/fs"
	bridge "github.com/aretw0/synclist/pkg/adapters/lifecycle"
)

var watchRestarts int

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the journal and print every applied change",
	Long: `Replay the journal into an empty list, then keep following it.
The journal source runs under a supervisor and is restarted if the watcher fails;
a restarted source resumes after the last entry it submitted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dir := platform.ResolveJournal(journalDir)
		journal := fs.NewJournal[string](dir, "")
		if err := journal.Initialize(); err != nil {
			fatal("Failed to initialize journal", err)
		}

		list, err := synclist.New[string](ctx, nil,
			synclist.WithName("watch"),
			synclist.WithLogger(slog.Default()),
		)
		if err != nil {
			fatal("Failed to start list", err)
		}

		events := bridge.NewSource[string](list)
		if err := events.Start(ctx); err != nil {
			fatal("Failed to start notification source", err)
		}

		var (
			mu      sync.Mutex
			current *fs.Source[string]
		)
		spec := supervisor.Spec{
			Name: "journal-source",
			Type: string(worker.TypeGoroutine),
			Factory: func() (worker.Worker, error) {
				mu.Lock()
				defer mu.Unlock()

				var after uint64
				if current != nil {
					after = current.Cursor()
				}
				current = fs.NewSource[string](journal, list, fs.SourceConfig{
					Logger: slog.Default(),
					After:  after,
				})
				return current, nil
			},
			Backoff: supervisor.Backoff{
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      2,
				ResetDuration:   time.Minute,
				MaxRestarts:     watchRestarts,
				MaxDuration:     10 * time.Minute,
			},
			RestartPolicy: supervisor.RestartOnFailure,
		}

		sup := supervisor.New("synclist-watch", supervisor.StrategyOneForOne, spec)
		if err := sup.Start(ctx); err != nil {
			fatal("Failed to start supervisor", err)
		}

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", dir)
		for e := range events.Events() {
			fmt.Println(e.String())
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sup.Stop(stopCtx); err != nil {
			slog.Warn("supervisor did not stop cleanly", "error", err)
		}
		if err := list.Close(stopCtx); err != nil {
			slog.Warn("list did not stop cleanly", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().IntVar(&watchRestarts, "max-restarts", 5, "Restarts allowed for a failing journal watcher")
}
