package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/synclist"
	"github.com/aretw0/synclist/pkg/collection"
)

var (
	demoProducers int
	demoOps       int
	demoSeed      uint64
	demoDiagram   bool
)

var demoItems = []string{"Some item", "Some other item", "A third item"}

// demoCmd represents the demo command
var demoCmd = &cobra.Command{
	Use:   "demo [values...]",
	Short: "Run the list sample without a UI",
	Long: `Start from a prefilled list and let several producers act as a remote
service that adds, removes and edits items concurrently. Every applied change is
printed as it happens. Extra arguments are added as values; blank ones are refused.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		list, err := synclist.New(ctx, demoItems,
			synclist.WithName("list-sample"),
			synclist.WithLogger(slog.Default()),
			synclist.WithErrorHandler(func(err error) {
				fmt.Printf("  rejected: %v\n", err)
			}),
		)
		if err != nil {
			fatal("Failed to start list", err)
		}
		defer list.Close(ctx)

		list.Subscribe(synclist.ObserverFunc[string](func(n synclist.Notification[string]) {
			fmt.Printf("  %s\n", n)
		}))

		fmt.Printf("Initial: %q\n", demoItems)

		for _, v := range args {
			if !validValue(v) {
				fmt.Printf("Refusing blank value %q\n", v)
				continue
			}
			if err := list.Apply(ctx, synclist.Add(v)); err != nil {
				fatal("Failed to submit change", err)
			}
		}

		var wg sync.WaitGroup
		for p := 0; p < demoProducers; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				produce(ctx, list, p, rand.New(rand.NewPCG(demoSeed, uint64(p))))
			}()
		}
		wg.Wait()

		items, err := list.Snapshot(ctx)
		if err != nil {
			fatal("Failed to read list", err)
		}
		fmt.Printf("Final: %q\n", items)

		state, _ := list.State().(collection.CollectionState)
		data, _ := json.MarshalIndent(state, "", "  ")
		fmt.Printf("State: %s\n", data)

		if demoDiagram {
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "synclist"
			config.SecondaryLabel = "List Topology"
			fmt.Println(introspection.TreeDiagram(buildTree(list, state), config))
		}
	},
}

// produce plays the remote service: it picks an action from what it knows
// about the list right now, which may be stale by the time the change applies.
func produce(ctx context.Context, list *synclist.List[string], producer int, r *rand.Rand) {
	for op := 0; op < demoOps; op++ {
		count := 0
		if state, ok := list.State().(collection.CollectionState); ok {
			count = state.Count
		}

		var ev synclist.ChangeEvent[string]
		switch action := r.IntN(3); {
		case action == 0 || count == 0:
			ev = synclist.Add(fmt.Sprintf("Item %d.%d", producer, op))
		case action == 1:
			ev = synclist.RemoveAt[string](r.IntN(count))
		default:
			ev = synclist.ReplaceAt(r.IntN(count), fmt.Sprintf("Edited %d.%d", producer, op))
		}

		if err := list.Apply(ctx, ev); err != nil {
			slog.Warn("producer stopped", "producer", producer, "error", err)
			return
		}
	}
}

func validValue(v string) bool {
	return strings.TrimSpace(v) != ""
}
