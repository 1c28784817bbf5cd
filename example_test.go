package synclist_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aretw0/synclist"
	"github.com/aretw0/synclist/pkg/adapters/fs"
)

// Example_basic applies a few changes and prints what the observers see.
func Example_basic() {
	ctx := context.Background()

	list, err := synclist.New(ctx, []string{"a", "b", "c"})
	if err != nil {
		log.Fatal(err)
	}
	defer list.Close(ctx)

	// Observers run on the list's own loop, one notification at a time.
	list.Subscribe(synclist.ObserverFunc[string](func(n synclist.Notification[string]) {
		fmt.Println(n)
	}))

	_ = list.Apply(ctx, synclist.Insert(1, "z"))
	_ = list.Apply(ctx, synclist.Move[string](0, 3))
	_ = list.Apply(ctx, synclist.Remove("b", "c"))

	items, err := list.Snapshot(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(items)
	// Output:
	// #1 add [z] at 1
	// #2 move [a] 0 -> 3
	// #3 remove [b] at 1
	// #3 remove [c] at 1
	// [z a]
}

// ExampleWithJournal replays events written by another process.
func ExampleWithJournal() {
	dir, err := os.MkdirTemp("", "synclist-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	journal := fs.NewJournal[string](dir, ".yaml")
	if err := journal.Initialize(); err != nil {
		log.Fatal(err)
	}
	for _, ev := range []synclist.ChangeEvent[string]{
		synclist.Reset("Some item", "Some other item"),
		synclist.Add("A third item"),
		synclist.RemoveAt[string](0),
	} {
		if _, err := journal.Append(ev); err != nil {
			log.Fatal(err)
		}
	}

	ctx := context.Background()
	list, err := synclist.New[string](ctx, nil, synclist.WithJournal(dir))
	if err != nil {
		log.Fatal(err)
	}
	defer list.Close(ctx)

	entries, err := journal.Entries(0)
	if err != nil {
		log.Fatal(err)
	}
	for list.Source.Cursor() < uint64(len(entries)) {
		// the source replays asynchronously
		time.Sleep(time.Millisecond)
	}

	items, _ := list.Snapshot(ctx)
	fmt.Println(items)
	// Output:
	// [Some other item A third item]
}
