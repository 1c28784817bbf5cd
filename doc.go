// Package synclist is the composition root for synchronized, event-sourced lists.
//
// A list owns an ordered sequence of values that changes only by applying
// change events. Events may be submitted from any goroutine; they are applied
// one at a time, in submission order, on the list's owning context, and every
// applied mutation is announced to subscribers on that same context.
//
// Features:
//
//   - **Serialized Changes**: `ChangeEvent` values describe reset, add, remove, replace and move.
//   - **Owning Context**: a `dispatch.Loop` applies changes and notifies observers; nothing else writes.
//   - **Never Blocks**: `Apply` enqueues and returns; nested submissions keep their order.
//   - **Journal**: events can be persisted as JSON/YAML files and replayed or followed live.
//   - **Lifecycle Friendly**: loops and journal sources are `lifecycle` workers and can be supervised.
//
// Usage:
//
//	list, err := synclist.New(ctx, []string{"a", "b", "c"},
//		synclist.WithLogger(logger),
//	)
//	defer list.Close(ctx)
//
//	list.Subscribe(synclist.ObserverFunc[string](func(n synclist.Notification[string]) {
//		fmt.Println(n)
//	}))
//	err = list.Apply(ctx, synclist.Insert(1, "z"))
package synclist
