package collection_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/synclist/pkg/collection"
	"github.com/aretw0/synclist/pkg/core"
	"github.com/aretw0/synclist/pkg/dispatch"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupManual returns a collection driven by a Manual dispatcher plus the
// errors reported to its handler. The test goroutine is the owning context.
func setupManual[T comparable](t *testing.T, initial []T) (*collection.Collection[T], *dispatch.Manual, *[]error) {
	t.Helper()

	var errs []error
	d := dispatch.NewManual(discardLogger())
	c := collection.New(d, initial,
		collection.WithLogger(discardLogger()),
		collection.WithErrorHandler(func(err error) { errs = append(errs, err) }),
	)
	return c, d, &errs
}

func apply[T comparable](t *testing.T, c *collection.Collection[T], d *dispatch.Manual, events ...core.ChangeEvent[T]) {
	t.Helper()
	ctx := context.Background()
	for _, ev := range events {
		require.NoError(t, c.Apply(ctx, ev))
	}
	d.Drain(ctx)
}

func TestCollection_Walkthrough(t *testing.T) {
	c, d, errs := setupManual(t, []string{"a", "b", "c"})

	apply(t, c, d, core.Insert(1, "z"))
	assert.Equal(t, []string{"a", "z", "b", "c"}, c.Items())

	apply(t, c, d, core.Move[string](0, 3))
	assert.Equal(t, []string{"z", "b", "c", "a"}, c.Items())

	removeTwo, err := core.RemoveRange[string](1, 2)
	require.NoError(t, err)
	apply(t, c, d, removeTwo)
	assert.Equal(t, []string{"z", "a"}, c.Items())

	assert.Empty(t, *errs)
}

func TestCollection_ApplyIsDeferredUntilOwnerRuns(t *testing.T) {
	c, d, _ := setupManual(t, []string{"a"})

	require.NoError(t, c.Apply(context.Background(), core.Add("b")))
	assert.Equal(t, 1, c.Len(), "nothing applies before the owning context drains")

	d.Drain(context.Background())
	assert.Equal(t, 2, c.Len())
}

func TestCollection_ReadAccess(t *testing.T) {
	c, _, _ := setupManual(t, []string{"a", "b", "c"})

	v, ok := c.At(1)
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = c.At(3)
	assert.False(t, ok)
	_, ok = c.At(-1)
	assert.False(t, ok)

	assert.Equal(t, 2, c.IndexOf("c"))
	assert.Equal(t, -1, c.IndexOf("nope"))

	// restartable
	assert.Equal(t, []string{"a", "b", "c"}, slices.Collect(c.All()))
	assert.Equal(t, []string{"a", "b", "c"}, slices.Collect(c.All()))
}

func TestCollection_InitialItemsAreCopied(t *testing.T) {
	initial := []string{"a", "b"}
	c, _, _ := setupManual(t, initial)
	initial[0] = "changed"

	assert.Equal(t, []string{"a", "b"}, c.Items())
}

func TestCollection_OutOfRangeIsRejected(t *testing.T) {
	c, d, errs := setupManual(t, []string{"a", "b"})

	var notes []core.Notification[string]
	c.Subscribe(collection.ObserverFunc[string](func(n core.Notification[string]) { notes = append(notes, n) }))

	apply(t, c, d, core.RemoveAt[string](5), core.Add("c"))

	assert.Equal(t, []string{"a", "b", "c"}, c.Items(), "later events still apply")
	require.Len(t, *errs, 1)
	assert.ErrorIs(t, (*errs)[0], core.ErrOutOfRange)

	require.Len(t, notes, 1)
	assert.Equal(t, core.KindAdd, notes[0].Kind)
	assert.Equal(t, uint64(2), notes[0].Seq)

	state := c.State().(collection.CollectionState)
	assert.Equal(t, uint64(1), state.Applied)
	assert.Equal(t, uint64(1), state.Rejected)
	assert.Contains(t, state.LastError, "out of range")
}

func TestCollection_ValueMissIsNoop(t *testing.T) {
	c, d, errs := setupManual(t, []string{"a", "b"})

	apply(t, c, d, core.Remove("x"), core.Replace("y", "z"))
	assert.Equal(t, []string{"a", "b"}, c.Items())
	assert.Empty(t, *errs)
}

func TestCollection_Notifications(t *testing.T) {
	c, d, _ := setupManual(t, []string{"a", "b", "c"})

	var notes []core.Notification[string]
	c.Subscribe(collection.ObserverFunc[string](func(n core.Notification[string]) {
		notes = append(notes, n)
	}))

	apply(t, c, d,
		core.Add("d"),
		core.ReplaceAt(0, "A"),
		core.Move[string](3, 0),
		core.Remove("b"),
		core.Reset("x", "y"),
	)

	require.Len(t, notes, 5)

	assert.Equal(t, core.Notification[string]{Seq: 1, Kind: core.KindAdd, NewItems: []string{"d"}, NewIndex: 3, OldIndex: -1}, notes[0])
	assert.Equal(t, core.Notification[string]{Seq: 2, Kind: core.KindReplace, NewItems: []string{"A"}, OldItems: []string{"a"}, NewIndex: 0, OldIndex: 0}, notes[1])
	assert.Equal(t, core.Notification[string]{Seq: 3, Kind: core.KindMove, NewItems: []string{"d"}, OldItems: []string{"d"}, NewIndex: 0, OldIndex: 3}, notes[2])
	assert.Equal(t, core.Notification[string]{Seq: 4, Kind: core.KindRemove, OldItems: []string{"b"}, NewIndex: -1, OldIndex: 2}, notes[3])
	assert.Equal(t, core.KindReset, notes[4].Kind)
	assert.Equal(t, []string{"d", "A", "c"}, notes[4].OldItems)
	assert.Equal(t, []string{"x", "y"}, notes[4].NewItems)
}

func TestCollection_ObserverPanicIsIsolated(t *testing.T) {
	c, d, errs := setupManual(t, []string{})

	c.Subscribe(collection.ObserverFunc[string](func(core.Notification[string]) { panic("observer failure") }))
	var got []string
	c.Subscribe(collection.ObserverFunc[string](func(n core.Notification[string]) { got = append(got, n.NewItems...) }))

	apply(t, c, d, core.Add("a"), core.Add("b"))

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, []string{"a", "b"}, c.Items())
	require.Len(t, *errs, 2)
	assert.ErrorIs(t, (*errs)[0], core.ErrObserverPanic)
}

func TestCollection_UnsubscribeFromCallback(t *testing.T) {
	c, d, _ := setupManual(t, []string{})

	var first, second, third int
	var sub *collection.Subscription
	sub = c.Subscribe(collection.ObserverFunc[string](func(core.Notification[string]) {
		first++
		sub.Unsubscribe()
		sub.Unsubscribe() // idempotent
	}))

	var thirdSub *collection.Subscription
	c.Subscribe(collection.ObserverFunc[string](func(core.Notification[string]) {
		second++
		thirdSub.Unsubscribe() // removed mid-round: skipped right away
	}))
	thirdSub = c.Subscribe(collection.ObserverFunc[string](func(core.Notification[string]) { third++ }))

	apply(t, c, d, core.Add("a"), core.Add("b"), core.Add("c"))

	assert.Equal(t, 1, first)
	assert.Equal(t, 3, second)
	assert.Equal(t, 0, third)
	assert.Equal(t, 1, c.State().(collection.CollectionState).Subscribers)
}

func TestCollection_SubscribeDuringRoundWaitsForNext(t *testing.T) {
	c, d, _ := setupManual(t, []string{})

	var late []string
	subscribed := false
	c.Subscribe(collection.ObserverFunc[string](func(core.Notification[string]) {
		if subscribed {
			return
		}
		subscribed = true
		c.Subscribe(collection.ObserverFunc[string](func(n core.Notification[string]) {
			late = append(late, n.NewItems...)
		}))
	}))

	apply(t, c, d, core.Add("a"), core.Add("b"))
	assert.Equal(t, []string{"b"}, late)
}

func TestCollection_IterationSeesStartState(t *testing.T) {
	c, d, _ := setupManual(t, []string{"a", "b", "c"})
	ctx := context.Background()

	var seen []string
	require.NoError(t, d.Invoke(ctx, func(ctx context.Context) {
		for v := range c.All() {
			seen = append(seen, v)
			if v == "a" {
				// owned ctx and nothing queued: applies inline, mid-iteration
				require.NoError(t, c.Apply(ctx, core.ReplaceAt(1, "B")))
				require.NoError(t, c.Apply(ctx, core.RemoveAt[string](2)))
			}
		}
	}))
	d.Drain(ctx)

	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, []string{"a", "B"}, c.Items())
}

func TestCollection_NilObserver(t *testing.T) {
	c, d, _ := setupManual(t, []string{})
	sub := c.Subscribe(nil)
	sub.Unsubscribe()

	apply(t, c, d, core.Add("a"))
	assert.Equal(t, 0, c.State().(collection.CollectionState).Subscribers)
}

func TestCollection_ConcurrentProducersOnLoop(t *testing.T) {
	loop := dispatch.NewLoop(dispatch.Config{Logger: discardLogger()})
	require.NoError(t, loop.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = loop.Stop(ctx)
	})

	c := collection.New[string](loop, nil, collection.WithLogger(discardLogger()))

	var applied []string // owned by the loop
	c.Subscribe(collection.ObserverFunc[string](func(n core.Notification[string]) {
		applied = append(applied, n.NewItems...)
	}))

	const producers, perProducer = 6, 100
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = c.Apply(context.Background(), core.Add(fmt.Sprintf("p%d-%03d", p, i)))
			}
		}()
	}
	wg.Wait()

	var items, notified []string
	require.NoError(t, loop.Call(context.Background(), func(context.Context) {
		items = c.Items()
		notified = slices.Clone(applied)
	}))

	require.Len(t, items, producers*perProducer)
	assert.Equal(t, items, notified, "notifications follow application order")

	// Replaying the observed order sequentially must give the same state.
	replay, d, _ := setupManual[string](t, nil)
	for _, v := range notified {
		require.NoError(t, replay.Apply(context.Background(), core.Add(v)))
	}
	d.Drain(context.Background())
	assert.Equal(t, items, replay.Items())

	for p := 0; p < producers; p++ {
		prefix := fmt.Sprintf("p%d-", p)
		var mine []string
		for _, v := range items {
			if len(v) > len(prefix) && v[:len(prefix)] == prefix {
				mine = append(mine, v)
			}
		}
		assert.True(t, slices.IsSorted(mine), "producer %d events applied out of order", p)
	}
}

func TestCollection_SubmissionOrderFromOneProducer(t *testing.T) {
	loop := dispatch.NewLoop(dispatch.Config{Logger: discardLogger()})
	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop(context.Background())

	c := collection.New(loop, []string{"a", "b", "c"}, collection.WithLogger(discardLogger()))
	ctx := context.Background()

	removeTwo, err := core.RemoveRange[string](1, 2)
	require.NoError(t, err)
	events := []core.ChangeEvent[string]{core.Insert(1, "z"), core.Move[string](0, 3), removeTwo}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, ev := range events {
			_ = c.Apply(ctx, ev)
		}
	}()
	<-done

	var got []string
	require.NoError(t, loop.Call(ctx, func(context.Context) { got = c.Items() }))
	assert.Equal(t, []string{"z", "a"}, got)
}

func TestCollection_ApplyAfterStop(t *testing.T) {
	loop := dispatch.NewLoop(dispatch.Config{Logger: discardLogger()})
	require.NoError(t, loop.Start(context.Background()))
	require.NoError(t, loop.Stop(context.Background()))

	c := collection.New[string](loop, nil)
	assert.ErrorIs(t, c.Apply(context.Background(), core.Add("a")), core.ErrClosed)
}

func TestCollection_ReentrantApplyKeepsNotificationOrder(t *testing.T) {
	c, d, errs := setupManual(t, []string{})
	ctx := context.Background()

	var owned context.Context
	var first, second []core.Notification[string]
	c.Subscribe(collection.ObserverFunc[string](func(n core.Notification[string]) {
		first = append(first, n)
		if n.NewItems[0] == "a" {
			// owned ctx, empty queue: would otherwise run in the middle of this round
			require.NoError(t, c.Apply(owned, core.Add("b")))
		}
	}))
	c.Subscribe(collection.ObserverFunc[string](func(n core.Notification[string]) {
		second = append(second, n)
	}))

	require.NoError(t, d.Invoke(ctx, func(ctx context.Context) {
		owned = ctx
		require.NoError(t, c.Apply(ctx, core.Add("a")))
	}))
	d.Drain(ctx)

	assert.Equal(t, []string{"a", "b"}, c.Items())
	assert.Empty(t, *errs)
	for name, seen := range map[string][]core.Notification[string]{"first": first, "second": second} {
		require.Len(t, seen, 2, name)
		assert.Equal(t, []string{"a"}, seen[0].NewItems, name)
		assert.Equal(t, []string{"b"}, seen[1].NewItems, name)
		assert.Equal(t, uint64(1), seen[0].Seq, name)
		assert.Equal(t, uint64(2), seen[1].Seq, name)
	}
}

func TestCollection_ObserversGetTheirOwnItems(t *testing.T) {
	c, d, _ := setupManual(t, []string{"x"})

	c.Subscribe(collection.ObserverFunc[string](func(n core.Notification[string]) {
		n.NewItems[0] = "tampered"
		n.OldItems[0] = "tampered"
	}))
	var got core.Notification[string]
	c.Subscribe(collection.ObserverFunc[string](func(n core.Notification[string]) { got = n }))

	apply(t, c, d, core.ReplaceAt(0, "y"))

	assert.Equal(t, []string{"y"}, got.NewItems)
	assert.Equal(t, []string{"x"}, got.OldItems)
	assert.Equal(t, []string{"y"}, c.Items())
}

func TestCollection_ObserverReadsOnOwningLoop(t *testing.T) {
	loop := dispatch.NewLoop(dispatch.Config{Logger: discardLogger()})
	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop(context.Background())

	c := collection.New(loop, []string{"a"}, collection.WithLogger(discardLogger()))

	var lengths []int // owned by the loop
	c.Subscribe(collection.ObserverFunc[string](func(core.Notification[string]) {
		// already on the loop: read directly, never through loop.Call
		lengths = append(lengths, c.Len())
	}))

	ctx := context.Background()
	require.NoError(t, c.Apply(ctx, core.Add("b")))
	require.NoError(t, c.Apply(ctx, core.Add("c")))

	var got []int
	callCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, loop.Call(callCtx, func(context.Context) { got = slices.Clone(lengths) }))
	assert.Equal(t, []int{2, 3}, got)
}
