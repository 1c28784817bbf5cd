// Package collection implements an ordered collection that is mutated only by
// applying change events on its owning execution context.
package collection

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/aretw0/synclist/pkg/core"
	"github.com/aretw0/synclist/pkg/dispatch"
)

// Collection owns an ordered sequence of T.
//
// Apply may be called from any goroutine. Everything else that touches the
// sequence (Len, At, IndexOf, All, Items) must run on the dispatcher's owning
// context, e.g. inside an observer callback or a dispatch.Loop.Call.
type Collection[T comparable] struct {
	dispatcher dispatch.Dispatcher
	logger     *slog.Logger
	onError    func(error)

	// Owned by the dispatcher's context.
	items      []T
	seq        uint64
	iterating  int
	processing bool
	deferred   []core.ChangeEvent[T]

	mu        sync.Mutex
	observers []*observer[T]

	count    atomic.Int64
	applied  atomic.Uint64
	rejected atomic.Uint64
	lastErr  atomic.Pointer[string]
}

// New creates a collection bound to d, seeded with a copy of initial.
func New[T comparable](d dispatch.Dispatcher, initial []T, opts ...Option) *Collection[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Collection[T]{
		dispatcher: d,
		logger:     o.logger,
		onError:    o.errorHandler,
		items:      slices.Clone(initial),
	}
	c.count.Store(int64(len(c.items)))
	return c
}

// Apply submits ev for application on the owning context and returns without
// waiting. Events are applied in submission order. The returned error only
// reports submission failures (core.ErrClosed); rejected events are reported
// to the error handler.
func (c *Collection[T]) Apply(ctx context.Context, ev core.ChangeEvent[T]) error {
	return c.dispatcher.Invoke(ctx, func(ctx context.Context) {
		c.process(ev)
	})
}

// process applies ev, then whatever was submitted inline while it notified.
// A change applied from inside a notification round waits for the round to
// finish, so every observer sees mutations in the order they were applied.
func (c *Collection[T]) process(ev core.ChangeEvent[T]) {
	if c.processing {
		c.deferred = append(c.deferred, ev)
		return
	}
	c.processing = true
	defer func() { c.processing = false }()

	c.applyOne(ev)
	for len(c.deferred) > 0 {
		next := c.deferred[0]
		c.deferred = c.deferred[1:]
		c.applyOne(next)
	}
	c.deferred = nil
}

func (c *Collection[T]) applyOne(ev core.ChangeEvent[T]) {
	c.seq++

	base := c.items
	if c.iterating > 0 {
		// keep the slice seen by running iterators intact
		base = slices.Clone(base)
	}

	next, notes, err := applyChange(base, ev, c.seq)
	if err != nil {
		c.rejected.Add(1)
		c.report(fmt.Errorf("change #%d rejected: %w", c.seq, err))
		return
	}

	c.items = next
	c.count.Store(int64(len(next)))
	c.applied.Add(1)
	c.logger.Debug("change applied", "seq", c.seq, "kind", ev.Kind(), "count", len(next))

	for _, n := range notes {
		c.notify(n)
	}
}

func (c *Collection[T]) report(err error) {
	msg := err.Error()
	c.lastErr.Store(&msg)

	if c.onError != nil {
		c.onError(err)
		return
	}
	c.logger.Error("collection error", "error", err)
}

// --- Read access (owning context only) ---

// Len returns the number of elements.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// At returns the element at index i.
func (c *Collection[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(c.items) {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// IndexOf returns the position of the first element equal to v, or -1.
func (c *Collection[T]) IndexOf(v T) int {
	return slices.Index(c.items, v)
}

// All returns a lazy, restartable sequence. Each iteration sees the contents
// as they were when it started, even if changes are applied meanwhile.
func (c *Collection[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		items := c.items
		c.iterating++
		defer func() { c.iterating-- }()

		for _, v := range items {
			if !yield(v) {
				return
			}
		}
	}
}

// Items returns a copy of the current contents.
func (c *Collection[T]) Items() []T {
	return slices.Clone(c.items)
}
