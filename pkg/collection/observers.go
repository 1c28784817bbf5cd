package collection

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/aretw0/synclist/pkg/core"
)

// Observer receives a notification for every mutation applied to a collection,
// in application order, on the owning context.
//
// OnChange runs on the owning context, so it may read the collection directly
// (Len, At, Items...). It must not wait on the owning context, e.g. through
// dispatch.Loop.Call: that work would queue behind the callback itself.
type Observer[T any] interface {
	OnChange(n core.Notification[T])
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc[T any] func(n core.Notification[T])

// OnChange implements Observer.
func (f ObserverFunc[T]) OnChange(n core.Notification[T]) { f(n) }

type observer[T any] struct {
	Observer[T]
	active atomic.Bool
}

// Subscription is returned by Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery. It is idempotent and may be called from any
// goroutine, including from inside the observer's own callback.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Subscribe registers obs and returns the handle that removes it.
func (c *Collection[T]) Subscribe(obs Observer[T]) *Subscription {
	if obs == nil {
		return &Subscription{}
	}

	entry := &observer[T]{Observer: obs}
	entry.active.Store(true)

	c.mu.Lock()
	c.observers = append(c.observers, entry)
	c.mu.Unlock()

	return &Subscription{cancel: func() {
		entry.active.Store(false)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.observers = slices.DeleteFunc(c.observers, func(o *observer[T]) bool { return o == entry })
	}}
}

// notify delivers n to a snapshot of the observers. Observers removed during
// the round are skipped; observers added during the round wait for the next one.
// Each observer gets its own copy of the item slices.
func (c *Collection[T]) notify(n core.Notification[T]) {
	c.mu.Lock()
	round := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, o := range round {
		if !o.active.Load() {
			continue
		}
		own := n
		own.NewItems = slices.Clone(n.NewItems)
		own.OldItems = slices.Clone(n.OldItems)
		c.deliver(o, own)
	}
}

func (c *Collection[T]) deliver(o *observer[T], n core.Notification[T]) {
	defer func() {
		if r := recover(); r != nil {
			c.report(fmt.Errorf("%w: %v (notification %s)", core.ErrObserverPanic, r, n))
		}
	}()
	o.OnChange(n)
}

func (c *Collection[T]) subscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}
