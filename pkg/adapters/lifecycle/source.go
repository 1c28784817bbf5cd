// Package lifecycle exposes collection notifications as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/synclist/internal/queue"
	"github.com/aretw0/synclist/pkg/collection"
	"github.com/aretw0/synclist/pkg/core"
)

// Subscriber is the part of a collection the bridge needs.
type Subscriber[T any] interface {
	Subscribe(obs collection.Observer[T]) *collection.Subscription
}

type notificationSource[T any] struct {
	subject Subscriber[T]
	pending *queue.Queue[core.Notification[T]]
	out     chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits the notifications of c.
// Notifications are buffered without bound, so a slow consumer never stalls
// the collection's owning context.
func NewSource[T any](c Subscriber[T]) lifecycle.Source {
	return &notificationSource[T]{
		subject: c,
		pending: queue.New[core.Notification[T]](),
		out:     make(chan lifecycle.Event),
	}
}

func (s *notificationSource[T]) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *notificationSource[T]) Start(ctx context.Context) error {
	sub := s.subject.Subscribe(collection.ObserverFunc[T](func(n core.Notification[T]) {
		s.pending.Push(n)
	}))

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		defer s.pending.Close()
		defer sub.Unsubscribe()

		for {
			for {
				n, ok := s.pending.Pop()
				if !ok {
					break
				}
				// core.Notification implements lifecycle.Event (has String())
				select {
				case s.out <- n:
				case <-ctx.Done():
					return nil
				}
			}

			select {
			case <-ctx.Done():
				return nil
			case <-s.pending.Ready():
			}
		}
	})
	return nil
}
