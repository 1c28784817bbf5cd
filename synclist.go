package synclist

import (
	"context"
	"log/slog"

	"github.com/aretw0/synclist/internal/platform"
	"github.com/aretw0/synclist/pkg/collection"
	"github.com/aretw0/synclist/pkg/core"
	"github.com/aretw0/synclist/pkg/dispatch"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// --- Types ---

// List is a collection running on its own loop.
type List[T comparable] = platform.List[T]

// Collection is the owned, ordered sequence.
type Collection[T comparable] = collection.Collection[T]

// ChangeEvent describes one requested mutation.
type ChangeEvent[T any] = core.ChangeEvent[T]

// Notification describes one applied mutation.
type Notification[T any] = core.Notification[T]

// Kind is the kind of a change.
type Kind = core.Kind

// Observer receives notifications.
type Observer[T any] = collection.Observer[T]

// ObserverFunc adapts a function to Observer.
type ObserverFunc[T any] = collection.ObserverFunc[T]

// Subscription is returned by Subscribe.
type Subscription = collection.Subscription

// Dispatcher is the owning execution context of a collection.
type Dispatcher = dispatch.Dispatcher

const (
	KindReset   = core.KindReset
	KindAdd     = core.KindAdd
	KindRemove  = core.KindRemove
	KindReplace = core.KindReplace
	KindMove    = core.KindMove
)

// Unspecified marks an index that does not apply.
const Unspecified = core.Unspecified

// --- Errors ---

var (
	ErrInvalidArgument = core.ErrInvalidArgument
	ErrOutOfRange      = core.ErrOutOfRange
	ErrClosed          = core.ErrClosed
	ErrObserverPanic   = core.ErrObserverPanic
)

// --- Changes ---

// Reset replaces the whole contents with items.
func Reset[T any](items ...T) ChangeEvent[T] { return core.Reset(items...) }

// Add appends items.
func Add[T any](items ...T) ChangeEvent[T] { return core.Add(items...) }

// Insert inserts items at index.
func Insert[T any](index int, items ...T) ChangeEvent[T] { return core.Insert(index, items...) }

// Remove removes the first occurrence of each item.
func Remove[T any](items ...T) ChangeEvent[T] { return core.Remove(items...) }

// RemoveAt removes the element at index.
func RemoveAt[T any](index int) ChangeEvent[T] { return core.RemoveAt[T](index) }

// RemoveRange removes count elements starting at index.
// A negative count fails with ErrInvalidArgument.
func RemoveRange[T any](index, count int) (ChangeEvent[T], error) {
	return core.RemoveRange[T](index, count)
}

// Replace swaps the first occurrence of oldItem for newItem.
func Replace[T any](oldItem, newItem T) ChangeEvent[T] { return core.Replace(oldItem, newItem) }

// ReplaceValues replaces oldItems[k] with newItems[k], by value.
// Slices of different lengths fail with ErrInvalidArgument.
func ReplaceValues[T any](oldItems, newItems []T) (ChangeEvent[T], error) {
	return core.ReplaceValues(oldItems, newItems)
}

// ReplaceAt overwrites the elements starting at index.
func ReplaceAt[T any](index int, items ...T) ChangeEvent[T] { return core.ReplaceAt(index, items...) }

// Move moves the element at from so that it ends up at to.
func Move[T any](from, to int) ChangeEvent[T] { return core.Move[T](from, to) }

// --- Configuration ---

// Option defines a functional option for configuring a List.
type Option = platform.Option

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithName names the owning loop.
func WithName(name string) Option {
	return platform.WithName(name)
}

// WithErrorHandler registers a callback for rejected changes, observer panics
// and journal failures.
func WithErrorHandler(fn func(error)) Option {
	return platform.WithErrorHandler(fn)
}

// WithPanicHandler overrides how task panics on the loop are reported.
func WithPanicHandler(fn dispatch.PanicHandler) Option {
	return platform.WithPanicHandler(fn)
}

// WithJournal replays and follows the journal in dir.
func WithJournal(dir string) Option {
	return platform.WithJournal(dir)
}

// WithJournalFormat selects the extension for new journal entries.
func WithJournalFormat(ext string) Option {
	return platform.WithJournalFormat(ext)
}

// WithJournalAfter skips journal entries up to and including seq.
func WithJournalAfter(seq uint64) Option {
	return platform.WithJournalAfter(seq)
}

// --- Factory ---

// New creates a List seeded with a copy of initial and starts its loop.
func New[T comparable](ctx context.Context, initial []T, opts ...Option) (*List[T], error) {
	return platform.New(ctx, initial, opts...)
}
