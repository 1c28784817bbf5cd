package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/synclist/pkg/adapters/fs"
	"github.com/aretw0/synclist/pkg/collection"
	"github.com/aretw0/synclist/pkg/dispatch"
)

// List is a collection wired to its own running loop and, optionally, to a
// journal it follows.
type List[T comparable] struct {
	*collection.Collection[T]

	Loop    *dispatch.Loop
	Journal *fs.Journal[T]
	Source  *fs.Source[T]
}

// New starts a loop, seeds a collection with initial and, when a journal is
// configured, starts replaying it. Close releases everything.
//
//	list, err := synclist.New(ctx, []string{"a"}, synclist.WithJournal("./.synclist"))
func New[T comparable](ctx context.Context, initial []T, opts ...Option) (*List[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	loop := dispatch.NewLoop(dispatch.Config{
		Name:    o.name,
		Logger:  logger,
		OnPanic: o.panicHandler,
	})
	if err := loop.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start loop: %w", err)
	}

	colOpts := []collection.Option{collection.WithLogger(logger)}
	if o.errorHandler != nil {
		colOpts = append(colOpts, collection.WithErrorHandler(o.errorHandler))
	}

	list := &List[T]{
		Collection: collection.New(loop, initial, colOpts...),
		Loop:       loop,
	}

	if o.journalDir == "" {
		return list, nil
	}

	journal := fs.NewJournal[T](o.journalDir, o.journalFormat)
	if err := journal.Initialize(); err != nil {
		_ = loop.Stop(context.WithoutCancel(ctx))
		return nil, err
	}
	source := fs.NewSource[T](journal, list.Collection, fs.SourceConfig{
		Logger:       logger,
		ErrorHandler: o.errorHandler,
		After:        o.after,
	})
	if err := source.Start(ctx); err != nil {
		_ = loop.Stop(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to start journal source: %w", err)
	}

	list.Journal = journal
	list.Source = source
	return list, nil
}

// Call runs fn on the owning context and waits for it. Read access to the
// collection from other goroutines goes through here. Observers already run
// on the owning context: they read the collection directly and must not use
// Call or Snapshot, which would wait on themselves.
func (l *List[T]) Call(ctx context.Context, fn func(ctx context.Context)) error {
	return l.Loop.Call(ctx, fn)
}

// Snapshot returns a copy of the current contents, taken on the owning context.
// Not for use inside an observer callback; see Call.
func (l *List[T]) Snapshot(ctx context.Context) ([]T, error) {
	var items []T
	err := l.Call(ctx, func(context.Context) {
		items = l.Items()
	})
	return items, err
}

// Close stops the journal source, then the loop. Changes still queued are discarded.
func (l *List[T]) Close(ctx context.Context) error {
	var errs []error
	if l.Source != nil {
		if err := l.Source.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop journal source: %w", err))
		}
	}
	if err := l.Loop.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop loop: %w", err))
	}
	return errors.Join(errs...)
}
