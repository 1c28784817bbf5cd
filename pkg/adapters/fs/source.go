package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/synclist/pkg/core"
)

// Applier receives replayed events. *collection.Collection satisfies it.
type Applier[T any] interface {
	Apply(ctx context.Context, ev core.ChangeEvent[T]) error
}

// SourceConfig holds the configuration of a Source.
type SourceConfig struct {
	Logger *slog.Logger
	// ErrorHandler receives watcher failures and undecodable entries.
	ErrorHandler func(error)
	// After skips entries up to and including this sequence number.
	After uint64
}

// Source replays a journal into an Applier: first everything already on disk,
// then every entry that appears while it runs. Each entry is submitted once,
// in sequence order.
type Source[T any] struct {
	*worker.BaseWorker
	journal *Journal[T]
	target  Applier[T]
	config  SourceConfig

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc

	catchUp sync.Mutex

	cursor atomic.Uint64
	active atomic.Bool
}

// NewSource creates a Source worker. It does nothing until started.
func NewSource[T any](journal *Journal[T], target Applier[T], config SourceConfig) *Source[T] {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Source[T]{
		BaseWorker: worker.NewBaseWorker("journal-source"),
		journal:    journal,
		target:     target,
		config:     config,
	}
	s.cursor.Store(config.After)
	return s
}

func (s *Source[T]) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := s.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("journal source already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch before the first catch-up so nothing written in between is missed.
	if err := watcher.Add(s.journal.Dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.journal.Dir, err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.watcher = watcher
	s.cancel = cancel
	s.mu.Unlock()
	s.active.Store(true)

	s.SetStatus(worker.StatusRunning)
	return s.StartFunc(runCtx, s.run)
}

func (s *Source[T]) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		s.StopRequested = true
		cancel()
	}
	return s.BaseWorker.Stop(ctx)
}

func (s *Source[T]) State() worker.State {
	return s.ExportState(func(st *worker.State) {
		st.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"dir":               s.journal.Dir,
			"cursor":            strconv.FormatUint(s.cursor.Load(), 10),
			"watching":          strconv.FormatBool(s.active.Load()),
		}
	})
}

// Cursor returns the sequence number of the last submitted entry.
func (s *Source[T]) Cursor() uint64 {
	return s.cursor.Load()
}

// CatchUp submits every entry after the cursor. It is called on start and on
// each relevant filesystem event, and may be called directly.
func (s *Source[T]) CatchUp(ctx context.Context) error {
	s.catchUp.Lock()
	defer s.catchUp.Unlock()

	refs, err := s.journal.List(s.cursor.Load())
	if err != nil {
		return err
	}

	for _, ref := range refs {
		if ctx.Err() != nil {
			return nil
		}
		entry, err := s.journal.Read(ref)
		if err != nil {
			// A broken entry is reported and skipped; the rest of the journal still applies.
			s.handleError(err)
			s.cursor.Store(ref.Seq)
			continue
		}
		if err := s.target.Apply(ctx, entry.Event); err != nil {
			return fmt.Errorf("failed to submit entry %d: %w", ref.Seq, err)
		}
		s.cursor.Store(ref.Seq)
		s.config.Logger.Debug("journal entry submitted", "seq", ref.Seq, "change", entry.Event.String())
	}
	return nil
}

func (s *Source[T]) handleError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.config.Logger.Error("journal source error", "error", err)
}

// relevant reports whether a filesystem event may have produced a new entry.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	match, err := doublestar.Match(EntryPattern, filepath.Base(event.Name))
	return err == nil && match
}

// run is the main event loop of the source.
func (s *Source[T]) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("journal source panic: %v", recovered)
			if s.config.Logger.Enabled(ctx, slog.LevelDebug) {
				s.config.Logger.Error("journal source panic", "error", err, "stack", string(debug.Stack()))
			} else {
				s.config.Logger.Error("journal source panic", "error", err)
			}
		}
	}()
	defer s.active.Store(false)

	s.mu.Lock()
	watcher := s.watcher
	s.mu.Unlock()
	defer watcher.Close()

	if err := s.CatchUp(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if s.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if !relevant(event) {
				continue
			}
			if err := s.CatchUp(ctx); err != nil {
				return err
			}

		case wErr, ok := <-watcher.Errors:
			if !ok {
				if s.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			s.handleError(wErr)
		}
	}
}
