package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/synclist/internal/queue"
	"github.com/aretw0/synclist/pkg/core"
)

// Config holds the configuration of a Loop.
type Config struct {
	Name    string // worker name, defaults to "dispatch-loop"
	Logger  *slog.Logger
	OnPanic PanicHandler // defaults to logging the panic
}

// Loop is a goroutine-owned execution context fed by an unbounded ordered queue.
// It is a lifecycle worker: Start launches the goroutine, Stop ends it.
type Loop struct {
	*worker.BaseWorker
	logger  *slog.Logger
	onPanic PanicHandler
	queue   *queue.Queue[Task]

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	stop    sync.Once

	processed atomic.Uint64
	panics    atomic.Uint64
}

var _ Dispatcher = (*Loop)(nil)

// NewLoop creates a Loop. Tasks may be submitted before Start; they run once it starts.
func NewLoop(config Config) *Loop {
	if config.Name == "" {
		config.Name = "dispatch-loop"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Loop{
		BaseWorker: worker.NewBaseWorker(config.Name),
		logger:     config.Logger,
		onPanic:    config.OnPanic,
		queue:      queue.New[Task](),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

func (l *Loop) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if l.queue.Closed() {
		return core.ErrClosed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	status := l.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("loop already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.SetStatus(worker.StatusRunning)
	return l.StartFunc(runCtx, l.run)
}

// Stop rejects further submissions, discards pending tasks and waits for the
// running task (if any) to return.
func (l *Loop) Stop(ctx context.Context) error {
	l.shutdown()

	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		l.StopRequested = true
		cancel()
		select {
		case <-l.done:
		case <-ctx.Done():
			return fmt.Errorf("waiting for dispatch loop: %w", ctx.Err())
		}
	}

	return l.BaseWorker.Stop(ctx)
}

func (l *Loop) State() worker.State {
	return l.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"queued":            strconv.Itoa(l.queue.Len()),
			"processed":         strconv.FormatUint(l.processed.Load(), 10),
			"panics":            strconv.FormatUint(l.panics.Load(), 10),
		}
	})
}

// Invoke implements Dispatcher.
func (l *Loop) Invoke(ctx context.Context, task Task) error {
	if l.Owns(ctx) && l.queue.Len() == 0 {
		l.execute(ctx, task)
		return nil
	}
	if !l.queue.Push(task) {
		return core.ErrClosed
	}
	return nil
}

// Owns implements Dispatcher.
func (l *Loop) Owns(ctx context.Context) bool {
	return owns(ctx, l)
}

// Call runs fn on the loop and waits for it to return. Because the queue is
// ordered, it also acts as a barrier: everything submitted before Call has
// been applied when fn runs. With a ctx owned by the loop, fn runs inline
// without waiting for queued tasks.
//
// Code already running on the loop without an owned ctx (an observer
// callback, for one) must not call Call: the task would wait behind the
// caller forever. Observers read the collection directly instead.
func (l *Loop) Call(ctx context.Context, fn func(ctx context.Context)) error {
	if l.Owns(ctx) {
		fn(ctx)
		return nil
	}

	finished := make(chan struct{})
	err := l.Invoke(ctx, func(ctx context.Context) {
		defer close(finished)
		fn(ctx)
	})
	if err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case <-finished:
			return nil
		default:
			return core.ErrClosed
		}
	}
}

// Len returns the number of tasks waiting to run.
func (l *Loop) Len() int {
	return l.queue.Len()
}

// Processed returns the number of tasks run so far, panicking ones included.
func (l *Loop) Processed() uint64 {
	return l.processed.Load()
}

func (l *Loop) execute(ctx context.Context, task Task) {
	if !execute(ctx, l, task, l.logger, l.onPanic) {
		l.panics.Add(1)
	}
	l.processed.Add(1)
}

// shutdown closes the queue exactly once. Whatever is still queued is dropped.
func (l *Loop) shutdown() {
	l.stop.Do(func() {
		close(l.stopped)
		if dropped := l.queue.Close(); len(dropped) > 0 {
			l.logger.Warn("dispatch loop stopped with pending tasks", "dropped", len(dropped))
		}
	})
}

// run is the main loop: one goroutine, one task at a time.
// When it returns, for Stop or because the start ctx ended, the loop is closed.
func (l *Loop) run(ctx context.Context) error {
	defer close(l.done)
	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.queue.Ready():
		}

		for {
			if ctx.Err() != nil {
				return nil
			}
			task, ok := l.queue.Pop()
			if !ok {
				break
			}
			l.execute(ctx, task)
		}
	}
}
