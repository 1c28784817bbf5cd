package dispatch

import (
	"context"
	"log/slog"

	"github.com/aretw0/synclist/internal/queue"
	"github.com/aretw0/synclist/pkg/core"
)

// Manual is a Dispatcher without a goroutine of its own: submitted tasks wait
// until Drain is called, and the goroutine calling Drain is the owning context.
// It suits tests and single-goroutine programs. Drain must not be called concurrently.
type Manual struct {
	logger  *slog.Logger
	onPanic PanicHandler
	queue   *queue.Queue[Task]
}

var _ Dispatcher = (*Manual)(nil)

// NewManual creates a Manual dispatcher. A nil logger means slog.Default().
func NewManual(logger *slog.Logger) *Manual {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manual{
		logger: logger,
		queue:  queue.New[Task](),
	}
}

// OnPanic overrides how recovered task panics are reported.
func (m *Manual) OnPanic(fn PanicHandler) {
	m.onPanic = fn
}

// Invoke implements Dispatcher.
func (m *Manual) Invoke(ctx context.Context, task Task) error {
	if m.Owns(ctx) && m.queue.Len() == 0 {
		execute(ctx, m, task, m.logger, m.onPanic)
		return nil
	}
	if !m.queue.Push(task) {
		return core.ErrClosed
	}
	return nil
}

// Owns implements Dispatcher.
func (m *Manual) Owns(ctx context.Context) bool {
	return owns(ctx, m)
}

// Drain runs queued tasks on the calling goroutine until the queue is empty,
// including tasks enqueued while draining. It returns how many ran.
func (m *Manual) Drain(ctx context.Context) int {
	n := 0
	for ctx.Err() == nil {
		task, ok := m.queue.Pop()
		if !ok {
			break
		}
		execute(ctx, m, task, m.logger, m.onPanic)
		n++
	}
	return n
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	return m.queue.Len()
}

// Close rejects further submissions and discards pending tasks.
func (m *Manual) Close() {
	if dropped := m.queue.Close(); len(dropped) > 0 {
		m.logger.Warn("manual dispatcher closed with pending tasks", "dropped", len(dropped))
	}
}
