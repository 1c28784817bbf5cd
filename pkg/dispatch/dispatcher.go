// Package dispatch provides the owning execution context of a collection.
//
// A Dispatcher runs Tasks one at a time, in submission order, on a single
// logical context. The context.Context handed to a running Task is marked as
// owned by that dispatcher, which lets nested submissions run inline instead
// of deadlocking or reordering.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// Task is a unit of work executed on the owning context.
// The ctx it receives must not be handed to other goroutines for submission.
type Task func(ctx context.Context)

// Dispatcher is the handle to an owning execution context.
type Dispatcher interface {
	// Invoke runs task on the owning context. It runs synchronously when ctx
	// already belongs to the context and nothing is queued ahead of it;
	// otherwise it enqueues and returns immediately.
	Invoke(ctx context.Context, task Task) error

	// Owns reports whether ctx was handed out by this dispatcher to a task
	// that is still running.
	Owns(ctx context.Context) bool
}

// PanicHandler receives a recovered task panic.
type PanicHandler func(recovered any, stack []byte)

type ownerKey struct{}

// frame marks one task execution. It stops vouching for its ctx once the task returns.
type frame struct {
	owner    any
	finished atomic.Bool
}

func owns(ctx context.Context, owner any) bool {
	if ctx == nil {
		return false
	}
	f, ok := ctx.Value(ownerKey{}).(*frame)
	return ok && f.owner == owner && !f.finished.Load()
}

// execute runs task under a fresh ownership frame with panic containment.
// It reports whether the task completed without panicking.
func execute(ctx context.Context, owner any, task Task, logger *slog.Logger, onPanic PanicHandler) (ok bool) {
	f := &frame{owner: owner}
	taskCtx := context.WithValue(ctx, ownerKey{}, f)
	defer f.finished.Store(true)

	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		ok = false
		stack := debug.Stack()
		if onPanic != nil {
			onPanic(recovered, stack)
			return
		}
		// Full stack only when debugging.
		if logger.Enabled(ctx, slog.LevelDebug) {
			logger.Error("task panic", "error", fmt.Errorf("%v", recovered), "stack", string(stack))
		} else {
			logger.Error("task panic", "error", fmt.Errorf("%v", recovered))
		}
	}()

	task(taskCtx)
	return true
}
