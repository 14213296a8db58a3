// Package asyncx provides small concurrency helpers: futures for awaited
// async work and cancellable interval tasks with explicit disposal handles.
package asyncx

import (
	"sync"
	"time"
)

// ─── Future ──────────────────────────────────────────────────────────────────

type result[T any] struct {
	value T
	err   error
}

// Future represents a value that will be available asynchronously.
// Create one with Run and retrieve its value with Await.
type Future[T any] struct {
	ch  chan result[T]
	res *result[T]
	mu  sync.Mutex
}

// Run executes fn in a goroutine and returns a Future for its result.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{ch: make(chan result[T], 1)}
	go func() {
		v, err := fn()
		f.ch <- result[T]{value: v, err: err}
	}()
	return f
}

// Await blocks until the Future completes. Safe to call multiple times;
// subsequent calls return the cached result.
func (f *Future[T]) Await() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.res == nil {
		r := <-f.ch
		f.res = &r
	}
	return f.res.value, f.res.err
}

// ─── Interval tasks ──────────────────────────────────────────────────────────

// Task is the disposal handle of a periodic background task. Stop is
// idempotent and guarantees fn is never invoked after it returns.
type Task struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Every runs fn on a fixed interval until the returned Task is stopped.
// The first invocation happens after one full interval, matching ticker
// semantics.
func Every(interval time.Duration, fn func()) *Task {
	t := &Task{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				// Re-check stop so a concurrent Stop suppresses a tick
				// that raced with it.
				select {
				case <-t.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

// Stop cancels the task and waits for the loop to exit.
func (t *Task) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}
