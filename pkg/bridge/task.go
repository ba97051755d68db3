package bridge

import "context"

// Task is the pending result of work running on another goroutine. It lets
// an interactive front end stay responsive while a bridge command blocks.
type Task[T any] struct {
	done  chan struct{}
	value T
}

// Go starts fn on a new goroutine.
func Go[T any](ctx context.Context, fn func(context.Context) T) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.value = fn(ctx)
	}()
	return t
}

// Done is closed once the result is available.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the result is ready or ctx ends. Giving up does not
// stop the underlying work.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
