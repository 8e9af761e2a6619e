package indicator

import (
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Window is a fixed-capacity ring buffer of the most recent values.
type Window[T any] struct {
	buf   []T
	start int
	size  int
	name  string
}

// NewWindow creates a window holding at most capacity values. A capacity below 1 is raised to 1.
func NewWindow[T any](name string, capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Window[T]{buf: make([]T, capacity), name: name}
}

// Push appends v, evicting the oldest value when full.
func (w *Window[T]) Push(v T) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = v
		w.size++

		return
	}

	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

// Len returns the number of stored values.
func (w *Window[T]) Len() int {
	return w.size
}

// Cap returns the capacity.
func (w *Window[T]) Cap() int {
	return len(w.buf)
}

// Full reports whether the window holds Cap values.
func (w *Window[T]) Full() bool {
	return w.size == len(w.buf)
}

// Current returns the newest value.
func (w *Window[T]) Current() (T, error) {
	return w.Previous(0)
}

// Previous returns the value n steps before the newest. Previous(0) is Current.
func (w *Window[T]) Previous(n int) (T, error) {
	var zero T

	if n < 0 {
		return zero, errors.Newf(errors.ErrCodeInvalidParameter, "%s: lookback must be non-negative, got %d", w.name, n)
	}

	if n >= w.size {
		return zero, errors.NewInsufficientDataErrorf(n+1, w.size, w.name, "%s: lookback %d needs %d values, have %d", w.name, n, n+1, w.size)
	}

	return w.buf[(w.start+w.size-1-n)%len(w.buf)], nil
}

// Values returns a copy of the stored values, oldest first.
func (w *Window[T]) Values() []T {
	out := make([]T, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}

	return out
}

// Reset empties the window.
func (w *Window[T]) Reset() {
	var zero T
	for i := range w.buf {
		w.buf[i] = zero
	}

	w.start = 0
	w.size = 0
}
