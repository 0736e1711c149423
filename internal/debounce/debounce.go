// Package debounce collapses bursts of values into a single emission that
// fires once input has been quiet for a window, dropping emissions equal to
// the previous one.
package debounce

import (
	"sync"
	"time"
)

// Gate is the single-owner state behind a debouncer. The caller owns the
// timer: Push on every input, then Settle with the returned token once the
// window elapses.
type Gate[T comparable] struct {
	token      uint64
	pending    T
	hasPending bool
	last       T
	hasLast    bool
}

// Push records v as the latest input and returns the token of its window.
// Any earlier token is superseded.
func (g *Gate[T]) Push(v T) uint64 {
	g.token++
	g.pending = v
	g.hasPending = true
	return g.token
}

// Settle reports the value to emit for the window identified by token. It
// returns false when a later Push superseded the window or the value equals
// the previous emission.
func (g *Gate[T]) Settle(token uint64) (T, bool) {
	var zero T
	if token != g.token || !g.hasPending {
		return zero, false
	}

	v := g.pending
	g.pending = zero
	g.hasPending = false

	if g.hasLast && g.last == v {
		return zero, false
	}

	g.last = v
	g.hasLast = true
	return v, true
}

// Debouncer runs a Gate against real timers. Each Push resets the quiet
// window; emit is called from the timer goroutine.
type Debouncer[T comparable] struct {
	window time.Duration
	emit   func(T)

	mu      sync.Mutex
	gate    Gate[T]
	timer   *time.Timer
	stopped bool

	// running counts emit calls in progress.
	running sync.WaitGroup
}

func New[T comparable](window time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		window: window,
		emit:   emit,
	}
}

func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	token := d.gate.Push(v)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.fire(token)
	})
}

// Stop cancels any pending emission, ignores later pushes, and waits for a
// running emit to return. No emission happens after Stop returns. Stop must
// not be called from emit.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.running.Wait()
}

func (d *Debouncer[T]) fire(token uint64) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	v, ok := d.gate.Settle(token)
	if ok {
		d.running.Add(1)
	}
	d.mu.Unlock()

	if ok {
		defer d.running.Done()
		d.emit(v)
	}
}
