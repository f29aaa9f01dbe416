// Package debounce coalesces bursts of events into a single callback.
package debounce

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer fires its callback once the trigger stream has been quiet for
// the configured interval. The callback receives the last value triggered.
type Debouncer[T any] struct {
	interval time.Duration
	callback func(T)

	mu      sync.Mutex
	timer   *time.Timer
	last    T
	pending bool
}

// New creates a debouncer that waits for interval of quiet before firing.
func New[T any](interval time.Duration, callback func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		interval: interval,
		callback: callback,
	}
}

// Trigger records an event. Earlier pending events are superseded.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = v
	d.pending = true

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer[T]) fire() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("debouncer callback panicked", slog.Any("error", r))
		}
	}()

	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}

	v := d.last
	d.pending = false
	d.mu.Unlock()

	d.callback(v)
}

// Flush fires a pending callback immediately, on the calling goroutine.
// It reports whether a callback ran.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	pending := d.pending
	d.mu.Unlock()

	if pending {
		d.fire()
	}

	return pending
}

// Stop cancels any pending callback.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.pending = false
}
