// Package debounce coalesces bursts of writes into a single trailing-edge
// execution per key. The quote endpoints use it to fold rapid line autosaves
// into one totals recompute.
package debounce

import (
	"sync"
	"time"
)

type entry struct {
	timer *time.Timer
	fn    func()
}

// Debouncer runs at most one pending function per key. A new Trigger within
// the window replaces the pending function and restarts the clock, so the
// last call wins. Flush runs the pending function immediately.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]*entry
}

func New(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*entry),
	}
}

// Trigger schedules fn to run after the window elapses with no further
// triggers for key.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.pending[key]; ok {
		e.fn = fn
		e.timer.Reset(d.window)
		return
	}

	e := &entry{fn: fn}
	e.timer = time.AfterFunc(d.window, func() {
		d.fire(key)
	})
	d.pending[key] = e
}

// Flush runs key's pending function now, if any, cancelling its timer.
func (d *Debouncer) Flush(key string) {
	d.mu.Lock()
	e, ok := d.pending[key]
	if ok {
		e.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if ok {
		e.fn()
	}
}

// Stop cancels every pending function without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, key)
	}
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	e, ok := d.pending[key]
	if ok {
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if ok {
		e.fn()
	}
}
