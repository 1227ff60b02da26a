package search

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once the input has been
// quiet for the configured delay.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	seq     uint64
	pending func()
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any pending function and restarting the
// quiet period.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = fn
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Cancel drops the pending function. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	had := d.pending != nil
	d.pending = nil
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
	return had
}

// fire runs the pending function if seq is still the latest trigger. A timer
// that fired while a newer Trigger held the lock is ignored.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}
