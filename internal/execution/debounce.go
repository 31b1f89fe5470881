package execution

import (
	"sync"
	"time"
)

// Debouncer groups rapid successive calls into a single callback after a quiet period.
// All methods are safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	seq      uint64 // detects stale timer callbacks
	callback func()
}

// NewDebouncer creates a new debouncer with the specified delay
func NewDebouncer(delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
	}
}

// Call schedules the callback to run once no further calls arrive within the delay
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	current := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stale := d.seq != current
		d.mu.Unlock()
		if !stale {
			d.callback()
		}
	})
}

// Cancel drops any pending call
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
