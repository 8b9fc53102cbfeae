package client

import (
	"sync"
	"time"
)

// SearchDelay is the quiescence window applied to search input before
// it becomes a listing query.
const SearchDelay = 500 * time.Millisecond

// Debouncer emits the latest input once no new input has arrived for
// the configured delay. Trailing edge only: every keystroke cancels and
// restarts the timer, nothing is emitted on the leading edge.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func(text string)
}

func NewDebouncer(delay time.Duration, fn func(text string)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

func (d *Debouncer) Input(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.fn(text)
	})
}

// Stop cancels any pending emission.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
