// Package timer is a cancellable per-second countdown.
package timer

import (
	"sync"
	"time"
)

type Option func(*Timer)

// WithInterval changes the tick period. Tests use it to run a countdown in milliseconds.
func WithInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// Timer counts down whole seconds, calling onTick once per interval and
// onExpire once when the count reaches zero.
//
// Callbacks run on the countdown goroutine and never under the timer's lock,
// so they may call Stop or Start. Stop does not wait for a callback that is
// already running; owners guard their own state against that late delivery.
type Timer struct {
	interval time.Duration

	mu        sync.Mutex
	remaining int
	running   bool
	gen       uint64
	stop      chan struct{}
}

func New(opts ...Option) *Timer {
	t := &Timer{interval: time.Second}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start begins a countdown of seconds, cancelling any active one first.
// A non-positive duration calls onExpire immediately and schedules nothing.
func (t *Timer) Start(seconds int, onTick func(remaining int), onExpire func()) {
	t.mu.Lock()
	t.cancelLocked()
	if seconds <= 0 {
		t.remaining = 0
		t.mu.Unlock()
		if onExpire != nil {
			onExpire()
		}
		return
	}
	t.remaining = seconds
	t.running = true
	gen := t.gen
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(gen, stop, onTick, onExpire)
}

func (t *Timer) run(gen uint64, stop <-chan struct{}, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.remaining--
		rem := t.remaining
		expired := rem <= 0
		if expired {
			t.running = false
			t.stop = nil
			t.gen++
		}
		t.mu.Unlock()

		if onTick != nil {
			onTick(rem)
		}
		if expired {
			if onExpire != nil {
				onExpire()
			}
			return
		}
	}
}

// Stop cancels the countdown. It never calls onExpire.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

// Reset cancels the countdown and sets the remaining time to seconds without starting.
func (t *Timer) Reset(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	t.mu.Lock()
	t.cancelLocked()
	t.remaining = seconds
	t.mu.Unlock()
}

func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) cancelLocked() {
	t.gen++
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.running = false
}
