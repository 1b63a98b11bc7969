// Package busy provides a saturating reference count that gates a shared
// "work in progress" signal. It controls presentation only, never data
// correctness.
package busy

import "sync"

// Counter signals busy on the 0->1 transition and idle on the return to 0.
// Decrement is floored at zero. Safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	n      int
	onBusy func()
	onIdle func()
}

// NewCounter builds a counter with optional transition callbacks. Callbacks
// run while no internal lock is held by the caller's operation but must not
// call back into the counter.
func NewCounter(onBusy, onIdle func()) *Counter {
	return &Counter{onBusy: onBusy, onIdle: onIdle}
}

func (c *Counter) Increment() {
	c.mu.Lock()
	c.n++
	fire := c.n == 1
	c.mu.Unlock()

	if fire && c.onBusy != nil {
		c.onBusy()
	}
}

func (c *Counter) Decrement() {
	c.mu.Lock()
	fire := false

	if c.n > 0 {
		c.n--
		fire = c.n == 0
	}
	c.mu.Unlock()

	if fire && c.onIdle != nil {
		c.onIdle()
	}
}

// Active reports whether any bracketed operation is still in flight.
func (c *Counter) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.n > 0
}
