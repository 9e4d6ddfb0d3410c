package clock

import (
	"sync"
	"time"
)

// ManualClock is a Clock whose time only moves when Advance is called.
// Due callbacks run synchronously inside Advance, in due-time order.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	timer
	due      time.Time
	interval time.Duration
	seq      uint64
	fn       func()
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) AfterFunc(d time.Duration, fn func()) Handle {
	return c.schedule(d, 0, fn)
}

func (c *ManualClock) EveryFunc(initial, interval time.Duration, fn func()) Handle {
	if interval <= 0 {
		panic("clock: non-positive interval")
	}
	return c.schedule(initial, interval, fn)
}

func (c *ManualClock) schedule(d, interval time.Duration, fn func()) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{
		due:      c.now.Add(nonNegative(d)),
		interval: interval,
		seq:      c.seq,
		fn:       fn,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d, firing every callback that falls due.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		next := c.popDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.due
		if next.interval > 0 {
			next.due = next.due.Add(next.interval)
			c.timers = append(c.timers, next)
		}
		c.mu.Unlock()

		if !next.Cancelled() {
			next.fn()
		}
	}
}

// AdvanceTo moves time forward to t. Times in the past are ignored.
func (c *ManualClock) AdvanceTo(t time.Time) {
	d := t.Sub(c.Now())
	if d > 0 {
		c.Advance(d)
	}
}

// Pending counts the live timers.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.Cancelled() {
			n++
		}
	}
	return n
}

// popDue removes and returns the earliest live timer due at or before target.
func (c *ManualClock) popDue(target time.Time) *manualTimer {
	best := -1
	live := c.timers[:0]
	for _, t := range c.timers {
		if t.Cancelled() {
			continue
		}
		live = append(live, t)
	}
	c.timers = live
	for i, t := range c.timers {
		if t.due.After(target) {
			continue
		}
		if best < 0 || t.due.Before(c.timers[best].due) ||
			(t.due.Equal(c.timers[best].due) && t.seq < c.timers[best].seq) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	t := c.timers[best]
	c.timers = append(c.timers[:best], c.timers[best+1:]...)
	return t
}
