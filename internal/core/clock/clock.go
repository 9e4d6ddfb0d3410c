package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Handle is a cancellable scheduled callback.
// Cancel is idempotent and safe to call from inside the callback itself.
type Handle interface {
	Cancel()
	Cancelled() bool
}

// Clock schedules callbacks. Callbacks run on a goroutine owned by the clock
// and may run concurrently with commands issued by other goroutines.
type Clock interface {
	Now() time.Time
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Handle
	// EveryFunc runs fn after initial and then every interval until cancelled.
	EveryFunc(initial, interval time.Duration, fn func()) Handle
}

type timer struct {
	cancelled atomic.Bool
	mu        sync.Mutex
	stop      func()
}

func (t *timer) Cancel() {
	if t.cancelled.Swap(true) {
		return
	}
	t.mu.Lock()
	stop := t.stop
	t.stop = nil
	t.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (t *timer) Cancelled() bool {
	return t.cancelled.Load()
}

// setStop installs the underlying cancel function. If the timer was cancelled
// before it was installed, stop is called right away.
func (t *timer) setStop(stop func()) {
	t.mu.Lock()
	if !t.cancelled.Load() {
		t.stop = stop
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	stop()
}

// Stopped is a Handle that never fires.
type Stopped struct{}

func (Stopped) Cancel()         {}
func (Stopped) Cancelled() bool { return true }
