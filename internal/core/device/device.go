package device

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/berfenger/homesim/internal/core/clock"

	"go.uber.org/zap"
)

const roomNotFound = "Room not found"

// Options is shared by every device kind.
type Options struct {
	Clock clock.Clock
	// Tick is one simulated minute.
	Tick   time.Duration
	Logger *zap.Logger
}

func (o Options) tick() time.Duration {
	if o.Tick <= 0 {
		return time.Minute
	}
	return o.Tick
}

func (o Options) logger(kind string) *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger.With(zap.String("device", kind))
}

// Step moves current toward target by rate, snapping onto target when closer
// than one step.
func Step(current, target, rate float64) float64 {
	switch {
	case math.Abs(target-current) < rate:
		return target
	case current < target:
		return current + rate
	case current > target:
		return current - rate
	}
	return current
}

// AreaRate scales a per-10m² rate to a room of the given area.
func AreaRate(perTenSqm, area float64) float64 {
	return perTenSqm * 10 / area
}

// ticker runs a device kind's periodic simulation and makes Start and
// Shutdown idempotent.
type ticker struct {
	mu       sync.Mutex
	handle   clock.Handle
	started  bool
	shutdown bool
}

func (t *ticker) start(c clock.Clock, interval time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.shutdown {
		return
	}
	t.started = true
	t.handle = c.EveryFunc(0, interval, fn)
}

// stop cancels the tick. It returns false if the ticker was already stopped.
func (t *ticker) stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.shutdown {
		return false
	}
	t.shutdown = true
	if t.handle != nil {
		t.handle.Cancel()
		t.handle = nil
	}
	return true
}

func (t *ticker) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shutdown
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func OnOff(on bool) string {
	if on {
		return "On"
	}
	return "Off"
}

type Mode int

const (
	ModeNormal Mode = iota
	ModeQuiet
)

func (m Mode) String() string {
	if m == ModeQuiet {
		return "Quiet"
	}
	return "Normal"
}

// rateFactor halves convergence speed in quiet mode.
func (m Mode) rateFactor() float64 {
	if m == ModeQuiet {
		return 0.5
	}
	return 1
}

func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return ModeNormal, true
	case "quiet":
		return ModeQuiet, true
	}
	return ModeNormal, false
}
