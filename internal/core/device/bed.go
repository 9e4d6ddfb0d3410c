package device

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/berfenger/homesim/internal/core/clock"

	"go.uber.org/zap"
)

const (
	BedInitialTemperature = 18.0
	BedClimateRate        = 0.2 // °C per tick
	BedDefaultHours       = 8
)

type BedReading struct {
	ClimateOn   bool
	Target      float64
	Current     float64
	EndsAt      time.Time
	LastQuality *float64
}

// Bed runs one sleep session at a time: a climate loop pulling the mattress
// temperature toward the target, and a one-shot that ends the session.
type Bed struct {
	mu      sync.Mutex
	clock   clock.Clock
	tick    time.Duration
	rand    func() float64
	climate clock.Slot
	session clock.Slot
	closed  bool
	logger  *zap.Logger

	climateOn  bool
	target     float64
	current    float64
	endsAt     time.Time
	quality    float64
	hasQuality bool
}

// NewBed builds a bed. rnd draws uniformly from [0,1); nil uses math/rand.
func NewBed(opts Options, rnd func() float64) *Bed {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &Bed{
		clock:   opts.Clock,
		tick:    opts.tick(),
		rand:    rnd,
		target:  BedInitialTemperature,
		current: BedInitialTemperature,
		logger:  opts.logger("bed"),
	}
}

func (b *Bed) Start() {}

func (b *Bed) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.climate.Cancel()
	b.session.Cancel()
}

func (b *Bed) Status() string {
	now := b.clock.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.climateOn {
		return fmt.Sprintf("Climate control OFF, Last setpoint: %.1f°C, Current: %.1f°C", b.target, b.current)
	}
	left := int(math.Ceil(float64(b.endsAt.Sub(now)) / float64(b.tick)))
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("Climate control ON, Target: %.1f°C, Current: %.1f°C, Time left: %dh%02dm",
		b.target, b.current, left/60, left%60)
}

// SetForSleep starts a session. hours <= 0 means the default length.
func (b *Bed) SetForSleep(temperature float64, hours int) string {
	if hours <= 0 {
		hours = BedDefaultHours
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.climateOn {
		return "Bed is already set for sleep. Please wait for the current session to finish or stop it first."
	}
	if b.closed {
		return "Bed is shut down."
	}
	b.climateOn = true
	b.target = temperature
	length := time.Duration(hours*60) * b.tick
	b.endsAt = b.clock.Now().Add(length)
	b.climate.Arm(func(gen uint64) clock.Handle {
		return b.clock.EveryFunc(0, b.tick, func() { b.adjust(gen) })
	})
	b.session.Arm(func(gen uint64) clock.Handle {
		return b.clock.AfterFunc(length, func() { b.expire(gen) })
	})
	return fmt.Sprintf("Bed set for sleep: Target temperature %.1f°C for %d hours.", temperature, hours)
}

func (b *Bed) adjust(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.climate.Owns(gen) {
		return
	}
	b.current = Step(b.current, b.target, BedClimateRate)
}

func (b *Bed) expire(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.session.Release(gen) {
		return
	}
	b.endLocked()
	b.logger.Debug("sleep session finished", zap.Float64("quality", b.quality))
}

func (b *Bed) endLocked() {
	b.climateOn = false
	b.climate.Cancel()
	b.session.Cancel()
	b.quality = b.rand()*40 + 60
	b.hasQuality = true
}

func (b *Bed) EndSleepSession() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.climateOn {
		return "No sleep session is currently active."
	}
	b.endLocked()
	return "Sleep session ended. Climate control is now off. Sleep quality has been recorded."
}

func (b *Bed) LastSleepQuality() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasQuality {
		return "No sleep session recorded yet."
	}
	return fmt.Sprintf("Last sleep quality: %.1f/100", b.quality)
}

func (b *Bed) Snapshot() BedReading {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := BedReading{ClimateOn: b.climateOn, Target: b.target, Current: b.current}
	if b.climateOn {
		r.EndsAt = b.endsAt
	}
	if b.hasQuality {
		q := b.quality
		r.LastQuality = &q
	}
	return r
}
