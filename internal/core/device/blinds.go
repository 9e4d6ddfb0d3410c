package device

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/domain"

	"go.uber.org/zap"
)

const (
	BlindsInitialPercent = 100
	BlindsIncrement      = 10
)

type blindsState struct {
	percent  int
	target   int
	schedule clock.Slot
}

type BlindsReading struct {
	Room      string
	Percent   int
	Target    int
	Scheduled bool
}

// Blinds moves in fixed 10% increments. Gradual changes step once per tick.
type Blinds struct {
	mu     sync.Mutex
	rooms  *domain.Rooms
	state  []blindsState
	clock  clock.Clock
	tick   time.Duration
	closed bool
	logger *zap.Logger
}

func NewBlinds(rooms *domain.Rooms, opts Options) *Blinds {
	state := make([]blindsState, rooms.Len())
	for i := range state {
		state[i].percent = BlindsInitialPercent
	}
	return &Blinds{
		rooms:  rooms,
		state:  state,
		clock:  opts.Clock,
		tick:   opts.tick(),
		logger: opts.logger("blinds"),
	}
}

// NormalizePercent rounds half-to-even to the nearest 10 and clamps to [0,100].
func NormalizePercent(percent int) int {
	p := int(math.RoundToEven(float64(percent)/BlindsIncrement)) * BlindsIncrement
	return max(0, min(100, p))
}

func (b *Blinds) Start() {}

func (b *Blinds) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for i := range b.state {
		b.state[i].schedule.Cancel()
	}
	b.logger.Debug("blinds stopped")
}

func (b *Blinds) State(roomName string) string {
	room, ok := b.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("Blinds in %s are %d%% open.", room.Name, b.state[room.ID].percent)
}

func (b *Blinds) Percent(roomName string) (int, bool) {
	room, ok := b.rooms.Lookup(roomName)
	if !ok {
		return 0, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state[room.ID].percent, true
}

// SetState applies a position immediately, dropping any gradual change in flight.
func (b *Blinds) SetState(roomName string, percent int) string {
	room, ok := b.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	p := NormalizePercent(percent)
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &b.state[room.ID]
	s.schedule.Cancel()
	s.percent = p
	s.target = p
	return fmt.Sprintf("Blinds in %s set to %d%% open.", room.Name, p)
}

// SetStateAt reaches percent at the given time, one increment per tick,
// the last increment landing on at.
func (b *Blinds) SetStateAt(roomName string, percent int, at time.Time) string {
	room, ok := b.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	p := NormalizePercent(percent)
	now := b.clock.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &b.state[room.ID]
	s.schedule.Cancel()

	steps := abs(p-s.percent) / BlindsIncrement
	if steps == 0 {
		s.percent = p
		return fmt.Sprintf("Blinds in %s already at %d%% open.", room.Name, p)
	}
	remaining := at.Sub(now)
	if float64(remaining) < (float64(steps)-0.5)*float64(b.tick) {
		s.percent = p
		return fmt.Sprintf("Not enough time to schedule gradual change. Blinds in %s set to %d%% open immediately.", room.Name, p)
	}
	if b.closed {
		s.percent = p
		return fmt.Sprintf("Blinds in %s set to %d%% open.", room.Name, p)
	}

	first := remaining - time.Duration(steps-1)*b.tick
	if first < 0 {
		first = 0
	}
	s.target = p
	s.schedule.Arm(func(gen uint64) clock.Handle {
		return b.clock.EveryFunc(first, b.tick, func() { b.step(room.ID, gen) })
	})
	return fmt.Sprintf("Blinds in %s will be set to %d%% open at %s, changing one step per minute.", room.Name, p, at.Format("15:04"))
}

func (b *Blinds) step(id domain.RoomID, gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &b.state[id]
	if !s.schedule.Owns(gen) {
		return
	}
	if s.percent != s.target {
		if s.target > s.percent {
			s.percent += BlindsIncrement
		} else {
			s.percent -= BlindsIncrement
		}
	}
	if s.percent == s.target {
		s.schedule.Release(gen)
	}
}

func (b *Blinds) Snapshot() []BlindsReading {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BlindsReading, 0, len(b.state))
	for _, room := range b.rooms.All() {
		s := &b.state[room.ID]
		out = append(out, BlindsReading{Room: room.Name, Percent: s.percent, Target: s.target, Scheduled: s.schedule.Live()})
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
