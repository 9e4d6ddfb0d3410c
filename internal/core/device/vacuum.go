package device

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/domain"

	"go.uber.org/zap"
)

const VacuumMinutesPerSqm = 1.5

const timestampLayout = time.DateTime

type VacuumPhase int

const (
	VacuumIdle VacuumPhase = iota
	VacuumRunning
)

func (p VacuumPhase) String() string {
	if p == VacuumRunning {
		return "Running"
	}
	return "Idle"
}

type VacuumReading struct {
	Phase          VacuumPhase
	Room           string
	StartedAt      time.Time
	StoppedAt      time.Time
	RunningMinutes int
}

// Vacuum is a single robot cleaning one room per session.
type Vacuum struct {
	mu      sync.Mutex
	rooms   *domain.Rooms
	clock   clock.Clock
	tick    time.Duration
	session clock.Slot
	closed  bool
	logger  *zap.Logger

	phase     VacuumPhase
	room      string
	startedAt time.Time
	stoppedAt time.Time
	minutes   int
}

func NewVacuum(rooms *domain.Rooms, opts Options) *Vacuum {
	return &Vacuum{
		rooms:  rooms,
		clock:  opts.Clock,
		tick:   opts.tick(),
		logger: opts.logger("vacuum"),
	}
}

// CleaningMinutes is the session length for a room, rounded half-to-even.
func CleaningMinutes(area float64) int {
	return int(math.RoundToEven(area * VacuumMinutesPerSqm))
}

func (v *Vacuum) Start() {}

func (v *Vacuum) Shutdown() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.session.Cancel()
}

func (v *Vacuum) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Vacuum Status: %s\n", v.phase)
	if v.phase == VacuumRunning {
		fmt.Fprintf(&sb, "Started on: %s\n", v.startedAt.Format(timestampLayout))
		fmt.Fprintf(&sb, "Room: %s\n", v.room)
		fmt.Fprintf(&sb, "Estimated running time: %d minutes\n", v.minutes)
	} else if !v.stoppedAt.IsZero() {
		fmt.Fprintf(&sb, "Stopped at: %s\n", v.stoppedAt.Format(timestampLayout))
		fmt.Fprintf(&sb, "Room: %s\n", v.room)
	}
	return sb.String()
}

func (v *Vacuum) StartCleaning(roomName string) string {
	room, ok := v.rooms.Lookup(roomName)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase == VacuumRunning {
		return fmt.Sprintf("Vacuum is already running in %s.", v.room)
	}
	if !ok {
		return fmt.Sprintf("Room '%s' not found.", roomName)
	}
	if v.closed {
		return "Vacuum is shut down."
	}
	v.phase = VacuumRunning
	v.room = room.Name
	v.startedAt = v.clock.Now()
	v.minutes = CleaningMinutes(room.Area)
	duration := time.Duration(v.minutes) * v.tick
	v.session.Arm(func(gen uint64) clock.Handle {
		return v.clock.AfterFunc(duration, func() { v.finish(gen) })
	})
	return fmt.Sprintf("Vacuum started. Estimated running time: %d minutes.", v.minutes)
}

func (v *Vacuum) finish(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.session.Release(gen) {
		return
	}
	v.phase = VacuumIdle
	v.stoppedAt = v.clock.Now()
	v.logger.Debug("cleaning finished", zap.String("room", v.room))
}

func (v *Vacuum) StopCleaning() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase == VacuumIdle {
		return "Vacuum is already stopped."
	}
	v.session.Cancel()
	v.phase = VacuumIdle
	v.stoppedAt = v.clock.Now()
	return "Vacuum stopped."
}

func (v *Vacuum) Snapshot() VacuumReading {
	v.mu.Lock()
	defer v.mu.Unlock()
	return VacuumReading{
		Phase:          v.phase,
		Room:           v.room,
		StartedAt:      v.startedAt,
		StoppedAt:      v.stoppedAt,
		RunningMinutes: v.minutes,
	}
}
