package device

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/domain"

	"go.uber.org/zap"
)

type AirQualityLevel int

const (
	AirGood AirQualityLevel = iota
	AirModerate
	AirUnhealthy
)

// Minutes of normal-mode operation needed to promote a level by one step.
const (
	UnhealthyRecoveryMinutes = 300.0
	ModerateRecoveryMinutes  = 120.0
)

func (l AirQualityLevel) String() string {
	switch l {
	case AirModerate:
		return "Moderate"
	case AirUnhealthy:
		return "Unhealthy"
	}
	return "Good"
}

func ParseAirQualityLevel(s string) (AirQualityLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "good":
		return AirGood, true
	case "moderate":
		return AirModerate, true
	case "unhealthy", "veryunhealthy", "very unhealthy":
		return AirUnhealthy, true
	}
	return AirGood, false
}

func (l AirQualityLevel) recoveryMinutes() float64 {
	if l == AirUnhealthy {
		return UnhealthyRecoveryMinutes
	}
	return ModerateRecoveryMinutes
}

type airQualityState struct {
	level    AirQualityLevel
	on       bool
	mode     Mode
	progress float64 // recovery minutes accumulated at the current level
}

type AirQualityReading struct {
	Room  string
	Level AirQualityLevel
	On    bool
	Mode  Mode
}

type AirQuality struct {
	mu     sync.Mutex
	rooms  *domain.Rooms
	state  []airQualityState
	clock  clock.Clock
	tick   time.Duration
	ticker ticker
	logger *zap.Logger
}

func NewAirQuality(rooms *domain.Rooms, opts Options) *AirQuality {
	return &AirQuality{
		rooms:  rooms,
		state:  make([]airQualityState, rooms.Len()),
		clock:  opts.Clock,
		tick:   opts.tick(),
		logger: opts.logger("airquality"),
	}
}

func (a *AirQuality) Start() {
	a.ticker.start(a.clock, a.tick, a.simulate)
}

func (a *AirQuality) Shutdown() {
	if a.ticker.stop() {
		a.logger.Debug("air quality stopped")
	}
}

func (a *AirQuality) simulate() {
	if a.ticker.stopped() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.state {
		s := &a.state[i]
		if !s.on || s.level == AirGood {
			continue
		}
		// quiet mode recovers at half speed
		s.progress += s.mode.rateFactor()
		if s.progress >= s.level.recoveryMinutes() {
			s.level--
			s.progress = 0
			a.logger.Debug("air quality improved", zap.String("room", a.rooms.Get(domain.RoomID(i)).Name), zap.Stringer("level", s.level))
		}
	}
}

func (a *AirQuality) Status(roomName string) string {
	room, ok := a.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.state[room.ID]
	return fmt.Sprintf("Air quality in %s is %s. Unit is %s in %s mode.", room.Name, s.level, OnOff(s.on), s.mode)
}

func (a *AirQuality) SetPower(roomName string, on bool) string {
	room, ok := a.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s := &a.state[room.ID]
	if s.on == on {
		return fmt.Sprintf("Air quality control in %s is already %s.", room.Name, onOff(on))
	}
	s.on = on
	return fmt.Sprintf("Air quality control in %s is now %s.", room.Name, onOff(on))
}

func (a *AirQuality) SetMode(roomName string, mode Mode) string {
	room, ok := a.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s := &a.state[room.ID]
	if s.mode == mode {
		return fmt.Sprintf("Air quality control in %s is already in %s mode.", room.Name, mode)
	}
	s.mode = mode
	return fmt.Sprintf("Air quality control in %s is now in %s mode.", room.Name, mode)
}

// Degrade forces a room to a worse level, restarting its recovery.
func (a *AirQuality) Degrade(roomName string, level AirQualityLevel) string {
	room, ok := a.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	if level == AirGood {
		return "Cannot degrade to Good quality"
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s := &a.state[room.ID]
	s.level = level
	s.progress = 0
	return fmt.Sprintf("Air quality in %s is now %s.", room.Name, level)
}

func (a *AirQuality) Level(roomName string) (AirQualityLevel, bool) {
	room, ok := a.rooms.Lookup(roomName)
	if !ok {
		return AirGood, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state[room.ID].level, true
}

func (a *AirQuality) Snapshot() []AirQualityReading {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AirQualityReading, 0, len(a.state))
	for _, room := range a.rooms.All() {
		s := a.state[room.ID]
		out = append(out, AirQualityReading{Room: room.Name, Level: s.level, On: s.on, Mode: s.mode})
	}
	return out
}
