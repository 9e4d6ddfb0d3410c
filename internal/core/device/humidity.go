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
	HumidityActiveRate      = 2.0 // % per tick while (de)humidifying
	HumidityDriftRate       = 1.0 // % per tick toward the seasonal mean
	HumidityDefaultSetpoint = 50.0
	humidityTolerance       = 0.01
)

type HumidityPhase int

const (
	HumidityOff HumidityPhase = iota
	HumidityHumidifying
	HumidityDehumidifying
	HumidityPaused
)

func (p HumidityPhase) String() string {
	switch p {
	case HumidityHumidifying:
		return "Humidifying"
	case HumidityDehumidifying:
		return "Dehumidifying"
	case HumidityPaused:
		return "Paused"
	}
	return "Off"
}

type humidityState struct {
	humidity    float64
	setpoint    float64
	hasSetpoint bool
	phase       HumidityPhase
	mode        Mode
}

func (s humidityState) effectiveSetpoint() float64 {
	if s.hasSetpoint {
		return s.setpoint
	}
	return HumidityDefaultSetpoint
}

type HumidityReading struct {
	Room     string
	Humidity float64
	Setpoint *float64
	Phase    HumidityPhase
	Mode     Mode
}

type HumidityControl struct {
	mu     sync.Mutex
	rooms  *domain.Rooms
	state  []humidityState
	clock  clock.Clock
	tick   time.Duration
	ticker ticker
	logger *zap.Logger
}

func NewHumidityControl(rooms *domain.Rooms, opts Options) *HumidityControl {
	initial := domain.SeasonalHumidity(opts.Clock.Now())
	state := make([]humidityState, rooms.Len())
	for i := range state {
		state[i].humidity = initial
	}
	return &HumidityControl{
		rooms:  rooms,
		state:  state,
		clock:  opts.Clock,
		tick:   opts.tick(),
		logger: opts.logger("humidity"),
	}
}

func (h *HumidityControl) Start() {
	h.ticker.start(h.clock, h.tick, h.simulate)
}

func (h *HumidityControl) Shutdown() {
	if h.ticker.stop() {
		h.logger.Debug("humidity control stopped")
	}
}

func (h *HumidityControl) simulate() {
	if h.ticker.stopped() {
		return
	}
	seasonal := domain.SeasonalHumidity(h.clock.Now())
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.state {
		h.state[i].step(seasonal)
	}
}

func (s *humidityState) step(seasonal float64) {
	setpoint := s.effectiveSetpoint()
	active := HumidityActiveRate * s.mode.rateFactor()
	switch s.phase {
	case HumidityHumidifying:
		if s.humidity < setpoint {
			s.humidity = math.Min(s.humidity+active, setpoint)
		}
		if s.humidity >= setpoint {
			s.phase = HumidityPaused
		}
	case HumidityDehumidifying:
		if s.humidity > setpoint {
			s.humidity = math.Max(s.humidity-active, setpoint)
		}
		if s.humidity <= setpoint {
			s.phase = HumidityPaused
		}
	case HumidityPaused:
		switch {
		case math.Abs(setpoint-seasonal) < humidityTolerance:
			s.drift(seasonal)
		case s.humidity < setpoint:
			s.phase = HumidityHumidifying
		case s.humidity > setpoint:
			s.phase = HumidityDehumidifying
		}
	default:
		s.drift(seasonal)
	}
}

func (s *humidityState) drift(seasonal float64) {
	rate := HumidityDriftRate * s.mode.rateFactor()
	if s.humidity < seasonal {
		s.humidity = math.Min(s.humidity+rate, seasonal)
	} else if s.humidity > seasonal {
		s.humidity = math.Max(s.humidity-rate, seasonal)
	}
}

func (h *HumidityControl) Status(roomName string) string {
	room, ok := h.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state[room.ID]
	setpoint := "Never set"
	if s.hasSetpoint {
		setpoint = fmt.Sprintf("%.1f%%", s.setpoint)
	}
	return fmt.Sprintf("Humidity control is %s. Current humidity in %s: %.1f%%, Setpoint: %s",
		s.phase, room.Name, s.humidity, setpoint)
}

func (h *HumidityControl) SetPower(roomName string, on bool) string {
	room, ok := h.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	seasonal := domain.SeasonalHumidity(h.clock.Now())
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &h.state[room.ID]
	if !on {
		if s.phase == HumidityOff {
			return fmt.Sprintf("Humidity control in %s is already off.", room.Name)
		}
		s.phase = HumidityOff
		return fmt.Sprintf("Humidity control in %s is now off.", room.Name)
	}
	if s.phase != HumidityOff {
		return fmt.Sprintf("Humidity control in %s is already on.", room.Name)
	}
	setpoint := s.effectiveSetpoint()
	if !s.hasSetpoint {
		s.setpoint = HumidityDefaultSetpoint
		s.hasSetpoint = true
	}
	switch {
	case math.Abs(setpoint-seasonal) < humidityTolerance:
		s.phase = HumidityPaused
		return fmt.Sprintf("Humidity control in %s is paused to drift by nature (setpoint matches monthly average).", room.Name)
	case s.humidity < setpoint:
		s.phase = HumidityHumidifying
		return fmt.Sprintf("Humidity control in %s is now humidifying. Setpoint is %.1f%%.", room.Name, setpoint)
	case s.humidity > setpoint:
		s.phase = HumidityDehumidifying
		return fmt.Sprintf("Humidity control in %s is now dehumidifying. Setpoint is %.1f%%.", room.Name, setpoint)
	default:
		s.phase = HumidityPaused
		return fmt.Sprintf("Humidity control in %s is paused (already at setpoint).", room.Name)
	}
}

// SetHumidity sets the setpoint and turns the control on if it was off.
func (h *HumidityControl) SetHumidity(roomName string, humidity float64) string {
	room, ok := h.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	seasonal := domain.SeasonalHumidity(h.clock.Now())
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &h.state[room.ID]
	s.setpoint = humidity
	s.hasSetpoint = true
	if s.phase != HumidityOff {
		return fmt.Sprintf("Setpoint for %s set to %.1f%%.", room.Name, humidity)
	}
	switch {
	case math.Abs(humidity-seasonal) < humidityTolerance:
		s.phase = HumidityPaused
		return fmt.Sprintf("Setpoint for %s set to %.1f%% and humidity control is paused to drift by nature (setpoint matches monthly average).", room.Name, humidity)
	case s.humidity < humidity:
		s.phase = HumidityHumidifying
	case s.humidity > humidity:
		s.phase = HumidityDehumidifying
	default:
		s.phase = HumidityPaused
		return fmt.Sprintf("Setpoint for %s set to %.1f%% and humidity control is paused (already at setpoint).", room.Name, humidity)
	}
	return fmt.Sprintf("Setpoint for %s set to %.1f%% and humidity control is now %s.", room.Name, humidity, s.phase)
}

func (h *HumidityControl) SetMode(roomName string, mode Mode) string {
	room, ok := h.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &h.state[room.ID]
	if s.mode == mode {
		return fmt.Sprintf("Humidity control in %s is already in %s mode.", room.Name, mode)
	}
	s.mode = mode
	return fmt.Sprintf("Humidity control in %s is now in %s mode.", room.Name, mode)
}

func (h *HumidityControl) Humidity(roomName string) (float64, bool) {
	room, ok := h.rooms.Lookup(roomName)
	if !ok {
		return 0, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state[room.ID].humidity, true
}

func (h *HumidityControl) Snapshot() []HumidityReading {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HumidityReading, 0, len(h.state))
	for _, room := range h.rooms.All() {
		s := h.state[room.ID]
		r := HumidityReading{Room: room.Name, Humidity: s.humidity, Phase: s.phase, Mode: s.mode}
		if s.hasSetpoint {
			sp := s.setpoint
			r.Setpoint = &sp
		}
		out = append(out, r)
	}
	return out
}
