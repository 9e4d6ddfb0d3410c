package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/domain"

	"go.uber.org/zap"
)

const (
	ThermostatBaseRate           = 0.5 // °C per tick per 10 m² toward the setpoint
	ThermostatNaturalRate        = 0.1 // °C per tick per 10 m² toward the seasonal mean
	ThermostatInitialTemperature = 20.0
	ThermostatDefaultSetpoint    = 20.0
)

type thermostatState struct {
	temperature float64
	setpoint    float64
	hasSetpoint bool
	on          bool
	mode        Mode
}

type ThermostatReading struct {
	Room        string
	Temperature float64
	Setpoint    *float64
	On          bool
	Mode        Mode
}

type Thermostat struct {
	mu     sync.Mutex
	rooms  *domain.Rooms
	state  []thermostatState
	clock  clock.Clock
	tick   time.Duration
	ticker ticker
	logger *zap.Logger
}

func NewThermostat(rooms *domain.Rooms, opts Options) *Thermostat {
	state := make([]thermostatState, rooms.Len())
	for i := range state {
		state[i].temperature = ThermostatInitialTemperature
	}
	return &Thermostat{
		rooms:  rooms,
		state:  state,
		clock:  opts.Clock,
		tick:   opts.tick(),
		logger: opts.logger("thermostat"),
	}
}

func (t *Thermostat) Start() {
	t.ticker.start(t.clock, t.tick, t.simulate)
}

func (t *Thermostat) Shutdown() {
	if t.ticker.stop() {
		t.logger.Debug("thermostat stopped")
	}
}

func (t *Thermostat) simulate() {
	if t.ticker.stopped() {
		return
	}
	seasonal := domain.SeasonalTemperature(t.clock.Now())
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, room := range t.rooms.All() {
		s := &t.state[room.ID]
		if s.on && s.hasSetpoint {
			s.temperature = Step(s.temperature, s.setpoint, AreaRate(ThermostatBaseRate, room.Area)*s.mode.rateFactor())
		} else {
			s.temperature = Step(s.temperature, seasonal, AreaRate(ThermostatNaturalRate, room.Area)*s.mode.rateFactor())
		}
	}
}

func (t *Thermostat) Status(roomName string) string {
	room, ok := t.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	seasonal := domain.SeasonalTemperature(t.clock.Now())
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state[room.ID]
	setpoint := "Never set"
	if s.hasSetpoint {
		setpoint = fmt.Sprintf("%.1f°C", s.setpoint)
	}
	note := ""
	if !s.on {
		note = fmt.Sprintf(" (Moving towards seasonal temperature: %.1f°C)", seasonal)
	}
	return fmt.Sprintf("Thermostat is %s. Current temperature in %s: %.1f°C, Setpoint: %s%s",
		OnOff(s.on), room.Name, s.temperature, setpoint, note)
}

// SetTemperature sets the setpoint, turning the thermostat on if needed.
func (t *Thermostat) SetTemperature(roomName string, temperature float64) string {
	room, ok := t.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.state[room.ID]
	s.setpoint = temperature
	s.hasSetpoint = true
	if !s.on {
		s.on = true
		return fmt.Sprintf("Setpoint for %s set to %.1f°C and the thermostat is now On.", room.Name, temperature)
	}
	return fmt.Sprintf("Setpoint for %s set to %.1f°C.", room.Name, temperature)
}

func (t *Thermostat) SetPower(roomName string, on bool) string {
	room, ok := t.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.state[room.ID]
	if s.on == on {
		return fmt.Sprintf("Thermostat in %s is already %s", room.Name, onOff(on))
	}
	s.on = on
	if on {
		if !s.hasSetpoint {
			s.setpoint = ThermostatDefaultSetpoint
			s.hasSetpoint = true
		}
		return fmt.Sprintf("Thermostat in %s is now on and the thermostat setpoint is now %.1f°C.", room.Name, s.setpoint)
	}
	return fmt.Sprintf("Thermostat in %s is now off. Setpoint is previously set to %.1f°C", room.Name, s.setpoint)
}

func (t *Thermostat) SetMode(roomName string, mode Mode) string {
	room, ok := t.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.state[room.ID]
	if s.mode == mode {
		return fmt.Sprintf("Thermostat in %s is already in %s mode.", room.Name, mode)
	}
	s.mode = mode
	return fmt.Sprintf("Thermostat in %s is now in %s mode.", room.Name, mode)
}

func (t *Thermostat) Temperature(roomName string) (float64, bool) {
	room, ok := t.rooms.Lookup(roomName)
	if !ok {
		return 0, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state[room.ID].temperature, true
}

func (t *Thermostat) Snapshot() []ThermostatReading {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ThermostatReading, 0, len(t.state))
	for _, room := range t.rooms.All() {
		s := t.state[room.ID]
		r := ThermostatReading{Room: room.Name, Temperature: s.temperature, On: s.on, Mode: s.mode}
		if s.hasSetpoint {
			sp := s.setpoint
			r.Setpoint = &sp
		}
		out = append(out, r)
	}
	return out
}
