package device

import (
	"github.com/berfenger/homesim/internal/core/domain"
)

// Home owns every in-home device kind over one shared room universe.
type Home struct {
	Rooms      *domain.Rooms
	Thermostat *Thermostat
	Humidity   *HumidityControl
	AirQuality *AirQuality
	Blinds     *Blinds
	Vacuum     *Vacuum
	Bed        *Bed
	Lighting   *Lighting
	Lock       *Lock
	Audio      *Audio
	Fridge     *Refrigerator
}

type HomeSnapshot struct {
	Thermostats []ThermostatReading
	Humidity    []HumidityReading
	AirQuality  []AirQualityReading
	Blinds      []BlindsReading
	Vacuum      VacuumReading
	Bed         BedReading
	Lights      map[string]bool
	Locked      bool
	Audio       []AudioReading
}

func NewHome(rooms *domain.Rooms, opts Options) *Home {
	return &Home{
		Rooms:      rooms,
		Thermostat: NewThermostat(rooms, opts),
		Humidity:   NewHumidityControl(rooms, opts),
		AirQuality: NewAirQuality(rooms, opts),
		Blinds:     NewBlinds(rooms, opts),
		Vacuum:     NewVacuum(rooms, opts),
		Bed:        NewBed(opts, nil),
		Lighting:   NewLighting(rooms),
		Lock:       NewLock(),
		Audio:      NewAudio(rooms),
		Fridge:     NewRefrigerator(nil),
	}
}

func (h *Home) Start() {
	h.Thermostat.Start()
	h.Humidity.Start()
	h.AirQuality.Start()
	h.Blinds.Start()
	h.Vacuum.Start()
	h.Bed.Start()
}

func (h *Home) Shutdown() {
	h.Thermostat.Shutdown()
	h.Humidity.Shutdown()
	h.AirQuality.Shutdown()
	h.Blinds.Shutdown()
	h.Vacuum.Shutdown()
	h.Bed.Shutdown()
}

// Snapshot reads each kind under its own lock, one kind at a time.
func (h *Home) Snapshot() HomeSnapshot {
	return HomeSnapshot{
		Thermostats: h.Thermostat.Snapshot(),
		Humidity:    h.Humidity.Snapshot(),
		AirQuality:  h.AirQuality.Snapshot(),
		Blinds:      h.Blinds.Snapshot(),
		Vacuum:      h.Vacuum.Snapshot(),
		Bed:         h.Bed.Snapshot(),
		Lights:      h.Lighting.Snapshot(),
		Locked:      h.Lock.Locked(),
		Audio:       h.Audio.Snapshot(),
	}
}
