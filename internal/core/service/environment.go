package service

import (
	"time"

	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/device"
	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/port"
	"github.com/berfenger/homesim/internal/core/vehicle"

	"go.uber.org/zap"
)

type EnvironmentOptions struct {
	Clock        clock.Clock
	Tick         time.Duration
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Environment owns every simulated device and the vehicle.
type Environment struct {
	Rooms   *domain.Rooms
	Places  *domain.Places
	Home    *device.Home
	Vehicle *vehicle.Vehicle

	clock  clock.Clock
	logger *zap.Logger
}

type Snapshot struct {
	At      time.Time
	Home    device.HomeSnapshot
	Vehicle vehicle.Reading
}

func NewEnvironment(rooms *domain.Rooms, places *domain.Places, opts EnvironmentOptions) *Environment {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Environment{
		Rooms:  rooms,
		Places: places,
		Home: device.NewHome(rooms, device.Options{
			Clock:  opts.Clock,
			Tick:   opts.Tick,
			Logger: logger,
		}),
		Vehicle: vehicle.New(places, vehicle.Options{
			Clock:        opts.Clock,
			Tick:         opts.Tick,
			PollInterval: opts.PollInterval,
			Logger:       logger,
		}),
		clock:  opts.Clock,
		logger: logger,
	}
}

func (e *Environment) Start() {
	e.Home.Start()
	e.Vehicle.Start()
	e.logger.Info("environment started", zap.Int("rooms", e.Rooms.Len()), zap.Int("places", len(e.Places.All())))
}

func (e *Environment) Shutdown() {
	e.Vehicle.Shutdown()
	e.Home.Shutdown()
}

func (e *Environment) Now() time.Time {
	return e.clock.Now()
}

func (e *Environment) Snapshot() Snapshot {
	return Snapshot{
		At:      e.clock.Now(),
		Home:    e.Home.Snapshot(),
		Vehicle: e.Vehicle.Snapshot(),
	}
}

var _ port.Simulator = (*Environment)(nil)
var _ port.Simulator = (*device.Home)(nil)
var _ port.Simulator = (*vehicle.Vehicle)(nil)
