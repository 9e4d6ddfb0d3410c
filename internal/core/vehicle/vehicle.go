package vehicle

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

const (
	Brand = "ACMECar"
	Model = "Autonomous EV"

	SpeedKmh        = 50.0
	ChargePerMinute = 1.0
	MaxBattery      = 100.0
	InitialBattery  = 80.0

	scheduleLayout = "2006-01-02 15:04"
)

type Phase int

const (
	Parked Phase = iota
	Driving
	Charging
)

func (p Phase) String() string {
	switch p {
	case Driving:
		return "Driving"
	case Charging:
		return "Charging"
	}
	return "Parked"
}

type Options struct {
	Clock clock.Clock
	// Tick is one simulated minute.
	Tick time.Duration
	// PollInterval is how often the scheduled trip is checked.
	PollInterval time.Duration
	Logger       *zap.Logger
}

type Trip struct {
	Destination Location
	At          time.Time
}

type Reading struct {
	Phase       Phase
	Location    Location
	Destination Location
	Battery     float64
	Trip        *Trip
}

// Vehicle is a single electric car moving between places.
type Vehicle struct {
	mu        sync.Mutex
	places    *domain.Places
	clock     clock.Clock
	tick      time.Duration
	pollEvery time.Duration
	logger    *zap.Logger

	phase       Phase
	location    Location
	destination Location
	battery     float64
	trip        *Trip

	drive  clock.Slot
	charge clock.Slot
	poller clock.Slot
	closed bool
}

func New(places *domain.Places, opts Options) *Vehicle {
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Minute
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = tick
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vehicle{
		places:    places,
		clock:     opts.Clock,
		tick:      tick,
		pollEvery: poll,
		logger:    logger.With(zap.String("device", "vehicle")),
		location:  placeLocation(places.First()),
		battery:   InitialBattery,
	}
}

// Start runs the scheduled trip poller.
func (v *Vehicle) Start() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.poller.Live() {
		return
	}
	v.startPollerLocked()
}

func (v *Vehicle) Shutdown() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.drive.Cancel()
	v.charge.Cancel()
	v.poller.Cancel()
}

func (v *Vehicle) DriveTo(lat, lon float64) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.driveLocked(lat, lon)
}

func (v *Vehicle) driveLocked(lat, lon float64) string {
	switch v.phase {
	case Driving:
		return fmt.Sprintf("Car is already driving to %s.", v.destination.Label())
	case Charging:
		return "Cannot drive while charging."
	}
	if v.closed {
		return "Car is shut down."
	}
	if !ValidCoordinates(lat, lon) {
		return fmt.Sprintf("Invalid coordinates: (%s, %s).", formatCoord(lat), formatCoord(lon))
	}
	dest := resolve(v.places, lat, lon)
	if dest.Label() == v.location.Label() {
		return fmt.Sprintf("Car is already at %s.", dest.Label())
	}
	// one percent of battery per km
	required := Haversine(v.location.Latitude, v.location.Longitude, lat, lon)
	if v.battery < required {
		return fmt.Sprintf("Not enough battery for the trip. Required: %.1f%%, Available: %.1f%%", required, v.battery)
	}
	minutes := required / SpeedKmh * 60
	duration := time.Duration(minutes * float64(v.tick))
	v.phase = Driving
	v.destination = dest
	v.drive.Arm(func(gen uint64) clock.Handle {
		return v.clock.AfterFunc(duration, func() { v.arrive(gen, required) })
	})
	return fmt.Sprintf("Driving to %s (lat: %s, lon: %s). Estimated time: %.1f minutes.",
		dest.Label(), formatCoord(lat), formatCoord(lon), minutes)
}

func (v *Vehicle) arrive(gen uint64, consumed float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.drive.Release(gen) {
		return
	}
	v.battery = math.Max(0, v.battery-consumed)
	v.location = v.destination
	v.destination = Location{}
	v.phase = Parked
	v.logger.Debug("arrived", zap.String("location", v.location.Label()), zap.Float64("battery", v.battery))
}

func (v *Vehicle) Stop() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase != Driving {
		return "Car is already stopped."
	}
	// stopping mid-way keeps the origin and the battery untouched
	v.drive.Cancel()
	v.destination = Location{}
	v.phase = Parked
	return "Car stopped and parked."
}

func (v *Vehicle) StartCharging() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case v.phase == Driving:
		return "Cannot charge while driving."
	case v.phase == Charging:
		return "Already charging."
	case v.battery >= MaxBattery:
		return "Battery is already full."
	case v.closed:
		return "Car is shut down."
	}
	v.phase = Charging
	v.charge.Arm(func(gen uint64) clock.Handle {
		return v.clock.EveryFunc(v.tick, v.tick, func() { v.chargeStep(gen) })
	})
	return "Charging started."
}

func (v *Vehicle) chargeStep(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.charge.Owns(gen) {
		return
	}
	v.battery = math.Min(MaxBattery, v.battery+ChargePerMinute)
	if v.battery >= MaxBattery {
		v.charge.Release(gen)
		v.phase = Parked
		v.logger.Debug("charging complete")
	}
}

func (v *Vehicle) StopCharging() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase != Charging {
		return "Car is not charging."
	}
	v.charge.Cancel()
	v.phase = Parked
	return fmt.Sprintf("Charging stopped. Battery at %.1f%%.", v.battery)
}

// ScheduleTrip accepts a known place name or "lat,lon".
func (v *Vehicle) ScheduleTrip(destination string, at time.Time) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	dest, err := parseDestination(v.places, destination)
	if err != nil {
		return fmt.Sprintf("Unknown destination: %s.", destination)
	}
	if v.trip != nil {
		return fmt.Sprintf("A trip is already scheduled to %s at %s.",
			v.trip.Destination.Label(), v.trip.At.Format(scheduleLayout))
	}
	if v.closed {
		return "Car is shut down."
	}
	v.trip = &Trip{Destination: dest, At: at}
	v.startPollerLocked()
	return fmt.Sprintf("Trip scheduled to %s at %s.", dest.Label(), at.Format(scheduleLayout))
}

func (v *Vehicle) CancelScheduledTrip() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.trip == nil {
		return "No trip is currently scheduled."
	}
	v.trip = nil
	v.poller.Cancel()
	return "Scheduled trip cancelled."
}

func (v *Vehicle) startPollerLocked() {
	v.poller.Arm(func(gen uint64) clock.Handle {
		return v.clock.EveryFunc(v.pollEvery, v.pollEvery, func() { v.poll(gen) })
	})
}

// poll departs on a due trip. A due trip is consumed even when the car is
// busy and cannot leave.
func (v *Vehicle) poll(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.poller.Owns(gen) || v.trip == nil {
		return
	}
	if v.clock.Now().Before(v.trip.At) {
		return
	}
	trip := v.trip
	v.trip = nil
	if v.phase != Parked {
		v.logger.Info("scheduled trip dropped", zap.String("destination", trip.Destination.Label()),
			zap.Stringer("phase", v.phase))
		return
	}
	msg := v.driveLocked(trip.Destination.Latitude, trip.Destination.Longitude)
	v.logger.Info("scheduled trip", zap.String("destination", trip.Destination.Label()), zap.String("result", msg))
}

func (v *Vehicle) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	parts := []string{fmt.Sprintf("Car is %s. Location: %s. Battery: %.1f%%.", v.phase, v.location.Label(), v.battery)}
	switch v.phase {
	case Driving:
		parts = append(parts, fmt.Sprintf("Driving to %s.", v.destination.Label()))
	case Charging:
		parts = append(parts, "Charging.")
	}
	if v.trip != nil {
		parts = append(parts, fmt.Sprintf("Trip scheduled to %s at %s.", v.trip.Destination.Label(), v.trip.At.Format(scheduleLayout)))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (v *Vehicle) Info() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fmt.Sprintf("Brand: %s, Model: %s, State: %s, Location: %s, Battery: %.1f%%",
		Brand, Model, v.phase, v.location.Label(), v.battery)
}

func (v *Vehicle) Battery() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.battery
}

func (v *Vehicle) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

func (v *Vehicle) Places() *domain.Places {
	return v.places
}

func (v *Vehicle) Snapshot() Reading {
	v.mu.Lock()
	defer v.mu.Unlock()
	r := Reading{
		Phase:       v.phase,
		Location:    v.location,
		Destination: v.destination,
		Battery:     v.battery,
	}
	if v.trip != nil {
		t := *v.trip
		r.Trip = &t
	}
	return r
}
