package service

import (
	"errors"
	"fmt"

	"github.com/berfenger/homesim/internal/core/device"
	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/port"
	"github.com/berfenger/homesim/internal/core/vehicle"

	"go.uber.org/zap"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrInvalidArgument  = errors.New("invalid argument")
)

type handler func(a args) (domain.OperationResult, error)

type operation struct {
	info domain.OperationInfo
	run  handler
}

// Dispatcher maps operation names onto the environment's devices.
type Dispatcher struct {
	env    *Environment
	ops    map[string]operation
	order  []string
	logger *zap.Logger
}

func NewDispatcher(env *Environment, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		env:    env,
		ops:    make(map[string]operation),
		logger: logger,
	}
	d.registerClimate()
	d.registerHome()
	d.registerVehicle()
	return d
}

func (d *Dispatcher) register(name, description string, argNames []string, readOnly bool, run handler) {
	if _, dup := d.ops[name]; dup {
		panic("duplicate operation " + name)
	}
	d.ops[name] = operation{
		info: domain.OperationInfo{Name: name, Description: description, Args: argNames, ReadOnly: readOnly},
		run:  run,
	}
	d.order = append(d.order, name)
}

func (d *Dispatcher) Operations() []domain.OperationInfo {
	out := make([]domain.OperationInfo, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.ops[name].info)
	}
	return out
}

func (d *Dispatcher) Execute(name string, raw map[string]any) (domain.OperationResult, error) {
	op, ok := d.ops[name]
	if !ok {
		return domain.OperationResult{}, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	res, err := op.run(args{op: name, raw: raw, now: d.env.Now()})
	if err != nil {
		d.logger.Debug("operation rejected", zap.String("operation", name), zap.Error(err))
		return domain.OperationResult{}, err
	}
	if !op.info.ReadOnly {
		d.logger.Info("operation", zap.String("operation", name), zap.Any("args", raw), zap.Stringer("result", res))
	}
	return res, nil
}

func text(s string) (domain.OperationResult, error) {
	return domain.TextResult(s), nil
}

func (a args) mode(key string) (device.Mode, error) {
	s, err := a.String(key)
	if err != nil {
		return device.ModeNormal, err
	}
	m, ok := device.ParseMode(s)
	if !ok {
		return device.ModeNormal, a.invalid(key, fmt.Errorf("unknown mode %q", s))
	}
	return m, nil
}

func (d *Dispatcher) registerClimate() {
	h := d.env.Home

	d.register("thermostat_get_status", "Temperature, setpoint and power of a room's thermostat", []string{"room"}, true,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Thermostat.Status(room))
		})
	d.register("thermostat_set_temperature", "Set a room's setpoint, turning the thermostat on", []string{"room", "temperature"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			temp, err := a.Float("temperature")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Thermostat.SetTemperature(room, temp))
		})
	d.register("thermostat_set_power", "Turn a room's thermostat on or off", []string{"room", "power"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			on, err := a.Bool("power")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Thermostat.SetPower(room, on))
		})
	d.register("thermostat_set_mode", "Set a room's thermostat to Normal or Quiet", []string{"room", "mode"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			mode, err := a.mode("mode")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Thermostat.SetMode(room, mode))
		})
	d.register("thermostat_get_current_temperature", "Current temperature of a room in °C", []string{"room"}, true,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			v, ok := h.Thermostat.Temperature(room)
			if !ok {
				return text("Room not found")
			}
			return domain.ValueResult(v), nil
		})

	d.register("humiditycontrol_get_status", "Humidity, setpoint and phase of a room's humidity control", []string{"room"}, true,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Humidity.Status(room))
		})
	d.register("humiditycontrol_set_power", "Turn a room's humidity control on or off", []string{"room", "power"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			on, err := a.Bool("power")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Humidity.SetPower(room, on))
		})
	d.register("humiditycontrol_set_humidity", "Set a room's humidity setpoint in %", []string{"room", "humidity"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			v, err := a.Float("humidity")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Humidity.SetHumidity(room, v))
		})
	d.register("humiditycontrol_set_mode", "Set a room's humidity control to Normal or Quiet", []string{"room", "mode"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			mode, err := a.mode("mode")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Humidity.SetMode(room, mode))
		})
	d.register("humiditycontrol_get_current_humidity", "Current relative humidity of a room in %", []string{"room"}, true,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			v, ok := h.Humidity.Humidity(room)
			if !ok {
				return text("Room not found")
			}
			return domain.ValueResult(v), nil
		})

	d.register("airquality_get_status", "Air quality level and unit state of a room", []string{"room"}, true,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.AirQuality.Status(room))
		})
	d.register("airquality_set_power", "Turn a room's air quality unit on or off", []string{"room", "power"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			on, err := a.Bool("power")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.AirQuality.SetPower(room, on))
		})
	d.register("airquality_set_mode", "Set a room's air quality unit to Normal or Quiet", []string{"room", "mode"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			mode, err := a.mode("mode")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.AirQuality.SetMode(room, mode))
		})
	d.register("airquality_degrade", "Worsen a room's air quality to Moderate or Unhealthy", []string{"room", "level"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			s, err := a.String("level")
			if err != nil {
				return domain.OperationResult{}, err
			}
			level, ok := device.ParseAirQualityLevel(s)
			if !ok {
				return domain.OperationResult{}, a.invalid("level", fmt.Errorf("unknown level %q", s))
			}
			return text(h.AirQuality.Degrade(room, level))
		})
}

func (d *Dispatcher) registerHome() {
	h := d.env.Home

	d.register("blinds_get_state", "How far a room's blinds are open", []string{"room"}, true,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Blinds.State(room))
		})
	d.register("blinds_set_state", "Open a room's blinds to a percentage right away", []string{"room", "percent"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			p, err := a.Int("percent")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Blinds.SetState(room, p))
		})
	d.register("blinds_set_state_with_timer", "Move a room's blinds gradually to reach a percentage at a time", []string{"room", "percent", "time"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			p, err := a.Int("percent")
			if err != nil {
				return domain.OperationResult{}, err
			}
			at, err := a.Time("time")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Blinds.SetStateAt(room, p, at))
		})

	d.register("vacuum_get_status", "Robot vacuum state", nil, true,
		func(a args) (domain.OperationResult, error) {
			return text(h.Vacuum.Status())
		})
	d.register("vacuum_start", "Start cleaning a room", []string{"room"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Vacuum.StartCleaning(room))
		})
	d.register("vacuum_stop", "Stop the robot vacuum", nil, false,
		func(a args) (domain.OperationResult, error) {
			return text(h.Vacuum.StopCleaning())
		})

	d.register("bed_get_status", "Bed climate session state", nil, true,
		func(a args) (domain.OperationResult, error) {
			return text(h.Bed.Status())
		})
	d.register("bed_set_for_sleep", "Start a sleep session at a temperature for a number of hours", []string{"temperature", "hours"}, false,
		func(a args) (domain.OperationResult, error) {
			temp, err := a.Float("temperature")
			if err != nil {
				return domain.OperationResult{}, err
			}
			hours, err := a.IntOr("hours", 0)
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Bed.SetForSleep(temp, hours))
		})
	d.register("bed_get_last_sleep_quality", "Quality score of the last sleep session", nil, true,
		func(a args) (domain.OperationResult, error) {
			return text(h.Bed.LastSleepQuality())
		})
	d.register("bed_end_sleep_session", "End the running sleep session", nil, false,
		func(a args) (domain.OperationResult, error) {
			return text(h.Bed.EndSleepSession())
		})

	d.register("lights_get_status", "Whether a room's lights are on", []string{"room"}, true,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Lighting.Status(room))
		})
	d.register("lights_set_status", "Turn a room's lights on or off", []string{"room", "power"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			on, err := a.Bool("power")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Lighting.SetStatus(room, on))
		})
	d.register("lock_get_state", "Front door lock state", nil, true,
		func(a args) (domain.OperationResult, error) {
			return text(h.Lock.State())
		})
	d.register("lock_set_state", "Lock or unlock the front door", []string{"locked"}, false,
		func(a args) (domain.OperationResult, error) {
			locked, err := a.Bool("locked")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Lock.SetState(locked))
		})

	d.register("audio_play_song", "Play a song on repeat in a list of rooms", []string{"song", "rooms"}, false,
		func(a args) (domain.OperationResult, error) {
			song, err := a.String("song")
			if err != nil {
				return domain.OperationResult{}, err
			}
			rooms, err := a.Strings("rooms")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Audio.PlaySong(song, rooms))
		})
	d.register("audio_play_playlist", "Play a playlist in a list of rooms", []string{"playlist", "rooms"}, false,
		func(a args) (domain.OperationResult, error) {
			playlist, err := a.String("playlist")
			if err != nil {
				return domain.OperationResult{}, err
			}
			rooms, err := a.Strings("rooms")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Audio.PlayPlaylist(playlist, rooms))
		})
	d.register("audio_stop", "Stop audio in a list of rooms", []string{"rooms"}, false,
		func(a args) (domain.OperationResult, error) {
			rooms, err := a.Strings("rooms")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Audio.Stop(rooms))
		})
	d.register("audio_set_volume", "Set a room's volume between 0 and 100", []string{"room", "volume"}, false,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			volume, err := a.Int("volume")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Audio.SetVolume(room, volume))
		})
	d.register("audio_get_status", "What is playing in a room", []string{"room"}, true,
		func(a args) (domain.OperationResult, error) {
			room, err := a.String("room")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(h.Audio.Status(room))
		})

	d.register("refrigerator_get_temp", "Refrigerator temperature in °C", nil, true,
		func(a args) (domain.OperationResult, error) {
			return domain.ValueResult(h.Fridge.Temperature()), nil
		})
	d.register("refrigerator_get_internal_picture", "PNG picture of the refrigerator shelves, to judge stock levels", nil, true,
		func(a args) (domain.OperationResult, error) {
			b, err := h.Fridge.InternalPicture()
			if err != nil {
				return domain.OperationResult{}, err
			}
			return domain.ValueResult(b), nil
		})

	d.register("home_list_rooms", "Names of the rooms in the home", nil, true,
		func(a args) (domain.OperationResult, error) {
			return domain.ValueResult(d.env.Rooms.Names()), nil
		})
}

func (d *Dispatcher) registerVehicle() {
	v := d.env.Vehicle

	d.register("car_get_status", "Car state, location and battery", nil, true,
		func(a args) (domain.OperationResult, error) {
			return text(v.Status())
		})
	d.register("car_get_info", "Car brand, model and state", nil, true,
		func(a args) (domain.OperationResult, error) {
			return text(v.Info())
		})
	d.register("car_drive_to", "Drive to a coordinate pair or a known place", []string{"latitude", "longitude", "destination"}, false,
		func(a args) (domain.OperationResult, error) {
			if a.has("destination") {
				name, err := a.String("destination")
				if err != nil {
					return domain.OperationResult{}, err
				}
				p, ok := d.env.Places.Lookup(name)
				if !ok {
					return text(fmt.Sprintf("Unknown destination: %s.", name))
				}
				return text(v.DriveTo(p.Latitude, p.Longitude))
			}
			lat, err := a.Float("latitude")
			if err != nil {
				return domain.OperationResult{}, err
			}
			lon, err := a.Float("longitude")
			if err != nil {
				return domain.OperationResult{}, err
			}
			if !vehicle.ValidCoordinates(lat, lon) {
				return domain.OperationResult{}, a.invalid("latitude/longitude", fmt.Errorf("(%v, %v) is not a coordinate pair", lat, lon))
			}
			return text(v.DriveTo(lat, lon))
		})
	d.register("car_stop", "Stop the car where it is", nil, false,
		func(a args) (domain.OperationResult, error) {
			return text(v.Stop())
		})
	d.register("car_start_charging", "Start charging the car", nil, false,
		func(a args) (domain.OperationResult, error) {
			return text(v.StartCharging())
		})
	d.register("car_stop_charging", "Stop charging the car", nil, false,
		func(a args) (domain.OperationResult, error) {
			return text(v.StopCharging())
		})
	d.register("car_schedule_trip", "Depart for a known place or \"lat,lon\" at a time", []string{"destination", "time"}, false,
		func(a args) (domain.OperationResult, error) {
			dest, err := a.String("destination")
			if err != nil {
				return domain.OperationResult{}, err
			}
			at, err := a.Time("time")
			if err != nil {
				return domain.OperationResult{}, err
			}
			return text(v.ScheduleTrip(dest, at))
		})
	d.register("car_cancel_scheduled_trip", "Cancel the pending scheduled trip", nil, false,
		func(a args) (domain.OperationResult, error) {
			return text(v.CancelScheduledTrip())
		})
	d.register("car_list_locations", "Known places the car can drive to", nil, true,
		func(a args) (domain.OperationResult, error) {
			return domain.ValueResult(d.env.Places.All()), nil
		})
}

var _ port.OperationExecutor = (*Dispatcher)(nil)
