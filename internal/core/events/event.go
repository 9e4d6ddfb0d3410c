package events

import (
	"strings"

	. "github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/service"
)

const (
	SENSOR_ID_VACUUM_STATE      = "vacuum_state"
	SENSOR_ID_VACUUM_ROOM       = "vacuum_room"
	SENSOR_ID_BED_CLIMATE       = "bed_climate"
	SENSOR_ID_BED_TEMPERATURE   = "bed_temperature"
	SENSOR_ID_FRONT_DOOR_LOCKED = "front_door_locked"
	SENSOR_ID_CAR_STATE         = "car_state"
	SENSOR_ID_CAR_LOCATION      = "car_location"
	SENSOR_ID_CAR_BATTERY       = "car_battery"
)

// SensorId builds "<room>_<quantity>" with the room name lowercased and
// spaces replaced by underscores.
func SensorId(room, quantity string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(room), "_"))
	return slug + "_" + quantity
}

func SnapshotToUpdateEvents(s service.Snapshot) []any {
	var events []any
	events = append(events, ClimateToUpdateEvents(s)...)
	events = append(events, HomeToUpdateEvents(s)...)
	events = append(events, VehicleToUpdateEvents(s)...)
	return events
}

func ClimateToUpdateEvents(s service.Snapshot) []any {
	var events []any

	for _, r := range s.Home.Thermostats {
		events = append(events, FloatSensor(SensorId(r.Room, "temperature"), r.Temperature, 1))
		events = append(events, BinarySensor(SensorId(r.Room, "thermostat"), r.On))
	}
	for _, r := range s.Home.Humidity {
		events = append(events, FloatSensor(SensorId(r.Room, "humidity"), r.Humidity, 1))
		events = append(events, TextSensor(SensorId(r.Room, "humidity_control"), r.Phase.String()))
	}
	for _, r := range s.Home.AirQuality {
		events = append(events, TextSensor(SensorId(r.Room, "air_quality"), r.Level.String()))
	}
	return events
}

func HomeToUpdateEvents(s service.Snapshot) []any {
	var events []any

	for _, r := range s.Home.Blinds {
		events = append(events, FloatSensor(SensorId(r.Room, "blinds"), float64(r.Percent), 0))
	}
	for room, on := range s.Home.Lights {
		events = append(events, BinarySensor(SensorId(room, "lights"), on))
	}
	events = append(events, TextSensor(SENSOR_ID_VACUUM_STATE, s.Home.Vacuum.Phase.String()))
	if s.Home.Vacuum.Room != "" {
		events = append(events, TextSensor(SENSOR_ID_VACUUM_ROOM, s.Home.Vacuum.Room))
	}
	events = append(events, BinarySensor(SENSOR_ID_BED_CLIMATE, s.Home.Bed.ClimateOn))
	events = append(events, FloatSensor(SENSOR_ID_BED_TEMPERATURE, s.Home.Bed.Current, 1))
	events = append(events, BinarySensor(SENSOR_ID_FRONT_DOOR_LOCKED, s.Home.Locked))
	return events
}

func VehicleToUpdateEvents(s service.Snapshot) []any {
	return []any{
		TextSensor(SENSOR_ID_CAR_STATE, s.Vehicle.Phase.String()),
		TextSensor(SENSOR_ID_CAR_LOCATION, s.Vehicle.Location.Label()),
		FloatSensor(SENSOR_ID_CAR_BATTERY, s.Vehicle.Battery, 1),
	}
}
