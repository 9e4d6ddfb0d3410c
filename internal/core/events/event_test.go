package events

import (
	"testing"
	"time"

	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/service"

	"github.com/stretchr/testify/assert"
)

func TestSensorId(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("living_room_temperature", SensorId("Living Room", "temperature"))
	assert.Equal("kitchen_blinds", SensorId("Kitchen", "blinds"))
}

func TestSnapshotToUpdateEvents(t *testing.T) {

	assert := assert.New(t)

	env := service.NewEnvironment(domain.MustDefaultRooms(), domain.MustDefaultPlaces(), service.EnvironmentOptions{
		Clock: clock.NewManualClock(time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)),
		Tick:  time.Minute,
	})
	env.Home.Blinds.SetState("Kitchen", 40)

	byId := map[string]any{}
	for _, ev := range SnapshotToUpdateEvents(env.Snapshot()) {
		e, ok := ev.(domain.SensorUpdateEvent)
		if assert.True(ok) {
			byId[e.SensorId()] = ev
		}
	}

	assert.Equal(domain.FloatSensor("kitchen_temperature", 20, 1), byId["kitchen_temperature"])
	assert.Equal(domain.FloatSensor("kitchen_blinds", 40, 0), byId["kitchen_blinds"])
	assert.Equal(domain.TextSensor("bedroom_air_quality", "Good"), byId["bedroom_air_quality"])
	assert.Equal(domain.BinarySensor("living_room_lights", false), byId["living_room_lights"])
	assert.Equal(domain.BinarySensor(SENSOR_ID_FRONT_DOOR_LOCKED, true), byId[SENSOR_ID_FRONT_DOOR_LOCKED])
	assert.Equal(domain.TextSensor(SENSOR_ID_CAR_LOCATION, "Home"), byId[SENSOR_ID_CAR_LOCATION])
	assert.Equal(domain.FloatSensor(SENSOR_ID_CAR_BATTERY, 80, 1), byId[SENSOR_ID_CAR_BATTERY])
	assert.NotContains(byId, SENSOR_ID_VACUUM_ROOM, "no session yet")
}
