package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/vehicle"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var march = time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

func newTestDispatcher() (*Dispatcher, *Environment, *clock.ManualClock) {
	c := clock.NewManualClock(march)
	env := NewEnvironment(domain.MustDefaultRooms(), domain.MustDefaultPlaces(), EnvironmentOptions{
		Clock:  c,
		Tick:   time.Minute,
		Logger: zap.NewNop(),
	})
	env.Start()
	return NewDispatcher(env, zap.NewNop()), env, c
}

func TestOperationTable(t *testing.T) {

	assert := assert.New(t)

	d, env, _ := newTestDispatcher()
	defer env.Shutdown()

	ops := d.Operations()
	assert.Len(ops, 45)
	seen := map[string]bool{}
	for _, op := range ops {
		assert.False(seen[op.Name], "duplicate %s", op.Name)
		seen[op.Name] = true
		assert.NotEmpty(op.Description, op.Name)
	}
	assert.True(seen["car_cancel_scheduled_trip"])
	assert.True(seen["humiditycontrol_get_current_humidity"])
	assert.Equal("thermostat_get_status", ops[0].Name)
	assert.True(ops[0].ReadOnly)
}

func TestExecuteErrors(t *testing.T) {

	assert := assert.New(t)

	d, env, _ := newTestDispatcher()
	defer env.Shutdown()

	_, err := d.Execute("teleport", nil)
	assert.ErrorIs(err, ErrUnknownOperation)

	_, err = d.Execute("thermostat_set_temperature", map[string]any{"room": "Kitchen"})
	assert.ErrorIs(err, ErrInvalidArgument)
	assert.ErrorContains(err, "temperature")

	_, err = d.Execute("thermostat_set_temperature", map[string]any{"room": "Kitchen", "temperature": "warm"})
	assert.ErrorIs(err, ErrInvalidArgument)

	_, err = d.Execute("thermostat_set_mode", map[string]any{"room": "Kitchen", "mode": "turbo"})
	assert.ErrorIs(err, ErrInvalidArgument)

	_, err = d.Execute("airquality_degrade", map[string]any{"room": "Kitchen", "level": "toxic"})
	assert.ErrorIs(err, ErrInvalidArgument)

	res, err := d.Execute("thermostat_get_status", map[string]any{"room": "Garage"})
	assert.NoError(err, "device level failures are text")
	assert.Equal("Room not found", res.Text)
}

func TestExecuteClimate(t *testing.T) {

	require := require.New(t)

	d, env, c := newTestDispatcher()
	defer env.Shutdown()

	res, err := d.Execute("thermostat_get_current_temperature", map[string]any{"room": "kitchen"})
	require.NoError(err)
	require.Equal(20.0, res.Value)

	res, err = d.Execute("thermostat_set_temperature", map[string]any{"room": "Kitchen", "temperature": "22"})
	require.NoError(err)
	require.Equal("Setpoint for Kitchen set to 22.0°C and the thermostat is now On.", res.Text)

	res, err = d.Execute("thermostat_set_power", map[string]any{"room": "Kitchen", "power": "on"})
	require.NoError(err)
	require.Contains(res.Text, "already")

	c.Advance(time.Hour)
	res, err = d.Execute("thermostat_get_current_temperature", map[string]any{"room": "Kitchen"})
	require.NoError(err)
	require.Equal(22.0, res.Value)
	require.Equal("22", res.String())

	res, err = d.Execute("humiditycontrol_set_mode", map[string]any{"room": "Bedroom", "mode": "QUIET"})
	require.NoError(err)
	require.Contains(res.Text, "Quiet")
}

func TestExecuteHome(t *testing.T) {

	assert := assert.New(t)

	d, env, c := newTestDispatcher()
	defer env.Shutdown()

	res, err := d.Execute("blinds_set_state_with_timer", map[string]any{"room": "Bedroom", "percent": 50.0, "time": "08:10"})
	assert.NoError(err)
	assert.Equal("Blinds in Bedroom will be set to 50% open at 08:10, changing one step per minute.", res.Text)
	c.Advance(10 * time.Minute)
	res, _ = d.Execute("blinds_get_state", map[string]any{"room": "Bedroom"})
	assert.Equal("Blinds in Bedroom are 50% open.", res.Text)

	res, err = d.Execute("audio_play_song", map[string]any{"song": "Yesterday", "rooms": "Kitchen, Living Room"})
	assert.NoError(err)
	assert.Equal("Playing song 'Yesterday' in rooms: Kitchen, Living Room (repeat mode).", res.Text)

	res, err = d.Execute("audio_stop", map[string]any{"rooms": []any{"kitchen"}})
	assert.NoError(err)
	assert.Equal("Stopped audio in rooms: Kitchen.", res.Text)

	res, err = d.Execute("bed_set_for_sleep", map[string]any{"temperature": 21})
	assert.NoError(err)
	assert.Equal("Bed set for sleep: Target temperature 21.0°C for 8 hours.", res.Text)

	res, err = d.Execute("lock_set_state", map[string]any{"locked": false})
	assert.NoError(err)
	assert.Equal("Front door is now unlocked.", res.Text)

	res, err = d.Execute("home_list_rooms", nil)
	assert.NoError(err)
	assert.Equal([]string{"Kitchen", "Bedroom", "Living Room", "Bathroom", "Hallway"}, res.Value)

	res, err = d.Execute("refrigerator_get_temp", nil)
	assert.NoError(err)
	assert.Equal(4.0, res.Value)

	res, err = d.Execute("refrigerator_get_internal_picture", nil)
	assert.NoError(err)
	picture, ok := res.Value.([]byte)
	assert.True(ok)
	assert.True(bytes.HasPrefix(picture, []byte("\x89PNG")))
}

func TestExecuteDriveToRejectsBadCoordinates(t *testing.T) {

	require := require.New(t)

	d, env, c := newTestDispatcher()
	defer env.Shutdown()

	for _, coords := range []map[string]any{
		{"latitude": "NaN", "longitude": "0"},
		{"latitude": "Inf", "longitude": "0"},
		{"latitude": 0.0, "longitude": "-Inf"},
		{"latitude": 91.0, "longitude": 0.0},
		{"latitude": 0.0, "longitude": 180.5},
	} {
		_, err := d.Execute("car_drive_to", coords)
		require.ErrorIs(err, ErrInvalidArgument, "%v", coords)
	}

	c.Advance(time.Hour)
	require.Equal(vehicle.Parked, env.Vehicle.Phase())
	require.Equal(80.0, env.Vehicle.Battery())
}

func TestExecuteVehicle(t *testing.T) {

	require := require.New(t)

	d, env, c := newTestDispatcher()
	defer env.Shutdown()

	res, err := d.Execute("car_drive_to", map[string]any{"destination": "office"})
	require.NoError(err)
	require.Equal("Driving to Office (lat: 51.4995, lon: -0.1248). Estimated time: 0.6 minutes.", res.Text)

	c.Advance(time.Minute)

	want := vehicle.Reading{
		Phase:    vehicle.Parked,
		Location: vehicle.Location{Place: "Office", Latitude: 51.4995, Longitude: -0.1248},
		Battery:  80 - 0.475,
	}
	got := env.Snapshot().Vehicle
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 0.001)); diff != "" {
		t.Errorf("vehicle snapshot mismatch (-want +got):\n%s", diff)
	}

	res, err = d.Execute("car_schedule_trip", map[string]any{"destination": "Mall", "time": "2024-03-10 09:00"})
	require.NoError(err)
	require.Equal("Trip scheduled to Mall at 2024-03-10 09:00.", res.Text)

	res, err = d.Execute("car_drive_to", map[string]any{"destination": "Atlantis"})
	require.NoError(err)
	require.Equal("Unknown destination: Atlantis.", res.Text)

	res, err = d.Execute("car_list_locations", nil)
	require.NoError(err)
	require.Len(res.Value, 6)

	c.AdvanceTo(march.Add(time.Hour))
	require.Equal(vehicle.Driving, env.Vehicle.Phase())
}
