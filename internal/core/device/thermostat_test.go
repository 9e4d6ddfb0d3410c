package device

import (
	"sync"
	"testing"
	"time"

	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/domain"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// March: seasonal temperature 8.3°C, seasonal humidity 75%.
var march = time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

func testOptions() (Options, *clock.ManualClock) {
	c := clock.NewManualClock(march)
	return Options{Clock: c, Tick: time.Minute, Logger: zap.NewNop()}, c
}

func TestStep(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(10.5, Step(10, 20, 0.5))
	assert.Equal(19.5, Step(20, 10, 0.5))
	assert.Equal(20.0, Step(19.7, 20, 0.5), "snap when closer than one step")
	assert.Equal(20.0, Step(20, 20, 0.5))
	assert.InDelta(0.5376, AreaRate(0.5, 9.3), 0.0001)
}

func TestThermostatConvergesWithoutOvershoot(t *testing.T) {
	defer leaktest.Check(t)()

	require := require.New(t)

	opts, c := testOptions()
	th := NewThermostat(domain.MustDefaultRooms(), opts)
	th.Start()
	defer th.Shutdown()

	msg := th.SetTemperature("kitchen", 22)
	require.Equal("Setpoint for Kitchen set to 22.0°C and the thermostat is now On.", msg)

	prev := ThermostatInitialTemperature
	for i := 0; i < 10; i++ {
		c.Advance(time.Minute)
		cur, ok := th.Temperature("Kitchen")
		require.True(ok)
		require.GreaterOrEqual(cur, prev, "monotonic toward setpoint")
		require.LessOrEqual(cur, 22.0, "never overshoots")
		prev = cur
	}
	require.Equal(22.0, prev, "snapped exactly onto the setpoint")

	require.Equal("Setpoint for Kitchen set to 22.0°C.", th.SetTemperature("KITCHEN", 22))
}

func TestThermostatDriftsTowardSeasonal(t *testing.T) {

	assert := assert.New(t)

	opts, c := testOptions()
	th := NewThermostat(domain.MustDefaultRooms(), opts)
	th.Start()
	defer th.Shutdown()

	c.Advance(0)
	cur, _ := th.Temperature("living room")
	assert.InDelta(20.0-AreaRate(ThermostatNaturalRate, 18.3), cur, 1e-9)

	assert.Equal("Thermostat is Off. Current temperature in Living Room: 19.9°C, Setpoint: Never set (Moving towards seasonal temperature: 8.3°C)",
		th.Status("Living Room"))
}

func TestThermostatPower(t *testing.T) {

	assert := assert.New(t)

	opts, _ := testOptions()
	th := NewThermostat(domain.MustDefaultRooms(), opts)

	assert.Equal("Thermostat in Bedroom is already off", th.SetPower("bedroom", false))
	assert.Equal("Thermostat in Bedroom is now on and the thermostat setpoint is now 20.0°C.", th.SetPower("bedroom", true))
	assert.Equal("Thermostat in Bedroom is already on", th.SetPower("bedroom", true))
	assert.Equal("Thermostat in Bedroom is now off. Setpoint is previously set to 20.0°C", th.SetPower("bedroom", false))
	assert.Equal(roomNotFound, th.SetPower("garage", true))
	assert.Equal(roomNotFound, th.Status("garage"))
	_, ok := th.Temperature("garage")
	assert.False(ok)
}

func TestThermostatQuietModeHalvesRate(t *testing.T) {

	assert := assert.New(t)

	opts, c := testOptions()
	th := NewThermostat(domain.MustDefaultRooms(), opts)
	th.Start()
	defer th.Shutdown()

	assert.Equal("Thermostat in Kitchen is now in Quiet mode.", th.SetMode("Kitchen", ModeQuiet))
	assert.Equal("Thermostat in Kitchen is already in Quiet mode.", th.SetMode("Kitchen", ModeQuiet))
	th.SetTemperature("Kitchen", 25)
	th.SetTemperature("Bedroom", 25)

	c.Advance(0)
	kitchen, _ := th.Temperature("Kitchen")
	bedroom, _ := th.Temperature("Bedroom")
	assert.InDelta(20+AreaRate(ThermostatBaseRate, 9.3)/2, kitchen, 1e-9)
	assert.InDelta(20+AreaRate(ThermostatBaseRate, 14.2), bedroom, 1e-9)
}

func TestThermostatShutdown(t *testing.T) {

	assert := assert.New(t)

	opts, c := testOptions()
	th := NewThermostat(domain.MustDefaultRooms(), opts)
	th.Start()
	th.Start()
	assert.Equal(1, c.Pending(), "one periodic tick per kind")

	th.Shutdown()
	th.Shutdown()
	assert.Equal(0, c.Pending())

	c.Advance(time.Hour)
	cur, _ := th.Temperature("Kitchen")
	assert.Equal(ThermostatInitialTemperature, cur, "no ticks after shutdown")
}

func TestConcurrentCommandsAgainstTicks(t *testing.T) {
	defer leaktest.Check(t)()

	require := require.New(t)

	opts, c := testOptions()
	rooms := domain.MustDefaultRooms()
	th := NewThermostat(rooms, opts)
	bl := NewBlinds(rooms, opts)
	th.Start()
	bl.Start()
	defer th.Shutdown()
	defer bl.Shutdown()

	const workers = 16
	submitted := make(map[float64]bool, workers)
	for i := 0; i < workers; i++ {
		submitted[18+float64(i)*0.5] = true
	}

	// ticks fire on this goroutine while the workers issue commands
	stop := make(chan struct{})
	ticking := make(chan struct{})
	go func() {
		defer close(ticking)
		for {
			select {
			case <-stop:
				return
			default:
				c.Advance(time.Minute)
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				th.SetTemperature("Bedroom", 18+float64(i)*0.5)
				if j%2 == 0 {
					bl.SetState("bedroom", i*7)
				} else {
					bl.SetStateAt("Bedroom", 100-i*5, c.Now().Add(time.Duration(j)*time.Minute))
				}
				p, _ := bl.Percent("Bedroom")
				assert.True(t, p >= 0 && p <= 100 && p%10 == 0, "blinds at %d%%", p)
			}
		}(i)
	}
	wg.Wait()
	close(stop)
	<-ticking

	var bedroom ThermostatReading
	for _, r := range th.Snapshot() {
		if r.Room == "Bedroom" {
			bedroom = r
		}
	}
	require.True(bedroom.On)
	require.NotNil(bedroom.Setpoint)
	require.True(submitted[*bedroom.Setpoint], "setpoint %.1f was never submitted", *bedroom.Setpoint)

	// whatever transition won, it settles on a valid step
	c.Advance(2 * time.Hour)
	p, _ := bl.Percent("Bedroom")
	require.True(p >= 0 && p <= 100 && p%10 == 0)
	require.Equal(1, c.Pending(), "only the thermostat tick is left")
}
