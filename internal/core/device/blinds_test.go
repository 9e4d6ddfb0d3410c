package device

import (
	"testing"
	"time"

	"github.com/berfenger/homesim/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePercent(t *testing.T) {

	assert := assert.New(t)

	for in, want := range map[int]int{85: 80, -5: 0, 101: 100, 15: 20, 25: 20, 45: 40, 55: 60, 0: 0, 100: 100, 240: 100} {
		assert.Equal(want, NormalizePercent(in), "percent %d", in)
	}
}

func TestBlindsImmediate(t *testing.T) {

	assert := assert.New(t)

	opts, _ := testOptions()
	b := NewBlinds(domain.MustDefaultRooms(), opts)

	assert.Equal("Blinds in Kitchen are 100% open.", b.State("kitchen"))
	assert.Equal("Blinds in Kitchen set to 80% open.", b.SetState("kitchen", 85))
	p, _ := b.Percent("Kitchen")
	assert.Equal(80, p)
	assert.Equal(roomNotFound, b.SetState("garage", 10))
}

func TestBlindsGradualTransition(t *testing.T) {

	require := require.New(t)

	opts, c := testOptions()
	b := NewBlinds(domain.MustDefaultRooms(), opts)
	defer b.Shutdown()

	msg := b.SetStateAt("Bedroom", 50, march.Add(10*time.Minute))
	require.Equal("Blinds in Bedroom will be set to 50% open at 08:10, changing one step per minute.", msg)

	c.Advance(5 * time.Minute)
	p, _ := b.Percent("Bedroom")
	require.Equal(100, p, "first step lands at arrival minus four minutes")

	want := []int{90, 80, 70, 60, 50}
	for _, w := range want {
		c.Advance(time.Minute)
		p, _ = b.Percent("Bedroom")
		require.Equal(w, p)
	}
	require.Equal(0, c.Pending(), "schedule removed once the target is reached")

	c.Advance(10 * time.Minute)
	p, _ = b.Percent("Bedroom")
	require.Equal(50, p)
}

func TestBlindsScheduleFallbacks(t *testing.T) {

	assert := assert.New(t)

	opts, c := testOptions()
	b := NewBlinds(domain.MustDefaultRooms(), opts)
	defer b.Shutdown()

	assert.Equal("Blinds in Kitchen already at 100% open.", b.SetStateAt("Kitchen", 96, march.Add(time.Hour)))

	assert.Equal("Not enough time to schedule gradual change. Blinds in Kitchen set to 50% open immediately.",
		b.SetStateAt("Kitchen", 50, march.Add(3*time.Minute)))

	assert.Equal("Not enough time to schedule gradual change. Blinds in Hallway set to 0% open immediately.",
		b.SetStateAt("Hallway", 0, march.Add(-time.Hour)), "arrival in the past")
	assert.Equal(0, c.Pending())
}

func TestBlindsImmediateCancelsSchedule(t *testing.T) {

	assert := assert.New(t)

	opts, c := testOptions()
	b := NewBlinds(domain.MustDefaultRooms(), opts)
	defer b.Shutdown()

	b.SetStateAt("Kitchen", 0, march.Add(10*time.Minute))
	c.Advance(time.Minute)
	p, _ := b.Percent("Kitchen")
	assert.Equal(90, p)

	b.SetState("Kitchen", 30)
	c.Advance(20 * time.Minute)
	p, _ = b.Percent("Kitchen")
	assert.Equal(30, p, "cancelled transition has no further effect")
	assert.Equal(0, c.Pending())
}

func TestBlindsSupersedeSchedule(t *testing.T) {

	assert := assert.New(t)

	opts, c := testOptions()
	b := NewBlinds(domain.MustDefaultRooms(), opts)
	defer b.Shutdown()

	b.SetStateAt("Kitchen", 0, march.Add(30*time.Minute))
	b.SetStateAt("Kitchen", 80, march.Add(2*time.Minute))
	assert.Equal(1, c.Pending(), "at most one live transition per room")

	c.Advance(time.Hour)
	p, _ := b.Percent("Kitchen")
	assert.Equal(80, p)
}
