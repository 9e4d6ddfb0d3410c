package device

import (
	"bytes"
	"testing"

	"github.com/berfenger/homesim/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLighting(t *testing.T) {

	assert := assert.New(t)

	l := NewLighting(domain.MustDefaultRooms())
	assert.Equal("Off", l.Status("kitchen"))
	assert.Equal("Lights in Kitchen are now On.", l.SetStatus("KITCHEN", true))
	assert.Equal("Lights in Kitchen are already On.", l.SetStatus("kitchen", true))
	assert.Equal("On", l.Status("Kitchen"))
	assert.Equal(roomNotFound, l.Status("garage"))
	assert.True(l.Snapshot()["Kitchen"])
}

func TestLock(t *testing.T) {

	assert := assert.New(t)

	l := NewLock()
	assert.Equal("Locked", l.State())
	assert.Equal("Front door is already locked.", l.SetState(true))
	assert.Equal("Front door is now unlocked.", l.SetState(false))
	assert.Equal("Unlocked", l.State())
}

func TestAudio(t *testing.T) {

	assert := assert.New(t)

	a := NewAudio(domain.MustDefaultRooms())
	assert.Equal("Audio is stopped in Kitchen. Volume: 50", a.Status("kitchen"))
	assert.Equal("Playing song 'Yesterday' in rooms: Kitchen, Bedroom (repeat mode).", a.PlaySong("Yesterday", []string{"kitchen", "Bedroom"}))
	assert.Equal("Playing song 'Yesterday' in Kitchen (repeat). Volume: 50", a.Status("Kitchen"))

	assert.Equal("Rooms not found: Garage", a.PlayPlaylist("Chill", []string{"Living Room", "Garage"}))
	assert.Equal("Playing playlist 'Chill' in Living Room. Volume: 50", a.Status("living room"), "known rooms still apply")

	assert.Equal("Volume in Kitchen set to 100.", a.SetVolume("Kitchen", 150))
	assert.Equal("Volume in Kitchen set to 0.", a.SetVolume("Kitchen", -3))
	assert.Equal(roomNotFound, a.SetVolume("garage", 10))

	assert.Equal("Stopped audio in rooms: Kitchen.", a.Stop([]string{"kitchen"}))
	assert.Equal("Audio is stopped in Kitchen. Volume: 0", a.Status("Kitchen"))
}

func TestRefrigerator(t *testing.T) {

	require := require.New(t)

	next := 0
	r := NewRefrigerator(func(n int) int {
		require.Equal(len(RefrigeratorPictures), n)
		return next
	})
	require.Equal(4.0, r.Temperature())

	seen := map[string]bool{}
	for next = range RefrigeratorPictures {
		b, err := r.InternalPicture()
		require.NoError(err)
		require.True(bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")), RefrigeratorPictures[next])
		seen[string(b)] = true
	}
	require.Len(seen, len(RefrigeratorPictures), "every picture is distinct")

	b, err := NewRefrigerator(nil).InternalPicture()
	require.NoError(err)
	require.NotEmpty(b)
}
