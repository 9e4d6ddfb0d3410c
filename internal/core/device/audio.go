package device

import (
	"fmt"
	"strings"
	"sync"

	"github.com/berfenger/homesim/internal/core/domain"
)

const AudioDefaultVolume = 50

type audioSource int

const (
	sourceNone audioSource = iota
	sourceSong
	sourcePlaylist
)

type audioState struct {
	playing bool
	source  audioSource
	name    string
	volume  int
}

type AudioReading struct {
	Room    string
	Playing bool
	Source  string
	Volume  int
}

type Audio struct {
	mu    sync.Mutex
	rooms *domain.Rooms
	state []audioState
}

func NewAudio(rooms *domain.Rooms) *Audio {
	state := make([]audioState, rooms.Len())
	for i := range state {
		state[i].volume = AudioDefaultVolume
	}
	return &Audio{rooms: rooms, state: state}
}

// resolve splits the requested rooms into known ones and unknown names.
func (a *Audio) resolve(names []string) ([]domain.Room, []string) {
	var found []domain.Room
	var missing []string
	for _, n := range names {
		if room, ok := a.rooms.Lookup(n); ok {
			found = append(found, room)
		} else {
			missing = append(missing, n)
		}
	}
	return found, missing
}

func (a *Audio) apply(names []string, fn func(*audioState)) ([]string, []string) {
	found, missing := a.resolve(names)
	a.mu.Lock()
	defer a.mu.Unlock()
	applied := make([]string, 0, len(found))
	for _, room := range found {
		fn(&a.state[room.ID])
		applied = append(applied, room.Name)
	}
	return applied, missing
}

func (a *Audio) PlaySong(song string, rooms []string) string {
	applied, missing := a.apply(rooms, func(s *audioState) {
		s.playing, s.source, s.name = true, sourceSong, song
	})
	if len(missing) > 0 {
		return "Rooms not found: " + strings.Join(missing, ", ")
	}
	return fmt.Sprintf("Playing song '%s' in rooms: %s (repeat mode).", song, strings.Join(applied, ", "))
}

func (a *Audio) PlayPlaylist(playlist string, rooms []string) string {
	applied, missing := a.apply(rooms, func(s *audioState) {
		s.playing, s.source, s.name = true, sourcePlaylist, playlist
	})
	if len(missing) > 0 {
		return "Rooms not found: " + strings.Join(missing, ", ")
	}
	return fmt.Sprintf("Playing playlist '%s' in rooms: %s.", playlist, strings.Join(applied, ", "))
}

func (a *Audio) Stop(rooms []string) string {
	applied, missing := a.apply(rooms, func(s *audioState) {
		s.playing, s.source, s.name = false, sourceNone, ""
	})
	if len(missing) > 0 {
		return "Rooms not found: " + strings.Join(missing, ", ")
	}
	return fmt.Sprintf("Stopped audio in rooms: %s.", strings.Join(applied, ", "))
}

// SetVolume clamps volume to [0,100] and echoes the applied value.
func (a *Audio) SetVolume(roomName string, volume int) string {
	room, ok := a.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	volume = max(0, min(100, volume))
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state[room.ID].volume = volume
	return fmt.Sprintf("Volume in %s set to %d.", room.Name, volume)
}

func (a *Audio) Status(roomName string) string {
	room, ok := a.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.state[room.ID]
	switch {
	case !s.playing:
		return fmt.Sprintf("Audio is stopped in %s. Volume: %d", room.Name, s.volume)
	case s.source == sourceSong:
		return fmt.Sprintf("Playing song '%s' in %s (repeat). Volume: %d", s.name, room.Name, s.volume)
	default:
		return fmt.Sprintf("Playing playlist '%s' in %s. Volume: %d", s.name, room.Name, s.volume)
	}
}

func (a *Audio) Snapshot() []AudioReading {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AudioReading, 0, len(a.state))
	for _, room := range a.rooms.All() {
		s := a.state[room.ID]
		out = append(out, AudioReading{Room: room.Name, Playing: s.playing, Source: s.name, Volume: s.volume})
	}
	return out
}
