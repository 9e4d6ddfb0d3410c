package device

import (
	"fmt"
	"sync"

	"github.com/berfenger/homesim/internal/core/domain"
)

type Lighting struct {
	mu    sync.Mutex
	rooms *domain.Rooms
	on    []bool
}

func NewLighting(rooms *domain.Rooms) *Lighting {
	return &Lighting{rooms: rooms, on: make([]bool, rooms.Len())}
}

func (l *Lighting) Status(roomName string) string {
	room, ok := l.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return OnOff(l.on[room.ID])
}

func (l *Lighting) SetStatus(roomName string, on bool) string {
	room, ok := l.rooms.Lookup(roomName)
	if !ok {
		return roomNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on[room.ID] == on {
		return fmt.Sprintf("Lights in %s are already %s.", room.Name, OnOff(on))
	}
	l.on[room.ID] = on
	return fmt.Sprintf("Lights in %s are now %s.", room.Name, OnOff(on))
}

// Snapshot maps room names to light state.
func (l *Lighting) Snapshot() map[string]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]bool, len(l.on))
	for _, room := range l.rooms.All() {
		out[room.Name] = l.on[room.ID]
	}
	return out
}

// Lock is the front door lock. It starts locked.
type Lock struct {
	mu     sync.Mutex
	locked bool
}

func NewLock() *Lock {
	return &Lock{locked: true}
}

func (l *Lock) State() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked {
		return "Locked"
	}
	return "Unlocked"
}

func (l *Lock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

func (l *Lock) SetState(locked bool) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	word := "unlocked"
	if locked {
		word = "locked"
	}
	if l.locked == locked {
		return fmt.Sprintf("Front door is already %s.", word)
	}
	l.locked = locked
	return fmt.Sprintf("Front door is now %s.", word)
}
