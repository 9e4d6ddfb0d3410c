package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RoomID indexes per-room state slices. IDs are dense, starting at 0.
type RoomID int

type Room struct {
	ID   RoomID
	Name string
	Area float64
}

// Rooms is the fixed room universe shared by every device kind.
type Rooms struct {
	rooms  []Room
	byName map[string]RoomID
}

type RoomSpec struct {
	Name string  `mapstructure:"name" validate:"required"`
	Area float64 `mapstructure:"area" validate:"gt=0"`
}

var DefaultRoomSpecs = []RoomSpec{
	{Name: "Kitchen", Area: 9.3},
	{Name: "Bedroom", Area: 14.2},
	{Name: "Living Room", Area: 18.3},
	{Name: "Bathroom", Area: 4.5},
	{Name: "Hallway", Area: 5.4},
}

func NewRooms(specs []RoomSpec) (*Rooms, error) {
	if len(specs) == 0 {
		return nil, errors.New("at least one room is required")
	}
	r := &Rooms{
		rooms:  make([]Room, 0, len(specs)),
		byName: make(map[string]RoomID, len(specs)),
	}
	for _, s := range specs {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, errors.New("room name cannot be empty")
		}
		if s.Area <= 0 {
			return nil, fmt.Errorf("room %q: area must be > 0", name)
		}
		key := strings.ToLower(name)
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("duplicate room %q", name)
		}
		id := RoomID(len(r.rooms))
		r.rooms = append(r.rooms, Room{ID: id, Name: name, Area: s.Area})
		r.byName[key] = id
	}
	return r, nil
}

func MustDefaultRooms() *Rooms {
	r, err := NewRooms(DefaultRoomSpecs)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup resolves a room name case-insensitively.
func (r *Rooms) Lookup(name string) (Room, bool) {
	id, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Room{}, false
	}
	return r.rooms[id], true
}

func (r *Rooms) Get(id RoomID) Room {
	return r.rooms[id]
}

func (r *Rooms) All() []Room {
	out := make([]Room, len(r.rooms))
	copy(out, r.rooms)
	return out
}

func (r *Rooms) Len() int {
	return len(r.rooms)
}

func (r *Rooms) Names() []string {
	names := make([]string, len(r.rooms))
	for i, room := range r.rooms {
		names[i] = room.Name
	}
	return names
}
