package domain

import (
	"errors"
	"fmt"
	"strings"
)

type Place struct {
	Name      string  `mapstructure:"name" json:"name" validate:"required"`
	Latitude  float64 `mapstructure:"latitude" json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `mapstructure:"longitude" json:"longitude" validate:"gte=-180,lte=180"`
}

// Places is the known-place table used to label vehicle locations.
type Places struct {
	places []Place
	byName map[string]int
}

var DefaultPlaceSpecs = []Place{
	{Name: "Home", Latitude: 51.5034, Longitude: -0.1276},
	{Name: "Office", Latitude: 51.4995, Longitude: -0.1248},
	{Name: "Mall", Latitude: 51.5079, Longitude: -0.2217},
	{Name: "Airport", Latitude: 51.4700, Longitude: -0.4543},
	{Name: "Supermarket", Latitude: 51.4908, Longitude: -0.1426},
	{Name: "Gym", Latitude: 51.4941, Longitude: -0.1436},
}

func NewPlaces(specs []Place) (*Places, error) {
	if len(specs) == 0 {
		return nil, errors.New("at least one known place is required")
	}
	p := &Places{byName: make(map[string]int, len(specs))}
	for _, s := range specs {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, errors.New("place name cannot be empty")
		}
		key := strings.ToLower(s.Name)
		if _, dup := p.byName[key]; dup {
			return nil, fmt.Errorf("duplicate place %q", s.Name)
		}
		p.byName[key] = len(p.places)
		p.places = append(p.places, s)
	}
	return p, nil
}

func MustDefaultPlaces() *Places {
	p, err := NewPlaces(DefaultPlaceSpecs)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Places) Lookup(name string) (Place, bool) {
	i, ok := p.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Place{}, false
	}
	return p.places[i], true
}

// First is the place a vehicle starts at.
func (p *Places) First() Place {
	return p.places[0]
}

func (p *Places) All() []Place {
	out := make([]Place, len(p.places))
	copy(out, p.places)
	return out
}
