package vehicle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/berfenger/homesim/internal/core/domain"
)

const (
	EarthRadiusKm = 6371.0
	// SnapThreshold is the planar distance, in degrees, under which a
	// destination takes the name of the nearest known place.
	SnapThreshold = 0.02
)

// Haversine returns the great-circle distance in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Location is either a known place or a raw coordinate pair.
type Location struct {
	Place     string
	Latitude  float64
	Longitude float64
}

func placeLocation(p domain.Place) Location {
	return Location{Place: p.Name, Latitude: p.Latitude, Longitude: p.Longitude}
}

func (l Location) Known() bool {
	return l.Place != ""
}

func (l Location) Label() string {
	if l.Known() {
		return l.Place
	}
	return fmt.Sprintf("(%s, %s)", formatCoord(l.Latitude), formatCoord(l.Longitude))
}

// resolve labels a target coordinate with the nearest known place when it is
// within SnapThreshold, using planar distance in degree space.
func resolve(places *domain.Places, lat, lon float64) Location {
	best := math.MaxFloat64
	var nearest domain.Place
	for _, p := range places.All() {
		d := math.Hypot(p.Latitude-lat, p.Longitude-lon)
		if d < best {
			best = d
			nearest = p
		}
	}
	if best <= SnapThreshold {
		return placeLocation(nearest)
	}
	return Location{Latitude: lat, Longitude: lon}
}

var errBadCoordinates = errors.New("expected \"lat,lon\"")

// parseDestination accepts a known place name or a "lat,lon" pair, with an
// optional "Custom:" prefix.
func parseDestination(places *domain.Places, s string) (Location, error) {
	if p, ok := places.Lookup(s); ok {
		return placeLocation(p), nil
	}
	raw := strings.TrimSpace(s)
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "custom:") {
		raw = raw[7:]
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return Location{}, errBadCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Location{}, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Location{}, err
	}
	if !ValidCoordinates(lat, lon) {
		return Location{}, errBadCoordinates
	}
	return Location{Latitude: lat, Longitude: lon}, nil
}

// ValidCoordinates reports whether lat and lon are finite and within
// [-90,90] and [-180,180].
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
