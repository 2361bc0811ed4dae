package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

type Coordinate struct {
	Lat float64 `json:"lat" msgpack:"lat"`
	Lon float64 `json:"lon" msgpack:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

// Point returns the coordinate as an orb point. orb stores lon first.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Valid reports whether the coordinate is a finite WGS84 position.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lon)
}

// DistanceTo returns the haversine distance to other in meters.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return HaversineDistance(c.Lat, c.Lon, other.Lat, other.Lon)
}

// BoundingBox returns the orb bound covering all coords.
// It panics on an empty slice.
func BoundingBox(coords []Coordinate) orb.Bound {
	bound := orb.Bound{Min: coords[0].Point(), Max: coords[0].Point()}
	for _, c := range coords[1:] {
		bound = bound.Extend(c.Point())
	}
	return bound
}
