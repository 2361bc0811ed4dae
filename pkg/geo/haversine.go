package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// HaversineDistance returns the great-circle distance between two points in meters.
func HaversineDistance(latOne, lonOne, latTwo, lonTwo float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lonOne, latOne}, orb.Point{lonTwo, latTwo})
}

// PathLength sums the haversine distance along coords, in meters.
func PathLength(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = c.Point()
	}
	return orbgeo.LengthHaversine(ls)
}
