package mission

import "math"

// meanEarthRadius in meters.
const meanEarthRadius = 6371008.8

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Distance returns the great-circle distance in meters between two points,
// using the spherical law of cosines.
func Distance(x, y Point) float64 {
	xLat := x.Lat * (math.Pi / 180)
	xLng := x.Lng * (math.Pi / 180)
	yLat := y.Lat * (math.Pi / 180)
	yLng := y.Lng * (math.Pi / 180)

	c := math.Sin(xLat)*math.Sin(yLat) +
		math.Cos(xLat)*math.Cos(yLat)*math.Cos(math.Abs(yLng-xLng))
	// rounding can push the cosine a ulp past 1 for near-identical points,
	// which would turn Acos into NaN
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c) * meanEarthRadius
}
