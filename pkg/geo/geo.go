package geo

import "math"

// EarthRadiusKm is the mean radius of the earth used for distance calculations.
const EarthRadiusKm = 6371.0

const degreesToRadians = math.Pi / 180.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance returns the great-circle distance between two points in
// kilometers, computed with the spherical law of cosines.
func Distance(p1, p2 Point) float64 {
	// spherical coordinates: phi is the co-latitude, theta the longitude
	phi1 := (90.0 - p1.Lat) * degreesToRadians
	phi2 := (90.0 - p2.Lat) * degreesToRadians
	theta1 := p1.Lng * degreesToRadians
	theta2 := p2.Lng * degreesToRadians

	cos := math.Sin(phi1)*math.Sin(phi2)*math.Cos(theta1-theta2) +
		math.Cos(phi1)*math.Cos(phi2)
	// rounding can push identical points just past 1
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * EarthRadiusKm
}

// WithinRadius reports whether p lies no further than maxKm from center.
func WithinRadius(p, center Point, maxKm float64) bool {
	return Distance(p, center) <= maxKm
}
