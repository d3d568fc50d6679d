// Package geomath provides the great-circle distance calculation and the
// spherical-ellipse eligibility predicate used to geofilter courier
// candidates against a pickup/drop-off pair.
package geomath

import "math"

const earthRadiusKm = 6371.0

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance between a and b in
// kilometers, using the standard Haversine formula with Earth radius
// R = 6371 km.
func Haversine(a, b Point) float64 {
	lat1Rad := a.Lat * math.Pi / 180.0
	lon1Rad := a.Lon * math.Pi / 180.0
	lat2Rad := b.Lat * math.Pi / 180.0
	lon2Rad := b.Lon * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Clamp to [0,1] to tolerate floating-point rounding pushing h fractionally
	// outside the domain of asin/sqrt near antipodal or coincident points.
	if h < 0 {
		h = 0
	} else if h > 1 {
		h = 1
	}

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// EllipsePredicate reports whether candidate lies within an ellipse whose
// foci are f1 and f2, inflated by tolerance tol (in kilometers). The
// candidate is eligible iff the sum of its distances to both foci does not
// exceed the focal distance plus twice the tolerance:
//
//	haversine(candidate, f1) + haversine(candidate, f2) <= haversine(f1, f2) + 2*tol
func EllipsePredicate(candidate, f1, f2 Point, tol float64) bool {
	sum := Haversine(candidate, f1) + Haversine(candidate, f2)
	major := Haversine(f1, f2) + 2*tol
	return sum <= major
}

// EllipseSlack returns major - sum, the margin by which candidate satisfies
// (positive) or fails (negative) EllipsePredicate for the same foci and
// tolerance. Used to report how far a rejected candidate missed the cutoff.
func EllipseSlack(candidate, f1, f2 Point, tol float64) float64 {
	sum := Haversine(candidate, f1) + Haversine(candidate, f2)
	major := Haversine(f1, f2) + 2*tol
	return major - sum
}

// CellSize returns the grid cell size in degrees for pre-bucketing
// candidates ahead of an ellipse scan with tolerance tolKm: tolKm converted
// at 111 km per degree, with 1 km used for a non-positive tolerance. The
// size reflects the tolerance only, not the focal distance, so it does not
// bound the ellipse's extent; courier.partition still applies the exact
// predicate to candidates outside the queried cells.
func CellSize(tolKm float64) float64 {
	if tolKm <= 0 {
		tolKm = 1
	}
	return tolKm / 111.0
}
