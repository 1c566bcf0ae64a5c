package domain

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean radius of the spherical Earth model.
const EarthRadiusMeters = 6_371_000.0

// Distance returns the great-circle distance between a and b in meters (Haversine).
// Inputs are not validated.
func Distance(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// FormatDistance renders meters for display: "320m" below one kilometer, "4.2km" above.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", int64(math.Round(meters)))
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// WithinRadius reports whether target lies within radiusMeters of center.
func WithinRadius(center, target Coordinate, radiusMeters float64) bool {
	return Distance(center, target) <= radiusMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
