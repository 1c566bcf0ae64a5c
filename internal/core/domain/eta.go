package domain

import (
	"math"
	"time"
)

// DefaultAssumedSpeedKmh is the flat travel speed used for arrival estimates.
const DefaultAssumedSpeedKmh = 30.0

// TravelTime converts a straight-line distance into a whole number of minutes at
// speedKmh, rounded up. There is no routing involved, so this is only a coarse estimate.
// A non-positive speed falls back to DefaultAssumedSpeedKmh.
func TravelTime(distanceMeters, speedKmh float64) time.Duration {
	if speedKmh <= 0 {
		speedKmh = DefaultAssumedSpeedKmh
	}
	metersPerSecond := speedKmh * 1000 / 3600
	seconds := distanceMeters / metersPerSecond
	minutes := math.Ceil(seconds / 60)
	return time.Duration(minutes) * time.Minute
}

// EstimateArrival returns now plus TravelTime(distanceMeters, speedKmh).
func EstimateArrival(distanceMeters, speedKmh float64, now time.Time) time.Time {
	return now.Add(TravelTime(distanceMeters, speedKmh))
}
