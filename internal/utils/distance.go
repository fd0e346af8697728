package utils

import (
	"math"
)

// CalculateDistance returns the great-circle distance in kilometers.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2) * EarthRadiusKM
}

// CalculateDistanceMeters returns the great-circle distance in meters.
func CalculateDistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2) * EarthRadiusMeters
}

// haversine returns the central angle between two points in radians.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// SpeedKMH derives a speed from a distance and the elapsed time between two
// fixes. ok is false when elapsed is not positive.
func SpeedKMH(distanceMeters float64, elapsedSeconds float64) (speed float64, ok bool) {
	if elapsedSeconds <= 0 {
		return 0, false
	}
	return distanceMeters / elapsedSeconds * MetersPerSecondToKMH, true
}
