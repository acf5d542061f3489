package geo

import (
	"math"

	"github.com/yourorg/tnjourney/internal/models"
)

const earthRadiusM = 6371000

// DistanceM returns the great-circle distance between two coordinates in
// meters (haversine formula).
func DistanceM(a, b models.Coordinate) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// DistanceKm returns the great-circle distance in kilometers.
func DistanceKm(a, b models.Coordinate) float64 {
	return DistanceM(a, b) / 1000
}
