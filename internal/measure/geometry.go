package measure

import (
	"math"

	"github.com/UnknownOlympus/pinboard/internal/models"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0
	// KmPerDegree is the length of one degree at the equator.
	KmPerDegree = 111.32
)

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b models.Coordinates) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathDistance sums the haversine distances between consecutive points.
func PathDistance(points []models.Coordinates) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}

	return total
}

// ShoelaceArea treats (lng, lat) degrees as planar coordinates, closes the
// ring and scales the result by KmPerDegree². The figure is only meaningful
// near the equator and for extents of a few hundred kilometres at most.
func ShoelaceArea(points []models.Coordinates) float64 {
	const minVertices = 3
	if len(points) < minVertices {
		return 0
	}

	var sum float64
	for i := range points {
		j := (i + 1) % len(points)
		sum += points[i].Longitude*points[j].Latitude - points[j].Longitude*points[i].Latitude
	}

	return math.Abs(sum/2) * KmPerDegree * KmPerDegree
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
