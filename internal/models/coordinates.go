package models

import (
	"fmt"
	"math"
)

// Valid coordinate ranges in degrees.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Coordinates represents a geographical point defined by its longitude and latitude.
type Coordinates struct {
	Latitude  float64 `json:"lat"` // Latitude of the geographical point.
	Longitude float64 `json:"lng"` // Longitude of the geographical point.
}

// Validate reports whether the point lies within the valid ranges.
func (c Coordinates) Validate() error {
	return ValidateCoordinates(c.Latitude, c.Longitude)
}

// ValidateCoordinates checks that lat is within [-90, 90] and lng within [-180, 180].
// NaN and infinite values are rejected as well.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
		return &ValidationError{Field: "lat", Reason: fmt.Sprintf("%v is outside [-90, 90]", lat)}
	}
	if math.IsNaN(lng) || lng < MinLongitude || lng > MaxLongitude {
		return &ValidationError{Field: "lng", Reason: fmt.Sprintf("%v is outside [-180, 180]", lng)}
	}

	return nil
}
