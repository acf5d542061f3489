package validation

import (
	"fmt"
	"math"
)

// CoordinateError describes a coordinate validation failure.
type CoordinateError struct {
	Field   string
	Value   float64
	Message string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%s: %s (value: %.6f)", e.Field, e.Message, e.Value)
}

// ValidateLatitude validates a latitude value.
func ValidateLatitude(lat float64, fieldName string) error {
	if math.IsNaN(lat) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lat,
			Message: "NaN is not allowed",
		}
	}

	if math.IsInf(lat, 0) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lat,
			Message: "infinite value is not allowed",
		}
	}

	if lat < -90 || lat > 90 {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lat,
			Message: "must be between -90 and 90",
		}
	}

	return nil
}

// ValidateLongitude validates a longitude value.
func ValidateLongitude(lon float64, fieldName string) error {
	if math.IsNaN(lon) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lon,
			Message: "NaN is not allowed",
		}
	}

	if math.IsInf(lon, 0) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lon,
			Message: "infinite value is not allowed",
		}
	}

	if lon < -180 || lon > 180 {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lon,
			Message: "must be between -180 and 180",
		}
	}

	return nil
}

// ValidateCoordinatePair validates a (lat, lon) pair.
func ValidateCoordinatePair(lat, lon float64, prefix string) error {
	if err := ValidateLatitude(lat, prefix+"_lat"); err != nil {
		return err
	}

	if err := ValidateLongitude(lon, prefix+"_lon"); err != nil {
		return err
	}

	return nil
}

// ValidateTamilNaduRegion checks that coordinates fall within Tamil Nadu,
// roughly Lat 8.0 to 13.6, Lon 76.2 to 80.4.
func ValidateTamilNaduRegion(lat, lon float64) error {
	const (
		minLat = 8.0
		maxLat = 13.6
		minLon = 76.2
		maxLon = 80.4
	)

	if lat < minLat || lat > maxLat {
		return &CoordinateError{
			Field:   "latitude",
			Value:   lat,
			Message: fmt.Sprintf("outside the Tamil Nadu range (%.1f to %.1f)", minLat, maxLat),
		}
	}

	if lon < minLon || lon > maxLon {
		return &CoordinateError{
			Field:   "longitude",
			Value:   lon,
			Message: fmt.Sprintf("outside the Tamil Nadu range (%.1f to %.1f)", minLon, maxLon),
		}
	}

	return nil
}

// IsZeroCoordinate reports whether a coordinate is exactly (0, 0).
func IsZeroCoordinate(lat, lon float64) bool {
	return lat == 0 && lon == 0
}
