package geo

import (
	"errors"
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000

var ErrOutOfRange = errors.New("coordinate out of range")

// Coordinate is an immutable geographic point in decimal degrees.
type Coordinate struct {
	latitude  float64
	longitude float64
}

// New validates latitude [-90,90] and longitude [-180,180] and returns a Coordinate.
func New(latitude, longitude float64) (Coordinate, error) {
	if latitude < -90 || latitude > 90 {
		return Coordinate{}, fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrOutOfRange, latitude)
	}
	if longitude < -180 || longitude > 180 {
		return Coordinate{}, fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrOutOfRange, longitude)
	}
	return Coordinate{latitude: latitude, longitude: longitude}, nil
}

func (c Coordinate) Latitude() float64  { return c.latitude }
func (c Coordinate) Longitude() float64 { return c.longitude }

// DistanceMeters returns the great-circle distance to other using the
// haversine formula.
func (c Coordinate) DistanceMeters(other Coordinate) float64 {
	dLat := (other.latitude - c.latitude) * (math.Pi / 180.0)
	dLon := (other.longitude - c.longitude) * (math.Pi / 180.0)

	lat1Rad := c.latitude * (math.Pi / 180.0)
	lat2Rad := other.latitude * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	chord := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * chord
}
