package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup (geocoding, hub, station code)
// yields nothing. Callers handle it by skipping the leg or provider,
// never by failing the whole search.
var ErrNotFound = errors.New("not found")

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsZero reports whether the coordinate has not been set.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Stop is a local-transit stop under its canonical (normalized) name.
// Coordinates are resolved lazily and cached for the process lifetime.
type Stop struct {
	Name      string      `json:"name"`
	Coord     *Coordinate `json:"coord,omitempty"`
	DistanceM float64     `json:"distance_m"` // distance from the query point
	Routes    []string    `json:"routes,omitempty"`
}

// HubMode distinguishes the transport mode a hub serves.
type HubMode string

const (
	HubBus   HubMode = "bus"
	HubTrain HubMode = "train"
)

// Hub is an intercity terminal: a bus stand or a railway station.
type Hub struct {
	Name       string     `json:"name"`
	Coord      Coordinate `json:"coord"`
	Mode       HubMode    `json:"mode"`
	DistanceKm float64    `json:"distance_km"` // straight-line distance to the reference point
}

// SegmentMode identifies the kind of itinerary segment.
type SegmentMode string

const (
	ModeStart          SegmentMode = "you"
	ModeWalk           SegmentMode = "walk"
	ModeAuto           SegmentMode = "auto"
	ModeLocalBus       SegmentMode = "local-bus"
	ModeIntercityBus   SegmentMode = "bus"
	ModeIntercityTrain SegmentMode = "train"
)

// Fare is a min/max fare estimate in rupees. A scalar fare has Min == Max.
type Fare struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Scalar builds a fare with identical bounds.
func Scalar(amount float64) Fare {
	return Fare{Min: amount, Max: amount}
}

// ItinerarySegment is one leg of a composed journey. Fare is nil while the
// amount is still pending (the intercity leg before the provider quote is
// folded in).
type ItinerarySegment struct {
	Mode        SegmentMode `json:"mode"`
	Description string      `json:"description"`
	DistanceKm  *float64    `json:"distance_km,omitempty"`
	Fare        *Fare       `json:"fare,omitempty"`
	MapURL      string      `json:"map_url,omitempty"`
}

// Schedule is the normalized record every provider adapter produces for a
// single scheduled departure.
type Schedule struct {
	Provider   string `json:"provider"`
	Operator   string `json:"operator"`
	Departure  string `json:"departure"` // "HH:MM" local
	Arrival    string `json:"arrival"`
	Duration   string `json:"duration"`
	FareText   string `json:"fare"` // free text, e.g. "₹450"
	Class      string `json:"class,omitempty"`
	BookingRef string `json:"booking_ref,omitempty"`
}

// Itinerary is one result row: a provider schedule with the composed
// door-to-door segments and the aggregate fare range.
type Itinerary struct {
	Schedule  Schedule           `json:"schedule"`
	Segments  []ItinerarySegment `json:"segments"`
	TotalCost string             `json:"total_cost"`
}
