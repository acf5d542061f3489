// ============================================================================
// Intercity Hub Locator
// ============================================================================
// Finds the bus stand or railway station a journey should route through.
// Bus stands are geocoded by name since OSM tagging for them is patchy;
// stations come from OSM directly. A hub more than 20 km from the reference
// point is not usable, and one within 5 km is good enough to stop looking.
// ============================================================================

package hub

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/geo"
	"github.com/yourorg/tnjourney/internal/geocode"
	"github.com/yourorg/tnjourney/internal/models"
)

const (
	maxHubDistanceKm = 20.0
	goodEnoughKm     = 5.0
	stationRadiusM   = 20000
)

// Geocoder is the forward-geocoding surface the locator needs.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*geocode.Place, error)
}

// TransportFinder locates stations and stands on the map.
type TransportFinder interface {
	NearbyTransport(ctx context.Context, origin models.Coordinate, radiusM int, mode models.HubMode) []models.Stop
}

// Locator picks intercity hubs near a point.
type Locator struct {
	geocoder Geocoder
	finder   TransportFinder
	logger   *zap.Logger
}

// NewLocator wires a hub locator.
func NewLocator(geocoder Geocoder, finder TransportFinder, logger *zap.Logger) *Locator {
	return &Locator{
		geocoder: geocoder,
		finder:   finder,
		logger:   logger,
	}
}

// busStandVariants lists the naming patterns bus stands appear under,
// most common first.
func busStandVariants(city string) []string {
	return []string{
		city + " Bus Stand",
		city + " Bus Terminal",
		city + " Bus Station",
		"Bus Stand, " + city,
		city + " Main Bus Stand",
	}
}

// BestBusStand finds the bus stand serving a city, validated against a
// reference coordinate. Each name variant is geocoded and the closest hit
// within 20 km wins; a hit within 5 km short-circuits the search. Returns
// models.ErrNotFound when no variant lands close enough.
func (l *Locator) BestBusStand(ctx context.Context, city string, ref models.Coordinate) (*models.Hub, error) {
	var best *models.Hub

	for _, name := range busStandVariants(city) {
		place, err := l.geocoder.Geocode(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		distance := geo.DistanceKm(place.Coord, ref)
		if distance > maxHubDistanceKm {
			l.logger.Debug("bus stand too far",
				zap.String("name", name),
				zap.Float64("distance_km", distance))
			continue
		}
		if best == nil || distance < best.DistanceKm {
			best = &models.Hub{
				Name:       name,
				Coord:      place.Coord,
				Mode:       models.HubBus,
				DistanceKm: distance,
			}
		}
		if distance <= goodEnoughKm {
			break
		}
	}

	if best == nil {
		return nil, fmt.Errorf("bus stand for %q: %w", city, models.ErrNotFound)
	}
	return best, nil
}

// BestStation finds the nearest railway station to a coordinate. Chennai
// station hits are mapped to Chennai Egmore, the terminal most southbound
// trains leave from. Returns models.ErrNotFound when no station sits within
// range.
func (l *Locator) BestStation(ctx context.Context, ref models.Coordinate) (*models.Hub, error) {
	stations := l.finder.NearbyTransport(ctx, ref, stationRadiusM, models.HubTrain)
	if len(stations) == 0 {
		return nil, fmt.Errorf("railway station near %s: %w", ref, models.ErrNotFound)
	}

	nearest := stations[0]
	name := strings.ToUpper(strings.TrimSpace(nearest.Name))
	if strings.Contains(name, "CHENNAI") {
		name = "CHENNAI EGMORE"
	}

	hub := &models.Hub{
		Name:       name,
		Mode:       models.HubTrain,
		DistanceKm: nearest.DistanceM / 1000,
	}
	if nearest.Coord != nil {
		hub.Coord = *nearest.Coord
	}
	return hub, nil
}

// ReplaceBusTerminalNames folds the various names of Chennai's main bus
// terminal into "C.M.B.T".
func ReplaceBusTerminalNames(name string) string {
	if name == "" {
		return name
	}
	upper := strings.ToUpper(name)
	if strings.Contains(upper, "CHENNAI BUS STATION") ||
		strings.Contains(upper, "CHENNAI BUS TERMINAL") ||
		strings.Contains(upper, "C.M.B.T") {
		return "C.M.B.T"
	}
	return upper
}
