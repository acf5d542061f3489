package transitgraph

import (
	"context"
	"fmt"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/cache"
	"github.com/yourorg/tnjourney/internal/geocode"
	"github.com/yourorg/tnjourney/internal/models"
)

// Stops scored below this are not considered the same stop.
const matchThreshold = 80

// Search radius for bus stops around a rider's coordinate, and for resolving
// a network stop name to a map position.
const (
	nearbyStopRadiusM = 2000
	stopLookupRadiusM = 30000
	maxMatchedStops   = 3
)

// Chennai city center, the anchor for name-based stop lookups.
var cityCenter = models.Coordinate{Lat: 13.0827, Lon: 80.2707}

// MatchStopName maps free text to a network stop. Exact normalized matches
// win; otherwise the best token-set fuzzy match at or above the threshold.
func (n *Network) MatchStopName(name string) (string, bool) {
	normalized := NormalizeStopName(name)
	if normalized == "" {
		return "", false
	}
	if n.HasStop(normalized) {
		return normalized, true
	}

	best := ""
	bestScore := 0
	for _, stop := range n.stopNames {
		score := fuzzy.TokenSetRatio(normalized, stop)
		if score > bestScore {
			best = stop
			bestScore = score
		}
	}
	if bestScore < matchThreshold {
		return "", false
	}
	return best, true
}

// StopFinder is the Overpass surface the locator needs.
type StopFinder interface {
	NearbyBusStops(ctx context.Context, origin models.Coordinate, radiusM int) []models.Stop
	StopByName(ctx context.Context, name string, origin models.Coordinate, radiusM int) (*models.Stop, error)
}

// Geocoder is the forward-geocoding surface the locator needs.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*geocode.Place, error)
}

// Locator attaches map positions to the network: which network stops are
// near a rider, and where a named stop sits.
type Locator struct {
	net      *Network
	finder   StopFinder
	geocoder Geocoder
	coords   *cache.Cache
	logger   *zap.Logger
}

// NewLocator wires a locator. The cache holds resolved stop coordinates for
// the process lifetime since stops do not move.
func NewLocator(net *Network, finder StopFinder, geocoder Geocoder, coords *cache.Cache, logger *zap.Logger) *Locator {
	return &Locator{
		net:      net,
		finder:   finder,
		geocoder: geocoder,
		coords:   coords,
		logger:   logger,
	}
}

// MatchedStopsNear finds the closest network stops to a coordinate: nearby
// OSM bus stops are fuzzy-matched against the network and the best three
// distinct matches are returned, closest first.
func (l *Locator) MatchedStopsNear(ctx context.Context, origin models.Coordinate) []models.Stop {
	var matched []models.Stop
	seen := make(map[string]bool)

	for _, osmStop := range l.finder.NearbyBusStops(ctx, origin, nearbyStopRadiusM) {
		stopName, ok := l.net.MatchStopName(osmStop.Name)
		if !ok || seen[stopName] {
			continue
		}
		seen[stopName] = true

		matched = append(matched, models.Stop{
			Name:      stopName,
			Coord:     osmStop.Coord,
			DistanceM: osmStop.DistanceM,
			Routes:    l.net.RoutesServing(stopName),
		})
		if len(matched) == maxMatchedStops {
			break
		}
	}

	return matched
}

// StopCoordinate resolves a network stop name to a map position, trying
// Overpass first and the geocoder second. Results are cached.
func (l *Locator) StopCoordinate(ctx context.Context, stop string) (models.Coordinate, error) {
	cacheKey := "stopcoord:" + stop
	if cached, ok := l.coords.Get(cacheKey); ok {
		return cached.(models.Coordinate), nil
	}

	if found, err := l.finder.StopByName(ctx, stop, cityCenter, stopLookupRadiusM); err == nil && found.Coord != nil {
		l.coords.Set(cacheKey, *found.Coord)
		return *found.Coord, nil
	}

	place, err := l.geocoder.Geocode(ctx, stop+", Chennai, Tamil Nadu, India")
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("locate stop %q: %w", stop, err)
	}

	l.coords.Set(cacheKey, place.Coord)
	return place.Coord, nil
}
