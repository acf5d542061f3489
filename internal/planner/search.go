// ============================================================================
// Journey Planner
// ============================================================================
// Ties the whole pipeline together: resolve the endpoints, pick the hubs,
// fan out to the booking providers, and compose a door-to-door itinerary
// around every schedule that comes back.
// ============================================================================

package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/geo"
	"github.com/yourorg/tnjourney/internal/geocode"
	"github.com/yourorg/tnjourney/internal/hub"
	"github.com/yourorg/tnjourney/internal/models"
	"github.com/yourorg/tnjourney/internal/providers"
)

// Travel modes a request can ask for.
const (
	ModeBus   = "bus"
	ModeTrain = "train"
)

// ErrNoRoutes is returned when every provider comes back empty.
var ErrNoRoutes = errors.New("no routes found")

// Resolver turns free text and coordinates into each other.
type Resolver interface {
	Resolve(ctx context.Context, text string) (models.Coordinate, error)
	ResolveStation(ctx context.Context, name string) (models.Coordinate, error)
	CityFor(ctx context.Context, coord models.Coordinate) (string, error)
}

// HubFinder locates the boarding hubs around a resolved endpoint.
type HubFinder interface {
	BestBusStand(ctx context.Context, city string, ref models.Coordinate) (*models.Hub, error)
	BestStation(ctx context.Context, ref models.Coordinate) (*models.Hub, error)
}

// TrainSearcher queries train schedules by station code.
type TrainSearcher interface {
	Search(ctx context.Context, sourceCode, destCode string, date time.Time) ([]models.Schedule, error)
}

// Recorder persists finished searches. Optional.
type Recorder interface {
	Record(ctx context.Context, requestID, source, dest string, date time.Time, mode string, itineraries []models.Itinerary) error
}

// Request is one journey to plan.
type Request struct {
	Source string
	Dest   string
	Date   time.Time
	Mode   string
}

// Response carries the planned itineraries plus the cities the endpoints
// resolved to.
type Response struct {
	RequestID   string
	SourceCity  string
	DestCity    string
	Itineraries []models.Itinerary
}

// Planner runs journey searches end to end.
type Planner struct {
	resolver Resolver
	hubs     HubFinder
	stations *hub.StationTable
	buses    []providers.Adapter
	trains   TrainSearcher
	composer *Composer
	recorder Recorder
	logger   *zap.Logger
}

// NewPlanner wires a planner. recorder may be nil to skip history.
func NewPlanner(resolver Resolver, hubs HubFinder, stations *hub.StationTable,
	buses []providers.Adapter, trains TrainSearcher, composer *Composer,
	recorder Recorder, logger *zap.Logger) *Planner {
	return &Planner{
		resolver: resolver,
		hubs:     hubs,
		stations: stations,
		buses:    buses,
		trains:   trains,
		composer: composer,
		recorder: recorder,
		logger:   logger,
	}
}

// Search plans a journey for one request.
func (p *Planner) Search(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	logger := p.logger.With(zap.String("request_id", requestID))

	srcCoord, err := p.resolver.Resolve(ctx, req.Source)
	if err != nil {
		return nil, fmt.Errorf("could not locate %q: %w", req.Source, err)
	}
	dstCoord, err := p.resolver.Resolve(ctx, req.Dest)
	if err != nil {
		return nil, fmt.Errorf("could not locate %q: %w", req.Dest, err)
	}

	srcCity := p.cityName(ctx, req.Source, srcCoord)
	dstCity := p.cityName(ctx, req.Dest, dstCoord)
	logger.Info("endpoints resolved",
		zap.String("source_city", srcCity),
		zap.String("dest_city", dstCity))

	var srcHub, dstHub *models.Hub
	isBus := req.Mode != ModeTrain
	if isBus {
		srcHub, err = p.hubs.BestBusStand(ctx, srcCity, p.cityCenter(ctx, srcCity, srcCoord))
		if err != nil {
			return nil, fmt.Errorf("no bus stand near %s: %w", srcCity, err)
		}
		dstHub, err = p.hubs.BestBusStand(ctx, dstCity, p.cityCenter(ctx, dstCity, dstCoord))
		if err != nil {
			return nil, fmt.Errorf("no bus stand near %s: %w", dstCity, err)
		}
	} else {
		srcHub, err = p.bestStation(ctx, srcCity, srcCoord)
		if err != nil {
			return nil, fmt.Errorf("no railway station near %s: %w", srcCity, err)
		}
		dstHub, err = p.bestStation(ctx, dstCity, dstCoord)
		if err != nil {
			return nil, fmt.Errorf("no railway station near %s: %w", dstCity, err)
		}
	}
	hubToHubKm := geo.DistanceKm(srcHub.Coord, dstHub.Coord)

	var schedules []models.Schedule
	if isBus {
		schedules = p.searchBuses(ctx, srcCity, dstCity, req.Date, logger)
	} else {
		schedules, err = p.searchTrains(ctx, srcHub.Name, dstHub.Name, req.Date, logger)
		if err != nil {
			return nil, err
		}
	}
	if len(schedules) == 0 {
		return nil, fmt.Errorf("%w between %s and %s", ErrNoRoutes, srcCity, dstCity)
	}

	itineraries := make([]models.Itinerary, 0, len(schedules))
	for _, sched := range schedules {
		segments := p.composer.Compose(ctx, ComposeInput{
			SourceText:  req.Source,
			DestText:    req.Dest,
			SourceCoord: srcCoord,
			SourceHub:   *srcHub,
			HubToHubKm:  hubToHubKm,
			DestHub:     *dstHub,
			DestCoord:   dstCoord,
			IsBus:       isBus,
			Departure:   sched.Departure,
		})
		total, segments := AggregateFare(segments, sched.FareText)
		itineraries = append(itineraries, models.Itinerary{
			Schedule:  sched,
			Segments:  segments,
			TotalCost: total,
		})
	}

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, requestID, req.Source, req.Dest, req.Date, req.Mode, itineraries); err != nil {
			logger.Warn("history save failed", zap.Error(err))
		}
	}

	return &Response{
		RequestID:   requestID,
		SourceCity:  srcCity,
		DestCity:    dstCity,
		Itineraries: itineraries,
	}, nil
}

// cityName prefers the city named inside the free text itself, reverse
// geocoding only when the input carries none.
func (p *Planner) cityName(ctx context.Context, text string, coord models.Coordinate) string {
	if strings.Contains(text, ",") {
		if city := geocode.ExtractCity(text); city != "" {
			return city
		}
	}
	city, err := p.resolver.CityFor(ctx, coord)
	if err != nil {
		p.logger.Warn("city lookup failed, using raw input",
			zap.String("text", text), zap.Error(err))
		return strings.TrimSpace(text)
	}
	return city
}

// cityCenter geocodes the bare city name so the bus stand search starts from
// the town centre instead of the rider's doorstep.
func (p *Planner) cityCenter(ctx context.Context, city string, fallback models.Coordinate) models.Coordinate {
	coord, err := p.resolver.Resolve(ctx, city)
	if err != nil {
		return fallback
	}
	return coord
}

// searchBuses fans out to every bus provider and dedupes the combined
// results. TNSTC gets extra name variants because its autocomplete often
// only knows the bus stand form of a town.
func (p *Planner) searchBuses(ctx context.Context, srcCity, dstCity string, date time.Time, logger *zap.Logger) []models.Schedule {
	var all []models.Schedule
	seen := make(map[string]struct{})

	for _, adapter := range p.buses {
		var results []models.Schedule
		if adapter.Name() == "TNSTC" {
			results = searchWithVariants(ctx, adapter, srcCity, dstCity, date)
		} else {
			found, err := adapter.Search(ctx, srcCity, dstCity, date)
			if err != nil {
				logger.Warn("provider search failed",
					zap.String("provider", adapter.Name()), zap.Error(err))
				continue
			}
			results = found
		}
		for _, sched := range results {
			key := providers.DedupeKey(sched)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, sched)
		}
		logger.Info("provider searched",
			zap.String("provider", adapter.Name()),
			zap.Int("results", len(results)))
	}
	return all
}

// searchWithVariants tries each source and destination name form until one
// combination returns schedules.
func searchWithVariants(ctx context.Context, adapter providers.Adapter, srcCity, dstCity string, date time.Time) []models.Schedule {
	sources := []string{srcCity, srcCity + " Bus Stand"}
	dests := []string{dstCity, dstCity + " Bus Stand"}
	for _, src := range sources {
		for _, dst := range dests {
			if ctx.Err() != nil {
				return nil
			}
			results, err := adapter.Search(ctx, src, dst, date)
			if err == nil && len(results) > 0 {
				return results
			}
		}
	}
	return nil
}

// bestStation finds the railway hub for one end. The map lookup wins, but
// station tagging is patchy, so a miss falls back to geocoding the city's
// station by name.
func (p *Planner) bestStation(ctx context.Context, city string, ref models.Coordinate) (*models.Hub, error) {
	station, err := p.hubs.BestStation(ctx, ref)
	if err == nil {
		return station, nil
	}

	coord, geoErr := p.resolver.ResolveStation(ctx, city)
	if geoErr != nil {
		return nil, err
	}
	name := strings.ToUpper(city)
	if strings.Contains(name, "CHENNAI") {
		name = "CHENNAI EGMORE"
	} else {
		name += " RAILWAY STATION"
	}
	p.logger.Info("station found by geocoding",
		zap.String("city", city), zap.String("station", name))
	return &models.Hub{Name: name, Coord: coord, Mode: models.HubTrain}, nil
}

// searchTrains maps the hub station names to booking codes and queries the
// rail API.
func (p *Planner) searchTrains(ctx context.Context, srcStation, dstStation string, date time.Time, logger *zap.Logger) ([]models.Schedule, error) {
	srcCode, err := p.stationCode(srcStation)
	if err != nil {
		return nil, fmt.Errorf("no station code for %s: %w", srcStation, err)
	}
	dstCode, err := p.stationCode(dstStation)
	if err != nil {
		return nil, fmt.Errorf("no station code for %s: %w", dstStation, err)
	}
	logger.Info("train search",
		zap.String("from", srcCode), zap.String("to", dstCode))
	return p.trains.Search(ctx, srcCode, dstCode, date)
}

// stationCode looks a station name up in the code table. Chennai stations
// carry many aliases, so unmatched Chennai names fall back to the two
// terminals.
func (p *Planner) stationCode(name string) (string, error) {
	matches, err := p.stations.Search(name)
	if err == nil {
		return matches[0].Code, nil
	}
	if strings.Contains(strings.ToUpper(name), "CHENNAI") {
		for _, alias := range []string{"CHENNAI CENTRAL", "CHENNAI EGMORE"} {
			if matches, aliasErr := p.stations.Search(alias); aliasErr == nil {
				return matches[0].Code, nil
			}
		}
	}
	return "", err
}
