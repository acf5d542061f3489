// ============================================================================
// Itinerary Composer
// ============================================================================
// Stitches a door-to-door itinerary around one intercity schedule: a first
// mile to the departure hub, the intercity ride, and a last mile from the
// arrival hub. When a journey passes through Chennai's C.M.B.T, the city bus
// network is searched for the local legs instead of assuming an auto.
// ============================================================================

package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/cache"
	"github.com/yourorg/tnjourney/internal/fare"
	"github.com/yourorg/tnjourney/internal/geo"
	"github.com/yourorg/tnjourney/internal/hub"
	"github.com/yourorg/tnjourney/internal/models"
	"github.com/yourorg/tnjourney/internal/transitgraph"
)

// Walks longer than this become auto rides.
const maxWalkKm = 1.0

// cmbtFallbackStop is tried when no city bus reaches the rider's actual
// destination from C.M.B.T.
const cmbtFallbackStop = "CHENNAI CENTRAL"

// TariffSource supplies the staged bus fare tables.
type TariffSource interface {
	Tables(ctx context.Context) fare.Tables
}

// ComposeInput describes one schedule to build an itinerary around.
type ComposeInput struct {
	SourceText  string
	DestText    string
	SourceCoord models.Coordinate
	SourceHub   models.Hub
	HubToHubKm  float64
	DestHub     models.Hub
	DestCoord   models.Coordinate
	IsBus       bool
	Departure   string // "HH:MM", for the night surcharge
}

// Composer builds itineraries.
type Composer struct {
	net     *transitgraph.Network
	locator *transitgraph.Locator
	tariff  TariffSource
	options *cache.Cache
	logger  *zap.Logger
}

// NewComposer wires a composer. The cache holds city bus connections per
// hub pair for the process lifetime.
func NewComposer(net *transitgraph.Network, locator *transitgraph.Locator, tariff TariffSource, options *cache.Cache, logger *zap.Logger) *Composer {
	return &Composer{
		net:     net,
		locator: locator,
		tariff:  tariff,
		options: options,
		logger:  logger,
	}
}

// cityConnection is a resolved city bus ride: where to board, the chosen
// option, and where it ends.
type cityConnection struct {
	Option transitgraph.Option
	Board  models.Stop
	Alight models.Stop
}

// Compose builds the segment list for one schedule.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) []models.ItinerarySegment {
	night := fare.NightFromDeparture(in.Departure)
	sourceDisplay := hubDisplayName(in.SourceHub.Name)
	destDisplay := hubDisplayName(in.DestHub.Name)
	tables := c.tariff.Tables(ctx)

	segments := []models.ItinerarySegment{{
		Mode:        models.ModeStart,
		Description: "You",
	}}

	// First mile, via the city bus network when leaving from one of
	// Chennai's terminals: C.M.B.T for bus journeys, Egmore for trains.
	specialSource := (in.IsBus && sourceDisplay == "C.M.B.T") ||
		(!in.IsBus && sourceDisplay == "EGMORE")
	if specialSource {
		conn := c.connection(ctx, in.SourceText, sourceDisplay, in.SourceCoord, in.SourceHub.Coord,
			in.SourceHub.Name, in.DestHub.Name, "out", tables)
		if conn != nil {
			boardCoord := in.SourceHub.Coord
			if conn.Board.Coord != nil {
				boardCoord = *conn.Board.Coord
			}
			segments = append(segments,
				accessSegment(in.SourceCoord, boardCoord, "To "+conn.Board.Name, night),
				cityBusSegment(conn))
		} else {
			segments = append(segments,
				accessSegment(in.SourceCoord, in.SourceHub.Coord, "To "+sourceDisplay, night))
		}
	} else {
		segments = append(segments,
			accessSegment(in.SourceCoord, in.SourceHub.Coord, "To "+sourceDisplay, night))
	}

	// The intercity leg. Its fare stays nil until the provider quote is
	// folded in by AggregateFare.
	mainMode := models.ModeIntercityTrain
	mainLabel := "Train"
	if in.IsBus {
		mainMode = models.ModeIntercityBus
		mainLabel = "Bus"
	}
	main := models.ItinerarySegment{
		Mode:        mainMode,
		Description: fmt.Sprintf("%s to %s", mainLabel, destDisplay),
	}
	if in.HubToHubKm > 0 {
		main.DistanceKm = roundKm(in.HubToHubKm)
	}
	segments = append(segments, main)

	// Continuation from C.M.B.T toward the rider's destination, falling back
	// to Chennai Central when no city bus reaches it.
	lastHubCoord := in.DestHub.Coord
	if destDisplay == "C.M.B.T" && in.IsBus {
		conn := c.connection(ctx, "C.M.B.T", in.DestText, in.DestHub.Coord, in.DestCoord,
			in.SourceHub.Name, in.DestHub.Name, "in", tables)
		if conn == nil {
			fallbackCoord, err := c.locator.StopCoordinate(ctx, cmbtFallbackStop)
			if err != nil {
				fallbackCoord = in.DestCoord
			}
			conn = c.connection(ctx, "C.M.B.T", cmbtFallbackStop, in.DestHub.Coord, fallbackCoord,
				in.SourceHub.Name, cmbtFallbackStop, "in", tables)
		}
		if conn != nil {
			segments = append(segments, cityBusSegment(conn))
			if conn.Alight.Coord != nil {
				lastHubCoord = *conn.Alight.Coord
			}
		}
	}

	// Last mile.
	lastKm := geo.DistanceKm(lastHubCoord, in.DestCoord)
	last := accessSegment(lastHubCoord, in.DestCoord, "", night)
	if last.Mode == models.ModeWalk {
		last.Description = "Walk to final destination"
	} else {
		last.Description = "Auto to final destination"
	}
	last.DistanceKm = roundKm(lastKm)
	segments = append(segments, last)

	return segments
}

// connection finds the city bus ride between two points. Results are cached
// per hub pair and direction, misses included, since every schedule row of a
// search repeats the same lookup.
func (c *Composer) connection(ctx context.Context, startName, endName string,
	startCoord, endCoord models.Coordinate, srcHub, dstHub, side string, tables fare.Tables) *cityConnection {

	cacheKey := fmt.Sprintf("mtcopt:%s|%s|%s", srcHub, dstHub, side)
	if cached, ok := c.options.Get(cacheKey); ok {
		conn, _ := cached.(*cityConnection)
		return conn
	}

	conn := c.findConnection(ctx, startName, endName, startCoord, endCoord, tables)
	c.options.Set(cacheKey, conn)
	return conn
}

func (c *Composer) findConnection(ctx context.Context, startName, endName string,
	startCoord, endCoord models.Coordinate, tables fare.Tables) *cityConnection {

	board, ok := c.resolveEndpoint(ctx, startName, startCoord)
	if !ok {
		return nil
	}
	alightTarget, ok := c.resolveEndpoint(ctx, endName, endCoord)
	if !ok {
		return nil
	}

	option, ok := c.net.PreferredPath(ctx, board.Name, alightTarget.Name, tables)
	if !ok {
		c.logger.Debug("no city bus connection",
			zap.String("from", board.Name),
			zap.String("to", alightTarget.Name))
		return nil
	}

	return &cityConnection{Option: option, Board: board, Alight: alightTarget}
}

// resolveEndpoint maps free text (or a coordinate) to a network stop: an
// exact stop name is used as is, otherwise the closest fuzzy-matched stop
// near the coordinate.
func (c *Composer) resolveEndpoint(ctx context.Context, name string, coord models.Coordinate) (models.Stop, bool) {
	normalized := transitgraph.NormalizeStopName(name)
	if c.net.HasStop(normalized) {
		stop := models.Stop{
			Name:   normalized,
			Routes: c.net.RoutesServing(normalized),
		}
		if resolved, err := c.locator.StopCoordinate(ctx, normalized); err == nil {
			stop.Coord = &resolved
		}
		return stop, true
	}

	if coord.IsZero() {
		return models.Stop{}, false
	}
	for _, stop := range c.locator.MatchedStopsNear(ctx, coord) {
		if len(stop.Routes) > 0 {
			return stop, true
		}
	}
	return models.Stop{}, false
}

// accessSegment is a walk or auto leg between two points. Walks ride free;
// autos get the metered min/max estimate.
func accessSegment(from, to models.Coordinate, description string, night bool) models.ItinerarySegment {
	distanceKm := geo.DistanceKm(from, to)

	seg := models.ItinerarySegment{
		Description: description,
		DistanceKm:  roundKm(distanceKm),
		MapURL: fmt.Sprintf(
			"https://www.google.com/maps/dir/?api=1&origin=%f,%f&destination=%f,%f&travelmode=driving",
			from.Lat, from.Lon, to.Lat, to.Lon),
	}
	if distanceKm <= maxWalkKm {
		seg.Mode = models.ModeWalk
		zero := models.Scalar(0)
		seg.Fare = &zero
	} else {
		seg.Mode = models.ModeAuto
		estimate := fare.MinMaxFare(distanceKm, night)
		seg.Fare = &estimate
	}
	return seg
}

// cityBusSegment renders a resolved city bus connection as one segment.
func cityBusSegment(conn *cityConnection) models.ItinerarySegment {
	fareRange := conn.Option.Fare

	var description string
	legs := conn.Option.Legs
	if len(legs) == 1 {
		description = fmt.Sprintf("MTC Bus %s to %s", legs[0].RouteID, legs[0].To)
	} else {
		description = fmt.Sprintf("MTC Bus %s to %s, then Bus %s to %s",
			legs[0].RouteID, legs[0].To, legs[1].RouteID, legs[1].To)
	}

	return models.ItinerarySegment{
		Mode:        models.ModeLocalBus,
		Description: description,
		Fare:        &fareRange,
	}
}

func hubDisplayName(name string) string {
	switch name {
	case "CHENNAI EGMORE":
		return "EGMORE"
	case "CHENNAI CENTRAL":
		return "CENTRAL"
	}
	return hub.ReplaceBusTerminalNames(name)
}

func roundKm(km float64) *float64 {
	rounded := float64(int(km*10+0.5)) / 10
	return &rounded
}
