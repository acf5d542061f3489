package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/hub"
	"github.com/yourorg/tnjourney/internal/models"
	"github.com/yourorg/tnjourney/internal/providers"
)

type fakeResolver struct {
	coords   map[string]models.Coordinate
	stations map[string]models.Coordinate
	cities   map[string]string
}

func (f *fakeResolver) Resolve(_ context.Context, text string) (models.Coordinate, error) {
	if coord, ok := f.coords[strings.ToLower(text)]; ok {
		return coord, nil
	}
	return models.Coordinate{}, fmt.Errorf("place %q: %w", text, models.ErrNotFound)
}

func (f *fakeResolver) ResolveStation(_ context.Context, name string) (models.Coordinate, error) {
	if coord, ok := f.stations[strings.ToLower(name)]; ok {
		return coord, nil
	}
	return models.Coordinate{}, fmt.Errorf("station %q: %w", name, models.ErrNotFound)
}

func (f *fakeResolver) CityFor(_ context.Context, coord models.Coordinate) (string, error) {
	if city, ok := f.cities[coord.String()]; ok {
		return city, nil
	}
	return "", models.ErrNotFound
}

type fakeHubs struct {
	stands   map[string]*models.Hub
	stations []*models.Hub
}

func (f *fakeHubs) BestBusStand(_ context.Context, city string, _ models.Coordinate) (*models.Hub, error) {
	if h, ok := f.stands[strings.ToLower(city)]; ok {
		return h, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeHubs) BestStation(_ context.Context, ref models.Coordinate) (*models.Hub, error) {
	for _, h := range f.stations {
		if h.Coord.Lat > ref.Lat-1 && h.Coord.Lat < ref.Lat+1 {
			return h, nil
		}
	}
	return nil, models.ErrNotFound
}

type fakeAdapter struct {
	name      string
	schedules []models.Schedule
	err       error
	calls     [][2]string
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Search(_ context.Context, source, dest string, _ time.Time) ([]models.Schedule, error) {
	f.calls = append(f.calls, [2]string{source, dest})
	return f.schedules, f.err
}

type fakeTrains struct {
	schedules []models.Schedule
	from, to  string
}

func (f *fakeTrains) Search(_ context.Context, sourceCode, destCode string, _ time.Time) ([]models.Schedule, error) {
	f.from, f.to = sourceCode, destCode
	return f.schedules, nil
}

type fakeRecorder struct {
	requestID string
	count     int
}

func (f *fakeRecorder) Record(_ context.Context, requestID, _, _ string, _ time.Time, _ string, itineraries []models.Itinerary) error {
	f.requestID = requestID
	f.count = len(itineraries)
	return nil
}

const stationCSV = `name,code
CHENNAI CENTRAL,MAS
CHENNAI EGMORE,MS
MADURAI JN,MDU
`

func testStations(t *testing.T) *hub.StationTable {
	t.Helper()
	table, err := hub.LoadStationTable(strings.NewReader(stationCSV))
	require.NoError(t, err)
	return table
}

var (
	velacheryCoord = models.Coordinate{Lat: 12.9791, Lon: 80.2212}
	chennaiCoord   = models.Coordinate{Lat: 13.0827, Lon: 80.2707}
	maduraiCoord   = models.Coordinate{Lat: 9.9252, Lon: 78.1198}
)

func testResolver() *fakeResolver {
	return &fakeResolver{
		coords: map[string]models.Coordinate{
			"velachery, chennai": velacheryCoord,
			"chennai":            chennaiCoord,
			"madurai":            maduraiCoord,
		},
		cities: map[string]string{maduraiCoord.String(): "Madurai"},
	}
}

func testBusHubs() *fakeHubs {
	return &fakeHubs{stands: map[string]*models.Hub{
		"chennai": {Name: "CHENNAI BUS TERMINAL", Coord: models.Coordinate{Lat: 13.0694, Lon: 80.1948}, Mode: models.HubBus},
		"madurai": {Name: "MADURAI BUS STAND", Coord: models.Coordinate{Lat: 9.9335, Lon: 78.1201}, Mode: models.HubBus},
	}}
}

func busSchedule(operator, departure string) models.Schedule {
	return models.Schedule{
		Provider:  "TNSTC",
		Operator:  operator,
		Departure: departure,
		Arrival:   "16:00",
		Duration:  "7h 30m",
		FareText:  "₹450",
	}
}

func TestSearchBusJourney(t *testing.T) {
	tnstc := &fakeAdapter{name: "TNSTC", schedules: []models.Schedule{
		busSchedule("TNSTC Ultra Deluxe", "08:30"),
		busSchedule("TNSTC AC Sleeper", "22:00"),
	}}
	rec := &fakeRecorder{}

	composer := testComposer(t, "12:CMBT, Anna Nagar, T Nagar", nil)
	p := NewPlanner(testResolver(), testBusHubs(), testStations(t),
		[]providers.Adapter{tnstc}, nil, composer, rec, zap.NewNop())

	resp, err := p.Search(context.Background(), Request{
		Source: "Velachery, Chennai",
		Dest:   "Madurai",
		Date:   time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC),
		Mode:   ModeBus,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "Chennai", resp.SourceCity)
	assert.Equal(t, "Madurai", resp.DestCity)
	require.Len(t, resp.Itineraries, 2)

	it := resp.Itineraries[0]
	assert.Equal(t, "TNSTC Ultra Deluxe", it.Schedule.Operator)
	assert.True(t, strings.HasPrefix(it.TotalCost, "₹"))
	require.GreaterOrEqual(t, len(it.Segments), 4)
	assert.Equal(t, models.ModeStart, it.Segments[0].Mode)

	assert.Equal(t, rec.requestID, resp.RequestID)
	assert.Equal(t, 2, rec.count)
}

func TestSearchDedupesAcrossProviders(t *testing.T) {
	shared := busSchedule("KPN Travels", "09:00")
	tnstc := &fakeAdapter{name: "TNSTC", schedules: []models.Schedule{shared}}
	abhi := &fakeAdapter{name: "AbhiBus", schedules: []models.Schedule{
		shared,
		busSchedule("Parveen Travels", "10:15"),
	}}

	composer := testComposer(t, "12:CMBT, Anna Nagar", nil)
	p := NewPlanner(testResolver(), testBusHubs(), testStations(t),
		[]providers.Adapter{tnstc, abhi}, nil, composer, nil, zap.NewNop())

	resp, err := p.Search(context.Background(), Request{
		Source: "Velachery, Chennai",
		Dest:   "Madurai",
		Date:   time.Now(),
		Mode:   ModeBus,
	})

	require.NoError(t, err)
	assert.Len(t, resp.Itineraries, 2)
}

func TestSearchTNSTCNameVariants(t *testing.T) {
	tnstc := &fakeAdapter{name: "TNSTC"} // always empty
	composer := testComposer(t, "12:CMBT, Anna Nagar", nil)
	p := NewPlanner(testResolver(), testBusHubs(), testStations(t),
		[]providers.Adapter{tnstc}, nil, composer, nil, zap.NewNop())

	_, err := p.Search(context.Background(), Request{
		Source: "Velachery, Chennai",
		Dest:   "Madurai",
		Date:   time.Now(),
		Mode:   ModeBus,
	})

	require.ErrorIs(t, err, ErrNoRoutes)
	assert.Equal(t, [][2]string{
		{"Chennai", "Madurai"},
		{"Chennai", "Madurai Bus Stand"},
		{"Chennai Bus Stand", "Madurai"},
		{"Chennai Bus Stand", "Madurai Bus Stand"},
	}, tnstc.calls)
}

func TestSearchTrainJourney(t *testing.T) {
	hubs := testBusHubs()
	hubs.stations = []*models.Hub{
		{Name: "CHENNAI EGMORE", Coord: models.Coordinate{Lat: 13.0732, Lon: 80.2609}, Mode: models.HubTrain},
		{Name: "MADURAI JUNCTION", Coord: models.Coordinate{Lat: 9.9178, Lon: 78.1107}, Mode: models.HubTrain},
	}
	trains := &fakeTrains{schedules: []models.Schedule{{
		Provider:  "IRCTC",
		Operator:  "12635 VAIGAI EXP (SF)",
		Departure: "13:40",
		Arrival:   "21:20",
		Duration:  "7:40",
		FareText:  "N/A",
	}}}

	composer := testComposer(t, "12:CMBT, Anna Nagar", nil)
	p := NewPlanner(testResolver(), hubs, testStations(t),
		nil, trains, composer, nil, zap.NewNop())

	resp, err := p.Search(context.Background(), Request{
		Source: "Velachery, Chennai",
		Dest:   "Madurai",
		Date:   time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC),
		Mode:   ModeTrain,
	})

	require.NoError(t, err)
	assert.Equal(t, "MS", trains.from)
	assert.Equal(t, "MDU", trains.to)
	require.Len(t, resp.Itineraries, 1)
	assert.Contains(t, resp.Itineraries[0].Segments[2].Description, "Train to")
}

func TestSearchStationGeocodeFallback(t *testing.T) {
	hubs := testBusHubs()
	hubs.stations = []*models.Hub{
		{Name: "MADURAI JUNCTION", Coord: models.Coordinate{Lat: 9.9178, Lon: 78.1107}, Mode: models.HubTrain},
	}
	resolver := testResolver()
	resolver.stations = map[string]models.Coordinate{
		"chennai": {Lat: 13.0732, Lon: 80.2609},
	}
	trains := &fakeTrains{schedules: []models.Schedule{{
		Provider: "IRCTC", Operator: "12693 PEARL CITY EXP", Departure: "21:40",
		Arrival: "06:00", Duration: "8:20", FareText: "N/A",
	}}}

	composer := testComposer(t, "12:CMBT, Anna Nagar", nil)
	p := NewPlanner(resolver, hubs, testStations(t),
		nil, trains, composer, nil, zap.NewNop())

	resp, err := p.Search(context.Background(), Request{
		Source: "Velachery, Chennai",
		Dest:   "Madurai",
		Date:   time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC),
		Mode:   ModeTrain,
	})

	// No station is tagged near the source, so the hub comes from geocoding
	// and Chennai collapses to Egmore.
	require.NoError(t, err)
	assert.Equal(t, "MS", trains.from)
	assert.Equal(t, "MDU", trains.to)
	require.Len(t, resp.Itineraries, 1)
}

func TestSearchUnresolvedSource(t *testing.T) {
	composer := testComposer(t, "12:CMBT, Anna Nagar", nil)
	p := NewPlanner(testResolver(), testBusHubs(), testStations(t),
		nil, nil, composer, nil, zap.NewNop())

	_, err := p.Search(context.Background(), Request{
		Source: "Nowhere Special",
		Dest:   "Madurai",
		Mode:   ModeBus,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not locate")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStationCodeChennaiFallback(t *testing.T) {
	p := &Planner{stations: testStations(t), logger: zap.NewNop()}

	code, err := p.stationCode("CHENNAI BEACH")
	require.NoError(t, err)
	assert.Equal(t, "MAS", code)

	_, err = p.stationCode("TIMBUKTU")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestProviderErrorsAreSkipped(t *testing.T) {
	failing := &fakeAdapter{name: "RedBus", err: errors.New("timeout")}
	working := &fakeAdapter{name: "AbhiBus", schedules: []models.Schedule{
		busSchedule("SETC", "07:00"),
	}}

	composer := testComposer(t, "12:CMBT, Anna Nagar", nil)
	p := NewPlanner(testResolver(), testBusHubs(), testStations(t),
		[]providers.Adapter{failing, working}, nil, composer, nil, zap.NewNop())

	resp, err := p.Search(context.Background(), Request{
		Source: "Velachery, Chennai",
		Dest:   "Madurai",
		Mode:   ModeBus,
	})

	require.NoError(t, err)
	assert.Len(t, resp.Itineraries, 1)
}
