// ============================================================================
// Overpass Client (OpenStreetMap point-of-interest queries)
// ============================================================================
// Finds bus stops, bus stands, and railway stations near a coordinate via
// the Overpass API. Nearby lookups degrade to an empty result on failure so
// a flaky Overpass mirror never sinks a whole journey search.
// ============================================================================

package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/geo"
	"github.com/yourorg/tnjourney/internal/models"
)

// Stops whose OSM names are known to be mistagged and pollute results.
var excludedStopNames = []string{"TB HOSPITAL"}

// Client talks to an Overpass API endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client for the endpoint in OVERPASS_URL
// (default: the public overpass-api.de interpreter).
func NewClient(logger *zap.Logger) *Client {
	baseURL := os.Getenv("OVERPASS_URL")
	if baseURL == "" {
		baseURL = "https://overpass-api.de/api/interpreter"
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NearbyBusStops returns named bus stops within radiusM of origin, closest
// first. A failed query is logged and returns an empty slice.
func (c *Client) NearbyBusStops(ctx context.Context, origin models.Coordinate, radiusM int) []models.Stop {
	query := fmt.Sprintf(`[out:json][timeout:10];
(
  node["highway"="bus_stop"](around:%d,%f,%f);
  node["public_transport"="platform"](around:%d,%f,%f);
);
out body;`,
		radiusM, origin.Lat, origin.Lon,
		radiusM, origin.Lat, origin.Lon)

	return c.runStopQuery(ctx, origin, query, "bus stops")
}

// NearbyTransport returns bus stands or railway stations within radiusM of
// origin, closest first. A failed query is logged and returns an empty slice.
func (c *Client) NearbyTransport(ctx context.Context, origin models.Coordinate, radiusM int, mode models.HubMode) []models.Stop {
	var query string
	switch mode {
	case models.HubTrain:
		query = fmt.Sprintf(`[out:json][timeout:10];
(
  node["railway"="station"](around:%d,%f,%f);
  node["railway"="halt"](around:%d,%f,%f);
);
out body;`,
			radiusM, origin.Lat, origin.Lon,
			radiusM, origin.Lat, origin.Lon)
	default:
		query = fmt.Sprintf(`[out:json][timeout:10];
(
  node["highway"="bus_stop"](around:%d,%f,%f);
  node["amenity"="bus_station"](around:%d,%f,%f);
  way["amenity"="bus_station"](around:%d,%f,%f);
);
out center;`,
			radiusM, origin.Lat, origin.Lon,
			radiusM, origin.Lat, origin.Lon,
			radiusM, origin.Lat, origin.Lon)
	}

	return c.runStopQuery(ctx, origin, query, string(mode)+" hubs")
}

// StopByName finds a stop by its OSM name within radiusM of origin.
// Returns models.ErrNotFound when no named node matches.
func (c *Client) StopByName(ctx context.Context, name string, origin models.Coordinate, radiusM int) (*models.Stop, error) {
	query := fmt.Sprintf(`[out:json][timeout:10];
node["name"~%q,i]["highway"="bus_stop"](around:%d,%f,%f);
out body;`,
		name, radiusM, origin.Lat, origin.Lon)

	elements, err := c.run(ctx, query)
	if err != nil {
		return nil, err
	}

	stops := c.toStops(origin, elements)
	if len(stops) == 0 {
		return nil, fmt.Errorf("stop %q: %w", name, models.ErrNotFound)
	}
	return &stops[0], nil
}

func (c *Client) runStopQuery(ctx context.Context, origin models.Coordinate, query, what string) []models.Stop {
	elements, err := c.run(ctx, query)
	if err != nil {
		c.logger.Warn("overpass query failed",
			zap.String("what", what),
			zap.Error(err))
		return nil
	}
	return c.toStops(origin, elements)
}

func (c *Client) run(ctx context.Context, query string) ([]overpassElement, error) {
	form := url.Values{}
	form.Add("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("overpass: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "TNJourney/1.0 (multimodal journey planner)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("overpass: read response: %w", err)
	}

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("overpass: parse response: %w", err)
	}
	return parsed.Elements, nil
}

// toStops converts elements into named stops sorted by distance from origin.
// Unnamed nodes and known bad names are dropped.
func (c *Client) toStops(origin models.Coordinate, elements []overpassElement) []models.Stop {
	var stops []models.Stop
	seen := make(map[string]bool)

	for _, el := range elements {
		name := strings.TrimSpace(el.Tags["name"])
		if name == "" || seen[name] || isExcludedName(name) {
			continue
		}

		lat, lon := el.Lat, el.Lon
		if el.Center != nil {
			lat, lon = el.Center.Lat, el.Center.Lon
		}
		if lat == 0 && lon == 0 {
			continue
		}

		seen[name] = true
		coord := models.Coordinate{Lat: lat, Lon: lon}
		stops = append(stops, models.Stop{
			Name:      name,
			Coord:     &coord,
			DistanceM: geo.DistanceM(origin, coord),
		})
	}

	sort.Slice(stops, func(i, j int) bool {
		return stops[i].DistanceM < stops[j].DistanceM
	})
	return stops
}

func isExcludedName(name string) bool {
	upper := strings.ToUpper(name)
	for _, bad := range excludedStopNames {
		if strings.Contains(upper, bad) {
			return true
		}
	}
	return false
}
