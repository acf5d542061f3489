// ============================================================================
// Nominatim Client (OpenStreetMap geocoding)
// ============================================================================
// Forward and reverse geocoding against a Nominatim endpoint. Requests carry
// the mandatory User-Agent and are rate limited to the public endpoint's
// 1 request/second policy.
// ============================================================================

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourorg/tnjourney/internal/models"
	"github.com/yourorg/tnjourney/internal/validation"
)

const userAgent = "TNJourney/1.0 (multimodal journey planner)"

// Place is a geocoder hit: a coordinate plus whatever address detail the
// service returned.
type Place struct {
	Coord       models.Coordinate
	DisplayName string
	Address     map[string]string
}

type nominatimResult struct {
	PlaceID     int64             `json:"place_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
	Address     map[string]string `json:"address"`
}

// NominatimClient talks to a Nominatim instance.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewNominatimClient builds a client for the endpoint in NOMINATIM_URL
// (default: the public openstreetmap.org instance).
func NewNominatimClient(logger *zap.Logger) *NominatimClient {
	baseURL := os.Getenv("NOMINATIM_URL")
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}

	return &NominatimClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger,
	}
}

// Geocode resolves free text to the best single hit, restricted to India.
// Returns models.ErrNotFound when the service has no match.
func (c *NominatimClient) Geocode(ctx context.Context, query string) (*Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("addressdetails", "1")
	params.Add("countrycodes", "in")

	var results []nominatimResult
	if err := c.getJSON(ctx, c.baseURL+"/search?"+params.Encode(), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, models.ErrNotFound
	}

	return resultToPlace(results[0])
}

// Reverse converts a coordinate to the containing place.
func (c *NominatimClient) Reverse(ctx context.Context, coord models.Coordinate) (*Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("lat", fmt.Sprintf("%.6f", coord.Lat))
	params.Add("lon", fmt.Sprintf("%.6f", coord.Lon))
	params.Add("format", "json")
	params.Add("addressdetails", "1")

	var result nominatimResult
	if err := c.getJSON(ctx, c.baseURL+"/reverse?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	if result.Lat == "" && result.DisplayName == "" {
		return nil, models.ErrNotFound
	}

	return resultToPlace(result)
}

func (c *NominatimClient) getJSON(ctx context.Context, fullURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode: service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("geocode: read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("geocode: parse response: %w", err)
	}
	return nil
}

func resultToPlace(r nominatimResult) (*Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad latitude %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad longitude %q: %w", r.Lon, err)
	}
	if err := validation.ValidateCoordinatePair(lat, lon, "geocode"); err != nil {
		return nil, err
	}

	return &Place{
		Coord:       models.Coordinate{Lat: lat, Lon: lon},
		DisplayName: r.DisplayName,
		Address:     r.Address,
	}, nil
}
