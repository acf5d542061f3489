package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/models"
)

// PhotonClient is a reverse geocoder backed by a Photon (komoot) instance.
// It is preferred for city lookups because its responses carry cleaner
// locality fields than Nominatim's.
type PhotonClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPhotonClient builds a client for the endpoint in PHOTON_URL
// (default: the public photon.komoot.io instance).
func NewPhotonClient(logger *zap.Logger) *PhotonClient {
	baseURL := os.Getenv("PHOTON_URL")
	if baseURL == "" {
		baseURL = "https://photon.komoot.io"
	}

	return &PhotonClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type photonResponse struct {
	Features []struct {
		Properties map[string]interface{} `json:"properties"`
	} `json:"features"`
}

// Reverse converts a coordinate to a place. The address map holds the string
// properties of the nearest feature (city, district, county, state, name).
func (c *PhotonClient) Reverse(ctx context.Context, coord models.Coordinate) (*Place, error) {
	params := url.Values{}
	params.Add("lat", fmt.Sprintf("%.6f", coord.Lat))
	params.Add("lon", fmt.Sprintf("%.6f", coord.Lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: photon request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: photon returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("geocode: read response: %w", err)
	}

	var parsed photonResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("geocode: parse response: %w", err)
	}
	if len(parsed.Features) == 0 {
		return nil, models.ErrNotFound
	}

	address := make(map[string]string)
	for key, value := range parsed.Features[0].Properties {
		if s, ok := value.(string); ok {
			address[key] = s
		}
	}

	return &Place{
		Coord:       coord,
		DisplayName: address["name"],
		Address:     address,
	}, nil
}
