package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &Client{
		baseURL:    server.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     zap.NewNop(),
	}
}

func TestNearbyBusStopsSortsAndFilters(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":13.09,"lon":80.21,"tags":{"name":"FAR STOP"}},
			{"type":"node","id":2,"lat":13.081,"lon":80.201,"tags":{"name":"NEAR STOP"}},
			{"type":"node","id":3,"lat":13.082,"lon":80.202,"tags":{"name":"TB HOSPITAL GATE"}},
			{"type":"node","id":4,"lat":13.083,"lon":80.203,"tags":{}}
		]}`))
	})

	origin := models.Coordinate{Lat: 13.08, Lon: 80.20}
	stops := client.NearbyBusStops(context.Background(), origin, 1000)

	require.Len(t, stops, 2)
	assert.Equal(t, "NEAR STOP", stops[0].Name)
	assert.Equal(t, "FAR STOP", stops[1].Name)
	assert.Less(t, stops[0].DistanceM, stops[1].DistanceM)
}

func TestNearbyBusStopsSwallowsFailure(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	})

	stops := client.NearbyBusStops(context.Background(), models.Coordinate{Lat: 13, Lon: 80}, 500)
	assert.Empty(t, stops)
}

func TestNearbyTransportUsesWayCenters(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[
			{"type":"way","id":9,"center":{"lat":13.07,"lon":80.26},"tags":{"name":"BROADWAY BUS STAND"}}
		]}`))
	})

	stops := client.NearbyTransport(context.Background(), models.Coordinate{Lat: 13.08, Lon: 80.27}, 2000, models.HubBus)
	require.Len(t, stops, 1)
	assert.Equal(t, "BROADWAY BUS STAND", stops[0].Name)
	assert.InDelta(t, 13.07, stops[0].Coord.Lat, 1e-9)
}

func TestStopByNameNotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[]}`))
	})

	_, err := client.StopByName(context.Background(), "NONEXISTENT", models.Coordinate{Lat: 13, Lon: 80}, 30000)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
