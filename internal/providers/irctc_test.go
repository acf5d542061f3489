package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/retry"
)

func TestIRCTCSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req irctcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "MAS", req.SrcStn)
		assert.Equal(t, "MDU", req.DestStn)
		assert.Equal(t, "20250627", req.JrnyDate)
		assert.Equal(t, "GN", req.QuotaCode)

		w.Write([]byte(`{"trainBtwnStnsList":[{
			"trainNumber":"12635",
			"trainName":"VAIGAI EXP",
			"departureTime":"13:40",
			"arrivalTime":"21:20",
			"duration":"7:40",
			"avlClasses":["CC","2S"],
			"trainType":["SF"]
		}]}`))
	}))
	defer server.Close()

	adapter := &IRCTC{
		apiURL:     server.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		retrier:    retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
		logger:     zap.NewNop(),
	}

	schedules, err := adapter.Search(context.Background(), "MAS", "MDU", time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	s := schedules[0]
	assert.Equal(t, "IRCTC", s.Provider)
	assert.Equal(t, "12635 VAIGAI EXP (SF)", s.Operator)
	assert.Equal(t, "13:40", s.Departure)
	assert.Equal(t, "21:20", s.Arrival)
	assert.Equal(t, "CC, 2S", s.Class)
	assert.Equal(t, "N/A", s.FareText)
}

func TestIRCTCRetriesOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"trainBtwnStnsList":[]}`))
	}))
	defer server.Close()

	adapter := &IRCTC{
		apiURL:     server.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		retrier:    retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		logger:     zap.NewNop(),
	}

	schedules, err := adapter.Search(context.Background(), "MAS", "MDU", time.Now())
	require.NoError(t, err)
	assert.Empty(t, schedules)
	assert.Equal(t, 2, attempts)
}

func TestParseRedBusSchedules(t *testing.T) {
	html := `<html><div class="sectionWrapper__abc123">
	<ul>
	<li>
	  <div class="travelsName__x1">KPN Travels</div>
	  <div class="timeFareBoWrap__x2">
	    <p class="boardingTime__x3">22:15</p>
	    <p class="droppingTime__x4">06:05</p>
	    <p class="duration__x5">7h 50m</p>
	    <p class="finalFare__x6">₹650</p>
	  </div>
	</li>
	<li><div class="somethingElse">ad banner</div></li>
	</ul>
	</div></html>`

	schedules, err := parseRedBusSchedules(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	s := schedules[0]
	assert.Equal(t, "RedBus", s.Provider)
	assert.Equal(t, "KPN Travels", s.Operator)
	assert.Equal(t, "22:15", s.Departure)
	assert.Equal(t, "06:05", s.Arrival)
	assert.Equal(t, "₹650", s.FareText)
}

func TestParseAbhiBusSchedules(t *testing.T) {
	html := `<html><div class="container card service light rounded-md">
	  <h5 class="title">Parveen Travels</h5>
	  <div class="operator-info"><div class="sub-title">AC Seater</div></div>
	  <span class="departure-time">23:00</span>
	  <span class="arrival-time">05:45</span>
	  <div class="travel-time">6h 45m</div>
	  <span class="fare">₹720</span>
	</div></html>`

	schedules, err := parseAbhiBusSchedules(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	s := schedules[0]
	assert.Equal(t, "AbhiBus", s.Provider)
	assert.Equal(t, "Parveen Travels", s.Operator)
	assert.Equal(t, "AC Seater", s.Class)
	assert.Equal(t, "₹720", s.FareText)
}
