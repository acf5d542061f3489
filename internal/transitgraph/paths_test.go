package transitgraph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/tnjourney/internal/models"
)

// stubFares prices legs from fixed ordinary and express tables.
type stubFares struct {
	ordinary map[int]float64
	express  map[int]float64
}

func (s stubFares) Fare(stages int) models.Fare {
	return models.Fare{Min: s.ordinary[stages], Max: s.express[stages]}
}

func testFares() stubFares {
	return stubFares{
		ordinary: map[int]float64{1: 5, 2: 7, 3: 8, 4: 10},
		express:  map[int]float64{1: 10, 2: 15, 3: 20, 4: 25},
	}
}

func mustNetwork(t *testing.T, feed string) *Network {
	t.Helper()
	net, err := ParseNetwork(strings.NewReader(feed))
	require.NoError(t, err)
	return net
}

func TestFindPathsDirect(t *testing.T) {
	net := mustNetwork(t, "12:Central, Anna Nagar, CMBT\n")

	options := net.FindPaths(context.Background(), "CENTRAL", "CMBT", testFares())
	require.Len(t, options, 1)
	require.Len(t, options[0].Legs, 1)
	assert.Equal(t, "12", options[0].Legs[0].RouteID)
	assert.Equal(t, 2, options[0].Legs[0].Stages)
	assert.InDelta(t, 7, options[0].Fare.Min, 1e-9)
}

func TestFindPathsDirectReverseDirection(t *testing.T) {
	net := mustNetwork(t, "12:Central, Anna Nagar, CMBT\n")

	options := net.FindPaths(context.Background(), "CMBT", "CENTRAL", testFares())
	require.Len(t, options, 1)
	assert.Equal(t, 2, options[0].Legs[0].Stages)
}

func TestFindPathsWithTransfer(t *testing.T) {
	feed := "12:Central, Anna Nagar, CMBT\n45:CMBT, T Nagar, Guindy\n"
	net := mustNetwork(t, feed)

	options := net.FindPaths(context.Background(), "CENTRAL", "GUINDY", testFares())
	require.NotEmpty(t, options)

	best := options[0]
	require.Len(t, best.Legs, 2)
	assert.Equal(t, "12", best.Legs[0].RouteID)
	assert.Equal(t, "CMBT", best.Legs[0].To)
	assert.Equal(t, "45", best.Legs[1].RouteID)
	assert.InDelta(t, 14, best.Fare.Min, 1e-9)
}

func TestFindPathsPrefersCheapestDirect(t *testing.T) {
	// Route 7 reaches the destination in one stage, route 8 takes three.
	feed := "8:A, X, Y, B\n7:A, B\n"
	net := mustNetwork(t, feed)

	options := net.FindPaths(context.Background(), "A", "B", testFares())
	require.Len(t, options, 2)
	assert.Equal(t, "7", options[0].Legs[0].RouteID)
	assert.InDelta(t, 5, options[0].Fare.Min, 1e-9)
}

func TestFindPathsSameStop(t *testing.T) {
	net := mustNetwork(t, "12:Central, Anna Nagar, CMBT\n")

	options := net.FindPaths(context.Background(), "CMBT", "CMBT", testFares())
	require.Len(t, options, 1)
	assert.Equal(t, 0, options[0].Legs[0].Stages)
	assert.Zero(t, options[0].Fare.Min)
	assert.Zero(t, options[0].Fare.Max)
}

func TestFindPathsUnknownStop(t *testing.T) {
	net := mustNetwork(t, "12:Central, Anna Nagar, CMBT\n")

	assert.Empty(t, net.FindPaths(context.Background(), "CENTRAL", "NOWHERE", testFares()))
}

func TestPreferredPathFavorsDirectOverCheaperTransfer(t *testing.T) {
	// The direct route takes 4 stages; a transfer via X would cost less with
	// these tables but the direct route still wins.
	feed := "9:A, P, Q, R, B\n1:A, X\n2:X, B\n"
	net := mustNetwork(t, feed)

	best, ok := net.PreferredPath(context.Background(), "A", "B", testFares())
	require.True(t, ok)
	require.Len(t, best.Legs, 1)
	assert.Equal(t, "9", best.Legs[0].RouteID)
}

func TestPreferredPathUsesCheapestTransfer(t *testing.T) {
	feed := "12:Central, Anna Nagar, CMBT\n45:CMBT, T Nagar, Guindy\n"
	net := mustNetwork(t, feed)

	best, ok := net.PreferredPath(context.Background(), "CENTRAL", "GUINDY", testFares())
	require.True(t, ok)
	require.Len(t, best.Legs, 2)
	assert.Equal(t, "CMBT", best.Legs[0].To)
}

func TestCheapestPath(t *testing.T) {
	feed := "12:Central, Anna Nagar, CMBT\n45:CMBT, T Nagar, Guindy\n"
	net := mustNetwork(t, feed)

	best, ok := net.CheapestPath(context.Background(), "CENTRAL", "GUINDY", testFares())
	require.True(t, ok)
	assert.Len(t, best.Legs, 2)

	_, ok = net.CheapestPath(context.Background(), "CENTRAL", "NOWHERE", testFares())
	assert.False(t, ok)
}
