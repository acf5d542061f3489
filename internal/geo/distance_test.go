package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/tnjourney/internal/models"
)

func TestDistanceZero(t *testing.T) {
	p := models.Coordinate{Lat: 13.0827, Lon: 80.2707}
	assert.Equal(t, 0.0, DistanceM(p, p))
}

func TestDistanceChennaiMadurai(t *testing.T) {
	chennai := models.Coordinate{Lat: 13.0827, Lon: 80.2707}
	madurai := models.Coordinate{Lat: 9.9252, Lon: 78.1198}

	// Straight-line distance is roughly 420 km.
	km := DistanceKm(chennai, madurai)
	assert.InDelta(t, 420, km, 15)
}

func TestDistanceSymmetric(t *testing.T) {
	a := models.Coordinate{Lat: 13.0674, Lon: 80.2376}
	b := models.Coordinate{Lat: 13.0108, Lon: 80.2339}
	assert.InDelta(t, DistanceM(a, b), DistanceM(b, a), 1e-9)
}
