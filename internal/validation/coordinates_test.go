package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLatitude(t *testing.T) {
	assert.NoError(t, ValidateLatitude(13.0827, "lat"))
	assert.NoError(t, ValidateLatitude(-90, "lat"))
	assert.NoError(t, ValidateLatitude(90, "lat"))

	assert.Error(t, ValidateLatitude(90.1, "lat"))
	assert.Error(t, ValidateLatitude(math.NaN(), "lat"))
	assert.Error(t, ValidateLatitude(math.Inf(1), "lat"))
}

func TestValidateLongitude(t *testing.T) {
	assert.NoError(t, ValidateLongitude(80.2707, "lon"))
	assert.Error(t, ValidateLongitude(-180.5, "lon"))
	assert.Error(t, ValidateLongitude(math.NaN(), "lon"))
}

func TestValidateCoordinatePairFieldNames(t *testing.T) {
	err := ValidateCoordinatePair(95, 80, "source")
	assert.Error(t, err)

	cerr, ok := err.(*CoordinateError)
	assert.True(t, ok)
	assert.Equal(t, "source_lat", cerr.Field)
}

func TestValidateTamilNaduRegion(t *testing.T) {
	// Chennai
	assert.NoError(t, ValidateTamilNaduRegion(13.0827, 80.2707))
	// Delhi is well outside
	assert.Error(t, ValidateTamilNaduRegion(28.6139, 77.2090))
}
