package fare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageFareLookup(t *testing.T) {
	tables := FallbackTables()

	assert.InDelta(t, 5, tables.Fare(1).Min, 1e-9)
	assert.InDelta(t, 7, tables.Fare(2).Min, 1e-9)
	assert.InDelta(t, 15, tables.Fare(2).Max, 1e-9)
	assert.InDelta(t, 40, tables.Fare(22).Min, 1e-9)
}

func TestStageFareCapsAtLastStage(t *testing.T) {
	tables := FallbackTables()

	assert.InDelta(t, 40, tables.Fare(30).Min, 1e-9)
	assert.InDelta(t, 115, tables.Fare(30).Max, 1e-9)
}

func TestStageFareGapFallsBackToLastStage(t *testing.T) {
	sparse := Tables{
		Ordinary: map[int]float64{1: 5, 3: 8, 10: 20},
		Express:  map[int]float64{1: 10, 3: 20, 10: 55},
	}

	// Stage 2 is missing from the table.
	assert.InDelta(t, 20, sparse.Fare(2).Min, 1e-9)
	assert.InDelta(t, 55, sparse.Fare(2).Max, 1e-9)
}

func TestStageFareZeroStages(t *testing.T) {
	tables := FallbackTables()

	fare := tables.Fare(0)
	assert.Zero(t, fare.Min)
	assert.Zero(t, fare.Max)
}

func TestStageFareEmptyTable(t *testing.T) {
	empty := Tables{}
	assert.Zero(t, empty.Fare(5).Min)
}

func TestAutoFareWithinBase(t *testing.T) {
	assert.InDelta(t, 50, AutoFare(1.0, false), 1e-9)
	assert.InDelta(t, 50, AutoFare(1.8, false), 1e-9)
}

func TestAutoFareBeyondBase(t *testing.T) {
	// 50 + (5 - 1.8) * 18 = 107.6, rounded to 108.
	assert.InDelta(t, 108, AutoFare(5.0, false), 1e-9)
}

func TestAutoFareNightSurcharge(t *testing.T) {
	// 107.6 * 1.5 = 161.4, rounded to 161.
	assert.InDelta(t, 161, AutoFare(5.0, true), 1e-9)
}

func TestCabFare(t *testing.T) {
	assert.InDelta(t, 100, CabFare(2.0, false), 1e-9)
	// 100 + (5 - 2) * 18 = 154.
	assert.InDelta(t, 154, CabFare(5.0, false), 1e-9)
	assert.InDelta(t, 231, CabFare(5.0, true), 1e-9)
}

func TestMinMaxFare(t *testing.T) {
	fare := MinMaxFare(5.0, false)
	assert.InDelta(t, 108, fare.Min, 1e-9)
	assert.InDelta(t, 154, fare.Max, 1e-9)
	assert.Less(t, fare.Min, fare.Max)
}

func TestIsNightHour(t *testing.T) {
	assert.True(t, IsNightHour(23))
	assert.True(t, IsNightHour(0))
	assert.True(t, IsNightHour(4))
	assert.False(t, IsNightHour(5))
	assert.False(t, IsNightHour(12))
	assert.False(t, IsNightHour(22))
}

func TestNightFromDeparture(t *testing.T) {
	assert.True(t, NightFromDeparture("23:30"))
	assert.True(t, NightFromDeparture("04:59"))
	assert.False(t, NightFromDeparture("09:15"))
	assert.False(t, NightFromDeparture("garbage"))
	assert.False(t, NightFromDeparture(""))
}
