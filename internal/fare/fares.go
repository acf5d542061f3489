// ============================================================================
// Fare Rules
// ============================================================================
// City bus fares are staged: the price depends on how many stops the ride
// covers, looked up in per-class tables. Auto rickshaw and cab fares follow
// the metered tariff with a 50% night surcharge between 11 PM and 5 AM.
// ============================================================================

package fare

import (
	"math"
	"strconv"
	"strings"

	"github.com/yourorg/tnjourney/internal/models"
)

// Metered tariff constants.
const (
	autoBaseFare   = 50.0
	autoBaseKm     = 1.8
	autoPerKm      = 18.0
	cabBaseFare    = 100.0
	cabBaseKm      = 2.0
	cabPerKm       = 18.0
	nightSurcharge = 1.5
)

// Tables holds the staged bus fares for ordinary and express service.
type Tables struct {
	Ordinary map[int]float64
	Express  map[int]float64
}

// Fare prices a ride of the given stage count: ordinary as the minimum,
// express as the maximum. Zero stages ride free.
func (t Tables) Fare(stages int) models.Fare {
	return models.Fare{
		Min: stageFare(t.Ordinary, stages),
		Max: stageFare(t.Express, stages),
	}
}

// stageFare looks up the fare for a stage count. Counts beyond the last
// stage pay the last-stage fare, and gaps in the table fall back to it too.
func stageFare(table map[int]float64, stages int) float64 {
	if len(table) == 0 || stages <= 0 {
		return 0
	}

	maxStage := 0
	for stage := range table {
		if stage > maxStage {
			maxStage = stage
		}
	}
	if stages >= maxStage {
		return table[maxStage]
	}
	if fare, ok := table[stages]; ok {
		return fare
	}
	return table[maxStage]
}

// AutoFare is the metered auto rickshaw fare for a trip, rounded to the
// nearest rupee.
func AutoFare(distanceKm float64, night bool) float64 {
	return meteredFare(distanceKm, autoBaseFare, autoBaseKm, autoPerKm, night)
}

// CabFare is the metered cab fare for a trip, rounded to the nearest rupee.
func CabFare(distanceKm float64, night bool) float64 {
	return meteredFare(distanceKm, cabBaseFare, cabBaseKm, cabPerKm, night)
}

// MinMaxFare brackets a point-to-point trip: auto as the cheap option, cab
// as the expensive one.
func MinMaxFare(distanceKm float64, night bool) models.Fare {
	return models.Fare{
		Min: AutoFare(distanceKm, night),
		Max: CabFare(distanceKm, night),
	}
}

func meteredFare(distanceKm, baseFare, baseKm, perKm float64, night bool) float64 {
	fare := baseFare
	if distanceKm > baseKm {
		fare += (distanceKm - baseKm) * perKm
	}
	if night {
		fare *= nightSurcharge
	}
	return math.Round(fare)
}

// IsNightHour reports whether the hour falls in the surcharge window,
// 11 PM through 5 AM.
func IsNightHour(hour int) bool {
	return hour >= 23 || hour < 5
}

// NightFromDeparture reads an "HH:MM" departure time and reports whether it
// falls in the night window. Unparseable times count as daytime.
func NightFromDeparture(departure string) bool {
	hourText, _, ok := strings.Cut(departure, ":")
	if !ok {
		return false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hourText))
	if err != nil {
		return false
	}
	return IsNightHour(hour)
}
