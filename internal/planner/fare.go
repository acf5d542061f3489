package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourorg/tnjourney/internal/models"
)

var fareAmountPattern = regexp.MustCompile(`₹?(\d+[.,]?\d*)`)

// ParseFareAmount extracts the rupee amount from provider fare text like
// "₹450" or "Rs 1,250". Text without an amount yields zero.
func ParseFareAmount(text string) float64 {
	match := fareAmountPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return value
}

// AggregateFare totals an itinerary. Segment fares after the start marker
// are summed, and the provider's quoted fare is absorbed into the first
// intercity segment that has no fare of its own. Returns the formatted cost
// band and the updated segments.
func AggregateFare(segments []models.ItinerarySegment, providerFare string) (string, []models.ItinerarySegment) {
	var totalMin, totalMax float64
	for _, seg := range segments[1:] {
		if seg.Fare != nil {
			totalMin += seg.Fare.Min
			totalMax += seg.Fare.Max
		}
	}

	providerValue := ParseFareAmount(providerFare)
	for i := range segments {
		seg := &segments[i]
		if seg.Fare != nil {
			continue
		}
		if seg.Mode != models.ModeIntercityBus && seg.Mode != models.ModeIntercityTrain && seg.Mode != models.ModeLocalBus {
			continue
		}
		fare := models.Scalar(providerValue)
		seg.Fare = &fare
		totalMin += providerValue
		totalMax += providerValue
		break
	}

	return fmt.Sprintf("₹%.0f - ₹%.0f", totalMin, totalMax), segments
}
