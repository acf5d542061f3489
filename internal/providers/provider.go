// ============================================================================
// Intercity Schedule Providers
// ============================================================================
// One adapter per operator network. Adapters take plain place names (station
// codes for rail) and a travel date, and return whatever schedules the
// operator publishes. An adapter that finds nothing returns an empty slice,
// not an error; errors are for transport failures.
// ============================================================================

package providers

import (
	"context"
	"strings"
	"time"

	"github.com/yourorg/tnjourney/internal/models"
)

// Adapter searches one operator network for schedules.
type Adapter interface {
	Name() string
	Search(ctx context.Context, source, dest string, date time.Time) ([]models.Schedule, error)
}

// Date formats the booking sites expect.
func TNSTCDate(t time.Time) string   { return t.Format("02/01/2006") }
func AbhiBusDate(t time.Time) string { return t.Format("02-01-2006") }
func RedBusDate(t time.Time) string  { return t.Format("02-Jan-2006") }
func IRCTCDate(t time.Time) string   { return t.Format("20060102") }

// DedupeKey identifies a schedule across searches so the same service is not
// listed twice.
func DedupeKey(s models.Schedule) string {
	return strings.Join([]string{s.Provider, s.Operator, s.Departure, s.Arrival}, "|")
}

// Registry holds bus adapters in the order they are searched.
type Registry struct {
	adapters []Adapter
}

// NewRegistry builds a registry. Order matters: earlier adapters get first
// claim on duplicate services.
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// Adapters returns the registered adapters in search order.
func (r *Registry) Adapters() []Adapter {
	return r.adapters
}
