// ============================================================================
// Place Resolver
// ============================================================================
// Turns user-typed place text into coordinates, and coordinates back into
// city names. Free text rarely matches the geocoder on the first try, so the
// resolver walks a chain of progressively simpler variants before giving up.
// ============================================================================

package geocode

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/models"
)

// Geocoder is the forward lookup the resolver depends on.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Place, error)
	Reverse(ctx context.Context, coord models.Coordinate) (*Place, error)
}

// ReverseGeocoder is the coordinate-to-place lookup used for city names.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, coord models.Coordinate) (*Place, error)
}

// Localities that mean the reverse geocoder gave us nothing usable.
var genericLocalities = map[string]bool{
	"":        true,
	"india":   true,
	"country": true,
}

// Address keys checked when extracting a city, most specific first.
var cityKeys = []string{"city", "town", "village", "suburb", "district", "county", "state_district", "state"}

// Resolver resolves place text via a primary geocoder, with a secondary
// reverse geocoder preferred for city lookups.
type Resolver struct {
	primary Geocoder
	reverse ReverseGeocoder
	logger  *zap.Logger
}

// NewResolver wires a resolver. The reverse geocoder may be nil, in which
// case city lookups go straight to the primary.
func NewResolver(primary Geocoder, reverse ReverseGeocoder, logger *zap.Logger) *Resolver {
	return &Resolver{
		primary: primary,
		reverse: reverse,
		logger:  logger,
	}
}

// Resolve converts free text to a coordinate. It tries the literal text, then
// a simplified form with house numbers and pincodes stripped, then just the
// locality. Returns models.ErrNotFound when no variant matches.
func (r *Resolver) Resolve(ctx context.Context, text string) (models.Coordinate, error) {
	return r.resolveVariants(ctx, text, variantsFor(text))
}

// ResolveStation resolves a railway station by name. Station names on the
// map usually carry a "Railway Station" or "Junction" suffix that user input
// omits, so those variants are tried before the plain fallback chain.
func (r *Resolver) ResolveStation(ctx context.Context, name string) (models.Coordinate, error) {
	variants := []string{
		name + " Railway Station",
		name + " Junction",
		name + " Station",
	}
	variants = append(variants, variantsFor(name)...)
	return r.resolveVariants(ctx, name, variants)
}

func (r *Resolver) resolveVariants(ctx context.Context, original string, variants []string) (models.Coordinate, error) {
	seen := make(map[string]bool)
	for _, variant := range variants {
		variant = strings.TrimSpace(variant)
		if variant == "" || seen[variant] {
			continue
		}
		seen[variant] = true

		place, err := r.primary.Geocode(ctx, variant)
		if err != nil {
			if ctx.Err() != nil {
				return models.Coordinate{}, ctx.Err()
			}
			r.logger.Debug("geocode variant missed",
				zap.String("query", variant),
				zap.Error(err))
			continue
		}

		r.logger.Debug("geocode variant hit",
			zap.String("query", variant),
			zap.String("display_name", place.DisplayName))
		return place.Coord, nil
	}

	return models.Coordinate{}, fmt.Errorf("resolve %q: %w", original, models.ErrNotFound)
}

// CityFor names the city containing a coordinate. Photon is asked first, then
// Nominatim, then the last component of Nominatim's display name. Generic
// answers like "India" are rejected.
func (r *Resolver) CityFor(ctx context.Context, coord models.Coordinate) (string, error) {
	if r.reverse != nil {
		if place, err := r.reverse.Reverse(ctx, coord); err == nil {
			if city := cityFromAddress(place.Address); city != "" {
				return city, nil
			}
		} else if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	place, err := r.primary.Reverse(ctx, coord)
	if err != nil {
		return "", fmt.Errorf("city for %s: %w", coord, err)
	}
	if city := cityFromAddress(place.Address); city != "" {
		return city, nil
	}

	// Last resort: the trailing component of the display name.
	parts := strings.Split(place.DisplayName, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(parts[i])
		if !genericLocalities[strings.ToLower(candidate)] && !looksNumeric(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("city for %s: %w", coord, models.ErrNotFound)
}

func cityFromAddress(address map[string]string) string {
	for _, key := range cityKeys {
		value := strings.TrimSpace(address[key])
		if value != "" && !genericLocalities[strings.ToLower(value)] {
			return value
		}
	}
	return ""
}

func variantsFor(text string) []string {
	return []string{text, SimplifyAddress(text), ExtractCity(text)}
}

// Trailing "near <landmark>" clauses name a reference point, not the place
// itself, and make geocoders miss.
var nearClausePattern = regexp.MustCompile(`(?i)\s*\bnear\b\s+.*$`)

// SimplifyAddress strips the components that confuse geocoders: door numbers,
// pincodes, trailing "near ..." clauses, and anything else carrying digits.
func SimplifyAddress(address string) string {
	address = nearClausePattern.ReplaceAllString(address, "")
	var kept []string
	for _, part := range strings.Split(address, ",") {
		part = strings.TrimSpace(part)
		if part == "" || looksNumeric(part) {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, ", ")
}

// ExtractCity guesses the locality component of a comma-separated address:
// the last part that is not a state, country, or pincode.
func ExtractCity(address string) string {
	parts := strings.Split(address, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		part := strings.TrimSpace(parts[i])
		lower := strings.ToLower(part)
		if part == "" || looksNumeric(part) {
			continue
		}
		if genericLocalities[lower] || lower == "tamil nadu" {
			continue
		}
		return part
	}
	return strings.TrimSpace(address)
}

// looksNumeric reports whether the component is mostly digits, like a door
// number or a pincode.
func looksNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits > 0 && digits*2 >= len(s)
}
