// ============================================================================
// Path Finding
// ============================================================================
// Direct and one-transfer journeys over the bus network. Fares grow with the
// number of stages (stops traversed), so options are ranked by their minimum
// fare and the cheapest comes first.
// ============================================================================

package transitgraph

import (
	"context"
	"sort"
	"time"

	"github.com/yourorg/tnjourney/internal/models"
)

// Transfer points are only considered within this many stops of the boarding
// stop, and the whole transfer search gives up after the time budget.
const (
	transferWindow     = 10
	transferTimeBudget = 10 * time.Second
)

// StageFarer prices a leg by its stage count.
type StageFarer interface {
	Fare(stages int) models.Fare
}

// Leg is one bus ride within a journey option.
type Leg struct {
	RouteID string
	From    string
	To      string
	Stages  int
}

// Option is a complete journey over the network with its combined fare.
// Min is the ordinary-service total, Max the express total.
type Option struct {
	Legs []Leg
	Fare models.Fare
}

// FindPaths returns journey options between two normalized stops, cheapest
// first. Direct routes are found in feed order; when a transfer is needed,
// candidate transfer points near the boarding stop are tried first. The same
// stop as source and destination yields a single free zero-stage option.
func (n *Network) FindPaths(ctx context.Context, src, dst string, fares StageFarer) []Option {
	if !n.HasStop(src) || !n.HasStop(dst) {
		return nil
	}

	if src == dst {
		routeID := ""
		if serving := n.RoutesServing(src); len(serving) > 0 {
			routeID = serving[0]
		}
		return []Option{{
			Legs: []Leg{{RouteID: routeID, From: src, To: dst, Stages: 0}},
			Fare: fares.Fare(0),
		}}
	}

	options := n.directOptions(src, dst, fares)
	options = append(options, n.transferOptions(ctx, src, dst, fares)...)

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Fare.Min < options[j].Fare.Min
	})
	return options
}

// PreferredPath picks the option a rider would be told: the first direct
// route in feed order when one exists, otherwise the cheapest transfer.
func (n *Network) PreferredPath(ctx context.Context, src, dst string, fares StageFarer) (Option, bool) {
	if !n.HasStop(src) || !n.HasStop(dst) {
		return Option{}, false
	}
	if src == dst {
		options := n.FindPaths(ctx, src, dst, fares)
		return options[0], true
	}

	if directs := n.directOptions(src, dst, fares); len(directs) > 0 {
		return directs[0], true
	}

	transfers := n.transferOptions(ctx, src, dst, fares)
	if len(transfers) == 0 {
		return Option{}, false
	}
	sort.SliceStable(transfers, func(i, j int) bool {
		return transfers[i].Fare.Min < transfers[j].Fare.Min
	})
	return transfers[0], true
}

// CheapestPath is FindPaths reduced to the single best option.
func (n *Network) CheapestPath(ctx context.Context, src, dst string, fares StageFarer) (Option, bool) {
	options := n.FindPaths(ctx, src, dst, fares)
	if len(options) == 0 {
		return Option{}, false
	}
	return options[0], true
}

func (n *Network) directOptions(src, dst string, fares StageFarer) []Option {
	var options []Option
	for _, routeID := range n.routeIDs {
		stops := n.routes[routeID]
		i := stopIndex(stops, src)
		j := stopIndex(stops, dst)
		if i < 0 || j < 0 {
			continue
		}

		stages := i - j
		if stages < 0 {
			stages = -stages
		}
		options = append(options, Option{
			Legs: []Leg{{RouteID: routeID, From: src, To: dst, Stages: stages}},
			Fare: fares.Fare(stages),
		})
	}
	return options
}

func (n *Network) transferOptions(ctx context.Context, src, dst string, fares StageFarer) []Option {
	deadline := time.Now().Add(transferTimeBudget)
	var options []Option
	seen := make(map[string]bool)

	for _, r1 := range n.RoutesServing(src) {
		stops := n.routes[r1]
		i := stopIndex(stops, src)
		if i < 0 {
			continue
		}

		for _, tp := range transferCandidates(stops, i) {
			if ctx.Err() != nil || time.Now().After(deadline) {
				return options
			}

			for _, r2 := range n.RoutesServing(tp) {
				if r2 == r1 {
					continue
				}
				k := stopIndex(n.routes[r2], tp)
				m := stopIndex(n.routes[r2], dst)
				if k < 0 || m < 0 {
					continue
				}

				key := r1 + "|" + tp + "|" + r2
				if seen[key] {
					continue
				}
				seen[key] = true

				j := stopIndex(stops, tp)
				leg1 := Leg{RouteID: r1, From: src, To: tp, Stages: absInt(i - j)}
				leg2 := Leg{RouteID: r2, From: tp, To: dst, Stages: absInt(k - m)}
				fare1 := fares.Fare(leg1.Stages)
				fare2 := fares.Fare(leg2.Stages)

				options = append(options, Option{
					Legs: []Leg{leg1, leg2},
					Fare: models.Fare{Min: fare1.Min + fare2.Min, Max: fare1.Max + fare2.Max},
				})
				// First usable connecting route wins for this transfer point.
				break
			}
		}
	}
	return options
}

// transferCandidates lists possible transfer stops around position i: the
// stops ahead within the window first, then the stops behind, nearest first.
func transferCandidates(stops []string, i int) []string {
	var candidates []string
	for j := i + 1; j <= i+transferWindow && j < len(stops); j++ {
		candidates = append(candidates, stops[j])
	}
	for j := i - 1; j >= i-transferWindow && j >= 0; j-- {
		candidates = append(candidates, stops[j])
	}
	return candidates
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
