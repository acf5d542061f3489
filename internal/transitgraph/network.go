// ============================================================================
// City Bus Route Network
// ============================================================================
// In-memory model of the city bus network, loaded from a plain-text feed of
// "ROUTE:stop1,stop2,..." lines. Route and stop order follow the feed so that
// repeated searches over the same data give the same answers.
// ============================================================================

package transitgraph

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var stopNamePattern = regexp.MustCompile(`[^\w\s]`)

// NormalizeStopName canonicalizes a stop name: punctuation stripped,
// uppercased, trimmed. All network lookups use the normalized form.
func NormalizeStopName(name string) string {
	return strings.TrimSpace(strings.ToUpper(stopNamePattern.ReplaceAllString(name, "")))
}

// Network holds the bus routes and the stops they serve.
type Network struct {
	routeIDs   []string            // feed order
	routes     map[string][]string // route -> ordered normalized stops
	stopNames  []string            // first-seen order
	stopRoutes map[string][]string // stop -> route IDs serving it, feed order
}

// LoadNetwork fetches and parses the route feed. The network is required for
// every journey search, so callers should treat a failure here as fatal.
func LoadNetwork(ctx context.Context, feedURL string, logger *zap.Logger) (*Network, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("route feed: build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route feed: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("route feed: service returned status %d", resp.StatusCode)
	}

	network, err := ParseNetwork(resp.Body)
	if err != nil {
		return nil, err
	}

	logger.Info("route network loaded",
		zap.String("url", feedURL),
		zap.Int("routes", len(network.routeIDs)),
		zap.Int("stops", len(network.stopNames)))
	return network, nil
}

// ParseNetwork reads "ROUTE:stop1,stop2,..." lines. Lines without a colon
// are skipped; later duplicates of a route ID are ignored.
func ParseNetwork(r io.Reader) (*Network, error) {
	network := &Network{
		routes:     make(map[string][]string),
		stopRoutes: make(map[string][]string),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.Contains(line, ":") {
			continue
		}

		routeID, stopList, _ := strings.Cut(line, ":")
		routeID = strings.TrimSpace(routeID)
		if routeID == "" {
			continue
		}
		if _, exists := network.routes[routeID]; exists {
			continue
		}

		var stops []string
		for _, raw := range strings.Split(stopList, ",") {
			stop := NormalizeStopName(raw)
			if stop == "" {
				continue
			}
			stops = append(stops, stop)
		}
		if len(stops) == 0 {
			continue
		}

		network.routeIDs = append(network.routeIDs, routeID)
		network.routes[routeID] = stops
		for _, stop := range stops {
			if len(network.stopRoutes[stop]) == 0 {
				network.stopNames = append(network.stopNames, stop)
			}
			if !containsString(network.stopRoutes[stop], routeID) {
				network.stopRoutes[stop] = append(network.stopRoutes[stop], routeID)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("route feed: read: %w", err)
	}

	return network, nil
}

// RouteIDs returns the route identifiers in feed order.
func (n *Network) RouteIDs() []string {
	return n.routeIDs
}

// StopsOn returns the ordered stops of a route.
func (n *Network) StopsOn(routeID string) ([]string, bool) {
	stops, ok := n.routes[routeID]
	return stops, ok
}

// RoutesServing returns the route IDs passing through a normalized stop,
// in feed order.
func (n *Network) RoutesServing(stop string) []string {
	return n.stopRoutes[stop]
}

// HasStop reports whether the normalized stop exists in the network.
func (n *Network) HasStop(stop string) bool {
	_, ok := n.stopRoutes[stop]
	return ok
}

// StopCount returns the number of distinct stops.
func (n *Network) StopCount() int {
	return len(n.stopNames)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func stopIndex(stops []string, stop string) int {
	for i, s := range stops {
		if s == stop {
			return i
		}
	}
	return -1
}
