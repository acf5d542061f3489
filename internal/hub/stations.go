package hub

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/yourorg/tnjourney/internal/models"
)

var (
	stationSuffixPattern = regexp.MustCompile(`\b(JUNCTION|STATION|RAILWAY STATION|JN|STN)\b`)
	stationCharPattern   = regexp.MustCompile(`[^A-Z0-9 ]`)
	spacePattern         = regexp.MustCompile(`\s+`)
)

// Station is one row of the railway station code table.
type Station struct {
	Name string `csv:"name"`
	Code string `csv:"code"`
}

// StationTable maps station names to their booking codes.
type StationTable struct {
	stations []Station
}

// LoadStationTable reads the station code CSV.
func LoadStationTable(r io.Reader) (*StationTable, error) {
	var stations []Station
	if err := gocsv.Unmarshal(r, &stations); err != nil {
		return nil, fmt.Errorf("station table: parse: %w", err)
	}
	return &StationTable{stations: stations}, nil
}

// LoadStationFile reads the station code CSV from disk.
func LoadStationFile(path string) (*StationTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("station table: open: %w", err)
	}
	defer f.Close()
	return LoadStationTable(f)
}

// Count returns the number of stations in the table.
func (t *StationTable) Count() int {
	return len(t.stations)
}

// Search finds stations matching a name: an exact match on the cleaned name
// wins outright, otherwise every station whose cleaned name contains the
// query is returned. Returns models.ErrNotFound when nothing matches.
func (t *StationTable) Search(query string) ([]Station, error) {
	cleaned := CleanStationName(query)
	if cleaned == "" {
		return nil, fmt.Errorf("station %q: %w", query, models.ErrNotFound)
	}

	for _, station := range t.stations {
		if CleanStationName(station.Name) == cleaned {
			return []Station{station}, nil
		}
	}

	var matches []Station
	for _, station := range t.stations {
		if strings.Contains(CleanStationName(station.Name), cleaned) {
			matches = append(matches, station)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("station %q: %w", query, models.ErrNotFound)
	}
	return matches, nil
}

// CleanStationName normalizes a station name for matching: uppercased, the
// JUNCTION/STATION style suffixes removed, punctuation stripped, whitespace
// collapsed.
func CleanStationName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = stationSuffixPattern.ReplaceAllString(name, "")
	name = stationCharPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(name, " "))
}
