package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/cache"
	appdb "github.com/yourorg/tnjourney/internal/db"
	"github.com/yourorg/tnjourney/internal/fare"
	"github.com/yourorg/tnjourney/internal/geocode"
	"github.com/yourorg/tnjourney/internal/history"
	"github.com/yourorg/tnjourney/internal/hub"
	"github.com/yourorg/tnjourney/internal/models"
	"github.com/yourorg/tnjourney/internal/overpass"
	"github.com/yourorg/tnjourney/internal/planner"
	"github.com/yourorg/tnjourney/internal/providers"
	"github.com/yourorg/tnjourney/internal/transitgraph"
)

const defaultRouteFeedURL = "https://greenmesg.org/dictionary/routes/chennai_bus_routes.txt"

const defaultStationCSV = "data/station_codes.csv"

const searchTimeout = 3 * time.Minute

type app struct {
	planner *planner.Planner
	history *history.Store
	logger  *zap.Logger
}

func main() {
	_ = godotenv.Load()

	logger, err := buildLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	a, err := buildApp(logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("==== TN Journey Planner ====")
		fmt.Println("1) Plan a journey")
		fmt.Println("2) Journey history")
		fmt.Println("3) Exit")
		fmt.Print("Select option: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)
		switch choice {
		case "1":
			a.planJourney(reader)
		case "2":
			a.showHistory()
		case "3":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Invalid option")
		}
		fmt.Println()
	}
}

func buildLogger() (*zap.Logger, error) {
	if strings.EqualFold(os.Getenv("DEBUG"), "true") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildApp(logger *zap.Logger) (*app, error) {
	feedURL := os.Getenv("ROUTE_FEED_URL")
	if feedURL == "" {
		feedURL = defaultRouteFeedURL
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	network, err := transitgraph.LoadNetwork(ctx, feedURL, logger)
	if err != nil {
		return nil, err
	}

	csvPath := os.Getenv("STATION_CODES_CSV")
	if csvPath == "" {
		csvPath = defaultStationCSV
	}
	stations, err := hub.LoadStationFile(csvPath)
	if err != nil {
		return nil, err
	}
	logger.Info("station table loaded", zap.Int("stations", stations.Count()))

	nominatim := geocode.NewNominatimClient(logger)
	photon := geocode.NewPhotonClient(logger)
	resolver := geocode.NewResolver(nominatim, photon, logger)
	osm := overpass.NewClient(logger)

	lifetime := cache.New(0, 0)
	locator := transitgraph.NewLocator(network, osm, nominatim, lifetime, logger)
	tariff := fare.NewSource(lifetime, logger)
	hubs := hub.NewLocator(nominatim, osm, logger)
	composer := planner.NewComposer(network, locator, tariff, lifetime, logger)

	registry := providers.NewRegistry(
		providers.NewTNSTC(logger),
		providers.NewAbhiBus(logger),
		providers.NewRedBus(logger),
	)
	trains := providers.NewIRCTC(logger)

	var store *history.Store
	if conn, dbErr := appdb.Connect(); dbErr != nil {
		logger.Warn("history disabled, db connect failed", zap.Error(dbErr))
	} else if pingErr := conn.Ping(); pingErr != nil {
		logger.Warn("history disabled, db unreachable", zap.Error(pingErr))
	} else if schemaErr := appdb.EnsureSchema(conn); schemaErr != nil {
		logger.Warn("history disabled, schema failed", zap.Error(schemaErr))
	} else {
		store = history.NewStore(conn)
	}

	var recorder planner.Recorder
	if store != nil {
		recorder = store
	}
	p := planner.NewPlanner(resolver, hubs, stations, registry.Adapters(), trains, composer, recorder, logger)

	return &app{planner: p, history: store, logger: logger}, nil
}

func (a *app) planJourney(reader *bufio.Reader) {
	source := prompt(reader, "From (place or address): ")
	dest := prompt(reader, "To (place or address): ")
	dateText := prompt(reader, "Travel date (DD/MM/YYYY): ")
	mode := strings.ToLower(prompt(reader, "Mode (bus/train): "))

	date, err := time.Parse("02/01/2006", dateText)
	if err != nil {
		fmt.Println("Invalid date, expected DD/MM/YYYY")
		return
	}
	if mode != planner.ModeBus && mode != planner.ModeTrain {
		fmt.Println("Invalid mode, expected bus or train")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	resp, err := a.planner.Search(ctx, planner.Request{
		Source: source,
		Dest:   dest,
		Date:   date,
		Mode:   mode,
	})
	if err != nil {
		fmt.Println("Search failed:", err)
		return
	}

	fmt.Printf("\n%s -> %s, %d option(s):\n", resp.SourceCity, resp.DestCity, len(resp.Itineraries))
	for i, it := range resp.Itineraries {
		fmt.Printf("\n[%d] %s | %s  %s - %s (%s)  Total %s\n",
			i+1, it.Schedule.Provider, it.Schedule.Operator,
			it.Schedule.Departure, it.Schedule.Arrival, it.Schedule.Duration, it.TotalCost)
		for _, seg := range it.Segments {
			printSegment(seg)
		}
		if it.Schedule.BookingRef != "" {
			fmt.Println("    Book:", it.Schedule.BookingRef)
		}
	}
}

func printSegment(seg models.ItinerarySegment) {
	line := "    " + string(seg.Mode) + ": " + seg.Description
	if seg.DistanceKm != nil {
		line += fmt.Sprintf(" (%.1f km)", *seg.DistanceKm)
	}
	if seg.Fare != nil {
		line += " " + formatFare(*seg.Fare)
	}
	fmt.Println(line)
	if seg.MapURL != "" {
		fmt.Println("      Map:", seg.MapURL)
	}
}

func formatFare(f models.Fare) string {
	if f.Min == f.Max {
		return fmt.Sprintf("₹%.0f", f.Min)
	}
	return fmt.Sprintf("₹%.0f - ₹%.0f", f.Min, f.Max)
}

func (a *app) showHistory() {
	if a.history == nil {
		fmt.Println("History unavailable (no database configured)")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := a.history.List(ctx, 10)
	if err != nil {
		fmt.Println("History error:", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No journeys planned yet")
		return
	}
	for _, e := range entries {
		fmt.Printf("#%d  %s -> %s  on %s  [%s]  planned %s\n",
			e.ID, e.Source, e.Destination,
			e.TravelDate.Format("02/01/2006"), e.Mode,
			e.CreatedAt.Format("02/01/2006 15:04"))
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	text, _ := reader.ReadString('\n')
	return strings.TrimSpace(text)
}
