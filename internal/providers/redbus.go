package providers

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/models"
)

// The result list uses CSS-module class names with generated suffixes, so
// everything is matched by prefix.
const redBusItemSelector = "div[class*='sectionWrapper'] li"

// RedBus searches the RedBus booking site. Results load lazily while
// scrolling, so the page is read through headless Chrome and scrolled until
// the list stops growing.
type RedBus struct {
	baseURL string
	logger  *zap.Logger
}

// NewRedBus builds the adapter. The site root comes from REDBUS_URL when set.
func NewRedBus(logger *zap.Logger) *RedBus {
	baseURL := os.Getenv("REDBUS_URL")
	if baseURL == "" {
		baseURL = "https://www.redbus.in"
	}

	return &RedBus{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

func (r *RedBus) Name() string { return "RedBus" }

// Search looks up schedules between two cities.
func (r *RedBus) Search(ctx context.Context, source, dest string, date time.Time) ([]models.Schedule, error) {
	searchURL := r.searchURL(source, dest, date)

	html, err := scrolledHTML(ctx, searchURL, redBusItemSelector, r.logger)
	if err != nil {
		return nil, err
	}

	schedules, err := parseRedBusSchedules(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		schedules[i].BookingRef = searchURL
	}
	return schedules, nil
}

func (r *RedBus) searchURL(source, dest string, date time.Time) string {
	slug := func(city string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "-")
	}
	journeyDate := RedBusDate(date)

	params := url.Values{}
	params.Add("fromCityName", source)
	params.Add("toCityName", dest)
	params.Add("onward", journeyDate)
	params.Add("doj", journeyDate)

	return fmt.Sprintf("%s/bus-tickets/%s-to-%s/?%s",
		r.baseURL, slug(source), slug(dest), params.Encode())
}

func parseRedBusSchedules(reader io.Reader) ([]models.Schedule, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("redbus: parse results: %w", err)
	}

	text := func(item *goquery.Selection, classPrefix string) string {
		return strings.TrimSpace(item.Find("[class*='" + classPrefix + "']").First().Text())
	}

	var schedules []models.Schedule
	doc.Find(redBusItemSelector).Each(func(_ int, item *goquery.Selection) {
		operator := text(item, "travelsName")
		if operator == "" {
			return
		}

		schedules = append(schedules, models.Schedule{
			Provider:  "RedBus",
			Operator:  operator,
			Departure: text(item, "boardingTime"),
			Arrival:   text(item, "droppingTime"),
			Duration:  text(item, "duration"),
			FareText:  text(item, "finalFare"),
		})
	})
	return schedules, nil
}
