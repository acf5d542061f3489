package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/models"
)

var abhiBusRouteID = regexp.MustCompile(`/routes/(\d+)`)

// First page offset of each starting letter in the AbhiBus routes index.
var abhiBusLetterOffsets = map[byte]int{
	'A': 0, 'B': 540, 'C': 1530, 'D': 1980, 'E': 2520, 'F': 2610, 'G': 2700,
	'H': 3060, 'I': 3330, 'J': 3420, 'K': 3780, 'L': 5040, 'M': 5220,
	'N': 6210, 'O': 6750, 'P': 6750, 'Q': 7560, 'R': 7560, 'S': 8010, 'T': 8460,
}

const (
	abhiBusPageIncrement = 90
	abhiBusMaxOffset     = 8460
	abhiBusCardSelector  = "div.container.card.service.light.rounded-md"
)

// AbhiBus searches the AbhiBus booking site. City IDs are scraped from the
// public routes index; the result list renders client side, so it is read
// through headless Chrome.
type AbhiBus struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAbhiBus builds the adapter. The site root comes from ABHIBUS_URL
// when set.
func NewAbhiBus(logger *zap.Logger) *AbhiBus {
	baseURL := os.Getenv("ABHIBUS_URL")
	if baseURL == "" {
		baseURL = "https://www.abhibus.com"
	}

	return &AbhiBus{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (a *AbhiBus) Name() string { return "AbhiBus" }

// Search looks up schedules between two cities. Cities missing from the
// routes index yield an empty result.
func (a *AbhiBus) Search(ctx context.Context, source, dest string, date time.Time) ([]models.Schedule, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	dest = strings.ToLower(strings.TrimSpace(dest))

	srcID, err := a.CityID(ctx, source)
	if err != nil {
		return nil, err
	}
	dstID, err := a.CityID(ctx, dest)
	if err != nil {
		return nil, err
	}
	if srcID == "" || dstID == "" {
		a.logger.Info("abhibus city lookup missed",
			zap.String("source", source),
			zap.String("dest", dest))
		return nil, nil
	}

	searchURL := fmt.Sprintf("%s/bus_search/%s/%s/%s/%s/%s/O",
		a.baseURL, source, srcID, dest, dstID, AbhiBusDate(date))

	html, err := renderedHTML(ctx, searchURL, abhiBusCardSelector, a.logger)
	if err != nil {
		return nil, err
	}

	schedules, err := parseAbhiBusSchedules(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		schedules[i].BookingRef = searchURL
	}
	return schedules, nil
}

// CityID finds a city's numeric ID by walking the routes index pages from
// the offset of the city's first letter. An unknown city returns "".
func (a *AbhiBus) CityID(ctx context.Context, city string) (string, error) {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return "", nil
	}
	first := city[0]
	if first < 'a' || first > 'z' {
		return "", nil
	}

	offset := abhiBusLetterOffsets[first-('a'-'A')]
	for offset <= abhiBusMaxOffset {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		pageURL := a.baseURL + "/routes/"
		if offset > 0 {
			pageURL = fmt.Sprintf("%s/routes/%d", a.baseURL, offset)
		}

		id, pageEmpty, err := a.cityIDOnPage(ctx, pageURL, city)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
		if pageEmpty {
			break
		}

		offset += abhiBusPageIncrement
		time.Sleep(200 * time.Millisecond)
	}
	return "", nil
}

func (a *AbhiBus) cityIDOnPage(ctx context.Context, pageURL, city string) (id string, pageEmpty bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("abhibus: build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("abhibus: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("abhibus: routes page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("abhibus: read response: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", false, fmt.Errorf("abhibus: parse routes page: %w", err)
	}

	cities := doc.Find("form#frmRoute div.opt-list div.detrow ul li a")
	if cities.Length() == 0 {
		return "", true, nil
	}

	cities.EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(link.Text()), city) {
			return true
		}
		href, _ := link.Attr("href")
		if m := abhiBusRouteID.FindStringSubmatch(href); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	return id, false, nil
}

func parseAbhiBusSchedules(r io.Reader) ([]models.Schedule, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("abhibus: parse results: %w", err)
	}

	var schedules []models.Schedule
	doc.Find(abhiBusCardSelector).Each(func(_ int, card *goquery.Selection) {
		operator := strings.TrimSpace(card.Find("h5.title").First().Text())
		if operator == "" {
			return
		}

		schedules = append(schedules, models.Schedule{
			Provider:  "AbhiBus",
			Operator:  operator,
			Class:     strings.TrimSpace(card.Find("div.operator-info div.sub-title").First().Text()),
			Departure: strings.TrimSpace(card.Find("span.departure-time").First().Text()),
			Arrival:   strings.TrimSpace(card.Find("span.arrival-time").First().Text()),
			Duration:  strings.TrimSpace(card.Find("div.travel-time").First().Text()),
			FareText:  strings.TrimSpace(card.Find("span.fare").First().Text()),
		})
	})
	return schedules, nil
}
