package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/models"
)

// TNSTC searches the state bus corporation's online reservation system.
// Place names are resolved through its autocomplete endpoint first, then a
// regular search is posted with the resulting IDs.
type TNSTC struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTNSTC builds the adapter. The endpoint comes from TNSTC_URL when set.
func NewTNSTC(logger *zap.Logger) *TNSTC {
	endpoint := os.Getenv("TNSTC_URL")
	if endpoint == "" {
		endpoint = "https://www.tnstc.in/OTRSOnline/jqreq.do"
	}

	// The site tracks the search session through cookies.
	jar, _ := cookiejar.New(nil)
	return &TNSTC{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		logger: logger,
	}
}

func (t *TNSTC) Name() string { return "TNSTC" }

// Search looks up schedules between two places. Unresolvable place names
// yield an empty result so the caller can try other name variants.
func (t *TNSTC) Search(ctx context.Context, source, dest string, date time.Time) ([]models.Schedule, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	dest = strings.ToLower(strings.TrimSpace(dest))

	srcID, srcCode, err := t.placeID(ctx, source, true)
	if err != nil {
		return nil, err
	}
	dstID, dstCode, err := t.placeID(ctx, dest, false)
	if err != nil {
		return nil, err
	}
	if srcID == "" || dstID == "" {
		t.logger.Info("tnstc place lookup missed",
			zap.String("source", source),
			zap.String("dest", dest))
		return nil, nil
	}

	journeyDate := TNSTCDate(date)
	form := url.Values{
		"hiddenStartPlaceID":      {srcID},
		"hiddenEndPlaceID":        {dstID},
		"hiddenOnwardJourneyDate": {journeyDate},
		"txtStartPlaceCode":       {srcCode},
		"txtEndPlaceCode":         {dstCode},
		"hiddenStartPlaceName":    {source},
		"hiddenEndPlaceName":      {dest},
		"matchStartPlace":         {source},
		"matchEndPlace":           {dest},
		"txtJourneyDate":          {journeyDate},
		"hiddenMaxNoOfPassengers": {"16"},
		"selectStartPlace":        {srcCode},
		"selectEndPlace":          {dstCode},
		"languageType":            {"E"},
		"checkSingleLady":         {"N"},
	}

	body, err := t.post(ctx, "SearchService", form)
	if err != nil {
		return nil, err
	}
	return parseTNSTCSchedules(strings.NewReader(body))
}

// placeID resolves a place through the autocomplete endpoint. The response is
// a caret-separated list of id:code:name triples.
func (t *TNSTC) placeID(ctx context.Context, place string, from bool) (string, string, error) {
	action, field := "LoadTOPlaceList", "matchEndPlace"
	if from {
		action, field = "LoadFromPlaceList", "matchStartPlace"
	}

	body, err := t.post(ctx, action, url.Values{field: {place}})
	if err != nil {
		return "", "", err
	}

	upper := strings.ToUpper(place)
	for _, option := range strings.Split(strings.TrimSpace(body), "^") {
		if option == "" {
			continue
		}
		parts := strings.Split(option, ":")
		if len(parts) >= 3 && strings.Contains(strings.ToUpper(parts[2]), upper) {
			return parts[0], parts[1], nil
		}
	}
	return "", "", nil
}

func (t *TNSTC) post(ctx context.Context, action string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.endpoint+"?hiddenAction="+action, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("tnstc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tnstc: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tnstc: service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("tnstc: read response: %w", err)
	}
	return string(body), nil
}

// parseTNSTCSchedules reads the search result markup. Items missing an
// operator name are skipped.
func parseTNSTCSchedules(r io.Reader) ([]models.Schedule, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("tnstc: parse results: %w", err)
	}

	var schedules []models.Schedule
	doc.Find(".bus-list .bus-item").Each(func(_ int, item *goquery.Selection) {
		operator := strings.TrimSpace(item.Find(".operator-name").First().Text())
		if operator == "" {
			return
		}

		fareText := strings.TrimSpace(strings.Replace(item.Find(".price").First().Text(), "Rs", "", 1))
		if fareText != "" && isDigits(fareText) {
			fareText = "₹" + fareText
		}

		duration := strings.TrimSpace(item.Find(".duration").First().Text())
		if duration == "" {
			duration = "N/A"
		}

		schedules = append(schedules, models.Schedule{
			Provider:   "TNSTC",
			Operator:   operator,
			Class:      strings.TrimSpace(item.Find(".text-muted.d-block").First().Text()),
			Departure:  strings.TrimSpace(item.Find(".time-info .text-4").First().Text()),
			Arrival:    strings.TrimSpace(item.Find(".time-info .text-5").First().Text()),
			Duration:   duration,
			FareText:   fareText,
			BookingRef: "https://www.tnstc.in",
		})
	})
	return schedules, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
