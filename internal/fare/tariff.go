// ============================================================================
// MTC Tariff Scraper
// ============================================================================
// Scrapes the staged fare tables from the MTC fares page. The page is slow
// and frequently down, so fetches are retried with backoff and a hardcoded
// copy of the published tariff serves as the fallback. Whatever is obtained
// is cached for the process lifetime.
// ============================================================================

package fare

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/yourorg/tnjourney/internal/cache"
	"github.com/yourorg/tnjourney/internal/retry"
)

const fareCacheKey = "mtc:fares"

// Tab IDs on the fares page: tab0 is ordinary service, tab3 is express.
const (
	ordinaryTabID = "tab0"
	expressTabID  = "tab3"
)

// Source fetches the staged bus fare tables.
type Source struct {
	url        string
	httpClient *http.Client
	store      *cache.Cache
	retrier    retry.Policy
	logger     *zap.Logger
}

// NewSource builds a tariff source for the page in MTC_FARES_URL
// (default: the official MTC fares page).
func NewSource(store *cache.Cache, logger *zap.Logger) *Source {
	pageURL := os.Getenv("MTC_FARES_URL")
	if pageURL == "" {
		pageURL = "https://mtcbus.tn.gov.in/Home/fares"
	}

	return &Source{
		url: pageURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				// The fares site serves an incomplete certificate chain.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		store:   store,
		retrier: retry.Default,
		logger:  logger,
	}
}

// Tables returns the staged fare tables, scraping on first use. When every
// attempt fails, the published fallback tariff is cached and returned.
func (s *Source) Tables(ctx context.Context) Tables {
	if cached, ok := s.store.Get(fareCacheKey); ok {
		return cached.(Tables)
	}

	var tables Tables
	err := s.retrier.Do(ctx, "fetch bus fares", func(ctx context.Context) error {
		scraped, err := s.scrape(ctx)
		if err != nil {
			return err
		}
		tables = scraped
		return nil
	})
	if err != nil {
		s.logger.Warn("fare scrape failed, using fallback tariff", zap.Error(err))
		tables = FallbackTables()
	}

	s.store.Set(fareCacheKey, tables)
	return tables
}

func (s *Source) scrape(ctx context.Context) (Tables, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Tables{}, fmt.Errorf("tariff: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Tables{}, fmt.Errorf("tariff: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Tables{}, fmt.Errorf("tariff: page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Tables{}, fmt.Errorf("tariff: parse page: %w", err)
	}

	tables := Tables{
		Ordinary: scrapeTab(doc, ordinaryTabID),
		Express:  scrapeTab(doc, expressTabID),
	}
	if len(tables.Ordinary) == 0 || len(tables.Express) == 0 {
		return Tables{}, fmt.Errorf("tariff: incomplete fare data")
	}
	return tables, nil
}

// scrapeTab reads one fare tab: each stage div carries the stage number as
// its own text and the fare in a rate span. A div marked "end" closes the
// table.
func scrapeTab(doc *goquery.Document, tabID string) map[int]float64 {
	fares := make(map[int]float64)

	container := doc.Find("div#" + tabID + " div.col-md-12").First()
	container.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		class, _ := div.Attr("class")
		isStage, isEnd := false, false
		for _, name := range strings.Fields(class) {
			if strings.HasPrefix(name, "stage") {
				isStage = true
			}
			if name == "end" {
				isEnd = true
			}
		}
		if !isStage {
			return true
		}
		if isEnd {
			return false
		}

		stage, err := strconv.Atoi(strings.TrimSpace(ownText(div)))
		if err != nil {
			return true
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(div.Find("span.rate").First().Text()), 64)
		if err != nil {
			return true
		}
		fares[stage] = rate
		return true
	})

	return fares
}

// ownText returns the first non-blank text node directly under the selection,
// skipping text inside child elements.
func ownText(s *goquery.Selection) string {
	if len(s.Nodes) == 0 {
		return ""
	}
	for child := s.Nodes[0].FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode && strings.TrimSpace(child.Data) != "" {
			return child.Data
		}
	}
	return ""
}

// FallbackTables is the published MTC tariff, used when the fares page
// cannot be scraped.
func FallbackTables() Tables {
	return Tables{
		Ordinary: map[int]float64{
			1: 5, 2: 7, 3: 8, 4: 10, 5: 12, 6: 14, 7: 15, 8: 17,
			9: 18, 10: 20, 11: 22, 12: 23, 13: 25, 14: 27, 15: 28,
			16: 30, 17: 32, 18: 33, 19: 35, 20: 37, 21: 38, 22: 40,
		},
		Express: map[int]float64{
			1: 10, 2: 15, 3: 20, 4: 25, 5: 30, 6: 35, 7: 40, 8: 45,
			9: 50, 10: 55, 11: 60, 12: 65, 13: 70, 14: 75, 15: 80,
			16: 85, 17: 90, 18: 95, 19: 100, 20: 105, 21: 110, 22: 115,
		},
	}
}
