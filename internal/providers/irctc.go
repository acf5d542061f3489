package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/tnjourney/internal/models"
	"github.com/yourorg/tnjourney/internal/retry"
)

// IRCTC searches train schedules through the reservation system's
// train-between-stations API. Unlike the bus adapters it takes station
// codes, not place names.
type IRCTC struct {
	apiURL     string
	httpClient *http.Client
	retrier    retry.Policy
	logger     *zap.Logger
}

// NewIRCTC builds the adapter. The API endpoint comes from IRCTC_URL
// when set.
func NewIRCTC(logger *zap.Logger) *IRCTC {
	apiURL := os.Getenv("IRCTC_URL")
	if apiURL == "" {
		apiURL = "https://www.irctc.co.in/eticketing/protected/mapps1/altAvlEnq/TC"
	}

	return &IRCTC{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retrier: retry.Default,
		logger:  logger,
	}
}

func (i *IRCTC) Name() string { return "IRCTC" }

type irctcRequest struct {
	ConcessionBooking        bool   `json:"concessionBooking"`
	SrcStn                   string `json:"srcStn"`
	DestStn                  string `json:"destStn"`
	JrnyClass                string `json:"jrnyClass"`
	JrnyDate                 string `json:"jrnyDate"`
	QuotaCode                string `json:"quotaCode"`
	CurrentBooking           string `json:"currentBooking"`
	FlexiFlag                bool   `json:"flexiFlag"`
	HandicapFlag             bool   `json:"handicapFlag"`
	TicketType               string `json:"ticketType"`
	LoyaltyRedemptionBooking bool   `json:"loyaltyRedemptionBooking"`
	FtBooking                bool   `json:"ftBooking"`
}

type irctcResponse struct {
	TrainBtwnStnsList []irctcTrain `json:"trainBtwnStnsList"`
}

type irctcTrain struct {
	TrainNumber   string   `json:"trainNumber"`
	TrainName     string   `json:"trainName"`
	DepartureTime string   `json:"departureTime"`
	ArrivalTime   string   `json:"arrivalTime"`
	Duration      string   `json:"duration"`
	AvlClasses    []string `json:"avlClasses"`
	Distance      string   `json:"distance"`
	TrainType     []string `json:"trainType"`
}

// Search queries trains between two station codes for a travel date.
func (i *IRCTC) Search(ctx context.Context, sourceCode, destCode string, date time.Time) ([]models.Schedule, error) {
	payload, err := json.Marshal(irctcRequest{
		SrcStn:         sourceCode,
		DestStn:        destCode,
		JrnyDate:       IRCTCDate(date),
		QuotaCode:      "GN",
		CurrentBooking: "false",
		TicketType:     "E",
	})
	if err != nil {
		return nil, fmt.Errorf("irctc: encode request: %w", err)
	}

	var parsed irctcResponse
	err = i.retrier.Do(ctx, "irctc train search", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.apiURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("irctc: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Origin", "https://www.irctc.co.in")
		req.Header.Set("Referer", "https://www.irctc.co.in/nget/train-search")
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("greq", strconv.FormatInt(time.Now().UnixMilli(), 10))
		req.Header.Set("bmirak", "webbm")

		resp, err := i.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("irctc: request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("irctc: api returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("irctc: read response: %w", err)
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("irctc: parse response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return trainsToSchedules(parsed.TrainBtwnStnsList), nil
}

func trainsToSchedules(trains []irctcTrain) []models.Schedule {
	var schedules []models.Schedule
	for _, train := range trains {
		trainType := "N/A"
		if len(train.TrainType) > 0 {
			trainType = train.TrainType[0]
		}

		classes := "N/A"
		if len(train.AvlClasses) > 0 {
			classes = strings.Join(train.AvlClasses, ", ")
		}

		schedules = append(schedules, models.Schedule{
			Provider:   "IRCTC",
			Operator:   fmt.Sprintf("%s %s (%s)", train.TrainNumber, train.TrainName, trainType),
			Departure:  train.DepartureTime,
			Arrival:    train.ArrivalTime,
			Duration:   train.Duration,
			Class:      classes,
			FareText:   "N/A",
			BookingRef: "https://www.irctc.co.in/nget/train-search",
		})
	}
	return schedules
}
