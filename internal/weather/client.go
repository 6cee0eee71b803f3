// Package weather fetches current conditions from WeatherAPI and normalizes
// them into observations the rule engine can evaluate.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

const (
	defaultBaseURL = "https://api.weatherapi.com/v1/current.json"
	requestTimeout = 10 * time.Second
	knotsPerMPH    = 0.868976
)

// retryDelays is the wait before each retry after the initial attempt.
var retryDelays = []time.Duration{5 * time.Second, 15 * time.Second, 45 * time.Second}

// Client is a WeatherAPI current-conditions client with bounded retries and a
// circuit breaker around the upstream.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	delays     []time.Duration
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the WeatherAPI endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetryDelays overrides the retry schedule.
func WithRetryDelays(delays []time.Duration) Option {
	return func(c *Client) { c.delays = delays }
}

// NewClient builds a Client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		delays:     retryDelays,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "weatherapi",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

// apiResponse mirrors the subset of the WeatherAPI current.json payload we
// consume. Fields are pointers so absent values fall back cleanly.
type apiResponse struct {
	Location struct {
		Localtime string `json:"localtime"`
	} `json:"location"`
	Current struct {
		LastUpdated string   `json:"last_updated"`
		TempC       *float64 `json:"temp_c"`
		VisMiles    *float64 `json:"vis_miles"`
		WindMPH     *float64 `json:"wind_mph"`
		GustMPH     *float64 `json:"gust_mph"`
		Cloud       *float64 `json:"cloud"`
		Condition   struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// Fetch retrieves and normalizes current conditions for the given
// coordinates. Failed requests are retried on a fixed schedule; exhausting it
// returns a TransportError carrying the attempt count and last HTTP status.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (types.WeatherObservation, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return types.WeatherObservation{}, err
	}
	if c.apiKey == "" {
		return types.WeatherObservation{}, types.NewValidationError("apiKey", "is not configured")
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", fmt.Sprintf("%g,%g", lat, lon))
	q.Set("aqi", "no")
	reqURL := c.baseURL + "?" + q.Encode()

	raw, err := c.breaker.Execute(func() (any, error) {
		return c.fetchWithRetry(ctx, reqURL)
	})
	if err != nil {
		return types.WeatherObservation{}, err
	}

	var payload apiResponse
	if err := json.Unmarshal(raw.([]byte), &payload); err != nil {
		return types.WeatherObservation{}, types.NewParseError("weatherapi payload: %v", err)
	}

	return normalize(payload), nil
}

// fetchWithRetry performs up to len(delays)+1 attempts. All failures are
// retryable except context cancellation.
func (c *Client) fetchWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	var (
		body       []byte
		attempts   int
		lastStatus int
	)

	operation := func() error {
		attempts++

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			lastStatus = resp.StatusCode
			return fmt.Errorf("status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	bo := backoff.WithContext(&scheduleBackOff{delays: c.delays}, ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		c.logger.Warn("weatherapi fetch failed",
			"attempts", attempts,
			"lastStatus", lastStatus,
			"error", err)
		return nil, &types.TransportError{
			Provider:   "weatherapi",
			Attempts:   attempts,
			StatusCode: lastStatus,
			Err:        err,
		}
	}
	return body, nil
}

// scheduleBackOff walks a fixed delay list, then stops.
type scheduleBackOff struct {
	delays []time.Duration
	next   int
}

func (s *scheduleBackOff) NextBackOff() time.Duration {
	if s.next >= len(s.delays) {
		return backoff.Stop
	}
	d := s.delays[s.next]
	s.next++
	return d
}

func (s *scheduleBackOff) Reset() { s.next = 0 }

func normalize(payload apiResponse) types.WeatherObservation {
	cur := payload.Current

	windKts := toKnots(cur.WindMPH)
	gustKts := toKnots(cur.GustMPH)
	if gustKts <= 0 {
		gustKts = windKts
	}

	cloudPercent := floatOrZero(cur.Cloud)
	tempC := floatOrZero(cur.TempC)

	conditionText := cur.Condition.Text
	if conditionText == "" {
		conditionText = "Unknown"
	}

	icingRisk := tempC <= 0 && cloudPercent > 50

	return types.WeatherObservation{
		VisibilityMiles: floatOrZero(cur.VisMiles),
		WindKts:         windKts,
		GustKts:         gustKts,
		CloudPercent:    cloudPercent,
		TempC:           tempC,
		ConditionText:   conditionText,
		Hazards:         DetectHazards(conditionText, icingRisk),
		ObservedAt:      parseObservedAt(cur.LastUpdated, payload.Location.Localtime),
		Provider:        types.ProviderWeatherAPI,
	}
}

// toKnots converts a wind speed from mph, rounded to one decimal place.
func toKnots(mph *float64) float64 {
	if mph == nil || math.IsNaN(*mph) || math.IsInf(*mph, 0) {
		return 0
	}
	return math.Round(*mph*knotsPerMPH*10) / 10
}

func floatOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

// parseObservedAt tries the station's last-updated stamp first, then the
// location localtime, then falls back to the current time.
func parseObservedAt(lastUpdated, localtime string) time.Time {
	for _, candidate := range []string{lastUpdated, localtime} {
		if candidate == "" {
			continue
		}
		if ts, err := time.Parse("2006-01-02 15:04", candidate); err == nil {
			return ts.UTC()
		}
		if ts, err := time.Parse(time.RFC3339, candidate); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return types.NewValidationError("coordinates", "must be finite numbers")
	}
	if math.Abs(lat) > 90 {
		return types.NewValidationError("latitude", "must be between -90 and 90 degrees")
	}
	if math.Abs(lon) > 180 {
		return types.NewValidationError("longitude", "must be between -180 and 180 degrees")
	}
	return nil
}
