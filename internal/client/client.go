package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/newsforge/forecast-image-service/internal/observability"
)

// StageGeocoding identifies a failure in the postal-code resolution step;
// day-summary failures use the ISO date of the failing request as their stage.
const StageGeocoding = "geocoding"

var ErrInvalidAPIKey = errors.New("invalid API key")

// UpstreamError reports a failed provider sub-request with enough context to
// tell which one failed.
type UpstreamError struct {
	Stage  string // "geocoding" or the ISO date of the day-summary request
	Detail string // provider's raw error text or transport error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed (%s): %s", e.Stage, e.Detail)
}

// Place is a geocoded postal code.
type Place struct {
	Lat   float64
	Lon   float64
	Name  string
	State string
}

// DaySummary is one day's aggregated weather at a coordinate.
type DaySummary struct {
	Date          string
	CloudCover    float64 // afternoon cloud cover, percent
	Precipitation float64 // total, mm
	TempMax       float64
	TempMin       float64
}

// Provider is the narrow upstream interface the fetcher consumes.
type Provider interface {
	Geocode(ctx context.Context, postalCode string) (Place, error)
	FetchDaySummary(ctx context.Context, lat, lon float64, date string) (DaySummary, error)
}

// OpenWeatherClient implements Provider against the OpenWeatherMap geocoding
// and day-summary endpoints. No retries: a failed sub-request surfaces
// immediately as an UpstreamError and fails the whole forecast fetch.
type OpenWeatherClient struct {
	apiKey     string
	geocodeURL string
	summaryURL string
	country    string
	client     *http.Client
}

// NewOpenWeatherClient validates the API key and returns a client. country is
// appended to geocoding queries (e.g. "US").
func NewOpenWeatherClient(apiKey, geocodeURL, summaryURL, country string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}

	return &OpenWeatherClient{
		apiKey:     apiKey,
		geocodeURL: geocodeURL,
		summaryURL: summaryURL,
		country:    country,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type geocodeResponse struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Name  string  `json:"name"`
	State string  `json:"state"`
}

type daySummaryResponse struct {
	Date       string `json:"date"`
	CloudCover struct {
		Afternoon float64 `json:"afternoon"`
	} `json:"cloud_cover"`
	Precipitation struct {
		Total float64 `json:"total"`
	} `json:"precipitation"`
	Temperature struct {
		Max float64 `json:"max"`
		Min float64 `json:"min"`
	} `json:"temperature"`
}

// Geocode resolves a postal code to coordinates and a place name.
func (c *OpenWeatherClient) Geocode(ctx context.Context, postalCode string) (Place, error) {
	params := url.Values{}
	params.Set("zip", postalCode+","+c.country)
	params.Set("appid", c.apiKey)

	body, err := c.call(ctx, StageGeocoding, c.geocodeURL, params)
	if err != nil {
		return Place{}, err
	}

	var resp geocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Place{}, &UpstreamError{Stage: StageGeocoding, Detail: "parse response: " + err.Error()}
	}
	return Place{Lat: resp.Lat, Lon: resp.Lon, Name: resp.Name, State: resp.State}, nil
}

// FetchDaySummary retrieves the aggregated daily weather for a coordinate and
// ISO date, in imperial units.
func (c *OpenWeatherClient) FetchDaySummary(ctx context.Context, lat, lon float64, date string) (DaySummary, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("date", date)
	params.Set("appid", c.apiKey)
	params.Set("units", "imperial")

	body, err := c.call(ctx, date, c.summaryURL, params)
	if err != nil {
		return DaySummary{}, err
	}

	var resp daySummaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return DaySummary{}, &UpstreamError{Stage: date, Detail: "parse response: " + err.Error()}
	}
	return DaySummary{
		Date:          resp.Date,
		CloudCover:    resp.CloudCover.Afternoon,
		Precipitation: resp.Precipitation.Total,
		TempMax:       resp.Temperature.Max,
		TempMin:       resp.Temperature.Min,
	}, nil
}

// call performs one GET against the provider and returns the response body.
// Every failure mode comes back as an *UpstreamError tagged with stage.
func (c *OpenWeatherClient) call(ctx context.Context, stage, rawURL string, params url.Values) ([]byte, error) {
	start := time.Now()
	metricStage := stage
	if stage != StageGeocoding {
		metricStage = "day_summary"
	}

	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, &UpstreamError{Stage: stage, Detail: "invalid API URL: " + err.Error()}
	}
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, &UpstreamError{Stage: stage, Detail: "create request: " + err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(metricStage, "error").Inc()
		observability.UpstreamCallDuration.WithLabelValues(metricStage).Observe(time.Since(start).Seconds())
		return nil, &UpstreamError{Stage: stage, Detail: err.Error()}
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(metricStage, status).Inc()
	observability.UpstreamCallDuration.WithLabelValues(metricStage).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Stage: stage, Detail: "read response body: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Stage: stage, Detail: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))}
	}
	return body, nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == http.StatusTooManyRequests {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
