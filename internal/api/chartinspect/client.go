package chartinspect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	httpClient "github.com/Alias1177/DCAMailer/internal/platform/http"
	"github.com/Alias1177/DCAMailer/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://chartinspect.com/api/v1"

// Client is the ChartInspect on-chain metrics API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new ChartInspect client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new ChartInspect API client
func NewClient(options ClientOptions) *Client {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: baseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "chartinspect_client").Logger(),
	}
}

// metricResponse is the envelope shared by the on-chain endpoints.
// Each metric reports its value under a different key, so points stay raw.
type metricResponse struct {
	Success bool                         `json:"success"`
	Error   string                       `json:"error,omitempty"`
	Data    []map[string]json.RawMessage `json:"data"`
}

// PuellMultiple fetches the daily Puell Multiple for the last `days` days
func (c *Client) PuellMultiple(ctx context.Context, days int) (models.Series, error) {
	return c.metric(ctx, "puell-multiple", "puell_multiple", models.IndicatorPuell, days)
}

// MVRVZScore fetches the daily MVRV Z-Score for the last `days` days
func (c *Client) MVRVZScore(ctx context.Context, days int) (models.Series, error) {
	return c.metric(ctx, "mvrv-z-score", "z_score", models.IndicatorMVRVZ, days)
}

func (c *Client) metric(ctx context.Context, path, field, name string, days int) (models.Series, error) {
	series := models.Series{Name: name}

	endpoint := fmt.Sprintf("%s/onchain/%s?%s", c.baseURL, path, url.Values{"days": {strconv.Itoa(days)}}.Encode())
	c.logger.Debug().Str("url", endpoint).Msg("Fetching metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return series, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return series, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return series, fmt.Errorf("reading response body: %w", err)
	}

	var data metricResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return series, fmt.Errorf("parsing JSON: %w", err)
	}
	if !data.Success || len(data.Data) == 0 {
		c.logger.Warn().Str("response", string(body)).Msg("No data in response")
		return series, fmt.Errorf("no data returned for %s", path)
	}

	for i, item := range data.Data {
		raw, ok := item[field]
		if !ok {
			return series, fmt.Errorf("point %d: missing field %q", i, field)
		}
		value, err := parseNumber(raw)
		if err != nil {
			return series, fmt.Errorf("point %d: field %q: %w", i, field, err)
		}
		series.Points = append(series.Points, models.Point{
			Date:  pointDate(item),
			Value: value,
		})
	}

	c.logger.Debug().Str("metric", name).Int("count", len(series.Points)).Msg("Fetched metric")
	return series, nil
}

// parseNumber accepts both JSON numbers and numeric strings. Non-finite values are rejected.
func parseNumber(raw json.RawMessage) (float64, error) {
	if strings.TrimSpace(string(raw)) == "null" {
		return 0, fmt.Errorf("value is null")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(raw))
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

// pointDate prefers formattedDate and falls back to date, trimming any time part
func pointDate(item map[string]json.RawMessage) string {
	for _, key := range []string{"formattedDate", "date"} {
		raw, ok := item[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			if len(s) > len(models.DateLayout) {
				s = s[:len(models.DateLayout)]
			}
			return s
		}
	}
	return ""
}
