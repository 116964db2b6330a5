package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	httpClient "github.com/Alias1177/DCAMailer/internal/platform/http"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client is the CoinGecko public API client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new CoinGecko client
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// PricePoint is one sample of a market chart
type PricePoint struct {
	Time  time.Time
	Price float64
}

// samples may carry null entries, kept as nil to tell them apart from zero
type marketChartResponse struct {
	Prices [][2]*float64 `json:"prices"`
}

// NewClient creates a new CoinGecko API client
func NewClient(options ClientOptions) *Client {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "coingecko_client").Logger(),
	}
}

// Price returns the current BTC spot price in USD
func (c *Client) Price(ctx context.Context) (float64, error) {
	q := url.Values{"ids": {"bitcoin"}, "vs_currencies": {"usd"}}
	body, err := c.get(ctx, "/simple/price", q)
	if err != nil {
		return 0, err
	}

	var data map[string]map[string]float64
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	price, ok := data["bitcoin"]["usd"]
	if !ok {
		return 0, fmt.Errorf("bitcoin.usd missing from response")
	}
	if price <= 0 {
		return 0, fmt.Errorf("invalid price %v", price)
	}

	c.logger.Debug().Float64("price", price).Msg("Fetched spot price")
	return price, nil
}

// MarketChartRange returns BTC/USD price samples between from and to, oldest first
func (c *Client) MarketChartRange(ctx context.Context, from, to time.Time) ([]PricePoint, error) {
	q := url.Values{
		"vs_currency": {"usd"},
		"from":        {strconv.FormatInt(from.Unix(), 10)},
		"to":          {strconv.FormatInt(to.Unix(), 10)},
	}
	body, err := c.get(ctx, "/coins/bitcoin/market_chart/range", q)
	if err != nil {
		return nil, err
	}

	var data marketChartResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if len(data.Prices) == 0 {
		c.logger.Warn().Str("response", string(body)).Msg("No prices in response")
		return nil, fmt.Errorf("empty price history returned")
	}

	points := make([]PricePoint, 0, len(data.Prices))
	for i, p := range data.Prices {
		if p[0] == nil || p[1] == nil {
			c.logger.Error().Int("index", i).Msg("Null sample in price history")
			return nil, fmt.Errorf("sample %d: null timestamp or price", i)
		}
		if *p[1] <= 0 {
			return nil, fmt.Errorf("sample %d: invalid price %v", i, *p[1])
		}
		points = append(points, PricePoint{
			Time:  time.UnixMilli(int64(*p[0])).UTC(),
			Price: *p[1],
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	c.logger.Debug().Int("count", len(points)).Msg("Fetched price history")
	return points, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + q.Encode()
	c.logger.Debug().Str("url", endpoint).Msg("GET")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
