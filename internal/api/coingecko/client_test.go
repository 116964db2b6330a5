package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{BaseURL: srv.URL, RequestTimeout: 2 * time.Second, RequestsPerSec: 100})
}

func TestPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":67123.45}}`))
	})

	price, err := c.Price(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 67123.45, price, 1e-9)
}

func TestPriceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "missing coin", status: 200, body: `{"ethereum":{"usd":1}}`},
		{name: "zero price", status: 200, body: `{"bitcoin":{"usd":0}}`},
		{name: "garbage", status: 200, body: `oops`},
		{name: "rate limited", status: 429, body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Price(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestMarketChartRange(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart/range", r.URL.Path)
		assert.Equal(t, "1772323200", r.URL.Query().Get("from"))
		assert.Equal(t, "1772496000", r.URL.Query().Get("to"))
		// unordered on purpose
		_, _ = w.Write([]byte(`{"prices":[[1772409600000,61000.5],[1772323200000,60000]]}`))
	})

	points, err := c.MarketChartRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].Time.Equal(from))
	assert.InDelta(t, 61000.5, points[1].Price, 1e-9)
}

func TestMarketChartRangeEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[]}`))
	})
	_, err := c.MarketChartRange(context.Background(), time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
}

func TestMarketChartRangeNullPrice(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "null price", body: `{"prices":[[1772323200000,60000],[1772409600000,null]]}`},
		{name: "null timestamp", body: `{"prices":[[null,60000]]}`},
		{name: "zero price", body: `{"prices":[[1772323200000,60000],[1772409600000,0]]}`},
		{name: "negative price", body: `{"prices":[[1772323200000,-1]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			points, err := c.MarketChartRange(context.Background(), time.Now().Add(-time.Hour), time.Now())
			assert.Error(t, err)
			assert.Nil(t, points)
		})
	}
}
