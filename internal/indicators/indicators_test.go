package indicators

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alias1177/DCAMailer/internal/api/coingecko"
	"github.com/Alias1177/DCAMailer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyPoints(end time.Time, n int, price func(i int) float64) []coingecko.PricePoint {
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(n - 1))
	points := make([]coingecko.PricePoint, n)
	for i := 0; i < n; i++ {
		points[i] = coingecko.PricePoint{Time: start.AddDate(0, 0, i), Price: price(i)}
	}
	return points
}

func TestComputeAHR999FlatPrice(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	points := dailyPoints(now, 220, func(int) float64 { return 50000 })

	series, err := ComputeAHR999(points, now, 7)
	require.NoError(t, err)

	require.Len(t, series.Points, 7)
	assert.Equal(t, "2026-10-13", series.Points[0].Date)
	assert.Equal(t, "2026-10-19", series.Last().Date)

	// flat price means the DCA ratio is 1
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 50000/GrowthValuation(day), series.Last().Value, 1e-9)
}

func TestComputeAHR999UsesLastSampleOfDay(t *testing.T) {
	now := time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC)
	points := []coingecko.PricePoint{
		{Time: morning.AddDate(0, 0, -1), Price: 40000},
		{Time: morning, Price: 40000},
		{Time: evening, Price: 80000},
	}

	series, err := ComputeAHR999(points, now, 1)
	require.NoError(t, err)
	require.Len(t, series.Points, 1)

	// evening sample, DCA over the two earlier samples
	want := (80000.0 / 40000.0) * (80000.0 / GrowthValuation(evening))
	assert.InDelta(t, want, series.Points[0].Value, 1e-9)
}

func TestComputeAHR999NoHistory(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	old := dailyPoints(now.AddDate(0, 0, -30), 5, func(int) float64 { return 1 })

	_, err := ComputeAHR999(old, now, 7)
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestDCACostFallback(t *testing.T) {
	p := coingecko.PricePoint{Time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Price: 123}
	assert.Equal(t, 123.0, dcaCost([]coingecko.PricePoint{p}, p))

	older := coingecko.PricePoint{Time: p.Time.AddDate(-1, 0, 0), Price: 77}
	assert.Equal(t, 77.0, dcaCost([]coingecko.PricePoint{older, p}, p))
}

type fakeMetrics struct {
	puell, mvrv models.Series
	err         error
	days        int
}

func (f *fakeMetrics) PuellMultiple(ctx context.Context, days int) (models.Series, error) {
	f.days = days
	return f.puell, f.err
}

func (f *fakeMetrics) MVRVZScore(ctx context.Context, days int) (models.Series, error) {
	f.days = days
	return f.mvrv, f.err
}

type fakeMarket struct {
	points   []coingecko.PricePoint
	price    float64
	err      error
	from, to time.Time
}

func (f *fakeMarket) MarketChartRange(ctx context.Context, from, to time.Time) ([]coingecko.PricePoint, error) {
	f.from, f.to = from, to
	return f.points, f.err
}

func (f *fakeMarket) Price(ctx context.Context) (float64, error) {
	return f.price, f.err
}

func TestLiveSet(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	metrics := &fakeMetrics{
		puell: models.Series{Name: models.IndicatorPuell, Points: []models.Point{{Date: "2026-10-19", Value: 0.4}}},
		mvrv:  models.Series{Name: models.IndicatorMVRVZ, Points: []models.Point{{Date: "2026-10-19", Value: 1.2}}},
	}
	market := &fakeMarket{points: dailyPoints(now, 210, func(int) float64 { return 60000 }), price: 61000}

	fetchers, price := LiveSet(metrics, market, 7)
	require.Len(t, fetchers, 3)
	fetchers[2].(*AHR999Fetcher).Now = func() time.Time { return now }

	names := make([]string, 0, 3)
	for _, f := range fetchers {
		s, err := f.Fetch(context.Background())
		require.NoError(t, err, f.Name())
		assert.NotEmpty(t, s.Points)
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{models.IndicatorPuell, models.IndicatorMVRVZ, models.IndicatorAHR}, names)
	assert.Equal(t, 7, metrics.days)
	assert.Equal(t, now.AddDate(0, 0, -207), market.from)

	p, err := price.Price(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 61000.0, p)
}

func TestFetchersWrapErrors(t *testing.T) {
	boom := errors.New("connection reset")
	fetchers, price := LiveSet(&fakeMetrics{err: boom}, &fakeMarket{err: boom}, 7)

	for _, f := range fetchers {
		_, err := f.Fetch(context.Background())
		var fetchErr *models.FetchError
		require.True(t, errors.As(err, &fetchErr), f.Name())
		assert.Equal(t, f.Name(), fetchErr.Source)
		assert.ErrorIs(t, err, boom)
	}

	_, err := price.Price(context.Background())
	var fetchErr *models.FetchError
	assert.True(t, errors.As(err, &fetchErr))
}

func TestPlaceholderSet(t *testing.T) {
	fetchers, price := PlaceholderSet()
	require.Len(t, fetchers, 3)
	for _, f := range fetchers {
		s, err := f.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, s.Points, 1)
		assert.Equal(t, f.Name(), s.Name)
	}
	p, err := price.Price(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PlaceholderPrice, p)
}
