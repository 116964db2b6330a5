package indicators

import (
	"context"
	"time"

	"github.com/Alias1177/DCAMailer/internal/api/coingecko"
	"github.com/Alias1177/DCAMailer/models"
)

// MetricSource serves the on-chain metrics published by ChartInspect
type MetricSource interface {
	PuellMultiple(ctx context.Context, days int) (models.Series, error)
	MVRVZScore(ctx context.Context, days int) (models.Series, error)
}

// HistorySource serves BTC/USD price history
type HistorySource interface {
	MarketChartRange(ctx context.Context, from, to time.Time) ([]coingecko.PricePoint, error)
}

// SpotSource serves the current BTC/USD price
type SpotSource interface {
	Price(ctx context.Context) (float64, error)
}

// PuellFetcher fetches the Puell Multiple over the lookback window
type PuellFetcher struct {
	Source MetricSource
	Days   int
}

func (f *PuellFetcher) Name() string { return models.IndicatorPuell }

func (f *PuellFetcher) Fetch(ctx context.Context) (models.Series, error) {
	s, err := f.Source.PuellMultiple(ctx, f.Days)
	if err != nil {
		return models.Series{}, &models.FetchError{Source: f.Name(), Err: err}
	}
	return s, nil
}

// MVRVFetcher fetches the MVRV Z-Score over the lookback window
type MVRVFetcher struct {
	Source MetricSource
	Days   int
}

func (f *MVRVFetcher) Name() string { return models.IndicatorMVRVZ }

func (f *MVRVFetcher) Fetch(ctx context.Context) (models.Series, error) {
	s, err := f.Source.MVRVZScore(ctx, f.Days)
	if err != nil {
		return models.Series{}, &models.FetchError{Source: f.Name(), Err: err}
	}
	return s, nil
}

// AHR999Fetcher derives AHR999 from CoinGecko price history
type AHR999Fetcher struct {
	Source HistorySource
	Days   int
	Now    func() time.Time
}

func (f *AHR999Fetcher) Name() string { return models.IndicatorAHR }

func (f *AHR999Fetcher) Fetch(ctx context.Context) (models.Series, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	to := now().UTC()
	from, to := models.HistoryWindow(to, f.Days, dcaWindowDays)

	points, err := f.Source.MarketChartRange(ctx, from, to)
	if err != nil {
		return models.Series{}, &models.FetchError{Source: f.Name(), Err: err}
	}

	s, err := ComputeAHR999(points, to, f.Days)
	if err != nil {
		return models.Series{}, &models.FetchError{Source: f.Name(), Err: err}
	}
	return s, nil
}

// PriceFetcher returns the current BTC price
type PriceFetcher struct {
	Source SpotSource
}

func (f *PriceFetcher) Price(ctx context.Context) (float64, error) {
	p, err := f.Source.Price(ctx)
	if err != nil {
		return 0, &models.FetchError{Source: "BTC price", Err: err}
	}
	return p, nil
}

// MarketSource is the CoinGecko surface used by the live set
type MarketSource interface {
	HistorySource
	SpotSource
}

// LiveSet returns the network-backed fetchers in report order
func LiveSet(metrics MetricSource, market MarketSource, days int) ([]models.IndicatorFetcher, models.PriceFetcher) {
	return []models.IndicatorFetcher{
		&PuellFetcher{Source: metrics, Days: days},
		&MVRVFetcher{Source: metrics, Days: days},
		&AHR999Fetcher{Source: market, Days: days},
	}, &PriceFetcher{Source: market}
}
