package indicators

import (
	"context"
	"time"

	"github.com/Alias1177/DCAMailer/models"
)

// Fixed values served when DATA_SOURCE=placeholder. None of them flash.
const (
	PlaceholderPuell = 1.0
	PlaceholderMVRVZ = 1.0
	PlaceholderAHR   = 1.0
	PlaceholderPrice = 60000.0
)

// Placeholder is an offline IndicatorFetcher returning a constant
type Placeholder struct {
	Indicator string
	Value     float64
}

func (p *Placeholder) Name() string { return p.Indicator }

func (p *Placeholder) Fetch(ctx context.Context) (models.Series, error) {
	return models.Series{
		Name:   p.Indicator,
		Points: []models.Point{{Date: models.DayKey(time.Now()), Value: p.Value}},
	}, nil
}

// PlaceholderPriceFetcher is an offline PriceFetcher
type PlaceholderPriceFetcher struct {
	Value float64
}

func (p *PlaceholderPriceFetcher) Price(ctx context.Context) (float64, error) {
	return p.Value, nil
}

// PlaceholderSet returns the offline fetchers in report order
func PlaceholderSet() ([]models.IndicatorFetcher, models.PriceFetcher) {
	return []models.IndicatorFetcher{
		&Placeholder{Indicator: models.IndicatorPuell, Value: PlaceholderPuell},
		&Placeholder{Indicator: models.IndicatorMVRVZ, Value: PlaceholderMVRVZ},
		&Placeholder{Indicator: models.IndicatorAHR, Value: PlaceholderAHR},
	}, &PlaceholderPriceFetcher{Value: PlaceholderPrice}
}
