package indicators

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Alias1177/DCAMailer/internal/api/coingecko"
	"github.com/Alias1177/DCAMailer/models"
)

const (
	dcaWindowDays = 200

	// growth valuation: 10^(growthSlope*log10(age in days) - growthIntercept)
	growthSlope     = 5.84
	growthIntercept = 17.01
)

var ErrNoHistory = errors.New("no price history inside the lookback window")

// ComputeAHR999 returns one AHR999 value per UTC day for the `days` days ending at now.
// Each day uses its last price sample; the DCA cost is the mean of the samples in the
// 200 days before that sample.
func ComputeAHR999(points []coingecko.PricePoint, now time.Time, days int) (models.Series, error) {
	series := models.Series{Name: models.IndicatorAHR}
	if days < 1 {
		days = 1
	}
	windowStart := now.AddDate(0, 0, -days)

	// last sample per day inside the window
	daily := make(map[string]coingecko.PricePoint)
	for _, p := range points {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return series, fmt.Errorf("invalid price %v at %s", p.Price, p.Time.Format(time.RFC3339))
		}
		if p.Time.Before(windowStart) || p.Time.After(now) {
			continue
		}
		key := models.DayKey(p.Time)
		if prev, ok := daily[key]; !ok || p.Time.After(prev.Time) {
			daily[key] = p
		}
	}
	if len(daily) == 0 {
		return series, ErrNoHistory
	}

	keys := make([]string, 0, len(daily))
	for k := range daily {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p := daily[key]
		value := ahr999(p, dcaCost(points, p))
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return series, errors.New("AHR999 is not a finite number for " + key)
		}
		series.Points = append(series.Points, models.Point{Date: key, Value: value})
	}

	return series, nil
}

// dcaCost is the mean price over the 200 days before p, falling back to all
// earlier samples and finally to p's own price.
func dcaCost(points []coingecko.PricePoint, p coingecko.PricePoint) float64 {
	start := p.Time.AddDate(0, 0, -dcaWindowDays)

	var window, earlier []float64
	for _, q := range points {
		if !q.Time.Before(p.Time) {
			continue
		}
		earlier = append(earlier, q.Price)
		if !q.Time.Before(start) {
			window = append(window, q.Price)
		}
	}

	switch {
	case len(window) > 0:
		return calculateAverage(window)
	case len(earlier) > 0:
		return calculateAverage(earlier)
	default:
		return p.Price
	}
}

// GrowthValuation is the AHR999 exponential growth estimate for day t
func GrowthValuation(t time.Time) float64 {
	age := models.DaysSinceGenesis(t)
	if age <= 0 {
		return 0
	}
	return math.Pow(10, growthSlope*math.Log10(float64(age))-growthIntercept)
}

func ahr999(p coingecko.PricePoint, cost float64) float64 {
	growth := GrowthValuation(p.Time)
	if growth == 0 {
		growth = p.Price
	}
	return (p.Price / cost) * (p.Price / growth)
}

// calculateAverage calculates simple average
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}
