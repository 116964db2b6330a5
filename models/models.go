package models

import (
	"time"
)

// Indicator names as they appear in logs, metrics and the report
const (
	IndicatorMVRVZ = "MVRV Z-Score"
	IndicatorPuell = "Puell Multiple"
	IndicatorAHR   = "AHR999"
)

// Point is a single daily indicator observation
type Point struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Value float64 `json:"value"`
}

// Series holds the daily points returned by a fetcher, oldest first
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Min returns the lowest value in the series
func (s Series) Min() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	lowest := s.Points[0].Value
	for _, p := range s.Points[1:] {
		if p.Value < lowest {
			lowest = p.Value
		}
	}
	return lowest
}

// Last returns the most recent point
func (s Series) Last() Point {
	if len(s.Points) == 0 {
		return Point{}
	}
	return s.Points[len(s.Points)-1]
}

// IndicatorReading is one evaluated indicator for the current run
type IndicatorReading struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`   // compared against Threshold (window minimum)
	Current   float64 `json:"current"` // latest observation
	Threshold float64 `json:"threshold"`
	Flashed   bool    `json:"flashed"`
	LastDate  string  `json:"last_date,omitempty"`
	Series    Series  `json:"-"`
}

// NewReading builds an unevaluated reading from a fetched series
func NewReading(s Series) IndicatorReading {
	last := s.Last()
	return IndicatorReading{
		Name:     s.Name,
		Value:    s.Min(),
		Current:  last.Value,
		LastDate: last.Date,
		Series:   s,
	}
}

// Report is everything the formatter needs to render one message
type Report struct {
	Readings       []IndicatorReading `json:"readings"`
	FlashCount     int                `json:"flash_count"`
	Flashed        []string           `json:"flashed"`
	Recommendation int                `json:"recommendation_eur"`
	BTCPrice       float64            `json:"btc_price"`
	LookbackDays   int                `json:"lookback_days"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// EmailMessage is built once per run and consumed by the sender
type EmailMessage struct {
	Subject  string
	HTMLBody string
	TextBody string
	From     string
	To       string
}
