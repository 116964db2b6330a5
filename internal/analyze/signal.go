package analyze

import (
	"fmt"

	"github.com/Alias1177/DCAMailer/models"
)

// Flash thresholds. An indicator flashes when its value is strictly below.
const (
	MVRVZThreshold  = 0.0
	PuellThreshold  = 0.5
	AHR999Threshold = 0.45
)

// Thresholds by indicator name
var Thresholds = map[string]float64{
	models.IndicatorMVRVZ: MVRVZThreshold,
	models.IndicatorPuell: PuellThreshold,
	models.IndicatorAHR:   AHR999Threshold,
}

// recommendations maps flash count to the EUR amount to buy
var recommendations = [...]int{0, 550, 1100, 2100}

// Evaluation is the outcome of comparing the three indicators to their thresholds
type Evaluation struct {
	MVRVZ      bool
	Puell      bool
	AHR999     bool
	FlashCount int
}

// Flashed lists the names of the indicators that flashed, in report order
func (e Evaluation) Flashed() []string {
	var names []string
	if e.MVRVZ {
		names = append(names, models.IndicatorMVRVZ)
	}
	if e.Puell {
		names = append(names, models.IndicatorPuell)
	}
	if e.AHR999 {
		names = append(names, models.IndicatorAHR)
	}
	return names
}

// Evaluate compares each reading against its threshold
func Evaluate(mvrvZ, puell, ahr999 float64) Evaluation {
	e := Evaluation{
		MVRVZ:  mvrvZ < MVRVZThreshold,
		Puell:  puell < PuellThreshold,
		AHR999: ahr999 < AHR999Threshold,
	}
	for _, flashed := range []bool{e.MVRVZ, e.Puell, e.AHR999} {
		if flashed {
			e.FlashCount++
		}
	}
	return e
}

// EvaluateReadings sets Threshold and Flashed on each reading and returns the
// evaluation. All three indicators must be present.
func EvaluateReadings(readings []models.IndicatorReading) (Evaluation, error) {
	values := make(map[string]float64, len(readings))
	for i := range readings {
		r := &readings[i]
		threshold, ok := Thresholds[r.Name]
		if !ok {
			return Evaluation{}, &models.ConfigError{Field: "indicator", Reason: fmt.Sprintf("unknown indicator %q", r.Name)}
		}
		r.Threshold = threshold
		r.Flashed = r.Value < threshold
		values[r.Name] = r.Value
	}

	for name := range Thresholds {
		if _, ok := values[name]; !ok {
			return Evaluation{}, &models.ConfigError{Field: "indicator", Reason: fmt.Sprintf("missing reading for %s", name)}
		}
	}

	return Evaluate(values[models.IndicatorMVRVZ], values[models.IndicatorPuell], values[models.IndicatorAHR]), nil
}

// Recommendation returns the EUR amount for a flash count in [0,3]
func Recommendation(flashCount int) (int, error) {
	if flashCount < 0 || flashCount >= len(recommendations) {
		return 0, &models.ConfigError{Field: "flash_count", Reason: fmt.Sprintf("%d outside [0,%d]", flashCount, len(recommendations)-1)}
	}
	return recommendations[flashCount], nil
}
