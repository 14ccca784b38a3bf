// Package classifier maps raw metric values to qualitative status bands.
// It is pure: no state, no side effects, deterministic for equal inputs.
package classifier

import (
	"math"

	"github.com/envsense/airwatch/internal/models"
)

// defaultThresholds are the built-in band bounds per metric, used when the
// caller supplies no override (e.g. settings unavailable).
var defaultThresholds = map[models.MetricType]models.Thresholds{
	models.MetricTemperature: {Good: 30, Moderate: 35},
	models.MetricHumidity:    {Good: 60, Moderate: 80},
	models.MetricAirQuality:  {Good: 400, Moderate: 700},
}

var displayTexts = map[models.StatusLabel]string{
	models.StatusGood:     "Good",
	models.StatusModerate: "Moderate",
	models.StatusPoor:     "Poor",
	models.StatusUnknown:  "Unknown",
}

// DefaultThresholds returns the built-in thresholds for a metric.
func DefaultThresholds(m models.MetricType) (models.Thresholds, bool) {
	t, ok := defaultThresholds[m]
	return t, ok
}

// Classify places value into a band using the given thresholds. Bounds are
// inclusive and boundary values resolve to the lower (safer) band:
// value == t.Good is Good, value == t.Moderate is Moderate. NaN values
// produce the neutral Unknown band rather than an error.
func Classify(value float64, t models.Thresholds) models.StatusBand {
	switch {
	case math.IsNaN(value):
		return band(models.StatusUnknown)
	case value <= t.Good:
		return band(models.StatusGood)
	case value <= t.Moderate:
		return band(models.StatusModerate)
	default:
		return band(models.StatusPoor)
	}
}

// ClassifyMetric classifies value using the built-in defaults for the metric.
// Unrecognized metric types classify as Unknown.
func ClassifyMetric(m models.MetricType, value float64) models.StatusBand {
	t, ok := defaultThresholds[m]
	if !ok {
		return band(models.StatusUnknown)
	}
	return Classify(value, t)
}

func band(label models.StatusLabel) models.StatusBand {
	return models.StatusBand{Label: label, DisplayText: displayTexts[label]}
}
