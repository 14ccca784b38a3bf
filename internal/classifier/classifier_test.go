package classifier

import (
	"math"
	"testing"

	"github.com/envsense/airwatch/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify_Bands(t *testing.T) {
	thresholds := models.Thresholds{Good: 30, Moderate: 35}

	cases := []struct {
		name  string
		value float64
		want  models.StatusLabel
	}{
		{"well below good", 12.5, models.StatusGood},
		{"exactly good boundary", 30, models.StatusGood},
		{"just above good", 30.01, models.StatusModerate},
		{"exactly moderate boundary", 35, models.StatusModerate},
		{"just above moderate", 35.01, models.StatusPoor},
		{"far above moderate", 48, models.StatusPoor},
		{"negative value", -5, models.StatusGood},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.value, thresholds)
			assert.Equal(t, tc.want, got.Label)
		})
	}
}

func TestClassify_NaNIsUnknown(t *testing.T) {
	got := Classify(math.NaN(), models.Thresholds{Good: 30, Moderate: 35})
	assert.Equal(t, models.StatusUnknown, got.Label)
	assert.Equal(t, "Unknown", got.DisplayText)
}

func TestClassify_Deterministic(t *testing.T) {
	thresholds := models.Thresholds{Good: 60, Moderate: 80}
	first := Classify(72.4, thresholds)
	second := Classify(72.4, thresholds)
	assert.Equal(t, first, second)
}

func TestClassifyMetric_Defaults(t *testing.T) {
	cases := []struct {
		metric models.MetricType
		value  float64
		want   models.StatusLabel
	}{
		{models.MetricTemperature, 25, models.StatusGood},
		{models.MetricTemperature, 32, models.StatusModerate},
		{models.MetricTemperature, 38, models.StatusPoor},
		{models.MetricHumidity, 60, models.StatusGood},
		{models.MetricHumidity, 80, models.StatusModerate},
		{models.MetricHumidity, 81, models.StatusPoor},
		{models.MetricAirQuality, 400, models.StatusGood},
		{models.MetricAirQuality, 550, models.StatusModerate},
		{models.MetricAirQuality, 701, models.StatusPoor},
	}

	for _, tc := range cases {
		got := ClassifyMetric(tc.metric, tc.value)
		assert.Equal(t, tc.want, got.Label, "metric %s value %v", tc.metric, tc.value)
	}
}

func TestClassifyMetric_UnknownMetricType(t *testing.T) {
	got := ClassifyMetric(models.MetricType("pressure"), 1000)
	assert.Equal(t, models.StatusUnknown, got.Label)
}
