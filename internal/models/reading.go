package models

import (
	"encoding/json"
	"math"
)

// MetricType identifies one of the monitored environmental metrics.
type MetricType string

const (
	MetricTemperature MetricType = "temperature"
	MetricHumidity    MetricType = "humidity"
	MetricAirQuality  MetricType = "air_quality"
)

// RawSensorPayload mirrors the JSON document published by the device.
// Fields are pointers so that a missing field is distinguishable from zero.
type RawSensorPayload struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	AirQuality  *float64 `json:"airQuality,omitempty"`
	Timestamp   *int64   `json:"timestamp,omitempty"`
}

// SensorReading is the normalized, immutable snapshot derived from one
// published payload. Missing or non-numeric fields become NaN so that
// classification can handle them as "unknown" per metric.
type SensorReading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	AirQuality  float64 `json:"air_quality"`
	ObservedAt  int64   `json:"observed_at"` // ms since epoch, device-reported

	// Empty marks the sentinel reading delivered when the feed reports
	// that no record exists at the sensor path.
	Empty bool `json:"empty,omitempty"`
}

// NewEmptyReading returns the sentinel reading for a deleted/absent feed record.
func NewEmptyReading() SensorReading {
	return SensorReading{
		Temperature: math.NaN(),
		Humidity:    math.NaN(),
		AirQuality:  math.NaN(),
		Empty:       true,
	}
}

// Normalize converts a wire payload into a SensorReading.
func (p RawSensorPayload) Normalize() SensorReading {
	r := SensorReading{
		Temperature: math.NaN(),
		Humidity:    math.NaN(),
		AirQuality:  math.NaN(),
	}
	if p.Temperature != nil {
		r.Temperature = *p.Temperature
	}
	if p.Humidity != nil {
		r.Humidity = *p.Humidity
	}
	if p.AirQuality != nil {
		r.AirQuality = *p.AirQuality
	}
	if p.Timestamp != nil {
		r.ObservedAt = *p.Timestamp
	}
	return r
}

// MarshalJSON renders unknown (NaN) metric values as null. encoding/json
// rejects NaN outright, and one missing field must not make the whole
// reading unrepresentable on the wire.
func (r SensorReading) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
		AirQuality  *float64 `json:"air_quality"`
		ObservedAt  int64    `json:"observed_at"`
		Empty       bool     `json:"empty,omitempty"`
	}{
		Temperature: nullableValue(r.Temperature),
		Humidity:    nullableValue(r.Humidity),
		AirQuality:  nullableValue(r.AirQuality),
		ObservedAt:  r.ObservedAt,
		Empty:       r.Empty,
	})
}

// nullableValue maps NaN to a JSON null.
func nullableValue(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// Metric returns the value of the given metric within the reading.
func (r SensorReading) Metric(m MetricType) float64 {
	switch m {
	case MetricTemperature:
		return r.Temperature
	case MetricHumidity:
		return r.Humidity
	case MetricAirQuality:
		return r.AirQuality
	default:
		return math.NaN()
	}
}

// StatusLabel is the qualitative band a metric value falls into.
type StatusLabel string

const (
	StatusGood     StatusLabel = "good"
	StatusModerate StatusLabel = "moderate"
	StatusPoor     StatusLabel = "poor"
	StatusUnknown  StatusLabel = "unknown"
)

// StatusBand pairs a band label with its human-readable display text.
type StatusBand struct {
	Label       StatusLabel `json:"label"`
	DisplayText string      `json:"display_text"`
}

// Thresholds holds the inclusive upper bounds of the Good and Moderate
// bands for a single metric. Anything above Moderate is Poor.
type Thresholds struct {
	Good     float64 `json:"good"`
	Moderate float64 `json:"moderate"`
}

// MetricStatus is one classified metric of a reading, for presentation.
type MetricStatus struct {
	Value  float64    `json:"value"`
	Unit   string     `json:"unit"`
	Status StatusBand `json:"status"`
}

// MarshalJSON renders an unknown (NaN) value as null so a partial reading
// still serializes; the band already reports the metric as unknown.
func (s MetricStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value  *float64   `json:"value"`
		Unit   string     `json:"unit"`
		Status StatusBand `json:"status"`
	}{nullableValue(s.Value), s.Unit, s.Status})
}
