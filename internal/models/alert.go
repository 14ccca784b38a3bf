package models

import "time"

// AlertCategory identifies one monitored metric/threshold pair. The set is
// closed: each category maps 1:1 to a metric that can go out of range.
type AlertCategory string

const (
	CategoryTemperatureHigh AlertCategory = "temperature_high"
	CategoryHumidityHigh    AlertCategory = "humidity_high"
	CategoryAirQualityPoor  AlertCategory = "air_quality_poor"
)

// Severity grades a surfaced alert for presentation.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a user-facing warning produced by one evaluation cycle.
type Alert struct {
	Category AlertCategory `json:"category"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Value    float64       `json:"value"`
	Severity Severity      `json:"severity"`
}

// AlertLogRecord is the append-only entry persisted for each fired alert.
// The store assigns CreatedAt server-side; the core never reads records
// back to make firing decisions.
type AlertLogRecord struct {
	ID        string        `json:"id"`
	Category  AlertCategory `json:"category"`
	Message   string        `json:"message"`
	Value     float64       `json:"value"`
	FiredAt   int64         `json:"fired_at"` // ms since epoch
	CreatedAt time.Time     `json:"created_at"`
	Dismissed bool          `json:"dismissed"`
}

// CooldownEntry records when an alert category last fired. Owned exclusively
// by the cooldown ledger; persisted so cooldowns survive restarts.
type CooldownEntry struct {
	LastFiredAt int64 `json:"last_fired_at"` // ms since epoch
}
