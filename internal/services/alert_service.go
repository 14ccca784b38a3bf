package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/envsense/airwatch/internal/alertlog"
	"github.com/envsense/airwatch/internal/classifier"
	"github.com/envsense/airwatch/internal/cooldown"
	"github.com/envsense/airwatch/internal/models"
	"github.com/envsense/airwatch/pkg/file"
)

const logAppendTimeout = 5 * time.Second

// monitoredMetric binds a metric to its alert category and message text.
type monitoredMetric struct {
	metric   models.MetricType
	category models.AlertCategory
	title    string
	message  func(value, exceeded float64) string
}

var monitoredMetrics = []monitoredMetric{
	{
		metric:   models.MetricTemperature,
		category: models.CategoryTemperatureHigh,
		title:    "Temperature Warning",
		message: func(value, exceeded float64) string {
			return fmt.Sprintf("Temperature too high: %.1f°C (threshold %.1f°C)", value, exceeded)
		},
	},
	{
		metric:   models.MetricHumidity,
		category: models.CategoryHumidityHigh,
		title:    "Humidity Warning",
		message: func(value, exceeded float64) string {
			return fmt.Sprintf("Humidity too high: %.0f%% (threshold %.0f%%)", value, exceeded)
		},
	},
	{
		metric:   models.MetricAirQuality,
		category: models.CategoryAirQualityPoor,
		title:    "Air Quality Warning",
		message: func(value, exceeded float64) string {
			return fmt.Sprintf("Air quality poor: %.0f ppm (threshold %.0f ppm)", value, exceeded)
		},
	},
}

// AlertService decides when an out-of-range reading becomes a user-facing
// alert. It owns the cooldown ledger and its persisted state; no other
// component writes to it.
type AlertService struct {
	ledger     *cooldown.Ledger
	logStore   alertlog.Store
	fileClient file.FileOperations
	ledgerPath string
	logger     zerolog.Logger
}

// NewAlertService initializes a new AlertService with an empty ledger.
// Call LoadLedger afterwards to restore persisted cooldown state.
func NewAlertService(logStore alertlog.Store, fileClient file.FileOperations,
	ledgerPath string, logger zerolog.Logger) *AlertService {

	return &AlertService{
		ledger:     cooldown.NewLedger(),
		logStore:   logStore,
		fileClient: fileClient,
		ledgerPath: ledgerPath,
		logger:     logger,
	}
}

// LoadLedger restores the persisted cooldown state so that cooldowns survive
// restarts. A missing file means a fresh ledger, not an error.
func (a *AlertService) LoadLedger() error {
	exists, err := a.fileClient.IsFileExists(a.ledgerPath)
	if err != nil {
		return fmt.Errorf("failed to stat cooldown ledger file: %w", err)
	}
	if !exists {
		return nil
	}

	var entries map[string]models.CooldownEntry
	if err := a.fileClient.ReadJsonFile(a.ledgerPath, &entries); err != nil {
		return fmt.Errorf("failed to read cooldown ledger file: %w", err)
	}

	a.ledger.Restore(entries)
	a.logger.Info().Int("entries", len(entries)).Msg("Cooldown ledger restored")
	return nil
}

// Evaluate classifies each monitored metric of the reading against the given
// settings snapshot and returns the alerts to surface, zero or more. Fired
// alerts are recorded in the ledger and appended to the alert log; a log
// append failure never suppresses the returned alert and does not roll back
// the ledger, avoiding a re-fire storm on log-store flakiness.
func (a *AlertService) Evaluate(reading models.SensorReading, settings models.Settings, now time.Time) []models.Alert {
	var alerts []models.Alert
	cooldownDur := time.Duration(settings.CooldownMs) * time.Millisecond
	dirty := false

	for _, m := range monitoredMetrics {
		thresholds, ok := settings.ThresholdsFor(m.metric)
		if !ok {
			thresholds, _ = classifier.DefaultThresholds(m.metric)
		}

		value := reading.Metric(m.metric)
		band := classifier.Classify(value, thresholds)

		switch band.Label {
		case models.StatusModerate, models.StatusPoor:
			if !settings.NotificationsEnabled {
				continue
			}
			if !a.ledger.ShouldFire(m.category, now, cooldownDur) {
				continue
			}

			exceeded := thresholds.Good
			severity := models.SeverityWarning
			if band.Label == models.StatusPoor {
				exceeded = thresholds.Moderate
				severity = models.SeverityCritical
			}

			alert := models.Alert{
				Category: m.category,
				Title:    m.title,
				Message:  m.message(value, exceeded),
				Value:    value,
				Severity: severity,
			}

			a.ledger.RecordFired(m.category, now)
			dirty = true
			a.appendLog(alert, now)
			alerts = append(alerts, alert)

			a.logger.Warn().
				Str("category", string(m.category)).
				Float64("value", value).
				Str("severity", string(severity)).
				Msg("Alert fired")

		case models.StatusGood:
			// Condition cleared: drop the cooldown entry once so that a
			// recurrence alerts immediately.
			if a.ledger.Reset(m.category) {
				dirty = true
				a.logger.Debug().Str("category", string(m.category)).Msg("Cooldown reset, condition cleared")
			}

		case models.StatusUnknown:
			// Missing or malformed value: neither fire nor reset.
		}
	}

	if dirty {
		a.saveLedger()
	}

	return alerts
}

// appendLog writes the fired alert to the external log store. Failures are
// reported and otherwise ignored: a safety-relevant warning must still reach
// the user even when persistence is flaky.
func (a *AlertService) appendLog(alert models.Alert, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), logAppendTimeout)
	defer cancel()

	rec := models.AlertLogRecord{
		Category: alert.Category,
		Message:  alert.Message,
		Value:    alert.Value,
		FiredAt:  now.UnixMilli(),
	}
	if err := a.logStore.Append(ctx, rec); err != nil {
		a.logger.Error().Err(err).Str("category", string(alert.Category)).Msg("Failed to append alert log record")
	}
}

// saveLedger persists the current cooldown state. Persistence failures are
// logged; the in-memory ledger stays authoritative for this process.
func (a *AlertService) saveLedger() {
	if err := a.fileClient.WriteJsonFile(a.ledgerPath, a.ledger.Snapshot()); err != nil {
		a.logger.Error().Err(err).Str("path", a.ledgerPath).Msg("Failed to persist cooldown ledger")
	}
}
