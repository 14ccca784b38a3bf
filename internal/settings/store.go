// Package settings provides the user-tunable alerting configuration. The
// monitor re-reads the latest snapshot at every evaluation; external writers
// may replace the document at any time.
package settings

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/envsense/airwatch/internal/classifier"
	"github.com/envsense/airwatch/internal/constants"
	"github.com/envsense/airwatch/internal/models"
	"github.com/envsense/airwatch/pkg/file"
)

// Store exposes the resolved settings snapshot and the write path used by
// the dashboard API. Implementations must never fail Current: on any read
// problem the built-in defaults apply.
type Store interface {
	Current() models.Settings
	Document() models.SettingsDocument
	Save(doc models.SettingsDocument) error
}

// FileStore keeps the settings document as a JSON file on disk.
type FileStore struct {
	path       string
	fileClient file.FileOperations
	logger     zerolog.Logger

	mu sync.Mutex
}

// NewFileStore creates a settings store backed by the JSON document at path.
// The file does not need to exist; defaults apply until something writes it.
func NewFileStore(path string, fileClient file.FileOperations, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:       path,
		fileClient: fileClient,
		logger:     logger,
	}
}

// Current returns the latest settings merged over defaults. Read failures
// degrade to the defaults rather than blocking evaluation.
func (s *FileStore) Current() models.Settings {
	return Resolve(s.Document())
}

// Document returns the raw settings document as last written, or an empty
// document when the file is absent or unreadable.
func (s *FileStore) Document() models.SettingsDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc models.SettingsDocument

	exists, err := s.fileClient.IsFileExists(s.path)
	if err != nil || !exists {
		if err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to stat settings file, using defaults")
		}
		return doc
	}

	if err := s.fileClient.ReadJsonFile(s.path, &doc); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read settings file, using defaults")
		return models.SettingsDocument{}
	}
	return doc
}

// Save replaces the settings document on disk.
func (s *FileStore) Save(doc models.SettingsDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fileClient.WriteJsonFile(s.path, doc); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// Resolve merges a settings document over the built-in defaults into a
// fully-populated snapshot. A user-supplied per-metric threshold replaces
// the Moderate (alerting) bound; the Good bound keeps its default.
func Resolve(doc models.SettingsDocument) models.Settings {
	n := doc.Notifications

	resolved := models.Settings{
		NotificationsEnabled: true,
		CooldownMs:           constants.NotificationCooldown.Milliseconds(),
		Thresholds:           make(map[models.MetricType]models.Thresholds, 3),
	}

	for _, m := range []models.MetricType{
		models.MetricTemperature,
		models.MetricHumidity,
		models.MetricAirQuality,
	} {
		t, _ := classifier.DefaultThresholds(m)
		resolved.Thresholds[m] = t
	}

	if n.Enabled != nil {
		resolved.NotificationsEnabled = *n.Enabled
	}
	if n.CooldownMinutes != nil && *n.CooldownMinutes > 0 {
		resolved.CooldownMs = int64(*n.CooldownMinutes * 60_000)
	}

	overrides := map[models.MetricType]*float64{
		models.MetricTemperature: n.TemperatureThreshold,
		models.MetricHumidity:    n.HumidityThreshold,
		models.MetricAirQuality:  n.AirQualityThreshold,
	}
	for m, override := range overrides {
		if override == nil {
			continue
		}
		t := resolved.Thresholds[m]
		t.Moderate = *override
		if t.Good > t.Moderate {
			t.Good = t.Moderate
		}
		resolved.Thresholds[m] = t
	}

	return resolved
}
