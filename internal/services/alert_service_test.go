package services

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/envsense/airwatch/internal/mocks"
	"github.com/envsense/airwatch/internal/models"
	"github.com/envsense/airwatch/internal/settings"
)

const ledgerPath = "cooldowns.json"

func defaultSettings() models.Settings {
	return settings.Resolve(models.SettingsDocument{})
}

func reading(temp, humidity, air float64, observedAt int64) models.SensorReading {
	return models.SensorReading{
		Temperature: temp,
		Humidity:    humidity,
		AirQuality:  air,
		ObservedAt:  observedAt,
	}
}

func newTestAlertService(t *testing.T) (*AlertService, *mocks.MockAlertStore, *mocks.MockFileOperations) {
	t.Helper()
	logStore := new(mocks.MockAlertStore)
	fileClient := new(mocks.MockFileOperations)
	svc := NewAlertService(logStore, fileClient, ledgerPath, zerolog.Nop())
	return svc, logStore, fileClient
}

// Evaluating the same safe reading repeatedly never records a fire and never
// appends a log entry.
func TestAlertService_SafeReadingIsIdempotent(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	now := time.UnixMilli(1_700_000_000_000)

	safe := reading(25, 50, 300, now.UnixMilli())
	for i := 0; i < 5; i++ {
		alerts := svc.Evaluate(safe, defaultSettings(), now.Add(time.Duration(i)*time.Second))
		assert.Empty(t, alerts)
	}

	logStore.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	fileClient.AssertNotCalled(t, "WriteJsonFile", mock.Anything, mock.Anything)
}

func TestAlertService_HighTemperatureFiresSingleAlert(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	now := time.UnixMilli(1_700_000_000_000)

	logStore.On("Append", mock.Anything, mock.MatchedBy(func(rec models.AlertLogRecord) bool {
		return rec.Category == models.CategoryTemperatureHigh && rec.FiredAt == now.UnixMilli()
	})).Return(nil).Once()
	fileClient.On("WriteJsonFile", ledgerPath, mock.Anything).Return(nil)

	alerts := svc.Evaluate(reading(38, 50, 300, now.UnixMilli()), defaultSettings(), now)

	require.Len(t, alerts, 1)
	assert.Equal(t, models.CategoryTemperatureHigh, alerts[0].Category)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "38")
	assert.Equal(t, 38.0, alerts[0].Value)

	logStore.AssertExpectations(t)
	fileClient.AssertExpectations(t)
}

func TestAlertService_ModerateBandFiresWarning(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	now := time.UnixMilli(1_700_000_000_000)

	logStore.On("Append", mock.Anything, mock.Anything).Return(nil)
	fileClient.On("WriteJsonFile", ledgerPath, mock.Anything).Return(nil)

	alerts := svc.Evaluate(reading(32, 50, 300, now.UnixMilli()), defaultSettings(), now)

	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
	// Message names the bound that was exceeded, here the Good upper bound.
	assert.Contains(t, alerts[0].Message, "30")
}

func TestAlertService_CooldownSuppressesThenExpires(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	start := time.UnixMilli(1_700_000_000_000)

	logStore.On("Append", mock.Anything, mock.Anything).Return(nil)
	fileClient.On("WriteJsonFile", ledgerPath, mock.Anything).Return(nil)

	unsafe := reading(38, 50, 300, start.UnixMilli())

	first := svc.Evaluate(unsafe, defaultSettings(), start)
	require.Len(t, first, 1)

	// Within the default 150s cooldown: suppressed.
	second := svc.Evaluate(unsafe, defaultSettings(), start.Add(30*time.Second))
	assert.Empty(t, second)

	// Past the cooldown: fires again.
	third := svc.Evaluate(unsafe, defaultSettings(), start.Add(200*time.Second))
	require.Len(t, third, 1)

	logStore.AssertNumberOfCalls(t, "Append", 2)
}

func TestAlertService_SafeReadingResetsCooldown(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	start := time.UnixMilli(1_700_000_000_000)

	logStore.On("Append", mock.Anything, mock.Anything).Return(nil)
	fileClient.On("WriteJsonFile", ledgerPath, mock.Anything).Return(nil)

	unsafe := reading(38, 50, 300, start.UnixMilli())
	safe := reading(25, 50, 300, start.UnixMilli())

	require.Len(t, svc.Evaluate(unsafe, defaultSettings(), start), 1)

	// Condition clears, which resets the category.
	assert.Empty(t, svc.Evaluate(safe, defaultSettings(), start.Add(10*time.Second)))

	// Recurrence alerts immediately, well within the original cooldown.
	refire := svc.Evaluate(unsafe, defaultSettings(), start.Add(20*time.Second))
	require.Len(t, refire, 1)

	logStore.AssertNumberOfCalls(t, "Append", 2)
}

func TestAlertService_LogAppendFailureStillSurfacesAlert(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	now := time.UnixMilli(1_700_000_000_000)

	logStore.On("Append", mock.Anything, mock.Anything).Return(errors.New("network error"))
	fileClient.On("WriteJsonFile", ledgerPath, mock.Anything).Return(nil)

	unsafe := reading(38, 50, 300, now.UnixMilli())

	alerts := svc.Evaluate(unsafe, defaultSettings(), now)
	require.Len(t, alerts, 1, "persistence failure must not suppress the warning")

	// The ledger is not rolled back: the next evaluation is still gated,
	// avoiding a re-fire storm on log-store flakiness.
	assert.Empty(t, svc.Evaluate(unsafe, defaultSettings(), now.Add(5*time.Second)))
}

func TestAlertService_UnknownValueNeitherFiresNorResets(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	start := time.UnixMilli(1_700_000_000_000)

	logStore.On("Append", mock.Anything, mock.Anything).Return(nil)
	fileClient.On("WriteJsonFile", ledgerPath, mock.Anything).Return(nil)

	unsafe := reading(38, 50, 300, start.UnixMilli())
	require.Len(t, svc.Evaluate(unsafe, defaultSettings(), start), 1)

	// Temperature missing: other metrics still evaluated, temperature is
	// treated as unknown for this cycle only.
	partial := models.RawSensorPayload{}.Normalize()
	partial.Humidity = 50
	partial.AirQuality = 300
	assert.Empty(t, svc.Evaluate(partial, defaultSettings(), start.Add(10*time.Second)))

	// The cooldown entry survived the unknown cycle, so the category is
	// still gated.
	assert.Empty(t, svc.Evaluate(unsafe, defaultSettings(), start.Add(20*time.Second)))

	logStore.AssertNumberOfCalls(t, "Append", 1)
}

func TestAlertService_MultipleCategoriesInOneReading(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	now := time.UnixMilli(1_700_000_000_000)

	logStore.On("Append", mock.Anything, mock.Anything).Return(nil)
	fileClient.On("WriteJsonFile", ledgerPath, mock.Anything).Return(nil)

	alerts := svc.Evaluate(reading(38, 85, 720, now.UnixMilli()), defaultSettings(), now)

	require.Len(t, alerts, 3)
	categories := map[models.AlertCategory]bool{}
	for _, a := range alerts {
		categories[a.Category] = true
	}
	assert.True(t, categories[models.CategoryTemperatureHigh])
	assert.True(t, categories[models.CategoryHumidityHigh])
	assert.True(t, categories[models.CategoryAirQualityPoor])
}

func TestAlertService_NotificationsDisabled(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	now := time.UnixMilli(1_700_000_000_000)

	disabled := defaultSettings()
	disabled.NotificationsEnabled = false

	alerts := svc.Evaluate(reading(38, 85, 720, now.UnixMilli()), disabled, now)

	assert.Empty(t, alerts)
	logStore.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	fileClient.AssertNotCalled(t, "WriteJsonFile", mock.Anything, mock.Anything)
}

func TestAlertService_LoadLedgerRestoresCooldowns(t *testing.T) {
	svc, logStore, fileClient := newTestAlertService(t)
	firedAt := time.UnixMilli(1_700_000_000_000)

	fileClient.On("IsFileExists", ledgerPath).Return(true, nil)
	fileClient.On("ReadJsonFile", ledgerPath, mock.Anything).
		Run(func(args mock.Arguments) {
			entries := args.Get(1).(*map[string]models.CooldownEntry)
			*entries = map[string]models.CooldownEntry{
				string(models.CategoryTemperatureHigh): {LastFiredAt: firedAt.UnixMilli()},
			}
		}).
		Return(nil)

	require.NoError(t, svc.LoadLedger())

	// Still inside the persisted cooldown after the simulated restart.
	unsafe := reading(38, 50, 300, firedAt.UnixMilli())
	assert.Empty(t, svc.Evaluate(unsafe, defaultSettings(), firedAt.Add(30*time.Second)))
	logStore.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestAlertService_LoadLedgerMissingFileIsFresh(t *testing.T) {
	svc, _, fileClient := newTestAlertService(t)
	fileClient.On("IsFileExists", ledgerPath).Return(false, nil)

	require.NoError(t, svc.LoadLedger())
	fileClient.AssertNotCalled(t, "ReadJsonFile", mock.Anything, mock.Anything)
}
