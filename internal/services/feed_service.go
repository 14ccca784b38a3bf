package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/envsense/airwatch/internal/classifier"
	"github.com/envsense/airwatch/internal/liveness"
	"github.com/envsense/airwatch/internal/models"
	"github.com/envsense/airwatch/internal/settings"
	"github.com/envsense/airwatch/pkg/mqtt"
)

// Broadcaster pushes envelopes to connected dashboard clients.
type Broadcaster interface {
	Broadcast(messageType string, payload any)
}

// FeedOptions configures one consumer of the sensor feed. The same service
// serves every dashboard view; views differ only in these options.
type FeedOptions struct {
	IncludeRawData      bool
	EnableNotifications bool
	OnDataReceived      func(models.SensorReading)
	WarningCallback     func(models.Alert)
}

// StatusSnapshot is the feed state exposed to the HTTP API.
type StatusSnapshot struct {
	Online         bool                                      `json:"online"`
	LastObservedAt int64                                     `json:"last_observed_at,omitempty"`
	Reading        *models.SensorReading                     `json:"reading,omitempty"`
	Metrics        map[models.MetricType]models.MetricStatus `json:"metrics,omitempty"`
}

// FeedService maintains the live subscription to the sensor feed, normalizes
// payloads, and fans readings out to the liveness tracker, the alert service,
// and the dashboard push channels. A single goroutine owns all feed state so
// reading handling and liveness ticks never interleave mid-update.
type FeedService struct {
	SubTopic      string
	QOS           int
	MqttClient    mqtt.MQTTClient
	Tracker       *liveness.Tracker
	Alerts        *AlertService
	SettingsStore settings.Store
	Hub           Broadcaster
	Opts          FeedOptions
	Logger        zerolog.Logger

	PollInterval time.Duration
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration

	now func() time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	payloadCh chan []byte

	mu       sync.RWMutex
	snapshot StatusSnapshot
}

// NewFeedService initializes a new FeedService.
func NewFeedService(subTopic string, qos int, mqttClient mqtt.MQTTClient, tracker *liveness.Tracker,
	alerts *AlertService, settingsStore settings.Store, hub Broadcaster, opts FeedOptions,
	pollInterval time.Duration, logger zerolog.Logger) *FeedService {

	return &FeedService{
		SubTopic:      subTopic,
		QOS:           qos,
		MqttClient:    mqttClient,
		Tracker:       tracker,
		Alerts:        alerts,
		SettingsStore: settingsStore,
		Hub:           hub,
		Opts:          opts,
		Logger:        logger,
		PollInterval:  pollInterval,
		BaseBackoff:   time.Second,
		MaxBackoff:    2 * time.Minute,
		now:           time.Now,
	}
}

// Start subscribes to the sensor topic and launches the run loop.
func (f *FeedService) Start() error {
	if f.ctx != nil {
		f.Logger.Warn().Msg("FeedService is already running")
		return errors.New("feed service is already running")
	}

	f.ctx, f.cancel = context.WithCancel(context.Background())
	f.payloadCh = make(chan []byte, 16)

	token := f.MqttClient.Subscribe(f.SubTopic, byte(f.QOS), f.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		f.cancel()
		f.ctx = nil
		f.cancel = nil
		return err
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.runLoop()
	}()

	f.Logger.Info().Str("topic", f.SubTopic).Msg("FeedService started successfully")
	return nil
}

// Stop tears down the subscription and the liveness ticker together.
// Idempotent: stopping a stopped service returns an error but does nothing.
func (f *FeedService) Stop() error {
	if f.ctx == nil {
		f.Logger.Warn().Msg("FeedService is not running")
		return errors.New("feed service is not running")
	}

	token := f.MqttClient.Unsubscribe(f.SubTopic)
	token.Wait()
	if err := token.Error(); err != nil {
		f.Logger.Error().Err(err).Msg("Failed to unsubscribe from sensor topic")
	}

	f.cancel()
	f.wg.Wait()

	f.ctx = nil
	f.cancel = nil

	f.Logger.Info().Msg("FeedService stopped successfully")
	return nil
}

// HandleConnectionLost supervises resubscription after a dropped transport
// connection: the paho client reconnects the session, this re-establishes
// the subscription with exponential backoff. Wire it as the MQTT
// connection-lost handler.
func (f *FeedService) HandleConnectionLost(err error) {
	f.Logger.Error().Err(err).Msg("Sensor feed connection lost")

	ctx := f.ctx
	if ctx == nil {
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		backoff := f.BaseBackoff
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			token := f.MqttClient.Subscribe(f.SubTopic, byte(f.QOS), f.onMessage)
			token.Wait()
			if token.Error() == nil {
				f.Logger.Info().Str("topic", f.SubTopic).Msg("Sensor feed resubscribed")
				return
			}

			f.Logger.Warn().Err(token.Error()).Dur("backoff", backoff).Msg("Resubscribe failed, backing off")
			backoff *= 2
			if backoff > f.MaxBackoff {
				backoff = f.MaxBackoff
			}
		}
	}()
}

// Status returns the current feed snapshot for the HTTP API.
func (f *FeedService) Status() StatusSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// onMessage forwards the raw payload into the run loop. It does not touch
// feed state itself; ordering and atomicity live in the loop.
func (f *FeedService) onMessage(_ MQTT.Client, msg MQTT.Message) {
	ctx := f.ctx
	if ctx == nil {
		return
	}

	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	select {
	case f.payloadCh <- payload:
	case <-ctx.Done():
	}
}

// runLoop is the single owner of tracker, ledger, and snapshot state.
func (f *FeedService) runLoop() {
	ticker := time.NewTicker(f.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case payload := <-f.payloadCh:
			f.handlePayload(payload)

		case <-ticker.C:
			if f.Tracker.Tick(f.now()) {
				f.publishStatus()
			}

		case <-f.ctx.Done():
			f.Logger.Info().Msg("FeedService stopping gracefully")
			return
		}
	}
}

// handlePayload normalizes one published payload and runs a full evaluation
// cycle: liveness, classification, and alerting.
func (f *FeedService) handlePayload(payload []byte) {
	now := f.now()
	reading, empty := f.normalize(payload)

	if empty {
		// The feed reports that no record exists. Deliver the sentinel so
		// liveness moves toward offline instead of freezing on stale data.
		f.Tracker.Clear()
	} else if reading.ObservedAt != 0 {
		f.Tracker.RecordReading(reading.ObservedAt)
	}

	statusChanged := f.Tracker.Tick(now)

	currentSettings := f.SettingsStore.Current()
	f.updateSnapshot(reading, empty, currentSettings)

	if statusChanged {
		f.publishStatus()
	}
	f.publishReading(empty)

	if f.Opts.OnDataReceived != nil {
		f.Opts.OnDataReceived(reading)
	}

	if f.Opts.EnableNotifications && !empty {
		for _, alert := range f.Alerts.Evaluate(reading, currentSettings, now) {
			if f.Hub != nil {
				f.Hub.Broadcast("alert", alert)
			}
			if f.Opts.WarningCallback != nil {
				f.Opts.WarningCallback(alert)
			}
		}
	}
}

// normalize parses a payload into a reading. An empty or null payload is the
// "no data exists" sentinel. Malformed JSON degrades to an all-unknown
// reading rather than an error; individual missing fields become NaN.
func (f *FeedService) normalize(payload []byte) (models.SensorReading, bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.NewEmptyReading(), true
	}

	var raw models.RawSensorPayload
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		f.Logger.Warn().Err(err).Msg("Malformed sensor payload")
		return models.RawSensorPayload{}.Normalize(), false
	}

	return raw.Normalize(), false
}

// updateSnapshot refreshes the state served to the HTTP API.
func (f *FeedService) updateSnapshot(reading models.SensorReading, empty bool, s models.Settings) {
	snapshot := StatusSnapshot{
		Online:         f.Tracker.IsOnline(),
		LastObservedAt: f.Tracker.LastObservedAt(),
	}

	if !empty {
		r := reading
		snapshot.Reading = &r
		snapshot.Metrics = buildMetricStatuses(reading, s)
	}

	f.mu.Lock()
	f.snapshot = snapshot
	f.mu.Unlock()
}

func (f *FeedService) publishStatus() {
	online := f.Tracker.IsOnline()

	f.mu.Lock()
	f.snapshot.Online = online
	f.mu.Unlock()

	f.Logger.Info().Bool("online", online).Msg("Device liveness changed")
	if f.Hub != nil {
		f.Hub.Broadcast("status", map[string]any{
			"online":           online,
			"last_observed_at": f.Tracker.LastObservedAt(),
		})
	}
}

func (f *FeedService) publishReading(empty bool) {
	if f.Hub == nil {
		return
	}

	snapshot := f.Status()
	if empty {
		f.Hub.Broadcast("reading", nil)
		return
	}
	if f.Opts.IncludeRawData {
		f.Hub.Broadcast("reading", snapshot.Reading)
		return
	}
	f.Hub.Broadcast("reading", snapshot.Metrics)
}

// buildMetricStatuses classifies every metric of the reading for display.
func buildMetricStatuses(reading models.SensorReading, s models.Settings) map[models.MetricType]models.MetricStatus {
	units := map[models.MetricType]string{
		models.MetricTemperature: "°C",
		models.MetricHumidity:    "%",
		models.MetricAirQuality:  "ppm",
	}

	out := make(map[models.MetricType]models.MetricStatus, len(units))
	for metric, unit := range units {
		thresholds, ok := s.ThresholdsFor(metric)
		if !ok {
			thresholds, _ = classifier.DefaultThresholds(metric)
		}
		value := reading.Metric(metric)
		out[metric] = models.MetricStatus{
			Value:  value,
			Unit:   unit,
			Status: classifier.Classify(value, thresholds),
		}
	}
	return out
}
