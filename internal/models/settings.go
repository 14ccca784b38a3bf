package models

// NotificationSettings holds the user-tunable alerting knobs. Pointer fields
// distinguish "not set" from an explicit zero so that loaded documents can be
// merged over built-in defaults.
type NotificationSettings struct {
	Enabled              *bool    `json:"enabled,omitempty"`
	CooldownMinutes      *float64 `json:"cooldownMinutes,omitempty"`
	TemperatureThreshold *float64 `json:"temperatureThreshold,omitempty"`
	HumidityThreshold    *float64 `json:"humidityThreshold,omitempty"`
	AirQualityThreshold  *float64 `json:"airQualityThreshold,omitempty"`
}

// SettingsDocument is the on-disk/user-written settings shape.
type SettingsDocument struct {
	Notifications NotificationSettings `json:"notifications"`
}

// Settings is the fully-resolved snapshot used at evaluation time. Every
// field has a concrete value; defaults fill anything the document omits.
type Settings struct {
	NotificationsEnabled bool
	CooldownMs           int64
	Thresholds           map[MetricType]Thresholds
}

// ThresholdsFor returns the resolved thresholds for a metric.
func (s Settings) ThresholdsFor(m MetricType) (Thresholds, bool) {
	t, ok := s.Thresholds[m]
	return t, ok
}
