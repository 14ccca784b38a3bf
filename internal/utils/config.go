package utils

import (
	"github.com/envsense/airwatch/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate (empty = plain TCP)
	} `yaml:"mqtt"`

	Feed struct {
		Topic               string `yaml:"topic"`                // MQTT topic the device publishes readings to
		QOS                 int    `yaml:"qos"`                  // MQTT QoS level for the sensor subscription
		PollInterval        int    `yaml:"poll_interval"`        // Liveness poll cadence in seconds
		OfflineThreshold    int    `yaml:"offline_threshold"`    // Staleness bound in seconds before the device is offline
		IncludeRawData      bool   `yaml:"include_raw_data"`     // Push raw readings instead of classified ones
		EnableNotifications bool   `yaml:"enable_notifications"` // Enable threshold alerting
	} `yaml:"feed"`

	Storage struct {
		AlertLogFile       string `yaml:"alert_log_file"`       // Path to the SQLite alert log
		CooldownLedgerFile string `yaml:"cooldown_ledger_file"` // Path to the persisted cooldown ledger
		SettingsFile       string `yaml:"settings_file"`        // Path to the user settings document
	} `yaml:"storage"`

	Retention struct {
		Enabled       bool `yaml:"enabled"`        // Enable/disable the alert log sweep
		WindowHours   int  `yaml:"window_hours"`   // Retention window in hours
		SweepInterval int  `yaml:"sweep_interval"` // Interval between sweeps in seconds
	} `yaml:"retention"`

	HTTP struct {
		Enabled       bool   `yaml:"enabled"`        // Enable/disable the dashboard API
		ListenAddress string `yaml:"listen_address"` // Address for the HTTP/WebSocket server
	} `yaml:"http"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
