package constants

import "time"

// Timing defaults for liveness detection and alert gating.
const (
	// OfflineThreshold is how stale the last reading may be before the
	// device is considered offline.
	OfflineThreshold = 60 * time.Second

	// LivenessPollInterval is the cadence at which staleness is re-checked,
	// independent of reading arrival.
	LivenessPollInterval = 5 * time.Second

	// NotificationCooldown is the default minimum interval between two
	// alerts of the same category.
	NotificationCooldown = 150 * time.Second
)

// Retention defaults for the alert log sweep.
const (
	RetentionWindow        = 7 * 24 * time.Hour
	RetentionSweepInterval = time.Hour
)
