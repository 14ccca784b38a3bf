// Package liveness derives device online/offline state from the recency of
// the last observed reading. Staleness is detected by polling wall-clock
// time, not only by reacting to new messages: the absence of messages is
// itself the offline signal.
package liveness

import "time"

// Tracker is a two-state machine (online/offline), initially offline.
// It is not safe for concurrent use; the feed service owns it from a
// single goroutine.
type Tracker struct {
	offlineThreshold time.Duration

	lastObservedAt int64 // ms since epoch, 0 = no reading yet
	online         bool
}

// NewTracker returns a Tracker that reports offline until a sufficiently
// recent reading is recorded.
func NewTracker(offlineThreshold time.Duration) *Tracker {
	return &Tracker{offlineThreshold: offlineThreshold}
}

// RecordReading notes the device-reported timestamp of a new reading.
// State is recomputed on the next Tick.
func (t *Tracker) RecordReading(observedAt int64) {
	t.lastObservedAt = observedAt
}

// Clear forgets the last reading, used when the feed reports that no data
// exists. The tracker transitions to offline on the next Tick.
func (t *Tracker) Clear() {
	t.lastObservedAt = 0
}

// Tick recomputes the online state against now and reports whether the
// state changed, so callers can re-render or alert on transitions.
func (t *Tracker) Tick(now time.Time) bool {
	online := false
	if t.lastObservedAt != 0 {
		age := now.UnixMilli() - t.lastObservedAt
		online = age < t.offlineThreshold.Milliseconds()
	}

	changed := online != t.online
	t.online = online
	return changed
}

// IsOnline reports the state as of the last Tick.
func (t *Tracker) IsOnline() bool {
	return t.online
}

// LastObservedAt returns the device-reported timestamp of the most recent
// reading in ms since epoch, or 0 if none has been seen.
func (t *Tracker) LastObservedAt() int64 {
	return t.lastObservedAt
}
