package liveness

import (
	"testing"
	"time"

	"github.com/envsense/airwatch/internal/constants"
	"github.com/stretchr/testify/assert"
)

func TestTracker_InitiallyOffline(t *testing.T) {
	tr := NewTracker(constants.OfflineThreshold)

	assert.False(t, tr.IsOnline())
	changed := tr.Tick(time.Now())
	assert.False(t, changed)
	assert.False(t, tr.IsOnline())
}

func TestTracker_OnlineWhileFresh_OfflineAtThreshold(t *testing.T) {
	tr := NewTracker(constants.OfflineThreshold)

	base := time.UnixMilli(1_700_000_000_000)
	tr.RecordReading(base.UnixMilli())

	// Fresh reading flips the state to online on the next tick.
	changed := tr.Tick(base)
	assert.True(t, changed)
	assert.True(t, tr.IsOnline())

	// Still online just before the threshold.
	changed = tr.Tick(base.Add(59_999 * time.Millisecond))
	assert.False(t, changed)
	assert.True(t, tr.IsOnline())

	// Offline exactly at the threshold, with no new reading ever arriving.
	changed = tr.Tick(base.Add(60_000 * time.Millisecond))
	assert.True(t, changed)
	assert.False(t, tr.IsOnline())

	// Level-triggered: stays offline on subsequent ticks without flapping.
	changed = tr.Tick(base.Add(2 * time.Minute))
	assert.False(t, changed)
	assert.False(t, tr.IsOnline())
}

func TestTracker_RecoversWhenReadingsResume(t *testing.T) {
	tr := NewTracker(constants.OfflineThreshold)

	base := time.UnixMilli(1_700_000_000_000)
	tr.RecordReading(base.UnixMilli())
	tr.Tick(base)
	tr.Tick(base.Add(5 * time.Minute))
	assert.False(t, tr.IsOnline())

	later := base.Add(10 * time.Minute)
	tr.RecordReading(later.UnixMilli())
	changed := tr.Tick(later.Add(time.Second))
	assert.True(t, changed)
	assert.True(t, tr.IsOnline())
}

func TestTracker_ClearForgetsLastReading(t *testing.T) {
	tr := NewTracker(constants.OfflineThreshold)

	base := time.UnixMilli(1_700_000_000_000)
	tr.RecordReading(base.UnixMilli())
	tr.Tick(base)
	assert.True(t, tr.IsOnline())

	tr.Clear()
	assert.EqualValues(t, 0, tr.LastObservedAt())

	// Offline immediately on the next tick even though the last reading
	// would still have been fresh.
	changed := tr.Tick(base.Add(time.Second))
	assert.True(t, changed)
	assert.False(t, tr.IsOnline())
}
