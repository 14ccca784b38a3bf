// Package cooldown tracks when each alert category last fired and gates
// re-notification. The ledger only gates; the dispatcher decides whether an
// alert actually fires and is responsible for persisting the ledger state.
package cooldown

import (
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/envsense/airwatch/internal/models"
)

// Ledger holds one CooldownEntry per alert category.
type Ledger struct {
	entries cmap.ConcurrentMap[string, models.CooldownEntry]
}

// NewLedger returns an empty ledger: every category reads as "never fired".
func NewLedger() *Ledger {
	return &Ledger{entries: cmap.New[models.CooldownEntry]()}
}

// ShouldFire reports whether an alert of the given category may be surfaced
// at now. True iff the category has never fired, or the elapsed time since
// the last fire strictly exceeds cooldown. A fire exactly at the boundary is
// allowed on the next evaluation, not the same instant.
func (l *Ledger) ShouldFire(category models.AlertCategory, now time.Time, cooldown time.Duration) bool {
	entry, ok := l.entries.Get(string(category))
	if !ok {
		return true
	}
	return now.UnixMilli()-entry.LastFiredAt > cooldown.Milliseconds()
}

// RecordFired marks the category as fired at now. Callers must invoke this
// only when the alert is actually surfaced.
func (l *Ledger) RecordFired(category models.AlertCategory, now time.Time) {
	l.entries.Set(string(category), models.CooldownEntry{LastFiredAt: now.UnixMilli()})
}

// Reset returns the category to "never fired" and reports whether an entry
// existed. The dispatcher calls this when the monitored condition clears, so
// a recurrence after resolving alerts immediately instead of waiting out a
// cooldown that started during the previous excursion.
func (l *Ledger) Reset(category models.AlertCategory) bool {
	_, existed := l.entries.Pop(string(category))
	return existed
}

// Snapshot returns a copy of the ledger state keyed by category, suitable
// for JSON persistence.
func (l *Ledger) Snapshot() map[string]models.CooldownEntry {
	return l.entries.Items()
}

// Restore replaces the ledger state with a previously persisted snapshot.
func (l *Ledger) Restore(entries map[string]models.CooldownEntry) {
	l.entries.Clear()
	for category, entry := range entries {
		l.entries.Set(category, entry)
	}
}
