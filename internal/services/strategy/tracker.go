package strategy

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// DefaultLookback is how long a recorded announcement counts as "today".
const DefaultLookback = 24 * time.Hour

// Tracker records the most recent announcement time per symbol. It is an
// explicitly-owned, mutex-guarded map injected into the scanners and the
// strategy trigger; staleness is checked at read time and old entries can be
// pruned instead of growing forever.
type Tracker struct {
	lookback time.Duration
	logger   arbor.ILogger

	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewTracker creates a tracker. lookback <= 0 selects the default window.
func NewTracker(lookback time.Duration, logger arbor.ILogger) *Tracker {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Tracker{
		lookback: lookback,
		logger:   logger,
		entries:  make(map[string]time.Time),
	}
}

// Record notes that symbol announced at the given time. A later announcement
// for the same symbol replaces the earlier one.
func (t *Tracker) Record(symbol string, announcedAt time.Time) {
	t.mu.Lock()
	t.entries[symbol] = announcedAt
	t.mu.Unlock()

	t.logger.Info().
		Str("symbol", symbol).
		Str("announced_at", announcedAt.Format(time.RFC3339)).
		Msg("Registered announcement")
}

// AnnouncedToday reports whether symbol announced within the lookback window
// ending at now. Unknown symbols are simply false.
func (t *Tracker) AnnouncedToday(symbol string, now time.Time) bool {
	t.mu.RLock()
	announcedAt, ok := t.entries[symbol]
	t.mu.RUnlock()

	if !ok {
		return false
	}

	return !announcedAt.Before(now.Add(-t.lookback))
}

// Prune drops entries older than the lookback window.
func (t *Tracker) Prune(now time.Time) {
	cutoff := now.Add(-t.lookback)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for symbol, announcedAt := range t.entries {
		if announcedAt.Before(cutoff) {
			delete(t.entries, symbol)
			removed++
		}
	}

	if removed > 0 {
		t.logger.Debug().
			Int("removed", removed).
			Msg("Pruned stale announcement entries")
	}
}

// Len returns the number of tracked symbols.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
