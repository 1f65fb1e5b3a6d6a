package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// OpeningRangeTracker samples and caches opening ranges for gap candidates.
// Each sampling pass replaces a symbol's cached entry wholesale.
type OpeningRangeTracker struct {
	store    interfaces.BarStore
	detector *GapDetector
	logger   arbor.ILogger

	mu    sync.RWMutex
	cache map[string]models.OpeningRange
}

// NewOpeningRangeTracker creates an opening range tracker
func NewOpeningRangeTracker(store interfaces.BarStore, logger arbor.ILogger) *OpeningRangeTracker {
	return &OpeningRangeTracker{
		store:    store,
		detector: NewGapDetector(logger),
		logger:   logger,
		cache:    make(map[string]models.OpeningRange),
	}
}

// SampleOpeningRange samples the opening range for each symbol at sampleTime.
// The results replace the entire cache: last sample wins, and symbols absent
// from this pass drop out. Symbols that fail to load are logged and skipped.
func (t *OpeningRangeTracker) SampleOpeningRange(ctx context.Context, symbols []string, sampleTime time.Time) (map[string]models.OpeningRange, error) {
	t.logger.Info().
		Int("symbol_count", len(symbols)).
		Str("sample_time", sampleTime.Format(time.RFC3339)).
		Msg("Sampling opening ranges")

	result := make(map[string]models.OpeningRange)

	for _, symbol := range symbols {
		bars, err := t.store.LoadBars(ctx, symbol, models.ExchangeLocal, models.IntervalDaily, time.Time{}, time.Time{})
		if err != nil {
			t.logger.Error().
				Err(err).
				Str("symbol", symbol).
				Msg("Failed to load bars for opening range")
			continue
		}
		if len(bars) == 0 {
			continue
		}

		or, err := t.detector.CalculateOpeningRange(bars, sampleTime)
		if err != nil {
			t.logger.Error().
				Err(err).
				Str("symbol", symbol).
				Msg("Failed to calculate opening range")
			continue
		}

		result[symbol] = or
		t.logger.Debug().
			Str("symbol", symbol).
			Str("orh", fmt.Sprintf("%.2f", or.ORH)).
			Str("orl", fmt.Sprintf("%.2f", or.ORL)).
			Msg("Opening range sampled")
	}

	t.mu.Lock()
	t.cache = result
	t.mu.Unlock()

	t.logger.Info().
		Int("sampled", len(result)).
		Msg("Opening range sampling complete")

	return result, nil
}

// GetOpeningRange returns the cached opening range for a symbol.
func (t *OpeningRangeTracker) GetOpeningRange(symbol string) (models.OpeningRange, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	or, ok := t.cache[symbol]
	return or, ok
}
