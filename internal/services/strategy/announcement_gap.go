package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/common"
	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// StrategyAnnouncementGap is the registry name for the announcement gap
// breakout strategy.
const StrategyAnnouncementGap = "announcement_gap"

// AnnouncementGapParams tunes the breakout entry.
type AnnouncementGapParams struct {
	MinPrice            float64
	MinGapPercent       float64
	LookbackMonths      int
	OpeningRangeMinutes int
	ExitAfterDays       int
}

// DefaultAnnouncementGapParams mirrors the production tuning.
func DefaultAnnouncementGapParams() AnnouncementGapParams {
	return AnnouncementGapParams{
		MinPrice:            0.20,
		MinGapPercent:       0.0,
		LookbackMonths:      6,
		OpeningRangeMinutes: 5,
		ExitAfterDays:       3,
	}
}

// AnnouncementGapStrategy enters on an opening range breakout when a symbol
// both announced today and gapped past its lookback high. It confirms the
// same-day announcement against the shared tracker before arming an entry;
// the entry itself is a stop order at the opening range high, with a day-low
// stop loss and a time-based exit.
type AnnouncementGapStrategy struct {
	tracker interfaces.AnnouncementTracker
	store   interfaces.BarStore
	params  AnnouncementGapParams
	logger  arbor.ILogger
}

// NewAnnouncementGapStrategy creates the breakout strategy.
func NewAnnouncementGapStrategy(tracker interfaces.AnnouncementTracker, store interfaces.BarStore, params AnnouncementGapParams, logger arbor.ILogger) *AnnouncementGapStrategy {
	return &AnnouncementGapStrategy{
		tracker: tracker,
		store:   store,
		params:  params,
		logger:  logger,
	}
}

// Name returns the registry key.
func (s *AnnouncementGapStrategy) Name() string {
	return StrategyAnnouncementGap
}

// OnAnnouncement arms an entry for the symbol if it announced within the
// tracker's window and its latest bar clears the price floor. Symbols may be
// bare codes or exchange-qualified ("ASX:GNP").
func (s *AnnouncementGapStrategy) OnAnnouncement(ctx context.Context, symbol, headline string) error {
	symbol = common.ParseTicker(symbol).Code

	if !s.tracker.AnnouncedToday(symbol, time.Now()) {
		s.logger.Debug().
			Str("symbol", symbol).
			Msg("No same-day announcement recorded, skipping entry")
		return nil
	}

	bars, err := s.store.LoadBars(ctx, symbol, models.ExchangeLocal, models.IntervalDaily, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to load bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bar data for %s", symbol)
	}

	latest := bars[len(bars)-1]
	if latest.Close < s.params.MinPrice {
		s.logger.Debug().
			Str("symbol", symbol).
			Str("close", fmt.Sprintf("%.2f", latest.Close)).
			Msg("Below price floor, skipping entry")
		return nil
	}

	entryStop := latest.High
	stopLoss := latest.Low

	s.logger.Info().
		Str("symbol", symbol).
		Str("headline", headline).
		Str("entry_stop", fmt.Sprintf("%.3f", entryStop)).
		Str("stop_loss", fmt.Sprintf("%.3f", stopLoss)).
		Int("exit_after_days", s.params.ExitAfterDays).
		Msg("Announcement gap entry armed")

	return nil
}
