package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// PriceVolumeFilter filters symbols by latest close price and latest volume.
// Symbols with no stored bars are dropped.
type PriceVolumeFilter struct {
	store  interfaces.BarStore
	logger arbor.ILogger
}

// NewPriceVolumeFilter creates a price/volume filter
func NewPriceVolumeFilter(store interfaces.BarStore, logger arbor.ILogger) *PriceVolumeFilter {
	return &PriceVolumeFilter{store: store, logger: logger}
}

// FilterByPrice keeps symbols whose latest daily close is at or above minPrice.
func (f *PriceVolumeFilter) FilterByPrice(ctx context.Context, symbols []string, minPrice float64) ([]string, error) {
	filtered := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		bars, err := f.store.LoadBars(ctx, symbol, models.ExchangeLocal, models.IntervalDaily, time.Time{}, time.Time{})
		if err != nil || len(bars) == 0 {
			continue
		}

		latestPrice := bars[len(bars)-1].Close
		if latestPrice >= minPrice {
			filtered = append(filtered, symbol)
		} else {
			f.logger.Debug().
				Str("symbol", symbol).
				Str("price", fmt.Sprintf("%.2f", latestPrice)).
				Str("min_price", fmt.Sprintf("%.2f", minPrice)).
				Msg("Symbol fails price filter")
		}
	}

	f.logger.Info().
		Int("input", len(symbols)).
		Int("output", len(filtered)).
		Msg("Price filter applied")

	return filtered, nil
}

// FilterByVolume keeps symbols whose latest daily volume is at or above minVolume.
func (f *PriceVolumeFilter) FilterByVolume(ctx context.Context, symbols []string, minVolume int64) ([]string, error) {
	filtered := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		bars, err := f.store.LoadBars(ctx, symbol, models.ExchangeLocal, models.IntervalDaily, time.Time{}, time.Time{})
		if err != nil || len(bars) == 0 {
			continue
		}

		latestVolume := bars[len(bars)-1].Volume
		if latestVolume >= minVolume {
			filtered = append(filtered, symbol)
		} else {
			f.logger.Debug().
				Str("symbol", symbol).
				Int64("volume", latestVolume).
				Int64("min_volume", minVolume).
				Msg("Symbol fails volume filter")
		}
	}

	f.logger.Info().
		Int("input", len(symbols)).
		Int("output", len(filtered)).
		Msg("Volume filter applied")

	return filtered, nil
}

// ApplyFilters runs the price filter then the volume filter.
func (f *PriceVolumeFilter) ApplyFilters(ctx context.Context, symbols []string, minPrice float64, minVolume int64) ([]string, error) {
	f.logger.Info().
		Int("symbol_count", len(symbols)).
		Str("min_price", fmt.Sprintf("%.2f", minPrice)).
		Int64("min_volume", minVolume).
		Msg("Applying price and volume filters")

	filtered, err := f.FilterByPrice(ctx, symbols, minPrice)
	if err != nil {
		return nil, err
	}

	return f.FilterByVolume(ctx, filtered, minVolume)
}
