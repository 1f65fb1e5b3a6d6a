package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// BarStorage implements the BarStore interface for Badger
type BarStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBarStorage creates a new BarStorage instance
func NewBarStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BarStore {
	return &BarStorage{
		db:     db,
		logger: logger,
	}
}

// SaveBars upserts bars keyed by symbol, exchange, interval and timestamp.
// Re-importing the same day overwrites rather than duplicates.
func (s *BarStorage) SaveBars(ctx context.Context, bars []models.Bar) error {
	for i := range bars {
		if err := ctx.Err(); err != nil {
			return err
		}
		bar := bars[i]
		if bar.Symbol == "" {
			return fmt.Errorf("bar symbol is required")
		}
		if err := s.db.Store().Upsert(bar.Key(), &bar); err != nil {
			return fmt.Errorf("failed to save bar %s: %w", bar.Key(), err)
		}
	}
	return nil
}

// LoadBars returns bars for a series in ascending timestamp order. Zero from/to
// bounds are treated as unbounded.
func (s *BarStorage) LoadBars(ctx context.Context, symbol string, exchange models.Exchange, interval models.Interval, from, to time.Time) ([]models.Bar, error) {
	query := badgerhold.Where("Symbol").Eq(symbol).
		And("Exchange").Eq(exchange).
		And("Interval").Eq(interval)

	var bars []models.Bar
	if err := s.db.Store().Find(&bars, query); err != nil {
		return nil, fmt.Errorf("failed to load bars for %s: %w", symbol, err)
	}

	filtered := bars[:0]
	for _, bar := range bars {
		if !from.IsZero() && bar.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && bar.Timestamp.After(to) {
			continue
		}
		filtered = append(filtered, bar)
	}

	if len(filtered) == 0 {
		return nil, interfaces.ErrBarsNotFound
	}

	sort.Slice(filtered, func(a, b int) bool {
		return filtered[a].Timestamp.Before(filtered[b].Timestamp)
	})
	return filtered, nil
}

// Overview summarises the stored history for one series.
func (s *BarStorage) Overview(ctx context.Context, symbol string, exchange models.Exchange, interval models.Interval) (*models.BarOverview, error) {
	bars, err := s.LoadBars(ctx, symbol, exchange, interval, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	return &models.BarOverview{
		Symbol:   symbol,
		Exchange: exchange,
		Interval: interval,
		Count:    len(bars),
		Start:    bars[0].Timestamp,
		End:      bars[len(bars)-1].Timestamp,
	}, nil
}

// Symbols lists the distinct symbols with stored bars for an exchange.
func (s *BarStorage) Symbols(ctx context.Context, exchange models.Exchange) ([]string, error) {
	var bars []models.Bar
	if err := s.db.Store().Find(&bars, badgerhold.Where("Exchange").Eq(exchange)); err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, bar := range bars {
		if !seen[bar.Symbol] {
			seen[bar.Symbol] = true
			symbols = append(symbols, bar.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}
