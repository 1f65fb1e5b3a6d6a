package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// fakeBarStore is an in-memory BarStore keyed by symbol.
type fakeBarStore struct {
	mu      sync.Mutex
	bars    map[string][]models.Bar
	loadErr error
	// delay slows down LoadBars to exercise in-flight behavior.
	delay time.Duration
}

func newFakeBarStore() *fakeBarStore {
	return &fakeBarStore{bars: make(map[string][]models.Bar)}
}

func (f *fakeBarStore) add(bars ...models.Bar) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range bars {
		f.bars[b.Symbol] = append(f.bars[b.Symbol], b)
	}
	for symbol := range f.bars {
		series := f.bars[symbol]
		sort.Slice(series, func(i, j int) bool {
			return series[i].Timestamp.Before(series[j].Timestamp)
		})
		f.bars[symbol] = series
	}
}

func (f *fakeBarStore) LoadBars(ctx context.Context, symbol string, exchange models.Exchange, interval models.Interval, from, to time.Time) ([]models.Bar, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	series, ok := f.bars[symbol]
	if !ok {
		return nil, interfaces.ErrBarsNotFound
	}
	out := make([]models.Bar, len(series))
	copy(out, series)
	return out, nil
}

func (f *fakeBarStore) SaveBars(ctx context.Context, bars []models.Bar) error {
	f.add(bars...)
	return nil
}

func (f *fakeBarStore) Overview(ctx context.Context, symbol string, exchange models.Exchange, interval models.Interval) (*models.BarOverview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	series, ok := f.bars[symbol]
	if !ok || len(series) == 0 {
		return nil, interfaces.ErrBarsNotFound
	}
	return &models.BarOverview{
		Symbol:   symbol,
		Exchange: exchange,
		Interval: interval,
		Count:    len(series),
		Start:    series[0].Timestamp,
		End:      series[len(series)-1].Timestamp,
	}, nil
}

func (f *fakeBarStore) Symbols(ctx context.Context, exchange models.Exchange) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	symbols := make([]string, 0, len(f.bars))
	for symbol := range f.bars {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}
