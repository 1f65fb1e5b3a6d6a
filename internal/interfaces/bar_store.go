package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/gapscan/internal/models"
)

// ErrBarsNotFound is returned when no bars exist for the requested series.
var ErrBarsNotFound = errors.New("bars not found")

// BarStore provides OHLCV history. The scan pipeline treats returned bars as
// read-only and relies on ascending timestamp order.
type BarStore interface {
	// LoadBars returns bars for a series in ascending timestamp order,
	// optionally bounded by [from, to]. Zero times mean unbounded.
	LoadBars(ctx context.Context, symbol string, exchange models.Exchange, interval models.Interval, from, to time.Time) ([]models.Bar, error)

	// SaveBars upserts bars by their storage key.
	SaveBars(ctx context.Context, bars []models.Bar) error

	// Overview summarises the stored history for one series.
	Overview(ctx context.Context, symbol string, exchange models.Exchange, interval models.Interval) (*models.BarOverview, error)

	// Symbols lists the distinct symbols with stored bars for an exchange.
	Symbols(ctx context.Context, exchange models.Exchange) ([]string, error)
}
