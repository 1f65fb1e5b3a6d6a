package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/gapscan/internal/models"
)

// AnnouncementProvider fetches the day's company announcements from the
// exchange.
type AnnouncementProvider interface {
	// FetchAnnouncements returns today's announcements. Implementations
	// handle retries internally and return only terminal failures.
	FetchAnnouncements(ctx context.Context) ([]models.Announcement, error)
}

// NotificationSink delivers formatted notifications to an external channel.
type NotificationSink interface {
	// Send delivers a single message. A nil error means the sink accepted it.
	Send(ctx context.Context, subject, body string) error
}

// AnnouncementTracker records which symbols announced on which day so the
// strategy layer can gate entries on a same-day announcement.
type AnnouncementTracker interface {
	// Record notes that symbol announced at the given time.
	Record(symbol string, announcedAt time.Time)

	// AnnouncedToday reports whether symbol has a recorded announcement
	// within the lookback window ending at now.
	AnnouncedToday(symbol string, now time.Time) bool

	// Prune drops entries older than the lookback window.
	Prune(now time.Time)
}

// StrategyTrigger launches trading strategies for an announced symbol.
type StrategyTrigger interface {
	// TriggerStrategies runs every configured strategy for the announcement.
	// Best-effort: per-strategy failures are logged, not returned.
	TriggerStrategies(ctx context.Context, ticker, headline string)
}

// Downloader fetches one day's market data file to local storage.
type Downloader interface {
	// Download fetches data for targetDate (empty means the previous day)
	// and returns the stored file path. Status semantics follow
	// models.DownloadCompleted.
	Download(ctx context.Context, targetDate string) (filepath string, status string, reason string, err error)
}

// Importer loads downloaded CSV files into the bar store.
type Importer interface {
	// ImportAll imports every pending file and reports aggregate counts.
	ImportAll(ctx context.Context) (models.ImportCompleted, error)
}
