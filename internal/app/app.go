package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/common"
	"github.com/ternarybob/gapscan/internal/handlers"
	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/services/announcements"
	"github.com/ternarybob/gapscan/internal/services/events"
	"github.com/ternarybob/gapscan/internal/services/importer"
	"github.com/ternarybob/gapscan/internal/services/notify"
	"github.com/ternarybob/gapscan/internal/services/scanner"
	"github.com/ternarybob/gapscan/internal/services/scheduler"
	"github.com/ternarybob/gapscan/internal/services/strategy"
	"github.com/ternarybob/gapscan/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB       *badger.BadgerDB
	BarStore interfaces.BarStore

	EventBus  *events.Bus
	Scheduler *scheduler.Service

	Tracker         *strategy.Tracker
	Registry        *strategy.Registry
	TriggerService  *strategy.TriggerService
	ScanService     *scanner.Service
	GapScanner      *scanner.GapScanner
	Downloader      *importer.Downloader
	Importer        *importer.CSVImporter

	// Event handlers
	ScanHandler     *handlers.ScanHandler
	DiscordHandler  *handlers.DiscordHandler
	StrategyHandler *handlers.StrategyHandler
	ImportHandler   *handlers.ImportHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initServices()

	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize event handlers: %w", err)
	}

	if err := app.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	return app, nil
}

func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.DB = db
	a.BarStore = badger.NewBarStorage(db, a.Logger)
	return nil
}

func (a *App) initServices() {
	cfg := a.Config

	a.EventBus = events.NewBus(cfg.Events.QueueSize, cfg.EventsDrainTimeout(), a.Logger)

	a.Tracker = strategy.NewTracker(strategy.DefaultLookback, a.Logger)

	provider := announcements.NewASXScanner(
		announcements.WithURL(cfg.Exchange.AnnouncementsURL),
		announcements.WithLogger(a.Logger),
		announcements.WithUserAgent(cfg.Exchange.UserAgent),
		announcements.WithHTTPClient(&http.Client{
			Timeout: parseDuration(cfg.Exchange.RequestTimeout, 30*time.Second),
		}),
		announcements.WithRetry(cfg.Exchange.MaxRetries, parseDuration(cfg.Exchange.RetryDelay, 2*time.Second)),
		announcements.WithRateLimit(parseDuration(cfg.Exchange.RateLimit, 2*time.Second)),
		announcements.WithTickerBounds(cfg.Exchange.MinTickerLength, cfg.Exchange.MaxTickerLength, cfg.Exchange.ExcludeTickers),
	)

	a.GapScanner = scanner.NewGapScanner(a.BarStore, a.Logger)

	annGapScanner := scanner.NewAnnouncementGapScanner(a.BarStore, a.Tracker, a.Logger)
	a.ScanService = scanner.NewService(provider, annGapScanner, a.EventBus, scanner.AnnouncementGapParams{
		MinPrice:       cfg.Strategy.MinPrice,
		MinGapPercent:  cfg.Strategy.MinGapPercent,
		LookbackMonths: cfg.Strategy.LookbackMonths,
	}, a.Logger).WithOpeningRangeTracker(a.GapScanner.Tracker(), cfg.Scan.OpeningRangeTime, cfg.Location())

	a.Registry = strategy.NewRegistry()
	strategyParams := strategy.AnnouncementGapParams{
		MinPrice:            cfg.Strategy.MinPrice,
		MinGapPercent:       cfg.Strategy.MinGapPercent,
		LookbackMonths:      cfg.Strategy.LookbackMonths,
		OpeningRangeMinutes: cfg.Strategy.OpeningRangeMin,
		ExitAfterDays:       cfg.Strategy.ExitAfterDays,
	}
	if err := a.Registry.Register(strategy.StrategyAnnouncementGap, func() strategy.Strategy {
		return strategy.NewAnnouncementGapStrategy(a.Tracker, a.BarStore, strategyParams, a.Logger)
	}); err != nil {
		a.Logger.Warn().Err(err).Msg("Strategy registration failed")
	}

	a.TriggerService = strategy.NewTriggerService(cfg.Broker.Enabled, []string{cfg.Strategy.Name}, a.Registry, a.Logger)

	a.Downloader = importer.NewDownloader(cfg.Data, cfg.Location(), a.Logger)
	a.Importer = importer.NewCSVImporter(cfg.Data.DownloadDir, a.BarStore, a.Logger)
}

func (a *App) initHandlers() error {
	cfg := a.Config

	var sinks []interfaces.NotificationSink
	sinks = append(sinks, notify.NewDiscordSink(
		cfg.Discord.WebhookURL,
		cfg.Discord.Username,
		cfg.Discord.Enabled,
		parseDuration(cfg.Discord.RateLimit, time.Second),
		a.Logger,
	))
	sinks = append(sinks, notify.NewEmailSink(cfg.Email, a.Logger))

	a.ScanHandler = handlers.NewScanHandler(a.ScanService, a.Logger)
	a.DiscordHandler = handlers.NewDiscordHandler(sinks, a.Logger)
	a.StrategyHandler = handlers.NewStrategyHandler(a.TriggerService, a.Logger)
	a.ImportHandler = handlers.NewImportHandler(a.Downloader, a.Importer, a.Logger)

	subscribers := []interfaces.EventSubscriber{
		a.ScanHandler,
		a.DiscordHandler,
		a.StrategyHandler,
		a.ImportHandler,
	}
	for _, sub := range subscribers {
		if err := sub.Initialize(a.EventBus); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) initScheduler() error {
	a.Scheduler = scheduler.NewService(a.Config.Location(), a.Logger)
	return scheduler.RegisterStandardJobs(a.Scheduler, a.EventBus, a.Config.Schedules)
}

// Start brings up the event bus and the scheduler.
func (a *App) Start() error {
	a.EventBus.Start()

	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	a.Logger.Info().
		Str("environment", a.Config.Environment).
		Str("timezone", a.Config.Timezone).
		Msg("Application started")
	return nil
}

// Stop shuts components down in reverse order: scheduler first so no new
// events are published, then the bus drain, then storage.
func (a *App) Stop() {
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler stop failed")
		}
	}

	if a.EventBus != nil {
		a.EventBus.Stop()
	}

	if a.Tracker != nil {
		a.Tracker.Prune(time.Now())
	}

	if a.DB != nil {
		a.DB.RunGC()
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Database close failed")
		}
	}

	a.Logger.Info().Msg("Application stopped")
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return fallback
}
