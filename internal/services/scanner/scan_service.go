package scanner

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
	"github.com/ternarybob/gapscan/internal/services/announcements"
)

// Service runs the announcement scan workflow: fetch the day's announcements,
// publish one event per price-sensitive announcement, evaluate announcement
// gap candidates, and report completion. Source and correlation ID of the
// originating trigger are carried onto every published event.
type Service struct {
	provider     interfaces.AnnouncementProvider
	gapScanner   *AnnouncementGapScanner
	orTracker    *OpeningRangeTracker
	orSampleTime string
	loc          *time.Location
	bus          interfaces.EventBus
	params       AnnouncementGapParams
	logger       arbor.ILogger
}

// NewService creates a scan workflow service
func NewService(provider interfaces.AnnouncementProvider, gapScanner *AnnouncementGapScanner, bus interfaces.EventBus, params AnnouncementGapParams, logger arbor.ILogger) *Service {
	return &Service{
		provider:   provider,
		gapScanner: gapScanner,
		bus:        bus,
		params:     params,
		logger:     logger,
	}
}

// WithOpeningRangeTracker attaches a tracker whose cache is refreshed for the
// symbols that pass the announcement gap conditions. sampleTime is the "HH:MM"
// market-local time the opening range is sampled at; empty means sample at
// whatever time the scan happens to run.
func (s *Service) WithOpeningRangeTracker(tracker *OpeningRangeTracker, sampleTime string, loc *time.Location) *Service {
	s.orTracker = tracker
	s.orSampleTime = sampleTime
	s.loc = loc
	return s
}

// openingRangeSampleTime resolves the configured "HH:MM" to today's date in
// the market timezone. An unset or unparsable time falls back to now.
func (s *Service) openingRangeSampleTime(now time.Time) time.Time {
	if s.orSampleTime == "" || s.loc == nil {
		return now
	}

	parsed, err := time.Parse("15:04", s.orSampleTime)
	if err != nil {
		s.logger.Warn().
			Str("opening_range_time", s.orSampleTime).
			Msg("Invalid opening range time, sampling at current time")
		return now
	}

	local := now.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), parsed.Hour(), parsed.Minute(), 0, 0, s.loc)
}

// Scan executes the workflow. Failures publish an unsuccessful completion
// event rather than returning an error to the caller.
func (s *Service) Scan(ctx context.Context, source, correlationID string) {
	s.logger.Info().
		Str("correlation_id", correlationID).
		Msg("Starting announcement scan")

	anns, err := s.provider.FetchAnnouncements(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("correlation_id", correlationID).
			Msg("Announcement fetch failed")
		s.publishCompleted(source, correlationID, models.ScanCompleted{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	s.logger.Info().
		Int("announcement_count", len(anns)).
		Msg("Processing announcements")

	processed := 0
	var gapSymbols []models.AnnouncementSymbol

	for _, ann := range anns {
		relevance, reason := announcements.Classify(ann.Headline, ann.PriceSensitive)
		if halt, reinstated := announcements.DetectTradingHalt(ann.Headline); halt || reinstated {
			s.logger.Info().
				Str("ticker", ann.Ticker).
				Bool("reinstatement", reinstated).
				Msg("Trading halt announcement")
		}

		if !ann.PriceSensitive {
			s.logger.Debug().
				Str("ticker", ann.Ticker).
				Str("relevance", string(relevance)).
				Str("reason", reason).
				Msg("Skipping non price-sensitive announcement")
			continue
		}

		if err := s.bus.Publish(interfaces.Event{
			Type:          interfaces.EventAnnouncementFound,
			Source:        source,
			CorrelationID: correlationID,
			Timestamp:     time.Now(),
			Payload: models.AnnouncementFound{
				Ticker:    ann.Ticker,
				Headline:  ann.Headline,
				Date:      ann.Date,
				Time:      ann.Time,
				Timestamp: time.Now(),
			},
		}); err != nil {
			s.logger.Error().
				Err(err).
				Str("ticker", ann.Ticker).
				Msg("Failed to publish announcement event")
			continue
		}
		processed++

		gapSymbols = append(gapSymbols, models.AnnouncementSymbol{
			Symbol:   ann.Ticker,
			Headline: ann.Headline,
			Time:     parseAnnouncementTime(ann),
		})
	}

	if s.gapScanner != nil && len(gapSymbols) > 0 {
		candidates := s.gapScanner.ScanCandidates(ctx, gapSymbols, s.params)
		s.logger.Info().
			Int("gap_candidates", len(candidates)).
			Str("correlation_id", correlationID).
			Msg("Announcement gap candidates evaluated")

		if s.orTracker != nil && len(candidates) > 0 {
			symbols := make([]string, 0, len(candidates))
			for _, c := range candidates {
				symbols = append(symbols, c.Symbol)
			}
			if _, err := s.orTracker.SampleOpeningRange(ctx, symbols, s.openingRangeSampleTime(time.Now())); err != nil {
				s.logger.Error().
					Err(err).
					Str("correlation_id", correlationID).
					Msg("Opening range sampling failed")
			}
		}
	}

	s.publishCompleted(source, correlationID, models.ScanCompleted{
		TotalAnnouncements: len(anns),
		ProcessedCount:     processed,
		Success:            true,
	})

	s.logger.Info().
		Int("processed", processed).
		Str("correlation_id", correlationID).
		Msg("Scan complete")
}

func (s *Service) publishCompleted(source, correlationID string, payload models.ScanCompleted) {
	if err := s.bus.Publish(interfaces.Event{
		Type:          interfaces.EventScanCompleted,
		Source:        source,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
		Payload:       payload,
	}); err != nil {
		s.logger.Error().
			Err(err).
			Str("correlation_id", correlationID).
			Msg("Failed to publish scan completed event")
	}
}

// parseAnnouncementTime combines the announcement's published date and time
// into a timestamp, defaulting to now when either fails to parse.
func parseAnnouncementTime(ann models.Announcement) time.Time {
	if ann.Date != "" && ann.Time != "" {
		if ts, err := time.ParseInLocation("2006-01-02 15:04", ann.Date+" "+ann.Time, time.Local); err == nil {
			return ts
		}
	}
	return time.Now()
}
