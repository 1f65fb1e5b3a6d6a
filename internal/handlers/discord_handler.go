package handlers

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// DiscordHandler forwards price-sensitive announcements to notification sinks
// and logs scan completions.
type DiscordHandler struct {
	sinks  []interfaces.NotificationSink
	logger arbor.ILogger
}

// NewDiscordHandler creates a notification handler over one or more sinks.
func NewDiscordHandler(sinks []interfaces.NotificationSink, logger arbor.ILogger) *DiscordHandler {
	return &DiscordHandler{
		sinks:  sinks,
		logger: logger,
	}
}

// Initialize subscribes the handler to the bus.
func (h *DiscordHandler) Initialize(bus interfaces.EventBus) error {
	if err := bus.Subscribe(interfaces.EventAnnouncementFound, h.handleAnnouncementFound); err != nil {
		return err
	}
	return bus.Subscribe(interfaces.EventScanCompleted, h.handleScanCompleted)
}

func (h *DiscordHandler) handleAnnouncementFound(ctx context.Context, event interfaces.Event) error {
	ann, ok := event.Payload.(models.AnnouncementFound)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for announcement event", event.Payload)
	}

	body := fmt.Sprintf("%s\n*%s %s*", ann.Headline, ann.Date, ann.Time)

	var lastErr error
	for _, sink := range h.sinks {
		if err := sink.Send(ctx, ann.Ticker, body); err != nil {
			h.logger.Error().
				Err(err).
				Str("ticker", ann.Ticker).
				Msg("Failed to deliver announcement notification")
			lastErr = err
		}
	}
	return lastErr
}

func (h *DiscordHandler) handleScanCompleted(ctx context.Context, event interfaces.Event) error {
	result, ok := event.Payload.(models.ScanCompleted)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for scan completed event", event.Payload)
	}

	if !result.Success {
		h.logger.Warn().
			Str("correlation_id", event.CorrelationID).
			Str("error", result.Error).
			Msg("Scan failed")
		return nil
	}

	h.logger.Info().
		Str("correlation_id", event.CorrelationID).
		Int("total_announcements", result.TotalAnnouncements).
		Int("processed", result.ProcessedCount).
		Msg("Scan completed")
	return nil
}
