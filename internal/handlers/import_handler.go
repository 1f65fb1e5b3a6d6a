package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// ImportHandler runs data downloads and CSV imports in response to their
// trigger events, publishing completion events that preserve the trigger's
// source and correlation id.
type ImportHandler struct {
	downloader interfaces.Downloader
	importer   interfaces.Importer
	bus        interfaces.EventBus
	logger     arbor.ILogger
}

// NewImportHandler creates an import handler.
func NewImportHandler(downloader interfaces.Downloader, importer interfaces.Importer, logger arbor.ILogger) *ImportHandler {
	return &ImportHandler{
		downloader: downloader,
		importer:   importer,
		logger:     logger,
	}
}

// Initialize subscribes the handler to the bus and keeps a reference for
// publishing completion events.
func (h *ImportHandler) Initialize(bus interfaces.EventBus) error {
	h.bus = bus
	if err := bus.Subscribe(interfaces.EventDownloadStarted, h.handleDownloadStarted); err != nil {
		return err
	}
	return bus.Subscribe(interfaces.EventImportStarted, h.handleImportStarted)
}

func (h *ImportHandler) handleDownloadStarted(ctx context.Context, event interfaces.Event) error {
	req, ok := event.Payload.(models.DownloadStarted)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for download event", event.Payload)
	}

	path, status, reason, err := h.downloader.Download(ctx, req.TargetDate)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("correlation_id", event.CorrelationID).
			Msg("Download failed")
	}

	return h.publish(interfaces.EventDownloadCompleted, event, models.DownloadCompleted{
		Filepath: path,
		Status:   status,
		Reason:   reason,
	})
}

func (h *ImportHandler) handleImportStarted(ctx context.Context, event interfaces.Event) error {
	summary, err := h.importer.ImportAll(ctx)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("correlation_id", event.CorrelationID).
			Msg("Import failed")
		summary = models.ImportCompleted{Status: "error"}
	}

	return h.publish(interfaces.EventImportCompleted, event, summary)
}

func (h *ImportHandler) publish(eventType interfaces.EventType, trigger interfaces.Event, payload interface{}) error {
	return h.bus.Publish(interfaces.Event{
		Type:          eventType,
		Source:        trigger.Source,
		CorrelationID: trigger.CorrelationID,
		Timestamp:     time.Now(),
		Payload:       payload,
	})
}
