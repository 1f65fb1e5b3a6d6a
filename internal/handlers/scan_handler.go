package handlers

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/services/scanner"
)

// ScanHandler starts an announcement scan whenever a scan_started event
// arrives, whether scheduled or manual.
type ScanHandler struct {
	scanService *scanner.Service
	logger      arbor.ILogger
}

// NewScanHandler creates a scan handler.
func NewScanHandler(scanService *scanner.Service, logger arbor.ILogger) *ScanHandler {
	return &ScanHandler{
		scanService: scanService,
		logger:      logger,
	}
}

// Initialize subscribes the handler to the bus.
func (h *ScanHandler) Initialize(bus interfaces.EventBus) error {
	return bus.Subscribe(interfaces.EventScanStarted, h.handleScanStarted)
}

func (h *ScanHandler) handleScanStarted(ctx context.Context, event interfaces.Event) error {
	h.logger.Info().
		Str("source", event.Source).
		Str("correlation_id", event.CorrelationID).
		Msg("Scan requested")

	h.scanService.Scan(ctx, event.Source, event.CorrelationID)
	return nil
}
