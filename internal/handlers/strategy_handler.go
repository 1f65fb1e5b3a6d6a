package handlers

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// StrategyHandler launches the configured trading strategies for each
// price-sensitive announcement.
type StrategyHandler struct {
	trigger interfaces.StrategyTrigger
	logger  arbor.ILogger
}

// NewStrategyHandler creates a strategy handler.
func NewStrategyHandler(trigger interfaces.StrategyTrigger, logger arbor.ILogger) *StrategyHandler {
	return &StrategyHandler{
		trigger: trigger,
		logger:  logger,
	}
}

// Initialize subscribes the handler to the bus.
func (h *StrategyHandler) Initialize(bus interfaces.EventBus) error {
	return bus.Subscribe(interfaces.EventAnnouncementFound, h.handleAnnouncementFound)
}

func (h *StrategyHandler) handleAnnouncementFound(ctx context.Context, event interfaces.Event) error {
	ann, ok := event.Payload.(models.AnnouncementFound)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for announcement event", event.Payload)
	}

	h.trigger.TriggerStrategies(ctx, ann.Ticker, ann.Headline)
	return nil
}
