package strategy

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
)

// TriggerService launches the configured strategies when an announcement
// arrives. Per-strategy failures are logged and do not stop the rest.
type TriggerService struct {
	enabled       bool
	strategyNames []string
	registry      *Registry
	logger        arbor.ILogger
}

// NewTriggerService creates a strategy trigger service
func NewTriggerService(enabled bool, strategyNames []string, registry *Registry, logger arbor.ILogger) *TriggerService {
	return &TriggerService{
		enabled:       enabled,
		strategyNames: strategyNames,
		registry:      registry,
		logger:        logger,
	}
}

// TriggerStrategies runs every configured strategy for the announcement.
func (s *TriggerService) TriggerStrategies(ctx context.Context, ticker, headline string) {
	if !s.enabled {
		s.logger.Info().
			Str("ticker", ticker).
			Msg("Strategy triggering disabled, skipping")
		return
	}

	for _, name := range s.strategyNames {
		strat, err := s.registry.Get(name)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("strategy", name).
				Str("ticker", ticker).
				Msg("Strategy not found")
			continue
		}

		s.logger.Info().
			Str("strategy", name).
			Str("ticker", ticker).
			Str("headline", headline).
			Msg("Triggering strategy")

		if err := strat.OnAnnouncement(ctx, ticker, headline); err != nil {
			s.logger.Error().
				Err(err).
				Str("strategy", name).
				Str("ticker", ticker).
				Msg("Strategy execution failed")
		}
	}
}

// Trigger launches one named strategy for a symbol. Unknown names error.
func (s *TriggerService) Trigger(ctx context.Context, strategyName, symbol string) error {
	if !s.enabled {
		return nil
	}

	strat, err := s.registry.Get(strategyName)
	if err != nil {
		return err
	}

	if err := strat.OnAnnouncement(ctx, symbol, ""); err != nil {
		return fmt.Errorf("strategy %q failed for %s: %w", strategyName, symbol, err)
	}
	return nil
}
