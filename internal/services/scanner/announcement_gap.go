package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// AnnouncementGapParams are the thresholds for the announcement gap scan.
type AnnouncementGapParams struct {
	MinPrice       float64
	MinGapPercent  float64
	LookbackMonths int
}

// AnnouncementGapScanner finds breakout candidates among stocks that
// announced today. A candidate must clear, in order: enough bar history,
// the price floor, the minimum gap, and a close strictly above the lookback
// high.
type AnnouncementGapScanner struct {
	store   interfaces.BarStore
	tracker interfaces.AnnouncementTracker
	logger  arbor.ILogger
}

// NewAnnouncementGapScanner creates an announcement gap scanner. tracker may
// be nil, in which case passing candidates are not recorded anywhere.
func NewAnnouncementGapScanner(store interfaces.BarStore, tracker interfaces.AnnouncementTracker, logger arbor.ILogger) *AnnouncementGapScanner {
	return &AnnouncementGapScanner{
		store:   store,
		tracker: tracker,
		logger:  logger,
	}
}

// ScanCandidates evaluates each announcement symbol against all conditions.
// Per-symbol evaluation errors are logged and skipped; one bad symbol never
// fails the scan.
func (s *AnnouncementGapScanner) ScanCandidates(ctx context.Context, symbols []models.AnnouncementSymbol, params AnnouncementGapParams) []models.AnnouncementGapCandidate {
	s.logger.Info().
		Int("symbol_count", len(symbols)).
		Str("min_price", fmt.Sprintf("%.2f", params.MinPrice)).
		Str("min_gap", fmt.Sprintf("%.2f%%", params.MinGapPercent)).
		Int("lookback_months", params.LookbackMonths).
		Msg("Scanning announcement symbols")

	var candidates []models.AnnouncementGapCandidate

	for _, sym := range symbols {
		candidate, err := s.evaluateSymbol(ctx, sym, params)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("symbol", sym.Symbol).
				Msg("Error evaluating symbol")
			continue
		}
		if candidate == nil {
			continue
		}

		candidates = append(candidates, *candidate)
		if s.tracker != nil {
			s.tracker.Record(sym.Symbol, sym.Time)
		}

		s.logger.Info().
			Str("symbol", sym.Symbol).
			Str("gap", fmt.Sprintf("%.2f%%", candidate.GapPercent)).
			Str("price", fmt.Sprintf("%.2f", candidate.CurrentPrice)).
			Str("lookback_high", fmt.Sprintf("%.2f", candidate.LookbackHigh)).
			Msg("Candidate found")
	}

	s.logger.Info().
		Int("candidates", len(candidates)).
		Msg("Announcement gap scan complete")

	return candidates
}

// evaluateSymbol checks one symbol against all conditions. A nil candidate
// with nil error means the symbol failed a filter.
func (s *AnnouncementGapScanner) evaluateSymbol(ctx context.Context, sym models.AnnouncementSymbol, params AnnouncementGapParams) (*models.AnnouncementGapCandidate, error) {
	bars, err := s.store.LoadBars(ctx, sym.Symbol, models.ExchangeLocal, models.IntervalDaily, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	if len(bars) < 2 {
		s.logger.Debug().
			Str("symbol", sym.Symbol).
			Msg("Insufficient bar data")
		return nil, nil
	}

	latest := bars[len(bars)-1]
	previous := bars[len(bars)-2]

	if latest.Close < params.MinPrice {
		s.logger.Debug().
			Str("symbol", sym.Symbol).
			Str("price", fmt.Sprintf("%.2f", latest.Close)).
			Msg("Below price floor")
		return nil, nil
	}

	if previous.Close <= 0 {
		s.logger.Warn().
			Str("symbol", sym.Symbol).
			Msg("Non-positive previous close")
		return nil, nil
	}

	gapPercent := GapPercent(previous.Close, latest.Open)

	if gapPercent < params.MinGapPercent {
		s.logger.Debug().
			Str("symbol", sym.Symbol).
			Str("gap", fmt.Sprintf("%.2f%%", gapPercent)).
			Msg("Gap below minimum")
		return nil, nil
	}

	lookbackHigh := s.lookbackHigh(bars, params.LookbackMonths, time.Now())

	// Strict comparison: a close equal to the lookback high is not a breakout.
	if latest.Close <= lookbackHigh {
		s.logger.Debug().
			Str("symbol", sym.Symbol).
			Str("price", fmt.Sprintf("%.2f", latest.Close)).
			Str("lookback_high", fmt.Sprintf("%.2f", lookbackHigh)).
			Msg("Not above lookback high")
		return nil, nil
	}

	return &models.AnnouncementGapCandidate{
		Symbol:               sym.Symbol,
		GapPercent:           gapPercent,
		LookbackHigh:         lookbackHigh,
		CurrentPrice:         latest.Close,
		AnnouncementHeadline: sym.Headline,
		AnnouncementTime:     sym.Time,
		Exchange:             models.ExchangeLocal,
	}, nil
}

// lookbackHigh returns the highest high among bars within the last
// months*30 days. When no bar falls inside the window it falls back to the
// latest bar's high.
func (s *AnnouncementGapScanner) lookbackHigh(bars []models.Bar, months int, now time.Time) float64 {
	if len(bars) == 0 {
		return 0
	}

	cutoff := now.AddDate(0, 0, -months*30)

	high := 0.0
	found := false
	for _, bar := range bars {
		if bar.Timestamp.Before(cutoff) {
			continue
		}
		if !found || bar.High > high {
			high = bar.High
			found = true
		}
	}

	if !found {
		return bars[len(bars)-1].High
	}
	return high
}
