package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/common"
	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// GapScanner orchestrates gap detection across every stored symbol. Scans are
// single-flight: a scan requested while one is running is rejected, not queued.
type GapScanner struct {
	store    interfaces.BarStore
	detector *GapDetector
	filter   *PriceVolumeFilter
	tracker  *OpeningRangeTracker
	logger   arbor.ILogger

	mu     sync.Mutex
	status models.ScanStatus
}

// NewGapScanner creates a gap scanner
func NewGapScanner(store interfaces.BarStore, logger arbor.ILogger) *GapScanner {
	return &GapScanner{
		store:    store,
		detector: NewGapDetector(logger),
		filter:   NewPriceVolumeFilter(store, logger),
		tracker:  NewOpeningRangeTracker(store, logger),
		logger:   logger,
	}
}

// Tracker exposes the scanner's opening range tracker.
func (s *GapScanner) Tracker() *OpeningRangeTracker {
	return s.tracker
}

// StartScan runs a gap scan with the given thresholds. A second scan started
// while one is in flight gets a rejection response, never a queued scan.
// LastScanTime records the attempt; LastScanResults only changes on success.
func (s *GapScanner) StartScan(ctx context.Context, request models.ScanRequest) (models.ScanResponse, []models.GapCandidate) {
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		s.logger.Warn().Msg("Scan already in progress")
		return models.ScanResponse{
			Success: false,
			Message: "Scan already in progress",
		}, nil
	}
	s.status.Running = true
	s.status.ActiveScans++
	s.status.LastScanTime = time.Now()
	s.mu.Unlock()

	scanID := common.NewScanID()

	defer func() {
		s.mu.Lock()
		s.status.Running = false
		s.status.ActiveScans--
		s.mu.Unlock()
	}()

	s.logger.Info().
		Str("scan_id", scanID).
		Str("gap_threshold", fmt.Sprintf("%.2f%%", request.GapThreshold)).
		Msg("Starting gap scan")

	candidates, err := s.executeScan(ctx, request)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("scan_id", scanID).
			Msg("Gap scan failed")
		return models.ScanResponse{
			Success: false,
			ScanID:  scanID,
			Message: fmt.Sprintf("Scan failed: %v", err),
		}, nil
	}

	s.mu.Lock()
	s.status.LastScanResults = len(candidates)
	s.mu.Unlock()

	return models.ScanResponse{
		Success:         true,
		ScanID:          scanID,
		CandidatesCount: len(candidates),
		Message:         fmt.Sprintf("Scan completed. Found %d candidates", len(candidates)),
	}, candidates
}

func (s *GapScanner) executeScan(ctx context.Context, request models.ScanRequest) ([]models.GapCandidate, error) {
	symbols, err := s.store.Symbols(ctx, models.ExchangeLocal)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	if len(symbols) == 0 {
		s.logger.Warn().Msg("No bar data available for gap scanning")
		return nil, nil
	}

	s.logger.Info().
		Int("symbol_count", len(symbols)).
		Msg("Processing symbols for gap detection")

	var candidates []models.GapCandidate

	for _, symbol := range symbols {
		bars, err := s.store.LoadBars(ctx, symbol, models.ExchangeLocal, models.IntervalDaily, time.Time{}, time.Time{})
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("symbol", symbol).
				Msg("Failed to load bars, skipping symbol")
			continue
		}
		if len(bars) < 2 {
			continue
		}

		gaps := s.detector.DetectGaps(bars, request.GapThreshold)

		prevClose := bars[len(bars)-2].Close
		latestVolume := bars[len(bars)-1].Volume

		for _, gap := range gaps {
			gapPercent := GapPercent(prevClose, gap.Price)

			direction := models.GapUp
			if gapPercent < 0 {
				direction = models.GapDown
			}

			candidates = append(candidates, models.GapCandidate{
				Symbol:        gap.Symbol,
				GapPercent:    gapPercent,
				GapDirection:  direction,
				PreviousClose: prevClose,
				OpenPrice:     gap.Price,
				Volume:        latestVolume,
				Price:         gap.Price,
				Timestamp:     gap.SampleTime,
			})
		}
	}

	s.logger.Info().
		Int("raw_candidates", len(candidates)).
		Msg("Gap detection complete")

	if request.MinPrice > 0 || request.MinVolume > 0 {
		symbolSet := make(map[string]bool)
		var symbolList []string
		for _, c := range candidates {
			if !symbolSet[c.Symbol] {
				symbolSet[c.Symbol] = true
				symbolList = append(symbolList, c.Symbol)
			}
		}

		filtered, err := s.filter.ApplyFilters(ctx, symbolList, request.MinPrice, request.MinVolume)
		if err != nil {
			return nil, err
		}

		keep := make(map[string]bool, len(filtered))
		for _, symbol := range filtered {
			keep[symbol] = true
		}

		kept := candidates[:0]
		for _, c := range candidates {
			if keep[c.Symbol] {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	if request.MaxResults > 0 && len(candidates) > request.MaxResults {
		candidates = candidates[:request.MaxResults]
	}

	s.logger.Info().
		Int("final_candidates", len(candidates)).
		Msg("Gap scan complete")

	return candidates, nil
}

// SampleOpeningRanges samples opening ranges for a set of candidates.
func (s *GapScanner) SampleOpeningRanges(ctx context.Context, candidates []models.GapCandidate, sampleTime time.Time) (map[string]models.OpeningRange, error) {
	symbols := make([]string, 0, len(candidates))
	for _, c := range candidates {
		symbols = append(symbols, c.Symbol)
	}
	return s.tracker.SampleOpeningRange(ctx, symbols, sampleTime)
}

// GetStatus returns a copy of the scanner status.
func (s *GapScanner) GetStatus() models.ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// GetCandidatesForDate recomputes gap candidates for the bars of one calendar
// day. It never touches scanner status and needs no scan lock.
func (s *GapScanner) GetCandidatesForDate(ctx context.Context, date time.Time) ([]models.GapCandidate, error) {
	symbols, err := s.store.Symbols(ctx, models.ExchangeLocal)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	var candidates []models.GapCandidate

	for _, symbol := range symbols {
		bars, err := s.store.LoadBars(ctx, symbol, models.ExchangeLocal, models.IntervalDaily, time.Time{}, time.Time{})
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("symbol", symbol).
				Msg("Failed to load bars, skipping symbol")
			continue
		}

		for i := 1; i < len(bars); i++ {
			y1, m1, d1 := bars[i].Timestamp.Date()
			y2, m2, d2 := date.Date()
			if y1 != y2 || m1 != m2 || d1 != d2 {
				continue
			}

			prevClose := bars[i-1].Close
			if prevClose <= 0 {
				continue
			}
			currOpen := bars[i].Open
			gapPercent := GapPercent(prevClose, currOpen)

			direction := models.GapUp
			if gapPercent < 0 {
				direction = models.GapDown
			}

			candidates = append(candidates, models.GapCandidate{
				Symbol:        bars[i].Symbol,
				GapPercent:    gapPercent,
				GapDirection:  direction,
				PreviousClose: prevClose,
				OpenPrice:     currOpen,
				Volume:        bars[i].Volume,
				Price:         currOpen,
				Timestamp:     bars[i].Timestamp,
			})
		}
	}

	s.logger.Info().
		Int("candidates", len(candidates)).
		Str("date", date.Format("2006-01-02")).
		Msg("Candidates for date computed")

	return candidates, nil
}
