package scanner

import (
	"fmt"
	"math"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/models"
)

// GapDetector finds open gaps in daily bar series.
type GapDetector struct {
	logger arbor.ILogger
}

// NewGapDetector creates a gap detector
func NewGapDetector(logger arbor.ILogger) *GapDetector {
	return &GapDetector{logger: logger}
}

// GapPercent calculates the gap between a close and the following open as a
// percentage of the close.
func GapPercent(prevClose, currOpen float64) float64 {
	return (currOpen - prevClose) / prevClose * 100
}

// DetectGaps walks consecutive bar pairs and returns an opening range for
// every pair whose absolute gap meets the threshold. Bars must be in ascending
// timestamp order. Fewer than two bars yields no results. Pairs with a
// non-positive previous close are skipped rather than producing a bogus gap.
func (d *GapDetector) DetectGaps(bars []models.Bar, gapThreshold float64) []models.OpeningRange {
	if len(bars) < 2 {
		return nil
	}

	d.logger.Debug().
		Int("bar_count", len(bars)).
		Str("threshold", fmt.Sprintf("%.2f%%", gapThreshold)).
		Msg("Detecting gaps")

	var gaps []models.OpeningRange

	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		currOpen := bars[i].Open

		if prevClose <= 0 {
			d.logger.Warn().
				Str("symbol", bars[i].Symbol).
				Str("prev_close", fmt.Sprintf("%.4f", prevClose)).
				Msg("Non-positive previous close, skipping bar pair")
			continue
		}

		gapPercent := GapPercent(prevClose, currOpen)

		if math.Abs(gapPercent) >= gapThreshold {
			gaps = append(gaps, models.OpeningRange{
				Symbol:     bars[i].Symbol,
				ORH:        math.Max(bars[i].High, currOpen),
				ORL:        math.Min(bars[i].Low, currOpen),
				Price:      currOpen,
				SampleTime: bars[i].Timestamp,
			})

			d.logger.Info().
				Str("symbol", bars[i].Symbol).
				Str("gap", fmt.Sprintf("%+.2f%%", gapPercent)).
				Str("prev_close", fmt.Sprintf("%.2f", prevClose)).
				Str("open", fmt.Sprintf("%.2f", currOpen)).
				Msg("Detected gap")
		}
	}

	return gaps
}

// CalculateOpeningRange samples the opening range from the bar exactly
// matching sampleTime, falling back to the latest bar when no bar matches.
// An empty series is an error.
func (d *GapDetector) CalculateOpeningRange(bars []models.Bar, sampleTime time.Time) (models.OpeningRange, error) {
	if len(bars) == 0 {
		return models.OpeningRange{}, fmt.Errorf("no bar data provided")
	}

	target := bars[len(bars)-1]
	matched := false
	for _, bar := range bars {
		if bar.Timestamp.Equal(sampleTime) {
			target = bar
			matched = true
			break
		}
	}
	if !matched {
		d.logger.Warn().
			Str("symbol", target.Symbol).
			Str("sample_time", sampleTime.Format(time.RFC3339)).
			Msg("No bar at sample time, using latest bar")
	}

	return models.OpeningRange{
		Symbol:     target.Symbol,
		ORH:        math.Max(target.High, target.Open),
		ORL:        math.Min(target.Low, target.Open),
		Price:      target.Open,
		SampleTime: target.Timestamp,
	}, nil
}
