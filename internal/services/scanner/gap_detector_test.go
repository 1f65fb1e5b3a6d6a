package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/gapscan/internal/common"
	"github.com/ternarybob/gapscan/internal/models"
)

func dailyBar(symbol string, day int, open, high, low, close float64, volume int64) models.Bar {
	return models.Bar{
		Symbol:    symbol,
		Exchange:  models.ExchangeLocal,
		Interval:  models.IntervalDaily,
		Timestamp: time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

func TestDetectGaps_UpGap(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	bars := []models.Bar{
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 500000),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 750000),
	}

	gaps := d.DetectGaps(bars, 3.0)
	require.Len(t, gaps, 1)

	// (11.50 - 10.00) / 10.00 * 100 = 15%
	assert.Equal(t, "BHP", gaps[0].Symbol)
	assert.InDelta(t, 12.00, gaps[0].ORH, 1e-9)
	assert.InDelta(t, 11.40, gaps[0].ORL, 1e-9)
	assert.InDelta(t, 11.50, gaps[0].Price, 1e-9)
	assert.Equal(t, bars[1].Timestamp, gaps[0].SampleTime)
}

func TestDetectGaps_DownGapQualifiesByAbsoluteValue(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	bars := []models.Bar{
		dailyBar("FMG", 1, 10.00, 10.20, 9.90, 10.00, 500000),
		dailyBar("FMG", 2, 9.50, 9.60, 9.30, 9.40, 400000),
	}

	gaps := d.DetectGaps(bars, 3.0)
	require.Len(t, gaps, 1)
	assert.InDelta(t, 9.50, gaps[0].Price, 1e-9)
}

func TestDetectGaps_BelowThresholdExcluded(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	bars := []models.Bar{
		dailyBar("CSL", 1, 100.00, 101.00, 99.00, 100.00, 500000),
		dailyBar("CSL", 2, 102.00, 103.00, 101.50, 102.50, 500000),
	}

	// 2% gap, threshold 3%
	gaps := d.DetectGaps(bars, 3.0)
	assert.Empty(t, gaps)
}

func TestDetectGaps_ThresholdBoundaryIncluded(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	bars := []models.Bar{
		dailyBar("WES", 1, 10.00, 10.10, 9.90, 10.00, 500000),
		dailyBar("WES", 2, 10.30, 10.40, 10.25, 10.35, 500000),
	}

	// Exactly 3%
	gaps := d.DetectGaps(bars, 3.0)
	assert.Len(t, gaps, 1)
}

func TestDetectGaps_InsufficientBars(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	assert.Empty(t, d.DetectGaps(nil, 3.0))
	assert.Empty(t, d.DetectGaps([]models.Bar{dailyBar("BHP", 1, 10, 10, 10, 10, 1)}, 3.0))
}

func TestDetectGaps_SkipsNonPositivePreviousClose(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	bars := []models.Bar{
		dailyBar("NEW", 1, 0, 0, 0, 0, 0),
		dailyBar("NEW", 2, 1.00, 1.10, 0.95, 1.05, 100000),
		dailyBar("NEW", 3, 1.20, 1.25, 1.18, 1.22, 150000),
	}

	// First pair has a zero previous close and is skipped; second pair gaps
	// (1.20 - 1.05) / 1.05 = 14.3%.
	gaps := d.DetectGaps(bars, 3.0)
	require.Len(t, gaps, 1)
	assert.Equal(t, bars[2].Timestamp, gaps[0].SampleTime)
}

func TestDetectGaps_MultipleGapsInOneSeries(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	bars := []models.Bar{
		dailyBar("PLS", 1, 10.00, 10.10, 9.90, 10.00, 1),
		dailyBar("PLS", 2, 10.50, 10.60, 10.45, 10.55, 1), // +5%
		dailyBar("PLS", 3, 10.60, 10.70, 10.55, 10.60, 1), // +0.47%
		dailyBar("PLS", 4, 10.00, 10.10, 9.95, 10.05, 1),  // -5.66%
	}

	gaps := d.DetectGaps(bars, 3.0)
	assert.Len(t, gaps, 2)
}

func TestDetectGaps_ScaleInvariant(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	base := []models.Bar{
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 500000),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 750000),
	}
	baseGapPct := GapPercent(base[0].Close, base[1].Open)

	for _, k := range []float64{0.01, 0.5, 2.0, 100.0} {
		scaled := make([]models.Bar, len(base))
		for i, b := range base {
			b.Open *= k
			b.High *= k
			b.Low *= k
			b.Close *= k
			scaled[i] = b
		}

		assert.InDelta(t, baseGapPct, GapPercent(scaled[0].Close, scaled[1].Open), 1e-9,
			"gap percent changed under scale %v", k)

		gaps := d.DetectGaps(scaled, 3.0)
		require.Len(t, gaps, 1, "gap set changed under scale %v", k)
		assert.Equal(t, base[1].Timestamp, gaps[0].SampleTime)
	}
}

func TestCalculateOpeningRange_ExactMatch(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	bars := []models.Bar{
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 1),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 1),
	}

	or, err := d.CalculateOpeningRange(bars, bars[0].Timestamp)
	require.NoError(t, err)
	assert.InDelta(t, 10.10, or.ORH, 1e-9)
	assert.InDelta(t, 9.70, or.ORL, 1e-9)
}

func TestCalculateOpeningRange_FallsBackToLatestBar(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	bars := []models.Bar{
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 1),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 1),
	}

	or, err := d.CalculateOpeningRange(bars, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, bars[1].Timestamp, or.SampleTime)
	assert.InDelta(t, 12.00, or.ORH, 1e-9)
}

func TestCalculateOpeningRange_EmptySeries(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	_, err := d.CalculateOpeningRange(nil, time.Now())
	assert.Error(t, err)
}

func TestCalculateOpeningRange_OpenOutsideHighLow(t *testing.T) {
	d := NewGapDetector(common.GetLogger())

	// Open above the recorded high widens the range upward.
	bars := []models.Bar{
		{Symbol: "ODD", Timestamp: time.Now(), Open: 10.50, High: 10.40, Low: 10.00, Close: 10.20},
	}

	or, err := d.CalculateOpeningRange(bars, bars[0].Timestamp)
	require.NoError(t, err)
	assert.InDelta(t, 10.50, or.ORH, 1e-9)
	assert.InDelta(t, 10.00, or.ORL, 1e-9)
}
