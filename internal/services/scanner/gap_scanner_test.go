package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/gapscan/internal/common"
	"github.com/ternarybob/gapscan/internal/models"
)

func TestStartScan_FindsGapCandidates(t *testing.T) {
	store := newFakeBarStore()
	store.add(
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 500000),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 750000),
		dailyBar("CSL", 1, 100.00, 101.00, 99.00, 100.00, 500000),
		dailyBar("CSL", 2, 101.00, 102.00, 100.50, 101.50, 500000),
	)

	s := NewGapScanner(store, common.GetLogger())

	resp, candidates := s.StartScan(context.Background(), models.ScanRequest{
		GapThreshold: 3.0,
		MaxResults:   50,
	})

	require.True(t, resp.Success)
	require.Len(t, candidates, 1)
	assert.Equal(t, "BHP", candidates[0].Symbol)
	assert.Equal(t, models.GapUp, candidates[0].GapDirection)
	assert.InDelta(t, 15.0, candidates[0].GapPercent, 1e-9)
	assert.InDelta(t, 10.00, candidates[0].PreviousClose, 1e-9)
	assert.InDelta(t, 11.50, candidates[0].OpenPrice, 1e-9)
	assert.Equal(t, 1, resp.CandidatesCount)
}

func TestStartScan_AppliesPriceAndVolumeFilters(t *testing.T) {
	store := newFakeBarStore()
	// Gaps on both symbols, but PNY's latest close is below the floor.
	store.add(
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 500000),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 750000),
		dailyBar("PNY", 1, 0.10, 0.11, 0.09, 0.10, 900000),
		dailyBar("PNY", 2, 0.12, 0.13, 0.11, 0.12, 900000),
	)

	s := NewGapScanner(store, common.GetLogger())

	_, candidates := s.StartScan(context.Background(), models.ScanRequest{
		GapThreshold: 3.0,
		MinPrice:     1.00,
		MinVolume:    100000,
		MaxResults:   50,
	})

	require.Len(t, candidates, 1)
	assert.Equal(t, "BHP", candidates[0].Symbol)
}

func TestStartScan_MaxResultsCap(t *testing.T) {
	store := newFakeBarStore()
	store.add(
		dailyBar("AAA", 1, 10.00, 10.10, 9.90, 10.00, 1000000),
		dailyBar("AAA", 2, 11.00, 11.10, 10.90, 11.00, 1000000),
		dailyBar("BBB", 1, 10.00, 10.10, 9.90, 10.00, 1000000),
		dailyBar("BBB", 2, 11.00, 11.10, 10.90, 11.00, 1000000),
		dailyBar("CCC", 1, 10.00, 10.10, 9.90, 10.00, 1000000),
		dailyBar("CCC", 2, 11.00, 11.10, 10.90, 11.00, 1000000),
	)

	s := NewGapScanner(store, common.GetLogger())

	_, candidates := s.StartScan(context.Background(), models.ScanRequest{
		GapThreshold: 3.0,
		MaxResults:   2,
	})

	assert.Len(t, candidates, 2)
}

func TestStartScan_SingleFlight(t *testing.T) {
	store := newFakeBarStore()
	store.add(
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 500000),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 750000),
	)
	store.delay = 200 * time.Millisecond

	s := NewGapScanner(store, common.GetLogger())

	var wg sync.WaitGroup
	results := make([]models.ScanResponse, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, _ := s.StartScan(context.Background(), models.ScanRequest{GapThreshold: 3.0, MaxResults: 50})
			results[i] = resp
		}(i)
		time.Sleep(50 * time.Millisecond)
	}
	wg.Wait()

	succeeded := 0
	rejected := 0
	for _, resp := range results {
		if resp.Success {
			succeeded++
		} else {
			rejected++
			assert.Equal(t, "Scan already in progress", resp.Message)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	status := s.GetStatus()
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.LastScanResults)
}

func TestStartScan_EmptyStore(t *testing.T) {
	s := NewGapScanner(newFakeBarStore(), common.GetLogger())

	resp, candidates := s.StartScan(context.Background(), models.ScanRequest{GapThreshold: 3.0})
	assert.True(t, resp.Success)
	assert.Empty(t, candidates)
}

func TestGetStatus_TracksLastScan(t *testing.T) {
	store := newFakeBarStore()
	store.add(
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 500000),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 750000),
	)

	s := NewGapScanner(store, common.GetLogger())

	before := s.GetStatus()
	assert.True(t, before.LastScanTime.IsZero())

	s.StartScan(context.Background(), models.ScanRequest{GapThreshold: 3.0, MaxResults: 50})

	after := s.GetStatus()
	assert.False(t, after.LastScanTime.IsZero())
	assert.Equal(t, 1, after.LastScanResults)
	assert.Equal(t, 0, after.ActiveScans)
}

func TestGetCandidatesForDate(t *testing.T) {
	store := newFakeBarStore()
	store.add(
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 500000),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 750000),
		dailyBar("BHP", 3, 11.90, 12.10, 11.80, 12.00, 600000),
	)

	s := NewGapScanner(store, common.GetLogger())

	candidates, err := s.GetCandidatesForDate(context.Background(), time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 15.0, candidates[0].GapPercent, 1e-9)
	assert.Equal(t, int64(750000), candidates[0].Volume)
}

func TestSampleOpeningRanges_ReplacesByKey(t *testing.T) {
	store := newFakeBarStore()
	store.add(
		dailyBar("BHP", 1, 9.80, 10.10, 9.70, 10.00, 500000),
		dailyBar("BHP", 2, 11.50, 12.00, 11.40, 11.80, 750000),
	)

	s := NewGapScanner(store, common.GetLogger())
	candidates := []models.GapCandidate{{Symbol: "BHP"}}

	first, err := s.SampleOpeningRanges(context.Background(), candidates, dailyBar("BHP", 1, 0, 0, 0, 0, 0).Timestamp)
	require.NoError(t, err)
	require.InDelta(t, 10.10, first["BHP"].ORH, 1e-9)

	// A later pass on the same symbol replaces the cached entry.
	second, err := s.SampleOpeningRanges(context.Background(), candidates, dailyBar("BHP", 2, 0, 0, 0, 0, 0).Timestamp)
	require.NoError(t, err)
	require.InDelta(t, 12.00, second["BHP"].ORH, 1e-9)

	cached, ok := s.Tracker().GetOpeningRange("BHP")
	require.True(t, ok)
	assert.InDelta(t, 12.00, cached.ORH, 1e-9)
}
