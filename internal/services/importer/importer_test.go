package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/gapscan/internal/common"
	"github.com/ternarybob/gapscan/internal/models"
)

type memoryBarStore struct {
	bars    map[string]models.Bar
	saveErr error
}

func newMemoryBarStore() *memoryBarStore {
	return &memoryBarStore{bars: make(map[string]models.Bar)}
}

func (m *memoryBarStore) LoadBars(ctx context.Context, symbol string, exchange models.Exchange, interval models.Interval, from, to time.Time) ([]models.Bar, error) {
	var out []models.Bar
	for _, b := range m.bars {
		if b.Symbol == symbol && b.Exchange == exchange && b.Interval == interval {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryBarStore) SaveBars(ctx context.Context, bars []models.Bar) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, b := range bars {
		m.bars[b.Key()] = b
	}
	return nil
}

func (m *memoryBarStore) Overview(ctx context.Context, symbol string, exchange models.Exchange, interval models.Interval) (*models.BarOverview, error) {
	return nil, nil
}

func (m *memoryBarStore) Symbols(ctx context.Context, exchange models.Exchange) ([]string, error) {
	return nil, nil
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVImporter_ImportsBars(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "20260826.csv",
		"GNP,26/08/2026,1.10,1.20,1.08,1.18,250000\n"+
			"bhp,26/08/2026,42.10,42.80,41.90,42.50,1500000\n")

	store := newMemoryBarStore()
	imp := NewCSVImporter(dir, store, common.GetLogger())

	summary, err := imp.ImportAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalFiles)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 0, summary.Errors)
	assert.Equal(t, 2, summary.TotalBars)
	assert.Equal(t, StatusSuccess, summary.Status)

	bars, err := store.LoadBars(context.Background(), "BHP", models.ExchangeLocal, models.IntervalDaily, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "BHP", bars[0].Symbol)
	assert.Equal(t, 42.50, bars[0].Close)
	assert.Equal(t, int64(1500000), bars[0].Volume)
	assert.Equal(t, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
}

func TestCSVImporter_SkipsAlreadyProcessedFiles(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "20260826.csv", "GNP,26/08/2026,1.10,1.20,1.08,1.18,250000\n")

	store := newMemoryBarStore()
	imp := NewCSVImporter(dir, store, common.GetLogger())

	first, err := imp.ImportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Success)

	second, err := imp.ImportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.TotalFiles)
	assert.Equal(t, 0, second.Success)
}

func TestCSVImporter_MalformedRowsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "20260826.csv",
		"GNP,26/08/2026,1.10,1.20,1.08,1.18,250000\n"+
			"BAD,not-a-date,1.0,1.0,1.0,1.0,100\n"+
			"XYZ,26/08/2026,abc,1.0,1.0,1.0,100\n")

	store := newMemoryBarStore()
	imp := NewCSVImporter(dir, store, common.GetLogger())

	summary, err := imp.ImportAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.TotalBars)
}

func TestCSVImporter_EmptyFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "20260826.csv", "")

	imp := NewCSVImporter(dir, newMemoryBarStore(), common.GetLogger())

	summary, err := imp.ImportAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalFiles)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Success)
}

func TestCSVImporter_SaveFailureCountsAsError(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "20260826.csv", "GNP,26/08/2026,1.10,1.20,1.08,1.18,250000\n")

	store := newMemoryBarStore()
	store.saveErr = assert.AnError
	imp := NewCSVImporter(dir, store, common.GetLogger())

	summary, err := imp.ImportAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 0, summary.Success)
}

func TestCSVImporter_BarsSortedByDate(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "mixed.csv",
		"GNP,27/08/2026,1.18,1.25,1.15,1.22,300000\n"+
			"GNP,26/08/2026,1.10,1.20,1.08,1.18,250000\n")

	store := newMemoryBarStore()
	imp := NewCSVImporter(dir, store, common.GetLogger())

	summary, err := imp.ImportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalBars)
	assert.Len(t, store.bars, 2)
}

func TestParseRow_RejectsShortRecords(t *testing.T) {
	_, err := parseRow([]string{"GNP", "26/08/2026", "1.10"})
	assert.Error(t, err)
}

func TestDownloader_SavesFile(t *testing.T) {
	body := "GNP,26/08/2026,1.10,1.20,1.08,1.18,250000\n"
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write([]byte(body))
	}))
	defer server.Close()

	dir := t.TempDir()
	cfg := common.DataConfig{
		DownloadDir: dir,
		DownloadURL: server.URL + "/{date}.csv",
	}
	d := NewDownloader(cfg, time.UTC, common.GetLogger())

	path, status, reason, err := d.Download(context.Background(), "2026-08-26")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, status)
	assert.Empty(t, reason)
	assert.Equal(t, "/20260826.csv", requestedPath)
	assert.Equal(t, filepath.Join(dir, "20260826.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestDownloader_NotFoundIsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := common.DataConfig{
		DownloadDir: t.TempDir(),
		DownloadURL: server.URL + "/{date}.csv",
	}
	d := NewDownloader(cfg, time.UTC, common.GetLogger())

	path, status, reason, err := d.Download(context.Background(), "2026-08-26")
	require.NoError(t, err)

	assert.Empty(t, path)
	assert.Equal(t, StatusSkipped, status)
	assert.Equal(t, "no file available", reason)
}

func TestDownloader_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("GNP,26/08/2026,1.10,1.20,1.08,1.18,250000\n"))
	}))
	defer server.Close()

	cfg := common.DataConfig{
		DownloadDir: t.TempDir(),
		DownloadURL: server.URL + "/{date}.csv",
	}
	d := NewDownloader(cfg, time.UTC, common.GetLogger())
	d.retryDelay = time.Millisecond

	_, status, _, err := d.Download(context.Background(), "2026-08-26")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, 3, attempts)
}

func TestDownloader_ExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := common.DataConfig{
		DownloadDir: t.TempDir(),
		DownloadURL: server.URL + "/{date}.csv",
	}
	d := NewDownloader(cfg, time.UTC, common.GetLogger())
	d.retryDelay = time.Millisecond

	_, status, _, err := d.Download(context.Background(), "2026-08-26")
	require.Error(t, err)
	assert.Equal(t, StatusError, status)
	assert.Contains(t, err.Error(), "after 4 attempts")
}

func TestDownloader_InvalidDate(t *testing.T) {
	cfg := common.DataConfig{DownloadDir: t.TempDir(), DownloadURL: "http://localhost/{date}.csv"}
	d := NewDownloader(cfg, time.UTC, common.GetLogger())

	_, status, _, err := d.Download(context.Background(), "26/08/2026")
	require.Error(t, err)
	assert.Equal(t, StatusError, status)
}
