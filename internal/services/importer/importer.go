package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/interfaces"
	"github.com/ternarybob/gapscan/internal/models"
)

// processedListFile tracks CSV files already imported so re-runs skip them.
const processedListFile = ".processed_files.txt"

// CSVImporter loads daily bar files from a directory into the bar store.
// Files are headerless CSV with columns symbol,date,open,high,low,close,volume
// and dates in DD/MM/YYYY format.
type CSVImporter struct {
	csvDir string
	store  interfaces.BarStore
	logger arbor.ILogger
}

// NewCSVImporter creates an importer reading from csvDir.
func NewCSVImporter(csvDir string, store interfaces.BarStore, logger arbor.ILogger) *CSVImporter {
	return &CSVImporter{
		csvDir: csvDir,
		store:  store,
		logger: logger,
	}
}

// ImportAll imports every unprocessed CSV file in the directory, in filename
// order. Files that import cleanly are appended to the processed list so a
// later run will not re-import them.
func (i *CSVImporter) ImportAll(ctx context.Context) (models.ImportCompleted, error) {
	summary := models.ImportCompleted{Status: StatusSuccess}

	files, err := filepath.Glob(filepath.Join(i.csvDir, "*.csv"))
	if err != nil {
		summary.Status = StatusError
		return summary, fmt.Errorf("failed to list csv files: %w", err)
	}
	sort.Strings(files)

	processed, err := i.loadProcessedList()
	if err != nil {
		summary.Status = StatusError
		return summary, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			summary.Status = StatusError
			return summary, err
		}
		if processed[file] {
			continue
		}

		summary.TotalFiles++
		bars, status, err := i.importFile(ctx, file)
		switch {
		case err != nil:
			summary.Errors++
			i.logger.Error().
				Err(err).
				Str("file", file).
				Msg("Import failed")
		case status == StatusSkipped:
			summary.Skipped++
			i.logger.Warn().
				Str("file", file).
				Msg("No data in file, skipping")
		default:
			summary.Success++
			summary.TotalBars += bars
			if err := i.markProcessed(file); err != nil {
				i.logger.Warn().
					Err(err).
					Str("file", file).
					Msg("Failed to record processed file")
			}
		}
	}

	i.logger.Info().
		Int("total_files", summary.TotalFiles).
		Int("success", summary.Success).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Int("total_bars", summary.TotalBars).
		Msg("Import complete")

	return summary, nil
}

// importFile parses and stores one CSV file. Malformed rows are logged and
// skipped rather than failing the file.
func (i *CSVImporter) importFile(ctx context.Context, path string) (int, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, StatusError, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return 0, StatusError, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	bars := make([]models.Bar, 0, len(records))
	for lineNo, record := range records {
		bar, err := parseRow(record)
		if err != nil {
			i.logger.Warn().
				Str("file", filepath.Base(path)).
				Int("line", lineNo+1).
				Str("error", err.Error()).
				Msg("Skipping malformed row")
			continue
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return 0, StatusSkipped, nil
	}

	sort.Slice(bars, func(a, b int) bool {
		return bars[a].Timestamp.Before(bars[b].Timestamp)
	})

	if err := i.store.SaveBars(ctx, bars); err != nil {
		return 0, StatusError, fmt.Errorf("failed to save bars from %s: %w", filepath.Base(path), err)
	}

	i.logger.Info().
		Str("file", filepath.Base(path)).
		Int("bars", len(bars)).
		Msg("Imported file")

	return len(bars), StatusSuccess, nil
}

// parseRow converts one CSV record into a daily bar.
func parseRow(record []string) (models.Bar, error) {
	if len(record) < 7 {
		return models.Bar{}, fmt.Errorf("expected 7 columns, got %d", len(record))
	}

	symbol := strings.ToUpper(strings.TrimSpace(record[0]))
	if symbol == "" {
		return models.Bar{}, fmt.Errorf("empty symbol")
	}

	ts, err := time.Parse("02/01/2006", strings.TrimSpace(record[1]))
	if err != nil {
		return models.Bar{}, fmt.Errorf("invalid date %q: %w", record[1], err)
	}

	fields := [5]float64{}
	for n, idx := range []int{2, 3, 4, 5, 6} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("invalid numeric field %q: %w", record[idx], err)
		}
		fields[n] = v
	}

	return models.Bar{
		Symbol:    symbol,
		Exchange:  models.ExchangeLocal,
		Interval:  models.IntervalDaily,
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    int64(fields[4]),
	}, nil
}

func (i *CSVImporter) loadProcessedList() (map[string]bool, error) {
	processed := make(map[string]bool)

	f, err := os.Open(filepath.Join(i.csvDir, processedListFile))
	if err != nil {
		if os.IsNotExist(err) {
			return processed, nil
		}
		return nil, fmt.Errorf("failed to read processed list: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			processed[line] = true
		}
	}
	return processed, scanner.Err()
}

func (i *CSVImporter) markProcessed(path string) error {
	f, err := os.OpenFile(filepath.Join(i.csvDir, processedListFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintln(f, path)
	return err
}
