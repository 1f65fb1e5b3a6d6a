package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/common"
)

// Download statuses reported in DownloadCompleted events.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Downloader fetches the daily end-of-day CSV file from the data vendor. The
// vendor URL carries a {date} placeholder replaced with YYYYMMDD.
type Downloader struct {
	urlTemplate string
	downloadDir string
	loc         *time.Location
	httpClient  *http.Client
	maxRetries  int
	retryDelay  time.Duration
	logger      arbor.ILogger
}

// NewDownloader creates a downloader from config.
func NewDownloader(cfg common.DataConfig, loc *time.Location, logger arbor.ILogger) *Downloader {
	return &Downloader{
		urlTemplate: cfg.DownloadURL,
		downloadDir: cfg.DownloadDir,
		loc:         loc,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		retryDelay:  2 * time.Second,
		logger:      logger,
	}
}

// Download fetches data for targetDate (ISO format, empty means yesterday in
// the market timezone) and stores it under the download directory. A vendor
// 404 means the file simply is not published yet and reports "skipped".
func (d *Downloader) Download(ctx context.Context, targetDate string) (string, string, string, error) {
	var day time.Time
	if targetDate == "" {
		day = time.Now().In(d.loc).AddDate(0, 0, -1)
	} else {
		parsed, err := time.Parse("2006-01-02", targetDate)
		if err != nil {
			return "", StatusError, "invalid target date", fmt.Errorf("invalid target date %q: %w", targetDate, err)
		}
		day = parsed
	}

	if d.urlTemplate == "" {
		return "", StatusSkipped, "no download url configured", nil
	}

	dateStr := day.Format("20060102")
	url := strings.ReplaceAll(d.urlTemplate, "{date}", dateStr)
	outPath := filepath.Join(d.downloadDir, dateStr+".csv")

	if err := os.MkdirAll(d.downloadDir, 0755); err != nil {
		return "", StatusError, err.Error(), fmt.Errorf("failed to create download dir: %w", err)
	}

	d.logger.Info().
		Str("url", url).
		Str("date", day.Format("2006-01-02")).
		Msg("Downloading market data")

	var lastErr error
	delay := d.retryDelay
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", StatusError, ctx.Err().Error(), ctx.Err()
			}
			delay *= 2
		}

		status, reason, err := d.fetchOnce(ctx, url, outPath)
		if err == nil {
			return outPath, status, reason, nil
		}
		if status == StatusSkipped {
			return "", StatusSkipped, reason, nil
		}
		lastErr = err
	}

	return "", StatusError, lastErr.Error(), fmt.Errorf("download failed after %d attempts: %w", d.maxRetries+1, lastErr)
}

func (d *Downloader) fetchOnce(ctx context.Context, url, outPath string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusError, "", err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return StatusError, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		d.logger.Warn().
			Str("url", url).
			Msg("No file available for date")
		return StatusSkipped, "no file available", fmt.Errorf("not found")
	}
	if resp.StatusCode != http.StatusOK {
		return StatusError, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return StatusError, "", err
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return StatusError, "", err
	}

	d.logger.Info().
		Str("path", outPath).
		Int64("bytes", n).
		Msg("Download complete")

	return StatusSuccess, "", nil
}
