package models

import "time"

// Event payloads published onto the bus. Each struct corresponds to exactly one
// event type; subscribers assert the payload to the concrete type for their
// subscription.

// ScanStarted signals that an announcement scan should run.
type ScanStarted struct{}

// AnnouncementFound carries one price-sensitive announcement discovered by a scan.
type AnnouncementFound struct {
	Ticker    string    `json:"ticker"`
	Headline  string    `json:"headline"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

// ScanCompleted reports the outcome of an announcement scan.
type ScanCompleted struct {
	TotalAnnouncements int    `json:"total_announcements"`
	ProcessedCount     int    `json:"processed_count"`
	Success            bool   `json:"success"`
	Error              string `json:"error,omitempty"`
}

// DownloadStarted signals that a historical data download should run.
// TargetDate is an ISO date string; empty means yesterday.
type DownloadStarted struct {
	TargetDate string `json:"target_date,omitempty"`
}

// DownloadCompleted reports the outcome of a data download.
// Status is one of "success", "skipped" or "error".
type DownloadCompleted struct {
	Filepath string `json:"filepath,omitempty"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// ImportStarted signals that a CSV import should run.
type ImportStarted struct{}

// ImportCompleted reports the outcome of a CSV import.
type ImportCompleted struct {
	TotalBars  int    `json:"total_bars"`
	Success    int    `json:"success"`
	Errors     int    `json:"errors"`
	Skipped    int    `json:"skipped"`
	TotalFiles int    `json:"total_files"`
	Status     string `json:"status"`
}
