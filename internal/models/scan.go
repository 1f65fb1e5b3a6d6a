package models

import "time"

// GapDirection indicates which way a gap opened relative to the prior close.
type GapDirection string

const (
	GapUp   GapDirection = "up"
	GapDown GapDirection = "down"
)

// GapCandidate is a symbol whose open gapped past the configured threshold.
// Candidates are recomputed on every scan and never persisted.
type GapCandidate struct {
	Symbol        string       `json:"symbol"`
	GapPercent    float64      `json:"gap_percent"`
	GapDirection  GapDirection `json:"gap_direction"`
	PreviousClose float64      `json:"previous_close"`
	OpenPrice     float64      `json:"open_price"`
	Volume        int64        `json:"volume"`
	Price         float64      `json:"price"`
	Timestamp     time.Time    `json:"timestamp"`
	ContractID    int          `json:"contract_id,omitempty"`
}

// AnnouncementGapCandidate is a symbol that passed every announcement gap
// condition: announcement today, gap at or above the minimum, close strictly
// above the lookback high, and close at or above the price floor. The
// conditions are checked once by the evaluator at construction time.
type AnnouncementGapCandidate struct {
	Symbol               string    `json:"symbol"`
	GapPercent           float64   `json:"gap_percent"`
	LookbackHigh         float64   `json:"lookback_high"`
	CurrentPrice         float64   `json:"current_price"`
	AnnouncementHeadline string    `json:"announcement_headline"`
	AnnouncementTime     time.Time `json:"announcement_time"`
	Exchange             Exchange  `json:"exchange"`
}

// OpeningRange is the sampled high/low band for a symbol. One entry per symbol
// per scan; each sampling pass replaces the previous entry wholesale.
type OpeningRange struct {
	Symbol     string    `json:"symbol"`
	ORH        float64   `json:"orh"`
	ORL        float64   `json:"orl"`
	Price      float64   `json:"price"`
	SampleTime time.Time `json:"sample_time"`
}

// ScanRequest carries the tunable thresholds for a gap scan.
type ScanRequest struct {
	GapThreshold float64 `json:"gap_threshold"`
	MinPrice     float64 `json:"min_price"`
	MinVolume    int64   `json:"min_volume"`
	MaxResults   int     `json:"max_results"`
}

// ScanStatus is the gap scanner's lifecycle snapshot. It is mutated only while
// the scanner holds its scan lock; readers get a copy.
type ScanStatus struct {
	Running         bool      `json:"running"`
	LastScanTime    time.Time `json:"last_scan_time"`
	LastScanResults int       `json:"last_scan_results"`
	ActiveScans     int       `json:"active_scans"`
}

// ScanResponse reports the outcome of a scan request.
type ScanResponse struct {
	Success         bool   `json:"success"`
	ScanID          string `json:"scan_id"`
	CandidatesCount int    `json:"candidates_count"`
	Message         string `json:"message"`
}
