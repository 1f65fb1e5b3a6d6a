package models

import "time"

// Exchange identifies the venue a bar was recorded on.
type Exchange string

const (
	ExchangeASX   Exchange = "ASX"
	ExchangeLocal Exchange = "LOCAL"
)

// Interval identifies the bar aggregation period.
type Interval string

const (
	IntervalDaily  Interval = "d"
	IntervalMinute Interval = "1m"
)

// Bar is a single OHLCV price bar for a symbol.
// Bars are supplied by the bar store and treated as read-only by the scan pipeline.
type Bar struct {
	Symbol    string    `json:"symbol" badgerhold:"index"`
	Exchange  Exchange  `json:"exchange"`
	Interval  Interval  `json:"interval"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Key returns the storage key for a bar: SYMBOL|EXCHANGE|INTERVAL|RFC3339 timestamp.
func (b Bar) Key() string {
	return b.Symbol + "|" + string(b.Exchange) + "|" + string(b.Interval) + "|" + b.Timestamp.UTC().Format(time.RFC3339)
}

// BarOverview summarises the stored history for one (symbol, exchange, interval).
type BarOverview struct {
	Symbol   string    `json:"symbol"`
	Exchange Exchange  `json:"exchange"`
	Interval Interval  `json:"interval"`
	Count    int       `json:"count"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}
