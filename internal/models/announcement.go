package models

import "time"

// Announcement is a parsed company announcement from the exchange's daily feed.
type Announcement struct {
	Ticker         string `json:"ticker"`
	Headline       string `json:"headline"`
	Date           string `json:"date"` // normalized to "2026-08-28"
	Time           string `json:"time"` // normalized to 24-hour "10:32"
	PriceSensitive bool   `json:"price_sensitive"`
	Pages          int    `json:"pages"`
	AnnouncementID string `json:"announcement_id"`
	PDFURL         string `json:"pdf_url"`
}

// AnnouncementSymbol is the (symbol, headline, time) tuple the announcement gap
// scanner evaluates.
type AnnouncementSymbol struct {
	Symbol   string
	Headline string
	Time     time.Time
}
