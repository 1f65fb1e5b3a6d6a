// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "ASX:GNP")
type Ticker struct {
	// Exchange is the exchange code (e.g., "ASX")
	Exchange string
	// Code is the stock/security code (e.g., "GNP")
	Code string
	// Raw is the original ticker string
	Raw string
}

// DefaultExchange is the default exchange used when parsing tickers without an
// exchange prefix.
var DefaultExchange = "ASX"

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "ASX:GNP" -> Exchange="ASX", Code="GNP"
//   - "GNP" -> Exchange=DefaultExchange, Code="GNP"
//   - "gnp" -> Exchange=DefaultExchange, Code="GNP" (normalized to uppercase)
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(ticker[idx+1:]),
			Raw:      ticker,
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// IsValidTickerCode reports whether code looks like a listed security code:
// 2 to 6 characters, uppercase letters and digits only. Feed rows with
// anything else (navigation text, column headers) are discarded.
func IsValidTickerCode(code string) bool {
	if len(code) < 2 || len(code) > 6 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
