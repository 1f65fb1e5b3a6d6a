package announcements

import (
	"fmt"
	"strings"
)

// Relevance buckets announcements by likely price impact.
type Relevance string

const (
	RelevanceHigh   Relevance = "HIGH"
	RelevanceMedium Relevance = "MEDIUM"
	RelevanceLow    Relevance = "LOW"
	RelevanceNoise  Relevance = "NOISE"
)

var highKeywords = []string{
	"TAKEOVER", "ACQUISITION", "MERGER", "DISPOSAL",
	"DIVIDEND", "CAPITAL RAISING", "PLACEMENT", "SPP", "RIGHTS ISSUE",
	"FINANCIAL REPORT", "HALF YEAR", "FULL YEAR", "ANNUAL REPORT",
	"QUARTERLY", "PRELIMINARY FINAL", "EARNINGS",
	"GUIDANCE", "FORECAST", "OUTLOOK",
	"ASSET SALE", "DIVESTMENT",
}

var mediumKeywords = []string{
	"DIRECTOR", "CHAIRMAN", "CEO", "CFO", "MANAGING DIRECTOR",
	"APPOINTMENT", "RESIGNATION", "RETIREMENT",
	"AGM", "EGM", "GENERAL MEETING",
	"CONTRACT", "AGREEMENT", "PARTNERSHIP", "JOINT VENTURE",
	"EXPLORATION", "DRILLING", "RESOURCE", "RESERVE",
	"REGULATORY", "APPROVAL", "LICENSE", "PERMIT",
}

var lowKeywords = []string{
	"PROGRESS REPORT", "UPDATE", "INVESTOR PRESENTATION",
	"DISCLOSURE", "CLEANSING", "STATEMENT",
	"APPENDIX", "SUBSTANTIAL HOLDER",
	"CHANGE OF ADDRESS", "COMPANY SECRETARY",
}

// Classify buckets an announcement by headline keywords. Price-sensitive
// announcements are always HIGH.
func Classify(headline string, priceSensitive bool) (Relevance, string) {
	if priceSensitive {
		return RelevanceHigh, "Price-sensitive announcement"
	}

	headlineUpper := strings.ToUpper(headline)

	for _, kw := range highKeywords {
		if strings.Contains(headlineUpper, kw) {
			return RelevanceHigh, fmt.Sprintf("Contains '%s'", kw)
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(headlineUpper, kw) {
			return RelevanceMedium, fmt.Sprintf("Contains '%s'", kw)
		}
	}
	for _, kw := range lowKeywords {
		if strings.Contains(headlineUpper, kw) {
			return RelevanceLow, fmt.Sprintf("Routine disclosure: '%s'", kw)
		}
	}

	return RelevanceNoise, "No material indicators found"
}

// IsRoutine reports whether an announcement is a standard administrative
// filing with no trading signal, and the filing type if so.
func IsRoutine(headline string) (bool, string) {
	headlineUpper := strings.ToUpper(headline)

	// Ordered by specificity
	routinePatterns := []struct {
		pattern     string
		routineType string
	}{
		{"NOTICE OF ANNUAL GENERAL MEETING", "AGM Notice"},
		{"NOTICE OF GENERAL MEETING", "Meeting Notice"},
		{"RESULTS OF MEETING", "Meeting Results"},
		{"PROPOSED ISSUE OF SECURITIES", "Securities Issue"},
		{"APPLICATION FOR QUOTATION OF SECURITIES", "Quotation Application"},
		{"APPLICATION FOR QUOTATION", "Quotation Application"},
		{"NOTIFICATION OF CESSATION OF SECURITIES", "Securities Cessation"},
		{"NOTIFICATION OF CESSATION", "Securities Cessation"},
		{"CHANGE OF DIRECTOR'S INTEREST NOTICE", "Director Interest Change"},
		{"CHANGE OF DIRECTORS INTEREST", "Director Interest Change"},
		{"APPENDIX 3Y", "Director Interest (3Y)"},
		{"APPENDIX 3X", "Initial Director Interest (3X)"},
		{"APPENDIX 3B", "New Issue (3B)"},
		{"APPENDIX 3G", "Issue Notification (3G)"},
		{"CLEANSING NOTICE", "Cleansing Notice"},
		{"CLEANSING STATEMENT", "Cleansing Notice"},
	}

	for _, p := range routinePatterns {
		if strings.Contains(headlineUpper, p.pattern) {
			return true, p.routineType
		}
	}
	return false, ""
}

// DetectTradingHalt reports whether the headline announces a trading halt or
// a reinstatement to quotation.
func DetectTradingHalt(headline string) (isHalt, isReinstatement bool) {
	headlineUpper := strings.ToUpper(headline)

	haltKeywords := []string{
		"TRADING HALT",
		"VOLUNTARY SUSPENSION",
		"SUSPENSION FROM QUOTATION",
		"SUSPENDED FROM TRADING",
	}
	for _, kw := range haltKeywords {
		if strings.Contains(headlineUpper, kw) {
			return true, false
		}
	}

	reinstatementKeywords := []string{
		"REINSTATEMENT",
		"RESUMPTION OF TRADING",
		"TRADING RESUMES",
		"LIFTED SUSPENSION",
		"END OF SUSPENSION",
	}
	for _, kw := range reinstatementKeywords {
		if strings.Contains(headlineUpper, kw) {
			return false, true
		}
	}

	return false, false
}
