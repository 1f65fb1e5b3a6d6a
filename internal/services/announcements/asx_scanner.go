package announcements

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/gapscan/internal/common"
	"github.com/ternarybob/gapscan/internal/models"
)

const (
	// DefaultURL is the exchange's daily announcements page.
	DefaultURL = "https://www.asx.com.au/asx/v2/statistics/todayAnns.do"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	asxBase = "https://www.asx.com.au"
)

// ASXScanner scrapes the exchange's daily announcements page. Transient fetch
// failures are retried with exponential backoff before the error is surfaced.
type ASXScanner struct {
	url            string
	httpClient     *http.Client
	logger         arbor.ILogger
	limiter        *rate.Limiter
	userAgent      string
	maxRetries     int
	retryDelay     time.Duration
	excludeTickers map[string]bool
	minTickerLen   int
	maxTickerLen   int
}

// ScannerOption configures the ASXScanner.
type ScannerOption func(*ASXScanner)

// WithURL sets a custom announcements URL.
func WithURL(url string) ScannerOption {
	return func(s *ASXScanner) {
		s.url = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ScannerOption {
	return func(s *ASXScanner) {
		s.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ScannerOption {
	return func(s *ASXScanner) {
		s.logger = logger
	}
}

// WithUserAgent sets the request user agent.
func WithUserAgent(userAgent string) ScannerOption {
	return func(s *ASXScanner) {
		s.userAgent = userAgent
	}
}

// WithRetry sets the retry count and base backoff delay.
func WithRetry(maxRetries int, retryDelay time.Duration) ScannerOption {
	return func(s *ASXScanner) {
		s.maxRetries = maxRetries
		s.retryDelay = retryDelay
	}
}

// WithRateLimit sets the minimum spacing between requests.
func WithRateLimit(minInterval time.Duration) ScannerOption {
	return func(s *ASXScanner) {
		if minInterval > 0 {
			s.limiter = rate.NewLimiter(rate.Every(minInterval), 1)
		}
	}
}

// WithTickerBounds sets the accepted ticker length range and exclusions.
func WithTickerBounds(minLen, maxLen int, exclude []string) ScannerOption {
	return func(s *ASXScanner) {
		if minLen > 0 {
			s.minTickerLen = minLen
		}
		if maxLen > 0 {
			s.maxTickerLen = maxLen
		}
		s.excludeTickers = make(map[string]bool, len(exclude))
		for _, t := range exclude {
			s.excludeTickers[strings.ToUpper(t)] = true
		}
	}
}

// NewASXScanner creates an announcements scanner.
func NewASXScanner(opts ...ScannerOption) *ASXScanner {
	s := &ASXScanner{
		url:    DefaultURL,
		logger: common.GetLogger(),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:        rate.NewLimiter(rate.Every(2*time.Second), 1),
		maxRetries:     3,
		retryDelay:     2 * time.Second,
		excludeTickers: make(map[string]bool),
		minTickerLen:   2,
		maxTickerLen:   6,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FetchAnnouncements fetches and parses today's announcements, retrying the
// fetch with exponential backoff on failure.
func (s *ASXScanner) FetchAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	var lastErr error

	delay := s.retryDelay
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn().
				Int("attempt", attempt).
				Err(lastErr).
				Msg("Retrying announcement fetch")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}

		announcements, err := s.fetchOnce(ctx)
		if err == nil {
			return announcements, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to fetch announcements after %d attempts: %w", s.maxRetries+1, lastErr)
}

func (s *ASXScanner) fetchOnce(ctx context.Context) ([]models.Announcement, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("url", s.url).
		Msg("Fetching announcements")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching announcements", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse announcements page: %w", err)
	}

	return s.parseDocument(doc), nil
}

// parseDocument extracts announcements from the page's table rows. Rows that
// fail to parse are logged and skipped.
func (s *ASXScanner) parseDocument(doc *goquery.Document) []models.Announcement {
	var announcements []models.Announcement

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}

		cells := row.Find("td")
		if cells.Length() != 4 {
			return
		}

		ann, ok := s.parseRow(cells)
		if !ok {
			return
		}

		announcements = append(announcements, ann)
	})

	s.logger.Info().
		Int("count", len(announcements)).
		Msg("Parsed announcements")

	return announcements
}

func (s *ASXScanner) parseRow(cells *goquery.Selection) (models.Announcement, bool) {
	ticker := strings.TrimSpace(cells.Eq(0).Text())
	if !s.validTicker(ticker) {
		return models.Announcement{}, false
	}

	dtLines := strings.Split(cells.Eq(1).Text(), "\n")
	var dateStr, timeStr string
	if len(dtLines) > 2 {
		dateStr = normalizeDate(strings.TrimSpace(dtLines[1]))
		timeStr = normalizeTime(strings.TrimSpace(dtLines[2]))
	}

	priceSensitive := cells.Eq(2).Find("img.pricesens").Length() > 0

	pdfLink := cells.Eq(3).Find("a").First()
	href, exists := pdfLink.Attr("href")
	if !exists || href == "" {
		return models.Announcement{}, false
	}

	announcementID := ""
	if idx := strings.Index(href, "idsId="); idx >= 0 {
		announcementID = href[idx+len("idsId="):]
		if amp := strings.Index(announcementID, "&"); amp >= 0 {
			announcementID = announcementID[:amp]
		}
	}

	cellLines := strings.Split(cells.Eq(3).Text(), "\n")
	headline := strings.TrimSpace(pdfLink.Text())
	if len(cellLines) > 2 {
		if h := strings.TrimSpace(cellLines[2]); h != "" {
			headline = h
		}
	}

	pages := 1
	pageText := strings.TrimSpace(cells.Eq(3).Find("span.page").Text())
	if pageText != "" {
		fields := strings.Fields(pageText)
		if len(fields) > 0 {
			if n, err := strconv.Atoi(fields[0]); err == nil {
				pages = n
			}
		}
	}

	return models.Announcement{
		Ticker:         ticker,
		Headline:       headline,
		Date:           dateStr,
		Time:           timeStr,
		PriceSensitive: priceSensitive,
		Pages:          pages,
		AnnouncementID: announcementID,
		PDFURL:         asxBase + href,
	}, true
}

// validTicker checks length bounds, character set and the exclusion list.
func (s *ASXScanner) validTicker(ticker string) bool {
	if len(ticker) < s.minTickerLen || len(ticker) > s.maxTickerLen {
		return false
	}
	if !common.IsValidTickerCode(ticker) {
		return false
	}
	return !s.excludeTickers[ticker]
}

// normalizeDate converts DD/MM/YYYY to YYYY-MM-DD.
func normalizeDate(dateStr string) string {
	parts := strings.Split(strings.TrimSpace(dateStr), "/")
	if len(parts) != 3 {
		return ""
	}
	day, month, year := parts[0], parts[1], parts[2]
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return fmt.Sprintf("%s-%s-%s", year, month, day)
}

// normalizeTime converts "10:32 AM" style times to 24-hour HH:MM.
func normalizeTime(timeStr string) string {
	t := strings.ToLower(strings.TrimSpace(timeStr))
	isPM := strings.Contains(t, "pm")
	isAM := strings.Contains(t, "am")
	t = strings.ReplaceAll(t, " pm", "")
	t = strings.ReplaceAll(t, " am", "")
	t = strings.ReplaceAll(t, "pm", "")
	t = strings.ReplaceAll(t, "am", "")

	parts := strings.Split(strings.TrimSpace(t), ":")
	if len(parts) < 2 {
		return "00:00"
	}

	hour, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	minute, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return "00:00"
	}

	if isPM && hour != 12 {
		hour += 12
	} else if isAM && hour == 12 {
		hour = 0
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}
