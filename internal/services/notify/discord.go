package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const defaultWebhookTimeout = 5 * time.Second

// DiscordSink posts notifications to a Discord webhook. Sends are best-effort
// and rate limited; a disabled sink silently accepts everything.
type DiscordSink struct {
	webhookURL string
	username   string
	enabled    bool
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// NewDiscordSink creates a Discord webhook sink. minInterval spaces out
// consecutive posts; zero disables client-side rate limiting.
func NewDiscordSink(webhookURL, username string, enabled bool, minInterval time.Duration, logger arbor.ILogger) *DiscordSink {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &DiscordSink{
		webhookURL: webhookURL,
		username:   username,
		enabled:    enabled,
		httpClient: &http.Client{Timeout: defaultWebhookTimeout},
		limiter:    limiter,
		logger:     logger,
	}
}

// Send posts one message. subject becomes the bolded lead line.
func (s *DiscordSink) Send(ctx context.Context, subject, body string) error {
	if !s.enabled {
		s.logger.Debug().
			Str("subject", subject).
			Msg("Discord notifications disabled, skipping")
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := webhookPayload{
		Content:  fmt.Sprintf("**%s**: %s", subject, body),
		Username: s.username,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	s.logger.Info().
		Str("subject", subject).
		Msg("Discord notification sent")

	return nil
}
