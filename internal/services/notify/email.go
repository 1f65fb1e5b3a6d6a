package notify

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	mail "gopkg.in/mail.v2"

	"github.com/ternarybob/gapscan/internal/common"
)

// EmailSink delivers notifications over SMTP. Like the Discord sink it is
// best-effort; a disabled sink accepts and drops everything.
type EmailSink struct {
	cfg    common.EmailConfig
	dialer *mail.Dialer
	logger arbor.ILogger
}

// NewEmailSink creates an SMTP sink from config.
func NewEmailSink(cfg common.EmailConfig, logger arbor.ILogger) *EmailSink {
	return &EmailSink{
		cfg:    cfg,
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}
}

// Send delivers one message to all configured recipients.
func (s *EmailSink) Send(ctx context.Context, subject, body string) error {
	if !s.cfg.Enabled {
		s.logger.Debug().
			Str("subject", subject).
			Msg("Email notifications disabled, skipping")
		return nil
	}

	if len(s.cfg.To) == 0 {
		return fmt.Errorf("no email recipients configured")
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().
		Str("subject", subject).
		Int("recipients", len(s.cfg.To)).
		Msg("Email notification sent")

	return nil
}
