// Package mail delivers digests over SMTP, one personalized message per
// recipient.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"news-digest/internal/domain"
	"news-digest/internal/infra/metrics"
	"news-digest/internal/usecase/routing"
)

// Config holds the SMTP transport and personalization settings.
type Config struct {
	Host              string
	Port              int
	User              string
	Password          string
	UnsubscribeSecret string
	PreferencesURL    string
}

// SMTP implements domain.Mailer.
type SMTP struct {
	cfg  Config
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
	log  zerolog.Logger
}

var _ domain.Mailer = (*SMTP)(nil)

// NewSMTP creates the sender.
func NewSMTP(cfg Config, logger zerolog.Logger) *SMTP {
	return &SMTP{cfg: cfg, send: smtp.SendMail, log: logger}
}

// SendDigest renders and sends the digest to one recipient. The message
// carries recipient-specific unsubscribe and preferences links derived from
// the keyed token.
func (s *SMTP) SendDigest(ctx context.Context, recipient string, summary domain.Summary) error {
	subject := fmt.Sprintf("📰 %s - %s", summary.Title, summary.Date.Format("02/01/2006"))
	body := RenderDigestHTML(summary, s.links(recipient))
	return s.deliver(ctx, recipient, subject, body)
}

// SendFailureAlert notifies operators that a run failed at the named stage.
func (s *SMTP) SendFailureAlert(ctx context.Context, recipients []string, stage, detail string) error {
	subject := fmt.Sprintf("⚠️ Falha no Pipeline de Notícias - %s", stage)
	body := RenderFailureHTML(stage, detail, time.Now())
	var lastErr error
	for _, recipient := range recipients {
		if err := s.deliver(ctx, recipient, subject, body); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (s *SMTP) deliver(ctx context.Context, recipient, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	msg.WriteString("From: " + s.cfg.User + "\r\n")
	msg.WriteString("To: " + recipient + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)

	start := time.Now()
	err := s.send(addr, auth, s.cfg.User, []string{recipient}, []byte(msg.String()))
	metrics.ObserveNetworkRequest("smtp", "send", s.cfg.Host, start, err)
	if err != nil {
		metrics.MailSendErrors.Inc()
		return fmt.Errorf("send to %s: %w", recipient, err)
	}
	s.log.Info().Str("recipient", recipient).Msg("mail: sent")
	return nil
}

// RecipientLinks carries the personalized management URLs for one message.
type RecipientLinks struct {
	Unsubscribe string
	Preferences string
}

func (s *SMTP) links(recipient string) RecipientLinks {
	token := routing.Token(recipient, s.cfg.UnsubscribeSecret)
	query := url.Values{}
	query.Set("email", recipient)
	query.Set("token", token)
	base := strings.TrimRight(s.cfg.PreferencesURL, "/")
	return RecipientLinks{
		Unsubscribe: base + "/unsubscribe?" + query.Encode(),
		Preferences: base + "/preferences?" + query.Encode(),
	}
}
