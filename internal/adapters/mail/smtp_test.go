package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"news-digest/internal/usecase/routing"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestSMTP(sent *[]sentMail, sendErr error) *SMTP {
	s := NewSMTP(Config{
		Host:              "smtp.example.com",
		Port:              587,
		User:              "digest@example.com",
		Password:          "pw",
		UnsubscribeSecret: "secret",
		PreferencesURL:    "https://digest.example.com",
	}, zerolog.Nop())
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		if sendErr != nil {
			return sendErr
		}
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return s
}

func TestSendDigest(t *testing.T) {
	var sent []sentMail
	s := newTestSMTP(&sent, nil)

	if err := s.SendDigest(context.Background(), "ana@x.com", testSummary()); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sent))
	}

	m := sent[0]
	if m.addr != "smtp.example.com:587" {
		t.Errorf("addr = %q", m.addr)
	}
	if len(m.to) != 1 || m.to[0] != "ana@x.com" {
		t.Errorf("to = %v", m.to)
	}
	if !strings.Contains(m.msg, "Subject: 📰 Mercado em Alta - 15/03/2024") {
		t.Errorf("subject missing: %q", m.msg[:200])
	}
	if !strings.Contains(m.msg, "Content-Type: text/html") {
		t.Error("html content type missing")
	}

	// The personalized management links carry the recipient's token.
	token := routing.Token("ana@x.com", "secret")
	if !strings.Contains(m.msg, token) {
		t.Error("recipient token missing from body")
	}
	if !strings.Contains(m.msg, "/unsubscribe?") || !strings.Contains(m.msg, "/preferences?") {
		t.Error("management links missing from body")
	}
}

func TestSendDigestError(t *testing.T) {
	var sent []sentMail
	s := newTestSMTP(&sent, errors.New("450 mailbox busy"))

	err := s.SendDigest(context.Background(), "ana@x.com", testSummary())
	if err == nil || !strings.Contains(err.Error(), "ana@x.com") {
		t.Fatalf("err = %v, want recipient in message", err)
	}
}

func TestSendFailureAlertReachesAllRecipients(t *testing.T) {
	var sent []sentMail
	s := newTestSMTP(&sent, nil)

	err := s.SendFailureAlert(context.Background(), []string{"a@x.com", "b@x.com"}, "coleta", "timeout")
	if err != nil {
		t.Fatalf("SendFailureAlert: %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("sent %d mails, want 2", len(sent))
	}
	if !strings.Contains(sent[0].msg, "Subject: ⚠️ Falha no Pipeline de Notícias - coleta") {
		t.Errorf("alert subject missing: %q", sent[0].msg[:200])
	}
}
