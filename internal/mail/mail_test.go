package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	raw  string
}

func newTestMailer(capture *capturedMail, sendErr error) *Mailer {
	m := NewMailer(SMTP{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "mailer",
		Password: "secret",
		From:     "no-reply@example.com",
		FromName: "Data Marketplace",
	}, "https://market.example.com")
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		capture.addr, capture.from, capture.to, capture.raw = addr, from, to, string(msg)
		return sendErr
	}
	return m
}

func TestSendWelcome(t *testing.T) {
	var got capturedMail
	m := newTestMailer(&got, nil)

	require.NoError(t, m.SendWelcome(context.Background(), "a@x.com", "<Alice>"))

	assert.Equal(t, "smtp.example.com:587", got.addr)
	assert.Equal(t, "no-reply@example.com", got.from)
	assert.Equal(t, []string{"a@x.com"}, got.to)
	assert.Contains(t, got.raw, "Subject: Welcome to the Data Marketplace!\r\n")
	assert.Contains(t, got.raw, "Welcome, &lt;Alice&gt;!")
	assert.Contains(t, got.raw, "https://market.example.com/login")
}

func TestSendPasswordReset(t *testing.T) {
	var got capturedMail
	m := newTestMailer(&got, nil)

	link := "https://market.example.com/reset-password?token=abc&email=a%40x.com"
	require.NoError(t, m.SendPasswordReset(context.Background(), "a@x.com", link))

	assert.Contains(t, got.raw, "Subject: Password Reset Request\r\n")
	assert.Contains(t, got.raw, "token=abc")
}

func TestSend_Errors(t *testing.T) {
	var got capturedMail
	m := newTestMailer(&got, errors.New("550 mailbox unavailable"))
	err := m.SendWelcome(context.Background(), "a@x.com", "Alice")
	assert.ErrorContains(t, err, "550 mailbox unavailable")

	unconfigured := NewMailer(SMTP{Host: "smtp.example.com", Port: "587"}, "")
	err = unconfigured.SendWelcome(context.Background(), "a@x.com", "Alice")
	assert.ErrorContains(t, err, "MAIL_USERNAME")
}
