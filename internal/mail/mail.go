// Package mail sends the marketplace's transactional emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// Notifier is the outbound email surface used by the services.
type Notifier interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// SMTP holds connection credentials.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// sendFunc matches smtp.SendMail; replaced in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer renders templates and delivers them through one SMTP account.
// It holds no connection, so a single Mailer is safe for concurrent use.
type Mailer struct {
	cfg         SMTP
	frontendURL string
	send        sendFunc
}

// Ensure Mailer implements Notifier
var _ Notifier = (*Mailer)(nil)

// NewMailer creates a Mailer. frontendURL is linked from the welcome email.
func NewMailer(cfg SMTP, frontendURL string) *Mailer {
	m := &Mailer{cfg: cfg, frontendURL: frontendURL}
	m.send = m.deliver
	return m
}

// SendWelcome greets a new user.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	body, err := render(welcomeTmpl, map[string]string{
		"Name":     name,
		"Email":    to,
		"LoginURL": m.frontendURL + "/login",
	})
	if err != nil {
		return err
	}
	return m.sendHTML(ctx, to, "Welcome to the Data Marketplace!", body)
}

// SendPasswordReset mails the single-use reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	body, err := render(resetTmpl, map[string]string{"ResetURL": resetURL})
	if err != nil {
		return err
	}
	return m.sendHTML(ctx, to, "Password Reset Request", body)
}

func (m *Mailer) sendHTML(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.cfg.Username == "" {
		return fmt.Errorf("mail: MAIL_USERNAME not configured")
	}
	raw := buildRaw(fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From), to, subject, body)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, []string{to}, raw); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

// deliver uses implicit TLS on 465 and STARTTLS (via smtp.SendMail) elsewhere.
func (m *Mailer) deliver(addr string, auth smtp.Auth, from string, to []string, raw []byte) error {
	if m.cfg.Port != "465" {
		return smtp.SendMail(addr, auth, from, to, raw)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func buildRaw(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
