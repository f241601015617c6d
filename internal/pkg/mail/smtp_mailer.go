package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/env"
)

// Mailer sends plain transactional mail via SMTP. Used for the one-time
// plan-limit notice; restock messages themselves go out over WhatsApp.
type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// NewMailerFromEnv builds a mailer from SMTP_* environment variables.
func NewMailerFromEnv() *Mailer {
	sender := env.GetEnv("SMTP_SENDER", "")
	if sender == "" {
		sender = "no-reply@localhost"
	}
	return &Mailer{
		Host:     env.GetEnv("SMTP_HOST", ""),
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   sender,
	}
}

// Send delivers a single HTML mail. Failures are logged; callers that use
// mail as a best-effort side channel ignore the returned error.
func (m *Mailer) Send(to, subject, body string) error {
	var auth smtp.Auth
	if m.Username != "" && m.Password != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.Sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, m.Sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	}
	return err
}
