package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/tenantfox/tenantfox/internal/pkg/env"
)

// Mailer sends billing notification mails. The webhook reconciler consumes
// this through its Notifier interface.
type Mailer struct{}

func NewMailer() *Mailer {
	return &Mailer{}
}

// SendSubscriptionEnded notifies the organization's billing contact that the
// subscription ended and paid features are locked again.
func (m *Mailer) SendSubscriptionEnded(to, orgID, status string) error {
	subject := "Your subscription has ended"
	body := fmt.Sprintf(
		"<p>The subscription for organization <strong>%s</strong> is now <strong>%s</strong>.</p>"+
			"<p>Paid features are disabled until a new subscription is started from the payment page.</p>",
		orgID, status,
	)
	return Send(to, subject, body)
}

// Send delivers a single HTML mail via SMTP
func Send(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	}
	return err
}
