package services

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email over SMTP
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(config *Config) *Mailer {
	if config.SMTP.Host == "" {
		return nil
	}

	return &Mailer{
		dialer: gomail.NewDialer(config.SMTP.Host, config.SMTP.Port, config.SMTP.Username, config.SMTP.Password),
		from:   config.SMTP.From,
	}
}

// Send delivers a plain-text email
func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email sent", "to", to, "subject", subject)
	return nil
}

// SendTrialExpiryNotice warns a user their trial is about to lapse
func (m *Mailer) SendTrialExpiryNotice(to, fullName string, daysLeft int) error {
	subject := "Your trial is ending soon"
	body := fmt.Sprintf(`Hi %s,

Your trial ends in %d day(s). Upgrade to keep your credits topped up and your dashboard assistants available.

Manage your plan from the billing page.

The Lumeboard team`, fullName, daysLeft)

	return m.Send(to, subject, body)
}
