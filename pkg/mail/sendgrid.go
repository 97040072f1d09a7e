package mail

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ai-super-hub/hub-api/pkg/config"
)

// Mailer sends transactional email through SendGrid. A disabled mailer is a
// no-op so local development never requires an API key.
type Mailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewMailer constructs a mailer from configuration.
func NewMailer(cfg config.MailConfig) *Mailer {
	m := &Mailer{
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		enabled:   cfg.Enabled && cfg.APIKey != "",
	}
	if m.enabled {
		m.client = sendgrid.NewSendClient(cfg.APIKey)
	}
	return m
}

// Send delivers a plain-text email with an HTML body.
func (m *Mailer) Send(toEmail, toName, subject, plainText, htmlBody string) error {
	if !m.enabled {
		return nil
	}

	from := sgmail.NewEmail(m.fromName, m.fromEmail)
	to := sgmail.NewEmail(toName, toEmail)
	message := sgmail.NewSingleEmail(from, subject, to, plainText, htmlBody)

	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// SendCertificate notifies a user that a course certificate was earned.
func (m *Mailer) SendCertificate(toEmail, toName, courseTitle string) error {
	subject := fmt.Sprintf("Your certificate for %s", courseTitle)
	plain := fmt.Sprintf("Congratulations %s! You completed %s and earned your certificate. Download it from your dashboard.", toName, courseTitle)
	html := fmt.Sprintf("<p>Congratulations <strong>%s</strong>!</p><p>You completed <strong>%s</strong> and earned your certificate. Download it from your dashboard.</p>", toName, courseTitle)
	return m.Send(toEmail, toName, subject, plain, html)
}

// SendWelcome greets a newly registered user.
func (m *Mailer) SendWelcome(toEmail, toName string) error {
	subject := "Welcome to AI Super Hub"
	plain := fmt.Sprintf("Hi %s, welcome aboard! Explore the tools directory, courses and prompt library.", toName)
	html := fmt.Sprintf("<p>Hi <strong>%s</strong>, welcome aboard!</p><p>Explore the tools directory, courses and prompt library.</p>", toName)
	return m.Send(toEmail, toName, subject, plain, html)
}
