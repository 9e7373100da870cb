// Package email sends plain-text mail through SMTP or SendGrid.
package email

import (
	"context"
	"fmt"
	"strconv"

	"skillbridge-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"
)

// Mailer delivers one message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, toName, subject, body string) error
}

type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	dial     func(d *gomail.Dialer, m ...*gomail.Message) error
}

func NewSMTPMailer(host, port, username, password, from string) Mailer {
	p, _ := strconv.Atoi(port)
	return &smtpMailer{
		host:     host,
		port:     p,
		username: username,
		password: password,
		from:     from,
		dial:     func(d *gomail.Dialer, m ...*gomail.Message) error { return d.DialAndSend(m...) },
	}
}

func (s *smtpMailer) Send(ctx context.Context, to, toName, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", to, toName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)

	logger.ExternalServiceCall("smtp", "DialAndSend", "to", to, "subject", subject)
	err := s.dial(d, m)
	logger.ExternalServiceResult("smtp", "DialAndSend", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

type sendGridMailer struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) Mailer {
	return &sendGridMailer{apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

func (s *sendGridMailer) Send(ctx context.Context, to, toName, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	logger.ExternalServiceCall("sendgrid", "Send", "to", to, "subject", subject)
	response, err := client.SendWithContext(ctx, message)
	logger.ExternalServiceResult("sendgrid", "Send", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
