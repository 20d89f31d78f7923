package services

import (
	"fmt"

	"github.com/beatforge/beatforge-backend/internal/config"
	gomail "gopkg.in/gomail.v2"
)

// Mailer sends transactional mail. The SMTP implementation below is the
// production collaborator; tests substitute their own.
type Mailer interface {
	SendVerificationCode(to, code string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	sender string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword),
		sender: cfg.MailSender,
	}
}

func (m *SMTPMailer) SendVerificationCode(to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Email Verification Code")
	msg.SetBody("text/plain", fmt.Sprintf("Your verification code is: %s", code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
