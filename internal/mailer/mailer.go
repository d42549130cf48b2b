package mailer

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/Omakidx/link6ync/internal/config"
)

// Mailer delivers the transactional emails of the account lifecycle.
type Mailer interface {
	SendVerificationEmail(to, verifyURL, name string) error
	SendWelcomeEmail(to, name string) error
	SendPasswordResetEmail(to, resetURL, name string) error
}

// SMTPMailer sends emails via SMTP.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	sender   string
}

// NewSMTPMailer builds a mailer from config.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	sender := cfg.SMTPSender
	if sender == "" {
		sender = "no-reply@link6ync.app"
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		sender:   sender,
	}
}

func (m *SMTPMailer) SendVerificationEmail(to, verifyURL, name string) error {
	subject := "Verify Your Email Address - Link6ync"
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>Thanks for signing up for Link6ync. Please confirm your email address by clicking the link below. The link expires in 24 hours.</p>"+
			`<p><a href="%s">Verify my email</a></p>`+
			"<p>If you did not create an account, you can ignore this email.</p>",
		displayName(name), verifyURL,
	)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) SendWelcomeEmail(to, name string) error {
	subject := "Welcome to Link6ync!"
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>Your email is verified and your account is ready. Welcome aboard!</p>",
		displayName(name),
	)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) SendPasswordResetEmail(to, resetURL, name string) error {
	subject := "Reset Your Password - Link6ync"
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>We received a request to reset your password. The link below is valid for 15 minutes.</p>"+
			`<p><a href="%s">Reset my password</a></p>`+
			"<p>If you did not request a reset, your password remains unchanged.</p>",
		displayName(name), resetURL,
	)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	var auth smtp.Auth
	if m.username != "" && m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, m.sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	}
	return err
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
