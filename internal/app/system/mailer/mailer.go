// internal/app/system/mailer/mailer.go

// Package mailer renders and delivers the transactional emails the
// authentication flows emit: OTP codes and the post-verification welcome.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
)

// Email is a fully rendered message ready for dispatch.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Dispatcher delivers a rendered email.
type Dispatcher interface {
	Send(ctx context.Context, e Email) error
}

// SMTP dispatches mail over a plain-auth SMTP relay.
type SMTP struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTP builds an SMTP dispatcher. When from is empty the username is used
// as the sender address.
func NewSMTP(host, port, username, password, from string) *SMTP {
	if from == "" {
		from = username
	}
	return &SMTP{host: host, port: port, username: username, password: password, from: from}
}

// Send delivers one email. The message carries both plain-text and HTML
// bodies as multipart/alternative.
func (s *SMTP) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	const boundary = "=_covertly_alt"
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: multipart/alternative; boundary=\"%s\"\r\n"+
			"\r\n"+
			"--%s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n"+
			"--%s\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n"+
			"--%s--\r\n",
		s.from, e.To, e.Subject, boundary,
		boundary, e.TextBody,
		boundary, e.HTMLBody,
		boundary,
	))

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, []string{e.To}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", e.To, err)
	}
	return nil
}
