package mailer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/covertly/identity/internal/app/system/mailer"
)

// memQueue captures enqueued emails synchronously.
type memQueue struct {
	emails []mailer.Email
}

func (q *memQueue) Enqueue(e mailer.Email) bool {
	q.emails = append(q.emails, e)
	return true
}

func (q *memQueue) last(t *testing.T) mailer.Email {
	t.Helper()
	if len(q.emails) == 0 {
		t.Fatal("no email enqueued")
	}
	return q.emails[len(q.emails)-1]
}

// Subject lines are part of the contract with existing clients and mail
// filters; they must not drift.
func TestNotifier_Subjects(t *testing.T) {
	q := &memQueue{}
	svc := mailer.NewService(q, 10*time.Minute)

	tests := []struct {
		name    string
		send    func()
		subject string
	}{
		{"registration", func() { svc.RegistrationOTP("a@b.com", "Ada", 1234) }, "Welcome to Covertly : Confirm Your Registration"},
		{"forgot password", func() { svc.ForgotPasswordOTP("a@b.com", "Ada", 1234) }, "Password reset email"},
		{"resend", func() { svc.ResendOTP("a@b.com", "Ada", 1234) }, "Welcome to Covertly : Resend OTP  Email Sent!"},
		{"account linking", func() { svc.AccountLinkingOTP("a@b.com", "Ada", 1234) }, "Welcome to Covertly : Confirm Your Email"},
		{"welcome", func() { svc.Welcome("a@b.com", "Ada") }, "Welcome to Covertly : Registered Successfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.send()
			e := q.last(t)
			if e.Subject != tt.subject {
				t.Errorf("subject: got %q, want %q", e.Subject, tt.subject)
			}
			if e.To != "a@b.com" {
				t.Errorf("to: got %q", e.To)
			}
		})
	}
}

func TestNotifier_CodeIsZeroPadded(t *testing.T) {
	q := &memQueue{}
	svc := mailer.NewService(q, 10*time.Minute)

	// Codes are always four digits in production; padding still guards the
	// rendering if that ever changes.
	svc.RegistrationOTP("a@b.com", "Ada", 42)
	e := q.last(t)
	if !strings.Contains(e.TextBody, "0042") {
		t.Errorf("text body missing zero-padded code: %q", e.TextBody)
	}
	if !strings.Contains(e.HTMLBody, "0042") {
		t.Error("html body missing zero-padded code")
	}
}

func TestNotifier_BodiesCarryNameAndExpiry(t *testing.T) {
	q := &memQueue{}
	svc := mailer.NewService(q, 10*time.Minute)

	svc.ForgotPasswordOTP("a@b.com", "Ada Lovelace", 1234)
	e := q.last(t)

	for _, want := range []string{"Ada Lovelace", "1234", "10 minutes"} {
		if !strings.Contains(e.TextBody, want) {
			t.Errorf("text body missing %q", want)
		}
		if !strings.Contains(e.HTMLBody, want) {
			t.Errorf("html body missing %q", want)
		}
	}
}

func TestWelcomeEmail_HasBothBodies(t *testing.T) {
	e := mailer.BuildWelcomeEmail(mailer.WelcomeEmailData{FullName: "Ada"})
	if !strings.Contains(e.TextBody, "Ada") {
		t.Error("text body missing name")
	}
	if !strings.Contains(e.HTMLBody, "Ada") {
		t.Error("html body missing name")
	}
}
