// internal/app/system/mailer/notifier.go
package mailer

import (
	"fmt"
	"time"
)

// Queue accepts rendered emails for background delivery.
type Queue interface {
	Enqueue(e Email) bool
}

// Notifier is the set of notifications the authentication flows emit. All
// methods are fire-and-forget: the calling flow succeeds whether or not the
// email is ultimately delivered.
type Notifier interface {
	RegistrationOTP(to, fullName string, code int)
	ForgotPasswordOTP(to, fullName string, code int)
	ResendOTP(to, fullName string, code int)
	AccountLinkingOTP(to, fullName string, code int)
	Welcome(to, fullName string)
}

// Service renders notifications and hands them to a delivery queue.
type Service struct {
	queue     Queue
	expiresIn string
}

// NewService builds a Notifier over the given queue. otpTTL is only used for
// the human-readable expiry line in the templates.
func NewService(queue Queue, otpTTL time.Duration) *Service {
	return &Service{queue: queue, expiresIn: fmt.Sprintf("%d minutes", int(otpTTL.Minutes()))}
}

func (s *Service) otpData(fullName string, code int) OTPEmailData {
	return OTPEmailData{
		FullName:  fullName,
		Code:      fmt.Sprintf("%04d", code),
		ExpiresIn: s.expiresIn,
	}
}

// RegistrationOTP queues the post-signup verification code.
func (s *Service) RegistrationOTP(to, fullName string, code int) {
	e := BuildRegistrationEmail(s.otpData(fullName, code))
	e.To = to
	s.queue.Enqueue(e)
}

// ForgotPasswordOTP queues the password-reset code.
func (s *Service) ForgotPasswordOTP(to, fullName string, code int) {
	e := BuildForgotPasswordEmail(s.otpData(fullName, code))
	e.To = to
	s.queue.Enqueue(e)
}

// ResendOTP queues a fresh verification code for a pending flow.
func (s *Service) ResendOTP(to, fullName string, code int) {
	e := BuildResendOTPEmail(s.otpData(fullName, code))
	e.To = to
	s.queue.Enqueue(e)
}

// AccountLinkingOTP queues the code confirming ownership before a social
// provider is linked to an existing account.
func (s *Service) AccountLinkingOTP(to, fullName string, code int) {
	e := BuildAccountLinkingEmail(s.otpData(fullName, code))
	e.To = to
	s.queue.Enqueue(e)
}

// Welcome queues the email sent once an account is verified.
func (s *Service) Welcome(to, fullName string) {
	e := BuildWelcomeEmail(WelcomeEmailData{FullName: fullName})
	e.To = to
	s.queue.Enqueue(e)
}
