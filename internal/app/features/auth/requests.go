// internal/app/features/auth/requests.go
package auth

import (
	"strings"

	"github.com/covertly/identity/internal/app/system/inputval"
	"github.com/covertly/identity/internal/app/system/passwords"
)

type identifyRequest struct {
	Email string `json:"email"`
}

func (r *identifyRequest) validate() []string {
	return checkEmail(r.Email)
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

func (r *registerRequest) validate() []string {
	problems := checkEmail(r.Email)
	if strings.TrimSpace(r.FullName) == "" {
		problems = append(problems, "FullName is required.")
	}
	problems = append(problems, passwords.CheckPolicy(r.Password)...)
	return problems
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() []string {
	problems := checkEmail(r.Email)
	if r.Password == "" {
		problems = append(problems, "Password is required.")
	}
	return problems
}

type verifyEmailRequest struct {
	Email         string `json:"email"`
	OTP           string `json:"otp"`
	IsVerifyEmail bool   `json:"isVerifyEmail"`
}

func (r *verifyEmailRequest) validate() []string {
	problems := checkEmail(r.Email)
	if strings.TrimSpace(r.OTP) == "" {
		problems = append(problems, "Otp is required.")
	}
	return problems
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *forgotPasswordRequest) validate() []string {
	return checkEmail(r.Email)
}

type resetPasswordRequest struct {
	OTP      string `json:"otp"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *resetPasswordRequest) validate() []string {
	// The OTP alone authorizes a reset; the email matters only as the
	// fallback lookup when no OTP is supplied.
	var problems []string
	if r.OTP == "" {
		problems = checkEmail(r.Email)
	}
	problems = append(problems, passwords.CheckPolicy(r.Password)...)
	return problems
}

func checkEmail(email string) []string {
	if !inputval.IsValidEmail(email) {
		return []string{"Email is not a valid email address."}
	}
	return nil
}
