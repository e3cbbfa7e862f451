// internal/app/features/auth/handler.go

// Package auth serves the email/password onboarding and credential flows:
// identify, register, login, email verification, and the password reset
// family. Social-provider login lives in features/socialauth.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	userstore "github.com/covertly/identity/internal/app/store/users"
	"github.com/covertly/identity/internal/app/system/apperr"
	sysauth "github.com/covertly/identity/internal/app/system/auth"
	"github.com/covertly/identity/internal/app/system/htmlsanitize"
	"github.com/covertly/identity/internal/app/system/mailer"
	"github.com/covertly/identity/internal/app/system/otp"
	"github.com/covertly/identity/internal/app/system/passwords"
	"github.com/covertly/identity/internal/app/system/respond"
	"github.com/covertly/identity/internal/app/system/timeouts"
	"github.com/covertly/identity/internal/domain/models"
)

// Success messages returned in the envelope. Wording is part of the API
// contract with existing clients.
const (
	msgUserIdentified     = "User identified"
	msgUserCreated        = "User created successfully"
	msgUserLogin          = "User logged in successfully"
	msgUserVerified       = "User verified"
	msgPasswordResetEmail = "Password reset email sent"
	msgOTPResend          = "OTP resend request submitted"
	msgPasswordReset      = "Password reset successfully"
)

// UserStore is the slice of the user record store these flows touch.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByOTP(ctx context.Context, code int) (*models.User, error)
	FindByEmailOTP(ctx context.Context, email string, code int) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	SetOTP(ctx context.Context, id primitive.ObjectID, code int, expireAt int64) error
	MarkEmailVerified(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

// Handler holds the dependencies for the auth endpoints.
type Handler struct {
	Users  UserStore
	Notify mailer.Notifier
	Tokens *sysauth.TokenManager
	OTPTTL time.Duration
	Log    *zap.Logger
}

// NewHandler constructs the auth Handler.
func NewHandler(users UserStore, notify mailer.Notifier, tokens *sysauth.TokenManager, otpTTL time.Duration, logger *zap.Logger) *Handler {
	if otpTTL <= 0 {
		otpTTL = otp.DefaultTTL
	}
	return &Handler{Users: users, Notify: notify, Tokens: tokens, OTPTTL: otpTTL, Log: logger}
}

// issueOTP stamps a fresh code on the user, superseding any outstanding one,
// and returns it for the notification.
func (h *Handler) issueOTP(ctx context.Context, u *models.User) (int, error) {
	code := otp.Generate()
	if err := h.Users.SetOTP(ctx, u.ID, code, otp.ExpiryUnix(h.OTPTTL)); err != nil {
		return 0, err
	}
	return code, nil
}

// Identify handles POST /auth/identify. It resolves the next onboarding step
// for an email: register, verify, or log in.
func (h *Handler) Identify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		respond.ValidationFailed(w, problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err == userstore.ErrNotFound {
		respond.JSON(w, http.StatusOK, msgUserIdentified, map[string]any{"nextStep": models.StepUserRegister})
		return
	}
	if err != nil {
		h.fail(w, "identify: find user", err)
		return
	}

	if !u.Verified() {
		code, err := h.issueOTP(ctx, u)
		if err != nil {
			h.fail(w, "identify: issue otp", err)
			return
		}
		h.Notify.RegistrationOTP(u.Email, u.FullName, code)
		respond.JSON(w, http.StatusOK, msgUserIdentified, map[string]any{"nextStep": models.StepVerifyEmail})
		return
	}

	respond.JSON(w, http.StatusOK, msgUserIdentified, map[string]any{"nextStep": models.StepSetPassword})
}

// Register handles POST /auth/register. The account starts unverified with an
// outstanding OTP; the client must verify the email before logging in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		respond.ValidationFailed(w, problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		respond.Err(w, apperr.ErrUserExists)
		return
	} else if err != userstore.ErrNotFound {
		h.fail(w, "register: find user", err)
		return
	}

	hash, err := passwords.Hash(req.Password)
	if err != nil {
		h.fail(w, "register: hash password", err)
		return
	}

	code := otp.Generate()
	expireAt := otp.ExpiryUnix(h.OTPTTL)
	u := &models.User{
		FullName:    htmlsanitize.Strip(req.FullName),
		Email:       req.Email,
		Avatar:      htmlsanitize.Strip(req.Avatar),
		Password:    hash,
		OTP:         &code,
		OTPExpireAt: &expireAt,
		Role:        models.RoleUser,
		IsActive:    true,
	}

	if err := h.Users.Insert(ctx, u); err != nil {
		if err == userstore.ErrDuplicateEmail {
			respond.Err(w, apperr.ErrUserExists)
			return
		}
		h.fail(w, "register: insert user", err)
		return
	}

	h.Notify.RegistrationOTP(u.Email, u.FullName, code)
	respond.JSON(w, http.StatusCreated, msgUserCreated, nil)
}

// Login handles POST /auth/login. Logging in against an unverified account
// re-issues a verification OTP and fails with 406 instead of proceeding.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		respond.ValidationFailed(w, problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err == userstore.ErrNotFound {
		respond.Err(w, apperr.ErrUserNotFound)
		return
	}
	if err != nil {
		h.fail(w, "login: find user", err)
		return
	}

	if !u.Verified() {
		code, err := h.issueOTP(ctx, u)
		if err != nil {
			h.fail(w, "login: issue otp", err)
			return
		}
		h.Notify.RegistrationOTP(u.Email, u.FullName, code)
		respond.Err(w, apperr.ErrNotVerified)
		return
	}

	if !passwords.Verify(req.Password, u.Password) {
		respond.Err(w, apperr.ErrInvalidPassword)
		return
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email)
	if err != nil {
		h.fail(w, "login: issue token", err)
		return
	}

	respond.JSON(w, http.StatusOK, msgUserLogin, map[string]any{
		"user":  u.Sanitized(),
		"token": map[string]string{"token": token},
	})
}

// VerifyEmail handles POST /auth/verify-email. A passwordless account (one
// created by social login) is steered to SETUP_PASSWORD instead of receiving
// a token, since verification alone does not authenticate it.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		respond.ValidationFailed(w, problems)
		return
	}

	code, err := strconv.Atoi(req.OTP)
	if err != nil {
		respond.Err(w, apperr.ErrInvalidOTP)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.FindByEmailOTP(ctx, req.Email, code)
	if err == userstore.ErrNotFound {
		respond.Err(w, apperr.ErrInvalidOTP)
		return
	}
	if err != nil {
		h.fail(w, "verify-email: find user", err)
		return
	}

	if u.OTPExpireAt == nil || otp.Expired(*u.OTPExpireAt, time.Now()) {
		respond.Err(w, apperr.ErrOTPExpired)
		return
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email)
	if err != nil {
		h.fail(w, "verify-email: issue token", err)
		return
	}

	now := time.Now().UTC()
	if err := h.Users.MarkEmailVerified(ctx, u.ID, now); err != nil {
		h.fail(w, "verify-email: mark verified", err)
		return
	}
	u.EmailVerifiedAt = &now

	if req.IsVerifyEmail {
		h.Notify.Welcome(u.Email, u.FullName)
		if !u.HasPassword() {
			respond.JSON(w, http.StatusOK, msgUserVerified, map[string]any{"nextStep": models.StepSetupPassword})
			return
		}
	}

	respond.JSON(w, http.StatusOK, msgUserVerified, map[string]any{
		"user":  u.Sanitized(),
		"token": map[string]string{"token": token},
	})
}

// ForgotPassword handles POST /auth/forgot-password. Only verified accounts
// may start a reset.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		respond.ValidationFailed(w, problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err == userstore.ErrNotFound {
		respond.Err(w, apperr.ErrUserNotFound)
		return
	}
	if err != nil {
		h.fail(w, "forgot-password: find user", err)
		return
	}

	if !u.Verified() {
		respond.Err(w, apperr.ErrResetNotVerified)
		return
	}

	code, err := h.issueOTP(ctx, u)
	if err != nil {
		h.fail(w, "forgot-password: issue otp", err)
		return
	}
	h.Notify.ForgotPasswordOTP(u.Email, u.FullName, code)

	respond.JSON(w, http.StatusOK, msgPasswordResetEmail, nil)
}

// ResendOTP handles POST /auth/resend-otp. No verification precondition.
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		respond.ValidationFailed(w, problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err == userstore.ErrNotFound {
		respond.Err(w, apperr.ErrUserNotFound)
		return
	}
	if err != nil {
		h.fail(w, "resend-otp: find user", err)
		return
	}

	code, err := h.issueOTP(ctx, u)
	if err != nil {
		h.fail(w, "resend-otp: issue otp", err)
		return
	}
	h.Notify.ResendOTP(u.Email, u.FullName, code)

	respond.JSON(w, http.StatusOK, msgOTPResend, nil)
}

// ResetPassword handles POST /auth/reset-password. The OTP is the
// authorization proof; when an OTP is supplied the lookup is by code alone,
// otherwise by email.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		respond.ValidationFailed(w, problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var u *models.User
	var err error
	if req.OTP != "" {
		code, convErr := strconv.Atoi(req.OTP)
		if convErr != nil {
			respond.Err(w, apperr.ErrInvalidOTP)
			return
		}
		u, err = h.Users.FindByOTP(ctx, code)
	} else {
		u, err = h.Users.FindByEmail(ctx, req.Email)
	}
	if err == userstore.ErrNotFound {
		respond.Err(w, apperr.ErrInvalidOTP)
		return
	}
	if err != nil {
		h.fail(w, "reset-password: find user", err)
		return
	}

	if u.OTPExpireAt == nil || otp.Expired(*u.OTPExpireAt, time.Now()) {
		respond.Err(w, apperr.ErrOTPExpired)
		return
	}

	hash, err := passwords.Hash(req.Password)
	if err != nil {
		h.fail(w, "reset-password: hash password", err)
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		h.fail(w, "reset-password: set password", err)
		return
	}

	respond.JSON(w, http.StatusOK, msgPasswordReset, nil)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.Log.Error(op, zap.Error(err))
	respond.Err(w, err)
}
