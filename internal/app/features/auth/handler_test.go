package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/covertly/identity/internal/app/features/auth"
	sysauth "github.com/covertly/identity/internal/app/system/auth"
	"github.com/covertly/identity/internal/app/system/passwords"
	"github.com/covertly/identity/internal/domain/models"
	"github.com/covertly/identity/internal/testutil"
)

const testPassword = "Sup3rSecret!"

func newTestHandler(t *testing.T) (*auth.Handler, *testutil.MemUserStore, *testutil.RecordingNotifier) {
	t.Helper()
	users := testutil.NewMemUserStore()
	notify := &testutil.RecordingNotifier{}
	tokens, err := sysauth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	h := auth.NewHandler(users, notify, tokens, 10*time.Minute, zap.NewNop())
	return h, users, notify
}

// pastExpiry returns an expiry timestamp a stored code must carry for the
// service to accept it. The comparison direction is inherited from the
// production system: codes with a future expiry are rejected.
func pastExpiry() int64 {
	return time.Now().Add(-time.Minute).Unix()
}

func futureExpiry() int64 {
	return time.Now().Add(10 * time.Minute).Unix()
}

func TestIdentify_UnknownEmail(t *testing.T) {
	h, users, notify := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Identify(rec, testutil.JSONRequest(t, "POST", "/auth/identify", map[string]string{"email": "new@example.com"}))

	require.Equal(t, http.StatusOK, rec.Code)
	env := testutil.DecodeEnvelope(t, rec)
	assert.Equal(t, "User identified", env.Message)

	var step string
	testutil.PayloadField(t, env, "nextStep", &step)
	assert.Equal(t, string(models.StepUserRegister), step)

	// Identify must not create an account or send anything.
	assert.Equal(t, 0, users.Count())
	assert.Empty(t, notify.Calls)
}

func TestIdentify_UnverifiedReissuesOTP(t *testing.T) {
	h, users, notify := newTestHandler(t)
	u := testutil.UnverifiedUser(t, "pending@example.com", testPassword, 1234, futureExpiry())
	users.Seed(u)

	rec := httptest.NewRecorder()
	h.Identify(rec, testutil.JSONRequest(t, "POST", "/auth/identify", map[string]string{"email": "pending@example.com"}))

	require.Equal(t, http.StatusOK, rec.Code)
	env := testutil.DecodeEnvelope(t, rec)

	var step string
	testutil.PayloadField(t, env, "nextStep", &step)
	assert.Equal(t, string(models.StepVerifyEmail), step)

	call := notify.Last(t)
	assert.Equal(t, "registration", call.Kind)
	assert.Equal(t, "pending@example.com", call.To)

	stored, ok := users.Get(u.ID)
	require.True(t, ok)
	require.NotNil(t, stored.OTP)
	assert.Equal(t, call.Code, *stored.OTP)
}

func TestIdentify_VerifiedNextStepIsPassword(t *testing.T) {
	h, users, _ := newTestHandler(t)
	users.Seed(testutil.VerifiedUser(t, "known@example.com", testPassword))

	rec := httptest.NewRecorder()
	h.Identify(rec, testutil.JSONRequest(t, "POST", "/auth/identify", map[string]string{"email": "known@example.com"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var step string
	testutil.PayloadField(t, testutil.DecodeEnvelope(t, rec), "nextStep", &step)
	assert.Equal(t, string(models.StepSetPassword), step)
}

func TestIdentify_InvalidEmail(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Identify(rec, testutil.JSONRequest(t, "POST", "/auth/identify", map[string]string{"email": "not-an-email"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_CreatesUnverifiedAccount(t *testing.T) {
	h, users, notify := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Register(rec, testutil.JSONRequest(t, "POST", "/auth/register", map[string]string{
		"fullName": "Ada Lovelace",
		"email":    "Ada@Example.com",
		"password": testPassword,
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created successfully", testutil.DecodeEnvelope(t, rec).Message)

	call := notify.Last(t)
	assert.Equal(t, "registration", call.Kind)
	assert.Equal(t, "ada@example.com", call.To)

	u, err := users.FindByEmail(t.Context(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, u.Verified())
	assert.True(t, u.IsActive)
	assert.Equal(t, models.RoleUser, u.Role)
	require.NotNil(t, u.OTP)
	assert.Equal(t, call.Code, *u.OTP)
	assert.NotEqual(t, testPassword, u.Password)
	assert.True(t, passwords.Verify(testPassword, u.Password))
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	h, users, _ := newTestHandler(t)
	users.Seed(testutil.VerifiedUser(t, "taken@example.com", testPassword))

	rec := httptest.NewRecorder()
	h.Register(rec, testutil.JSONRequest(t, "POST", "/auth/register", map[string]string{
		"fullName": "Second",
		"email":    "taken@example.com",
		"password": testPassword,
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists", testutil.DecodeEnvelope(t, rec).Message)
	assert.Equal(t, 1, users.Count())
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	h, users, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Register(rec, testutil.JSONRequest(t, "POST", "/auth/register", map[string]string{
		"fullName": "Weak",
		"email":    "weak@example.com",
		"password": "alllowercase1!",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, testutil.DecodeEnvelope(t, rec).Message, "uppercase")
	assert.Equal(t, 0, users.Count())
}

func TestRegister_StripsMarkupFromProfileFields(t *testing.T) {
	h, users, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Register(rec, testutil.JSONRequest(t, "POST", "/auth/register", map[string]string{
		"fullName": "<b>Ada</b><script>alert(1)</script>",
		"email":    "ada@example.com",
		"password": testPassword,
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	u, err := users.FindByEmail(t.Context(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FullName)
}

func TestLogin_Success(t *testing.T) {
	h, users, _ := newTestHandler(t)
	users.Seed(testutil.VerifiedUser(t, "user@example.com", testPassword))

	rec := httptest.NewRecorder()
	h.Login(rec, testutil.JSONRequest(t, "POST", "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": testPassword,
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	env := testutil.DecodeEnvelope(t, rec)
	assert.Equal(t, "User logged in successfully", env.Message)

	var user models.PublicUser
	testutil.PayloadField(t, env, "user", &user)
	assert.Equal(t, "user@example.com", user.Email)

	var token map[string]string
	testutil.PayloadField(t, env, "token", &token)
	assert.NotEmpty(t, token["token"])
}

func TestLogin_UnknownEmail(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Login(rec, testutil.JSONRequest(t, "POST", "/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": testPassword,
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", testutil.DecodeEnvelope(t, rec).Message)
}

func TestLogin_UnverifiedReissuesOTP(t *testing.T) {
	h, users, notify := newTestHandler(t)
	u := testutil.UnverifiedUser(t, "pending@example.com", testPassword, 1234, futureExpiry())
	users.Seed(u)

	rec := httptest.NewRecorder()
	h.Login(rec, testutil.JSONRequest(t, "POST", "/auth/login", map[string]string{
		"email":    "pending@example.com",
		"password": testPassword,
	}))

	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
	assert.Equal(t, "Email is not verified yet. Please check your email.", testutil.DecodeEnvelope(t, rec).Message)
	assert.Equal(t, "registration", notify.Last(t).Kind)
}

func TestLogin_WrongPassword(t *testing.T) {
	h, users, _ := newTestHandler(t)
	users.Seed(testutil.VerifiedUser(t, "user@example.com", testPassword))

	rec := httptest.NewRecorder()
	h.Login(rec, testutil.JSONRequest(t, "POST", "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "Wr0ngPass!",
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Invalid password", testutil.DecodeEnvelope(t, rec).Message)
}

func TestVerifyEmail_Success(t *testing.T) {
	h, users, _ := newTestHandler(t)
	u := testutil.UnverifiedUser(t, "pending@example.com", testPassword, 4321, pastExpiry())
	users.Seed(u)

	rec := httptest.NewRecorder()
	h.VerifyEmail(rec, testutil.JSONRequest(t, "POST", "/auth/verify-email", map[string]any{
		"email": "pending@example.com",
		"otp":   "4321",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	env := testutil.DecodeEnvelope(t, rec)
	assert.Equal(t, "User verified", env.Message)

	var token map[string]string
	testutil.PayloadField(t, env, "token", &token)
	assert.NotEmpty(t, token["token"])

	stored, ok := users.Get(u.ID)
	require.True(t, ok)
	assert.True(t, stored.Verified())
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	h, users, _ := newTestHandler(t)
	users.Seed(testutil.UnverifiedUser(t, "pending@example.com", testPassword, 4321, pastExpiry()))

	rec := httptest.NewRecorder()
	h.VerifyEmail(rec, testutil.JSONRequest(t, "POST", "/auth/verify-email", map[string]any{
		"email": "pending@example.com",
		"otp":   "9999",
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid OTP", testutil.DecodeEnvelope(t, rec).Message)
}

func TestVerifyEmail_FutureExpiryRejected(t *testing.T) {
	h, users, _ := newTestHandler(t)
	users.Seed(testutil.UnverifiedUser(t, "pending@example.com", testPassword, 4321, futureExpiry()))

	rec := httptest.NewRecorder()
	h.VerifyEmail(rec, testutil.JSONRequest(t, "POST", "/auth/verify-email", map[string]any{
		"email": "pending@example.com",
		"otp":   "4321",
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OTP has expired", testutil.DecodeEnvelope(t, rec).Message)
}

func TestVerifyEmail_PasswordlessGetsSetupStep(t *testing.T) {
	h, users, notify := newTestHandler(t)
	u := testutil.UnverifiedUser(t, "social@example.com", testPassword, 7777, pastExpiry())
	u.Password = ""
	users.Seed(u)

	rec := httptest.NewRecorder()
	h.VerifyEmail(rec, testutil.JSONRequest(t, "POST", "/auth/verify-email", map[string]any{
		"email":         "social@example.com",
		"otp":           "7777",
		"isVerifyEmail": true,
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	var step string
	testutil.PayloadField(t, testutil.DecodeEnvelope(t, rec), "nextStep", &step)
	assert.Equal(t, string(models.StepSetupPassword), step)
	assert.Equal(t, "welcome", notify.Last(t).Kind)
}

func TestForgotPassword_Success(t *testing.T) {
	h, users, notify := newTestHandler(t)
	u := testutil.VerifiedUser(t, "user@example.com", testPassword)
	users.Seed(u)

	rec := httptest.NewRecorder()
	h.ForgotPassword(rec, testutil.JSONRequest(t, "POST", "/auth/forgot-password", map[string]string{"email": "user@example.com"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset email sent", testutil.DecodeEnvelope(t, rec).Message)

	call := notify.Last(t)
	assert.Equal(t, "forgot-password", call.Kind)

	stored, ok := users.Get(u.ID)
	require.True(t, ok)
	require.NotNil(t, stored.OTP)
	assert.Equal(t, call.Code, *stored.OTP)
}

func TestForgotPassword_UnverifiedRejected(t *testing.T) {
	h, users, notify := newTestHandler(t)
	users.Seed(testutil.UnverifiedUser(t, "pending@example.com", testPassword, 1234, futureExpiry()))

	rec := httptest.NewRecorder()
	h.ForgotPassword(rec, testutil.JSONRequest(t, "POST", "/auth/forgot-password", map[string]string{"email": "pending@example.com"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, notify.Calls)
}

func TestResendOTP(t *testing.T) {
	h, users, notify := newTestHandler(t)
	u := testutil.UnverifiedUser(t, "pending@example.com", testPassword, 1234, futureExpiry())
	users.Seed(u)

	rec := httptest.NewRecorder()
	h.ResendOTP(rec, testutil.JSONRequest(t, "POST", "/auth/resend-otp", map[string]string{"email": "pending@example.com"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OTP resend request submitted", testutil.DecodeEnvelope(t, rec).Message)
	assert.Equal(t, "resend", notify.Last(t).Kind)
}

func TestResetPassword_WithOTP(t *testing.T) {
	h, users, _ := newTestHandler(t)
	u := testutil.VerifiedUser(t, "user@example.com", testPassword)
	code := 5678
	exp := pastExpiry()
	u.OTP = &code
	u.OTPExpireAt = &exp
	users.Seed(u)

	rec := httptest.NewRecorder()
	h.ResetPassword(rec, testutil.JSONRequest(t, "POST", "/auth/reset-password", map[string]string{
		"otp":      strconv.Itoa(code),
		"password": "N3wPassword!",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset successfully", testutil.DecodeEnvelope(t, rec).Message)

	stored, ok := users.Get(u.ID)
	require.True(t, ok)
	assert.True(t, passwords.Verify("N3wPassword!", stored.Password))
}

func TestResetPassword_OTPTakesPrecedenceOverEmail(t *testing.T) {
	h, users, _ := newTestHandler(t)

	holder := testutil.VerifiedUser(t, "holder@example.com", testPassword)
	code := 1111
	exp := pastExpiry()
	holder.OTP = &code
	holder.OTPExpireAt = &exp
	users.Seed(holder)

	other := testutil.VerifiedUser(t, "other@example.com", testPassword)
	users.Seed(other)

	// When both are supplied the code wins; the email is not a fallback.
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, testutil.JSONRequest(t, "POST", "/auth/reset-password", map[string]string{
		"otp":      "1111",
		"email":    "other@example.com",
		"password": "N3wPassword!",
	}))

	require.Equal(t, http.StatusOK, rec.Code)

	changed, _ := users.Get(holder.ID)
	untouched, _ := users.Get(other.ID)
	assert.True(t, passwords.Verify("N3wPassword!", changed.Password))
	assert.True(t, passwords.Verify(testPassword, untouched.Password))
}

func TestResetPassword_UnknownCode(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ResetPassword(rec, testutil.JSONRequest(t, "POST", "/auth/reset-password", map[string]string{
		"otp":      "2222",
		"password": "N3wPassword!",
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid OTP", testutil.DecodeEnvelope(t, rec).Message)
}

func TestRoutes_UnknownPath(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := auth.Routes(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/nope", strings.NewReader("{}")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
