// internal/app/features/socialauth/handler.go

// Package socialauth serves Google OAuth login and the account-linking
// confirmation flow. The browser-facing endpoints answer with redirects to
// the frontend; link-accounts is a JSON endpoint like the rest of the API.
package socialauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	userstore "github.com/covertly/identity/internal/app/store/users"
	"github.com/covertly/identity/internal/app/system/apperr"
	sysauth "github.com/covertly/identity/internal/app/system/auth"
	"github.com/covertly/identity/internal/app/system/inputval"
	"github.com/covertly/identity/internal/app/system/mailer"
	"github.com/covertly/identity/internal/app/system/otp"
	"github.com/covertly/identity/internal/app/system/respond"
	"github.com/covertly/identity/internal/app/system/timeouts"
	"github.com/covertly/identity/internal/domain/models"
)

const msgOTPVerified = "OTP verified"

// stateTTL bounds how long an OAuth round trip may take.
const stateTTL = 10 * time.Minute

// UserStore is the slice of the user record store the social flows touch.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailOTP(ctx context.Context, email string, code int) (*models.User, error)
	FindByIDHex(ctx context.Context, id string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	SetOTP(ctx context.Context, id primitive.ObjectID, code int, expireAt int64) error
	AddProvider(ctx context.Context, id primitive.ObjectID, p models.Provider, verifiedAt time.Time) (bool, error)
}

// StateStore holds OAuth CSRF state tokens across the redirect round trip.
type StateStore interface {
	Save(ctx context.Context, state string, expiresAt time.Time) error
	Validate(ctx context.Context, state string) (bool, error)
}

// Handler handles Google OAuth authentication and account linking.
type Handler struct {
	Users  UserStore
	States StateStore
	Notify mailer.Notifier
	Tokens *sysauth.TokenManager
	OTPTTL time.Duration
	Log    *zap.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://api.covertly.app/social-auth/google/callback"

	// FrontendURL is the base for all browser-facing result redirects.
	FrontendURL string
}

// NewHandler creates a social auth handler.
func NewHandler(
	users UserStore,
	states StateStore,
	notify mailer.Notifier,
	tokens *sysauth.TokenManager,
	otpTTL time.Duration,
	clientID, clientSecret, baseURL, frontendURL string,
	logger *zap.Logger,
) *Handler {
	if otpTTL <= 0 {
		otpTTL = otp.DefaultTTL
	}
	return &Handler{
		Users:        users,
		States:       states,
		Notify:       notify,
		Tokens:       tokens,
		OTPTTL:       otpTTL,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/social-auth/google/callback",
		FrontendURL:  frontendURL,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /social-auth/google. It stores a CSRF state token
// and redirects to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectToFrontendLogin(w, r)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.redirectToFrontendLogin(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.States.Save(ctx, state, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectToFrontendLogin(w, r)
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	h.Log.Debug("initiating Google OAuth flow", zap.String("redirect_url", dest))
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /social-auth/google/callback. Every outcome is a
// redirect back to the frontend: a token+user pair on success, an
// account-linking prompt when the email exists without this provider, and
// the login page on any failure.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.redirectToFrontendLogin(w, r)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.redirectToFrontendLogin(w, r)
		return
	}

	shortCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	valid, err := h.States.Validate(shortCtx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectToFrontendLogin(w, r)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.redirectToFrontendLogin(w, r)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.redirectToFrontendLogin(w, r)
		return
	}

	exchangeCtx, cancelExchange := context.WithTimeout(ctx, timeouts.Long())
	defer cancelExchange()

	token, err := h.oauth2Config().Exchange(exchangeCtx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.redirectToFrontendLogin(w, r)
		return
	}

	googleUser, err := fetchGoogleUserInfo(exchangeCtx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.redirectToFrontendLogin(w, r)
		return
	}

	h.Log.Debug("Google user info fetched",
		zap.String("google_id", googleUser.ID),
		zap.String("email", googleUser.Email))

	res, err := h.socialLogin(exchangeCtx, googleUser.Email, googleUser.Name, googleUser.ID, models.ProviderGoogle)
	if err != nil {
		h.Log.Error("social login failed", zap.Error(err), zap.String("email", googleUser.Email))
		h.redirectToFrontendLogin(w, r)
		return
	}

	if res.NextStep == models.StepAccountLinking {
		h.redirectToLinkAccount(w, r, googleUser.Email, googleUser.ID, models.ProviderGoogle)
		return
	}

	h.redirectWithToken(w, r, res.User, res.Token)
}

// socialLoginResult is the outcome of resolving a provider identity.
type socialLoginResult struct {
	User     *models.User
	Token    string
	NextStep models.Step
}

// socialLogin resolves a provider-confirmed (email, id) pair to an account:
// unknown email creates one, a linked provider logs in, and an unlinked
// provider on an existing email starts the OTP linking handshake.
func (h *Handler) socialLogin(ctx context.Context, email, fullName, providerID, provider string) (*socialLoginResult, error) {
	u, err := h.Users.FindByEmail(ctx, email)
	if err == userstore.ErrNotFound {
		u = &models.User{
			FullName: fullName,
			Email:    email,
			Role:     models.RoleUser,
			IsActive: true,
			Providers: []models.Provider{
				{ProviderID: providerID, Provider: provider},
			},
		}
		if err := h.Users.Insert(ctx, u); err != nil {
			return nil, fmt.Errorf("create social user: %w", err)
		}

		token, err := h.Tokens.Issue(u.ID.Hex(), u.Email)
		if err != nil {
			return nil, err
		}
		return &socialLoginResult{User: u, Token: token}, nil
	}
	if err != nil {
		return nil, err
	}

	if !u.ProviderLinked(provider, providerID) {
		code := otp.Generate()
		if err := h.Users.SetOTP(ctx, u.ID, code, otp.ExpiryUnix(h.OTPTTL)); err != nil {
			return nil, err
		}
		h.Notify.AccountLinkingOTP(u.Email, u.FullName, code)
		return &socialLoginResult{NextStep: models.StepAccountLinking}, nil
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email)
	if err != nil {
		return nil, err
	}
	return &socialLoginResult{User: u, Token: token}, nil
}

type linkAccountsRequest struct {
	Email      string `json:"email"`
	OTP        string `json:"otp"`
	ProviderID string `json:"providerId"`
	Provider   string `json:"provider"`
}

// LinkAccounts handles POST /social-auth/link-accounts. The OTP sent during
// the callback proves the caller owns the existing account; on success the
// provider is appended (a provider name never twice) and the email is marked
// verified.
func (h *Handler) LinkAccounts(w http.ResponseWriter, r *http.Request) {
	var req linkAccountsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "Invalid request body.")
		return
	}

	var problems []string
	if !inputval.IsValidEmail(req.Email) {
		problems = append(problems, "Email is not a valid email address.")
	}
	if req.OTP == "" {
		problems = append(problems, "Otp is required.")
	}
	if req.ProviderID == "" {
		problems = append(problems, "ProviderId is required.")
	}
	if req.Provider == "" {
		problems = append(problems, "Provider is required.")
	}
	if len(problems) > 0 {
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
		h.Log.Error("link-accounts: find user", zap.Error(err))
		respond.Err(w, err)
		return
	}

	if u.OTPExpireAt == nil || otp.Expired(*u.OTPExpireAt, time.Now()) {
		respond.Err(w, apperr.ErrOTPExpired)
		return
	}

	linked, err := h.Users.AddProvider(ctx, u.ID, models.Provider{
		ProviderID: req.ProviderID,
		Provider:   req.Provider,
	}, time.Now().UTC())
	if err != nil {
		h.Log.Error("link-accounts: add provider", zap.Error(err))
		respond.Err(w, err)
		return
	}
	if !linked {
		h.Log.Debug("link-accounts: provider already present",
			zap.String("user_id", u.ID.Hex()),
			zap.String("provider", req.Provider))
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email)
	if err != nil {
		h.Log.Error("link-accounts: issue token", zap.Error(err))
		respond.Err(w, err)
		return
	}

	// Refetch so the response reflects the provider list after the update.
	updated, err := h.Users.FindByIDHex(ctx, u.ID.Hex())
	if err != nil {
		h.Log.Error("link-accounts: reload user", zap.Error(err))
		respond.Err(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, msgOTPVerified, map[string]any{
		"user":  updated.Sanitized(),
		"token": map[string]string{"token": token},
	})
}

/* -------------------------------------------------------------------------- */
/* Frontend redirects                                                          */
/* -------------------------------------------------------------------------- */

// redirectWithToken sends the browser to the frontend's Google landing page
// with the token and sanitized user carried as base64 JSON query params.
func (h *Handler) redirectWithToken(w http.ResponseWriter, r *http.Request, u *models.User, token string) {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		h.Log.Error("encode token for redirect", zap.Error(err))
		h.redirectToFrontendLogin(w, r)
		return
	}
	userJSON, err := json.Marshal(u.Sanitized())
	if err != nil {
		h.Log.Error("encode user for redirect", zap.Error(err))
		h.redirectToFrontendLogin(w, r)
		return
	}

	dest := fmt.Sprintf("%s/login/google?token=%s&user=%s",
		h.FrontendURL,
		url.QueryEscape(base64.StdEncoding.EncodeToString(tokenJSON)),
		url.QueryEscape(base64.StdEncoding.EncodeToString(userJSON)))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// redirectToLinkAccount sends the browser to the frontend's linking prompt,
// carrying the email and provider identity as base64 query params.
func (h *Handler) redirectToLinkAccount(w http.ResponseWriter, r *http.Request, email, providerID, provider string) {
	enc := func(s string) string {
		return url.QueryEscape(base64.StdEncoding.EncodeToString([]byte(s)))
	}
	dest := fmt.Sprintf("%s/link-account?otp_token=%s&providerId=%s&provider=%s",
		h.FrontendURL, enc(email), enc(providerID), enc(provider))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) redirectToFrontendLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.FrontendURL+"/login", http.StatusSeeOther)
}

/* -------------------------------------------------------------------------- */
/* Helpers                                                                     */
/* -------------------------------------------------------------------------- */

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
