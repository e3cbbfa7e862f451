// internal/app/features/auth/routes.go
package auth

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/identify", h.Identify)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/verify-email", h.VerifyEmail)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/resend-otp", h.ResendOTP)
	r.Post("/reset-password", h.ResetPassword)
	return r
}
