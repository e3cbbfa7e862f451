// internal/app/features/socialauth/routes.go
package socialauth

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /social-auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/google", h.ServeLogin)
	r.Get("/google/callback", h.ServeCallback)
	r.Post("/link-accounts", h.LinkAccounts)
	return r
}
