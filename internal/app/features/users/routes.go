// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /user. Authentication middleware
// is applied at mount time.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetProfile)
	r.Put("/", h.UpdateProfile)
	r.Put("/password", h.UpdatePassword)
	r.Get("/{id}", h.GetByID)
	return r
}
