// internal/app/features/user/routes.go
package user

import "github.com/go-chi/chi/v5"

// Routes returns the router for /api/user. Mount behind RequireSignedIn.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/current", h.ServeCurrent)
	r.Put("/update", h.HandleUpdateProfile)
	return r
}
